package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock in UTC. OTP expiry, audit rows and
// archive keys are all compared and stored in UTC.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}

// Func adapts a function to Clocker.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
