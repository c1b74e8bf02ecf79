package event

import "time"

// UserRegisteredDestination is the topic the users module publishes to after a
// user row is created.
const UserRegisteredDestination string = "user_registered"

// UserRegisteredConsumerOnboarding starts the phone verification for a new user.
const UserRegisteredConsumerOnboarding string = "user_registered_onboarding"

type UserRegisteredMessage struct {
	UserID       int64     `json:"user_id,string"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
