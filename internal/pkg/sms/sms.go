package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DriverSNS selects AWS SNS.
	DriverSNS = "sns"
	// DriverLog selects the log-only sender.
	DriverLog = "log"
)

var (
	// ErrRecipientRequired is returned when Message.To is empty.
	ErrRecipientRequired = errors.New("sms: recipient is required")
	// ErrBodyRequired is returned when Message.Body is empty.
	ErrBodyRequired = errors.New("sms: body is required")
	// ErrUnknownDriver indicates an unsupported sms driver.
	ErrUnknownDriver = errors.New("sms: unknown driver")
)

// SMS sends a single text message.
type SMS interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Message is one outbound text.
type Message struct {
	// To is the destination in E.164 form.
	To   string
	Body string
}

// Receipt identifies an accepted message at the provider.
type Receipt struct {
	MessageID string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrRecipientRequired
	}
	if m.Body == "" {
		return ErrBodyRequired
	}
	return nil
}

// Log writes messages to slog instead of sending them.
type Log struct{}

// NewLog returns a Log sender.
func NewLog() *Log {
	return &Log{}
}

func (*Log) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}
	slog.InfoContext(ctx, "sms not sent, log driver", "to", msg.To, "body", msg.Body)
	return Receipt{MessageID: "log"}, nil
}

// FactoryOptions groups config for supported sms drivers.
type FactoryOptions struct {
	SNS SNSOptions
}

// NewFromDriver constructs an SMS sender by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (SMS, error) {
	switch strings.TrimSpace(driver) {
	case DriverSNS:
		return NewSNS(ctx, opts.SNS)
	case DriverLog:
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
