package mail

import (
	"context"
	"io"
)

// Message is a plain-text email.
type Message struct {
	// From overrides the configured sender.
	From    string
	To      []string
	Subject string
	Body    string
}

// Mail sends email.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
