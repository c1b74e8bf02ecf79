package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
//
// For example, not all brokers support delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	// Publish sends a message to the topic and waits for the broker to accept it.
	Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a topic.
type Consumer interface {
	// Consume blocks, feeding messages from the topic to handler until ctx is done.
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
//
// With manual acknowledgement (the default) the handler owns Ack/Nack. With
// WithAutoAck the driver acks on nil and nacks on error.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers is the per-message property bag. Brokers without native headers
	// carry them in a frame (NSQ) or as string attributes (Pub/Sub).
	Headers []Header

	// Delay asks for deferred delivery. Drivers that cannot delay return ErrUnsupported.
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID, when the broker returns one.
	MessageID string
	// Topic is the topic used for publishing.
	Topic string
	// Timestamp is when the broker accepted the message.
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Key returns the message key, if any.
	Key() []byte
	// Headers returns message headers.
	Headers() []Header
	// ID returns the broker message ID.
	ID() string
	// Topic returns the topic the message was received from.
	Topic() string
	// Timestamp returns the broker timestamp.
	Timestamp() time.Time

	// Ack acknowledges successful processing (finish/commit/ack).
	Ack(ctx context.Context) error
}

// Nackable can request a message redelivery from the broker.
type Nackable interface {
	Nack(ctx context.Context) error
}
