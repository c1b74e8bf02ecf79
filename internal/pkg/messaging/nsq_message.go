package messaging

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

type nsqMessage struct {
	topic   string
	msg     *nsq.Message
	headers []Header
	body    []byte

	responded atomic.Bool
}

func newNSQMessage(topic string, msg *nsq.Message, headers []Header, body []byte) *nsqMessage {
	return &nsqMessage{topic: topic, msg: msg, headers: headers, body: body}
}

func (m *nsqMessage) hasResponded() bool { return m.responded.Load() }

func (m *nsqMessage) Body() []byte      { return m.body }
func (m *nsqMessage) Key() []byte       { return nil }
func (m *nsqMessage) Headers() []Header { return m.headers }
func (m *nsqMessage) ID() string        { return fmt.Sprintf("%x", m.msg.ID) }
func (m *nsqMessage) Topic() string     { return m.topic }

func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Finish()
	return nil
}

// Nack requeues with the consumer's default backoff.
func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Requeue(-1)
	return nil
}
