package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/sms"
)

type recordSMS struct {
	got []sms.Message
	err error
}

func (r *recordSMS) Send(_ context.Context, msg sms.Message) (sms.Receipt, error) {
	if r.err != nil {
		return sms.Receipt{}, r.err
	}
	r.got = append(r.got, msg)
	return sms.Receipt{MessageID: "m-1"}, nil
}

func TestNotify_SendSMS(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &recordSMS{}
		n := New(client, instrument.NewNoop())

		if err := n.SendSMS(context.Background(), "+14155550100", "code 123456"); err != nil {
			t.Fatalf("SendSMS() error = %v", err)
		}
		if len(client.got) != 1 || client.got[0].To != "+14155550100" || client.got[0].Body != "code 123456" {
			t.Fatalf("sent = %+v", client.got)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		wantErr := errors.New("throttled")
		n := New(&recordSMS{err: wantErr}, instrument.NewNoop())

		if err := n.SendSMS(context.Background(), "+14155550100", "x"); !errors.Is(err, wantErr) {
			t.Fatalf("SendSMS() error = %v, want %v", err, wantErr)
		}
	})
}
