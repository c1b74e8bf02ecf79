package messaging

import (
	"bytes"
	"errors"
	"testing"
)

func TestNSQFrame_RoundTrip(t *testing.T) {
	body := []byte(`{"user_id":1,"phone_number":"+14155550100"}`)
	headers := []Header{
		{Key: HeaderRetry, Value: []byte("1")},
		{Key: HeaderEnvelopeID, Value: []byte("0190b5d2-7c1e-7a55-9f0a-6a1f3f4c9d21")},
		{Key: "", Value: []byte("dropped")},
	}

	framed, err := encodeNSQFrame(headers, body)
	if err != nil {
		t.Fatalf("encodeNSQFrame() error = %v", err)
	}

	gotHeaders, gotBody, err := decodeNSQFrame(framed)
	if err != nil {
		t.Fatalf("decodeNSQFrame() error = %v", err)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body = %q, want %q", gotBody, body)
	}
	if len(gotHeaders) != 2 {
		t.Fatalf("headers = %v", gotHeaders)
	}
	if RetryCount(gotHeaders) != 1 {
		t.Fatalf("RetryCount() = %d", RetryCount(gotHeaders))
	}
}

func TestNSQFrame_NoHeadersIsRawBody(t *testing.T) {
	body := []byte("plain")

	framed, err := encodeNSQFrame(nil, body)
	if err != nil {
		t.Fatalf("encodeNSQFrame() error = %v", err)
	}
	if !bytes.Equal(framed, body) {
		t.Fatalf("framed = %q, want raw body", framed)
	}

	headers, got, err := decodeNSQFrame(framed)
	if err != nil || headers != nil || !bytes.Equal(got, body) {
		t.Fatalf("decodeNSQFrame() = %v, %q, %v", headers, got, err)
	}
}

func TestNSQFrame_Truncated(t *testing.T) {
	framed, err := encodeNSQFrame([]Header{{Key: HeaderRetry, Value: []byte("3")}}, []byte("x"))
	if err != nil {
		t.Fatalf("encodeNSQFrame() error = %v", err)
	}

	_, _, err = decodeNSQFrame(framed[:nsqFramePrefixLen+2])
	if !errors.Is(err, errNSQFrameTruncated) {
		t.Fatalf("error = %v, want %v", err, errNSQFrameTruncated)
	}
}
