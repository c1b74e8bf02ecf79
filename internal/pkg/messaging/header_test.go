package messaging

import "testing"

func TestRetryCount(t *testing.T) {
	tests := []struct {
		name    string
		headers []Header
		want    int
	}{
		{name: "absent", headers: nil, want: 0},
		{name: "set", headers: []Header{{Key: HeaderRetry, Value: []byte("2")}}, want: 2},
		{name: "malformed", headers: []Header{{Key: HeaderRetry, Value: []byte("two")}}, want: 0},
		{name: "negative", headers: []Header{{Key: HeaderRetry, Value: []byte("-1")}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryCount(tt.headers); got != tt.want {
				t.Fatalf("RetryCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetHeader_ReplacesAllEntries(t *testing.T) {
	in := []Header{
		{Key: HeaderRetry, Value: []byte("0")},
		{Key: "cID", Value: []byte("abc")},
		{Key: HeaderRetry, Value: []byte("0")},
	}

	out := SetHeader(in, HeaderRetry, "1")
	if len(out) != 2 {
		t.Fatalf("headers = %v", out)
	}
	if RetryCount(out) != 1 {
		t.Fatalf("RetryCount() = %d, want 1", RetryCount(out))
	}
	if RetryCount(in) != 0 {
		t.Fatal("SetHeader must not modify its input")
	}
}

func TestAttributes_RoundTrip(t *testing.T) {
	attrs := headersToAttributes([]Header{
		{Key: HeaderEnvelopeID, Value: []byte("env-1")},
		{Key: HeaderEnvelopeID, Value: []byte("ignored")},
		{Key: "", Value: []byte("dropped")},
	})
	if len(attrs) != 1 || attrs[HeaderEnvelopeID] != "env-1" {
		t.Fatalf("attrs = %v", attrs)
	}

	v, ok := HeaderValue(attributesToHeaders(attrs), HeaderEnvelopeID)
	if !ok || v != "env-1" {
		t.Fatalf("HeaderValue() = %q, %v", v, ok)
	}
}
