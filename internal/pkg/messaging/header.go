package messaging

import (
	"strconv"
)

// Header keys written by Delivery.
const (
	HeaderRetry            = "x-retry"
	HeaderEnvelopeID       = "x-envelope-id"
	HeaderCorrelationID    = "cID"
	HeaderOriginalTopic    = "x-original-topic"
	HeaderDeadLetterReason = "x-dead-letter-reason"
	HeaderDeadLetteredAt   = "x-dead-lettered-at"
)

// HeaderValue returns the first value stored under key.
func HeaderValue(headers []Header, key string) (string, bool) {
	for i := range headers {
		if headers[i].Key == key {
			return string(headers[i].Value), true
		}
	}
	return "", false
}

// SetHeader returns headers with key set to value, replacing every existing entry for key.
func SetHeader(headers []Header, key, value string) []Header {
	out := make([]Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key == key {
			continue
		}
		out = append(out, h)
	}
	return append(out, Header{Key: key, Value: []byte(value)})
}

// RetryCount reads the retry counter from headers. Absent or malformed means zero.
func RetryCount(headers []Header) int {
	v, ok := HeaderValue(headers, HeaderRetry)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func headersToAttributes(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		if _, ok := attrs[h.Key]; ok {
			continue
		}
		attrs[h.Key] = string(h.Value)
	}
	return attrs
}

func attributesToHeaders(attrs map[string]string) []Header {
	if len(attrs) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(attrs))
	for k, v := range attrs {
		headers = append(headers, Header{Key: k, Value: []byte(v)})
	}
	return headers
}
