package messaging

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// NSQ has no per-message properties, so headers travel in front of the body:
//
//	"NSQH" | version(1) | uint32 header length | JSON headers | body
var nsqFrameMagic = []byte("NSQH")

const (
	nsqFrameVersion   byte = 1
	nsqFramePrefixLen      = 4 + 1 + 4
	nsqFrameMaxHeader      = 64 << 10
)

var errNSQFrameTruncated = errors.New("messaging: nsq frame truncated")

type nsqFrameHeader struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

func encodeNSQFrame(headers []Header, body []byte) ([]byte, error) {
	if len(headers) == 0 {
		return body, nil
	}

	fh := make([]nsqFrameHeader, 0, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		fh = append(fh, nsqFrameHeader{Key: h.Key, Value: string(h.Value)})
	}

	raw, err := json.Marshal(fh)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq frame headers: %w", err)
	}
	if len(raw) > nsqFrameMaxHeader {
		return nil, fmt.Errorf("messaging: nsq frame headers too large (%d bytes)", len(raw))
	}

	buf := make([]byte, 0, nsqFramePrefixLen+len(raw)+len(body))
	buf = append(buf, nsqFrameMagic...)
	buf = append(buf, nsqFrameVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(raw)))
	buf = append(buf, raw...)
	buf = append(buf, body...)
	return buf, nil
}

// decodeNSQFrame splits a framed payload. Payloads without the magic prefix
// come from producers that do not frame and are returned untouched.
func decodeNSQFrame(payload []byte) ([]Header, []byte, error) {
	if len(payload) < nsqFramePrefixLen || !bytes.HasPrefix(payload, nsqFrameMagic) {
		return nil, payload, nil
	}
	if payload[4] != nsqFrameVersion {
		return nil, payload, nil
	}

	n := int(binary.BigEndian.Uint32(payload[5:nsqFramePrefixLen]))
	if n > nsqFrameMaxHeader || nsqFramePrefixLen+n > len(payload) {
		return nil, nil, errNSQFrameTruncated
	}

	var fh []nsqFrameHeader
	if err := json.Unmarshal(payload[nsqFramePrefixLen:nsqFramePrefixLen+n], &fh); err != nil {
		return nil, nil, fmt.Errorf("messaging: nsq frame headers: %w", err)
	}

	headers := make([]Header, 0, len(fh))
	for _, h := range fh {
		headers = append(headers, Header{Key: h.Key, Value: []byte(h.Value)})
	}

	return headers, payload[nsqFramePrefixLen+n:], nil
}
