package entity

import "time"

// Envelope is the archived form of a dead-lettered message.
type Envelope struct {
	EnvelopeID      string            `json:"envelope_id"`
	OriginalTopic   string            `json:"original_topic"`
	DeadLetterTopic string            `json:"dead_letter_topic"`
	Reason          string            `json:"reason,omitempty"`
	RetryCount      int               `json:"retry_count"`
	DeadLetteredAt  time.Time         `json:"dead_lettered_at,omitzero"`
	ArchivedAt      time.Time         `json:"archived_at"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            []byte            `json:"body"`
}

// ArchivedItem is one listed archive object.
type ArchivedItem struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}
