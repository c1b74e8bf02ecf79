package uid

import "github.com/google/uuid"

// UUID generates version 7 UUIDs. They sort by creation time, which keeps
// envelope ids and archive keys roughly chronological.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random v4 UUID if the v7 clock sequence fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
