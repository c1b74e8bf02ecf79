// Package uid generates identifiers: UUID v7 strings for envelopes and
// correlation ids, and snowflake numbers for database rows.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
