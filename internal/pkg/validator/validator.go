package validator

// Validator validates structs using their `validate` tags.
type Validator interface {
	Validate(data any) error
}

// IsPhone reports whether s is an E.164 phone number, the same rule as the
// `phone` tag.
func IsPhone(s string) bool {
	return rePhone.MatchString(s)
}
