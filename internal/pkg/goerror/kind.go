package goerror

// Kind is the failure category callers branch on.
type Kind int

const (
	// KindUnknown is reported for errors that were not created by this package.
	KindUnknown Kind = iota
	// KindInternal is an unexpected server-side failure.
	KindInternal
	// KindInvalidIdentity is a malformed phone number.
	KindInvalidIdentity
	// KindMissingFields is a required argument that is absent or invalid.
	KindMissingFields
	// KindRateLimited means the issuance threshold was exceeded within the window.
	KindRateLimited
	// KindExpired means there is no live code for the identity.
	KindExpired
	// KindInvalid is a code mismatch.
	KindInvalid
	// KindDeliveryFailed means the store or the notification transport is unavailable.
	KindDeliveryFailed
	// KindPublishFailed means the broker rejected or timed out a publish.
	KindPublishFailed
	// KindDeliveryExhausted marks an envelope that ran out of retries.
	KindDeliveryExhausted
	// KindConflict means the resource already exists.
	KindConflict
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "ERROR_KIND_INTERNAL"
	case KindInvalidIdentity:
		return "ERROR_KIND_INVALID_IDENTITY"
	case KindMissingFields:
		return "ERROR_KIND_MISSING_FIELDS"
	case KindRateLimited:
		return "ERROR_KIND_RATE_LIMITED"
	case KindExpired:
		return "ERROR_KIND_EXPIRED"
	case KindInvalid:
		return "ERROR_KIND_INVALID"
	case KindDeliveryFailed:
		return "ERROR_KIND_DELIVERY_FAILED"
	case KindPublishFailed:
		return "ERROR_KIND_PUBLISH_FAILED"
	case KindDeliveryExhausted:
		return "ERROR_KIND_DELIVERY_EXHAUSTED"
	case KindConflict:
		return "ERROR_KIND_CONFLICT"
	default:
		return "ERROR_KIND_UNKNOWN"
	}
}

func (k Kind) defaultType() Type {
	switch k {
	case KindInvalidIdentity, KindMissingFields:
		return TypeValidation
	case KindRateLimited, KindExpired, KindInvalid, KindConflict:
		return TypeBusiness
	default:
		return TypeServer
	}
}
