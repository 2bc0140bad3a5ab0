package types

// VectorStatus tracks whether a knowledge article's embedding is in the index
type VectorStatus string

const (
	// VectorStatusPending means the article has not been embedded yet
	VectorStatusPending VectorStatus = "PENDING"

	// VectorStatusVectorized means the article embedding is stored in the index
	VectorStatusVectorized VectorStatus = "VECTORIZED"

	// VectorStatusStale means the category composition changed significantly
	// after the article was generated
	VectorStatusStale VectorStatus = "STALE"
)

// IsValid checks if the vector status is valid
func (s VectorStatus) IsValid() bool {
	switch s {
	case VectorStatusPending, VectorStatusVectorized, VectorStatusStale:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as VectorStatusPending.
func (s VectorStatus) Normalize() VectorStatus {
	if s == "" {
		return VectorStatusPending
	}
	return s
}

// String returns the string representation of the vector status
func (s VectorStatus) String() string {
	return string(s)
}
