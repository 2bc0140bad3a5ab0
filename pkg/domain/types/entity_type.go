package types

import "fmt"

// EntityType distinguishes vector records by the entity they were built from
type EntityType string

const (
	EntityTypeCase    EntityType = "case"
	EntityTypeArticle EntityType = "article"
)

// IsValid checks if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCase, EntityTypeArticle:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity type
func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType parses a string into an EntityType
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid entity type: %s", s)
	}
	return t, nil
}
