package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// CategoryID is the identifier of an issue-pattern bucket (e.g. "processor_errors")
type CategoryID string

// Uncategorized is the pseudo category for cases that match no keyword set.
// It never counts toward article generation thresholds.
const Uncategorized CategoryID = "uncategorized"

var categoryIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks if the category ID has a valid format
func (c CategoryID) Validate() error {
	if c == "" {
		return goerr.New("category ID is required")
	}
	if !categoryIDPattern.MatchString(string(c)) {
		return goerr.New("category ID must be lowercase snake_case", goerr.V("id", string(c)))
	}
	return nil
}

// String returns the string representation of the category ID
func (c CategoryID) String() string {
	return string(c)
}
