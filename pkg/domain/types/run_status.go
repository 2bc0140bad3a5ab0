package types

import "fmt"

// RunStatus represents the outcome of a single sync run
type RunStatus string

const (
	// RunStatusSuccess means every fetched case was processed and the cursor advanced
	RunStatusSuccess RunStatus = "SUCCESS"

	// RunStatusPartial means some cases were processed but the batch failed
	// before commit; the cursor did not advance
	RunStatusPartial RunStatus = "PARTIAL"

	// RunStatusFailed means the run aborted before processing any case
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusBusy means the run was rejected because another run was active
	RunStatusBusy RunStatus = "BUSY"
)

// IsValid checks if the run status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailed, RunStatusBusy:
		return true
	default:
		return false
	}
}

// String returns the string representation of the run status
func (s RunStatus) String() string {
	return string(s)
}

// ParseRunStatus parses a string into a RunStatus
func ParseRunStatus(s string) (RunStatus, error) {
	status := RunStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid run status: %s", s)
	}
	return status, nil
}
