package types

// SyncState represents the current stage of the sync pipeline
type SyncState string

const (
	SyncStateIdle         SyncState = "IDLE"
	SyncStateFetching     SyncState = "FETCHING"
	SyncStateCategorizing SyncState = "CATEGORIZING"
	SyncStateGenerating   SyncState = "GENERATING"
	SyncStateVectorizing  SyncState = "VECTORIZING"
	SyncStateError        SyncState = "ERROR"
)

// String returns the string representation of the sync state
func (s SyncState) String() string {
	return string(s)
}

// IsActive reports whether a pipeline run is in progress
func (s SyncState) IsActive() bool {
	switch s {
	case SyncStateFetching, SyncStateCategorizing, SyncStateGenerating, SyncStateVectorizing:
		return true
	default:
		return false
	}
}
