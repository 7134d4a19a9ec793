package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents where a connection is in its sync lifecycle
type SyncStatus string

const (
	// SyncStatusNeverSynced is the state of a new connection
	SyncStatusNeverSynced SyncStatus = "NEVER_SYNCED"
	// SyncStatusPending indicates a resync is due, e.g. after reauthorization
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusInProgress indicates a run holds the connection
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	// SyncStatusCompleted indicates the last run finished without failures
	SyncStatusCompleted SyncStatus = "COMPLETED"
	// SyncStatusFailed indicates the last run had failures or was aborted
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNeverSynced, SyncStatusPending, SyncStatusInProgress,
		SyncStatusCompleted, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// IsFinal returns true if the status records the outcome of a finished run
func (s SyncStatus) IsFinal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// ---------------------------------------------------------------------------
// SyncStatusRecord
// ---------------------------------------------------------------------------

// SyncStatusRecord is the per-connection sync lifecycle record
type SyncStatusRecord struct {
	ConnectionID uuid.UUID
	MerchantID   string
	Platform     PlatformType
	Status       SyncStatus
	StartedAt    *time.Time
	// RunID identifies the run holding an IN_PROGRESS claim. Only that run
	// may write the outcome.
	RunID        uuid.UUID
	LastSyncedAt *time.Time
	LastError    string
	LastResult   *SyncResult
	UpdatedAt    time.Time
}

// NewSyncStatusRecord creates the NEVER_SYNCED record for a new connection
func NewSyncStatusRecord(conn *Connection) *SyncStatusRecord {
	return &SyncStatusRecord{
		ConnectionID: conn.ID,
		MerchantID:   conn.MerchantID,
		Platform:     conn.Platform,
		Status:       SyncStatusNeverSynced,
		UpdatedAt:    time.Now(),
	}
}

// IsStale reports whether an in-progress claim started before the cutoff and
// can be taken over by a new run
func (r *SyncStatusRecord) IsStale(cutoff time.Time) bool {
	return r.Status == SyncStatusInProgress && r.StartedAt != nil && r.StartedAt.Before(cutoff)
}

// CanBegin reports whether a new run may claim the record
func (r *SyncStatusRecord) CanBegin(staleCutoff time.Time) bool {
	return r.Status != SyncStatusInProgress || r.IsStale(staleCutoff)
}

// Begin claims the record for the run identified by runID
func (r *SyncStatusRecord) Begin(runID uuid.UUID, now, staleCutoff time.Time) error {
	if !r.CanBegin(staleCutoff) {
		return &ConcurrentSyncError{ConnectionID: r.ConnectionID, StartedAt: r.StartedAt}
	}
	started := now
	r.Status = SyncStatusInProgress
	r.RunID = runID
	r.StartedAt = &started
	r.UpdatedAt = now
	return nil
}

// Complete records the outcome of a run and releases the claim. RunID is
// kept so the write can be fenced on it.
func (r *SyncStatusRecord) Complete(result SyncResult, now time.Time) {
	synced := now
	r.Status = result.Status()
	r.LastSyncedAt = &synced
	r.StartedAt = nil
	r.LastResult = &result
	r.LastError = ""
	if r.Status == SyncStatusFailed && len(result.Errors) > 0 {
		r.LastError = result.Errors[len(result.Errors)-1]
	}
	r.UpdatedAt = now
}

// Fail records a run that ended on an error before producing a result
func (r *SyncStatusRecord) Fail(cause error, now time.Time) {
	synced := now
	r.Status = SyncStatusFailed
	r.LastSyncedAt = &synced
	r.StartedAt = nil
	if cause != nil {
		r.LastError = cause.Error()
	}
	r.UpdatedAt = now
}

// MarkPending flags the connection for a resync. A running sync is left alone.
func (r *SyncStatusRecord) MarkPending(now time.Time) bool {
	if r.Status == SyncStatusInProgress {
		return false
	}
	r.Status = SyncStatusPending
	r.UpdatedAt = now
	return true
}
