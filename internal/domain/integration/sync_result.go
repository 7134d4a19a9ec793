package integration

import "slices"

// SyncResult summarizes one reconciliation run.
// Success is true exactly when Failed is zero. Added+Updated+Failed need not
// equal the number of items processed since unchanged items are Skipped.
type SyncResult struct {
	Success bool     `json:"success"`
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Aborted bool     `json:"aborted,omitempty"`
	Errors  []string `json:"errors"`
}

// Processed returns the number of items that were looked at
func (r SyncResult) Processed() int {
	return r.Added + r.Updated + r.Failed + r.Skipped
}

// Status returns the tracker status this result should be recorded as
func (r SyncResult) Status() SyncStatus {
	if r.Success && !r.Aborted {
		return SyncStatusCompleted
	}
	return SyncStatusFailed
}

// SyncResultBuilder accumulates counts during a run.
// It is owned by a single run and is not safe for concurrent use.
type SyncResultBuilder struct {
	added, updated, failed, skipped int
	aborted                         bool
	errors                          []string
}

// NewSyncResultBuilder creates an empty builder
func NewSyncResultBuilder() *SyncResultBuilder {
	return &SyncResultBuilder{errors: make([]string, 0)}
}

// RecordCreate counts a created item
func (b *SyncResultBuilder) RecordCreate() { b.added++ }

// RecordUpdate counts an updated item
func (b *SyncResultBuilder) RecordUpdate() { b.updated++ }

// RecordSkip counts an unchanged item
func (b *SyncResultBuilder) RecordSkip() { b.skipped++ }

// RecordFailure counts a failed item and keeps its message
func (b *SyncResultBuilder) RecordFailure(err error) {
	b.failed++
	if err != nil {
		b.errors = append(b.errors, err.Error())
	}
}

// Abort marks the run as cut short. It adds the reason to Errors without
// counting an item failure.
func (b *SyncResultBuilder) Abort(reason string) {
	b.aborted = true
	if reason != "" {
		b.errors = append(b.errors, reason)
	}
}

// Aborted returns true if Abort has been called
func (b *SyncResultBuilder) Aborted() bool { return b.aborted }

// Build returns an immutable snapshot
func (b *SyncResultBuilder) Build() SyncResult {
	return SyncResult{
		Success: b.failed == 0,
		Added:   b.added,
		Updated: b.updated,
		Failed:  b.failed,
		Skipped: b.skipped,
		Aborted: b.aborted,
		Errors:  slices.Clone(b.errors),
	}
}
