package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
)

// SyncStatusTracker owns the per-connection sync lifecycle and is the only
// concurrency gate for runs: BeginSync is an atomic check-and-set in the
// database, so it holds across processes.
type SyncStatusTracker struct {
	statuses    integration.SyncStatusRepository
	connections integration.ConnectionRepository
	staleAfter  time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewSyncStatusTracker creates a tracker. A claim older than staleAfter is
// treated as abandoned and may be taken over.
func NewSyncStatusTracker(
	statuses integration.SyncStatusRepository,
	connections integration.ConnectionRepository,
	staleAfter time.Duration,
	logger *zap.Logger,
) *SyncStatusTracker {
	return &SyncStatusTracker{
		statuses:    statuses,
		connections: connections,
		staleAfter:  staleAfter,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// Initialize creates the NEVER_SYNCED record for a new connection.
// An existing record is left untouched.
func (t *SyncStatusTracker) Initialize(ctx context.Context, conn *integration.Connection) error {
	_, err := t.statuses.Create(ctx, integration.NewSyncStatusRecord(conn))
	return err
}

// BeginSync claims the connection for a run and returns the run ID that
// fences the claim. It returns *ConcurrentSyncError when another run holds a
// fresh claim.
func (t *SyncStatusTracker) BeginSync(ctx context.Context, connectionID uuid.UUID) (uuid.UUID, error) {
	runID := uuid.New()
	now := t.now()
	cutoff := now.Add(-t.staleAfter)

	record, err := t.statuses.Get(ctx, connectionID)
	switch {
	case errors.Is(err, integration.ErrSyncStatusNotFound):
		created, err := t.createInProgress(ctx, connectionID, runID, now, cutoff)
		if err != nil {
			return uuid.Nil, err
		}
		if created {
			return runID, nil
		}
		// lost the insert race; the row exists now
		if record, err = t.statuses.Get(ctx, connectionID); err != nil {
			return uuid.Nil, err
		}
	case err != nil:
		return uuid.Nil, err
	}

	claim := *record
	claim.RunID = runID
	claimed, err := t.statuses.TryBegin(ctx, &claim, now, cutoff)
	if err != nil {
		return uuid.Nil, err
	}
	if !claimed {
		return uuid.Nil, &integration.ConcurrentSyncError{ConnectionID: connectionID, StartedAt: record.StartedAt}
	}
	if record.IsStale(cutoff) {
		t.logger.Warn("Took over stale sync claim",
			zap.String("connection_id", connectionID.String()),
			zap.String("run_id", runID.String()),
			zap.String("previous_run_id", record.RunID.String()),
			zap.Timep("previous_started_at", record.StartedAt),
			zap.Duration("stale_after", t.staleAfter),
		)
	}
	return runID, nil
}

func (t *SyncStatusTracker) createInProgress(ctx context.Context, connectionID, runID uuid.UUID, now, cutoff time.Time) (bool, error) {
	conn, err := t.connections.FindByID(ctx, connectionID)
	if err != nil {
		return false, err
	}
	record := integration.NewSyncStatusRecord(conn)
	if err := record.Begin(runID, now, cutoff); err != nil {
		return false, err
	}
	return t.statuses.Create(ctx, record)
}

// CompleteSync records the result of run runID and releases the claim.
// The status is COMPLETED only for a successful run that was not aborted.
// A run whose claim was taken over gets ErrSyncSuperseded and writes nothing.
func (t *SyncStatusTracker) CompleteSync(ctx context.Context, connectionID, runID uuid.UUID, result integration.SyncResult) error {
	return t.finish(ctx, connectionID, runID, func(record *integration.SyncStatusRecord, now time.Time) {
		record.Complete(result, now)
	})
}

// FailSync records run runID as ended on an error and releases the claim
func (t *SyncStatusTracker) FailSync(ctx context.Context, connectionID, runID uuid.UUID, cause error) error {
	return t.finish(ctx, connectionID, runID, func(record *integration.SyncStatusRecord, now time.Time) {
		record.Fail(cause, now)
	})
}

func (t *SyncStatusTracker) finish(
	ctx context.Context,
	connectionID, runID uuid.UUID,
	apply func(*integration.SyncStatusRecord, time.Time),
) error {
	record, err := t.statuses.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	holder := record.RunID
	record.RunID = runID
	apply(record, t.now())

	err = t.statuses.Finish(ctx, record)
	if errors.Is(err, integration.ErrSyncSuperseded) {
		t.logger.Warn("Sync run superseded, outcome discarded",
			zap.String("connection_id", connectionID.String()),
			zap.String("run_id", runID.String()),
			zap.String("holder_run_id", holder.String()),
			zap.String("status", string(record.Status)),
		)
	}
	return err
}

// GetStatus returns the record for a connection. An unknown connection is
// *CredentialsNotFoundError; a known one without a record reads as NEVER_SYNCED.
func (t *SyncStatusTracker) GetStatus(ctx context.Context, connectionID uuid.UUID) (*integration.SyncStatusRecord, error) {
	conn, err := t.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	record, err := t.statuses.Get(ctx, connectionID)
	if errors.Is(err, integration.ErrSyncStatusNotFound) {
		return integration.NewSyncStatusRecord(conn), nil
	}
	return record, err
}

// MarkPending flags a resync, e.g. after reauthorization. A running sync is
// never overridden; the return value reports whether the flag was set.
func (t *SyncStatusTracker) MarkPending(ctx context.Context, connectionID uuid.UUID) (bool, error) {
	now := t.now()
	marked, err := t.statuses.MarkPending(ctx, connectionID, now)
	if err != nil || marked {
		return marked, err
	}

	if _, err := t.statuses.Get(ctx, connectionID); !errors.Is(err, integration.ErrSyncStatusNotFound) {
		return false, err
	}
	conn, err := t.connections.FindByID(ctx, connectionID)
	if err != nil {
		return false, err
	}
	record := integration.NewSyncStatusRecord(conn)
	record.MarkPending(now)
	return t.statuses.Create(ctx, record)
}
