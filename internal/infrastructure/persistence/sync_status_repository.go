package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormSyncStatusRepository implements integration.SyncStatusRepository.
// TryBegin is a single conditional UPDATE so two runs can never both claim
// the same connection, whichever process they run in.
type GormSyncStatusRepository struct {
	db *gorm.DB
}

var _ integration.SyncStatusRepository = (*GormSyncStatusRepository)(nil)

// NewGormSyncStatusRepository creates a new GormSyncStatusRepository
func NewGormSyncStatusRepository(db *gorm.DB) *GormSyncStatusRepository {
	return &GormSyncStatusRepository{db: db}
}

// Get returns the status record for a connection
func (r *GormSyncStatusRepository) Get(ctx context.Context, connectionID uuid.UUID) (*integration.SyncStatusRecord, error) {
	var model models.SyncStatusModel
	if err := r.db.WithContext(ctx).First(&model, "connection_id = ?", connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncStatusNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the record, reporting false if the connection already has one
func (r *GormSyncStatusRepository) Create(ctx context.Context, record *integration.SyncStatusRecord) (bool, error) {
	var model models.SyncStatusModel
	model.FromDomain(record)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "connection_id"}}, DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// TryBegin claims the connection if no run holds it or the holder went stale
func (r *GormSyncStatusRepository) TryBegin(ctx context.Context, record *integration.SyncStatusRecord, now, staleCutoff time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStatusModel{}).
		Where("connection_id = ? AND (status <> ? OR started_at IS NULL OR started_at < ?)",
			record.ConnectionID, integration.SyncStatusInProgress, staleCutoff).
		Updates(map[string]any{
			"status":     integration.SyncStatusInProgress,
			"started_at": now,
			"run_id":     runIDColumn(record.RunID),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Finish writes the outcome of run record.RunID and clears the claim. It
// returns ErrSyncSuperseded when the row is no longer held by that run.
func (r *GormSyncStatusRepository) Finish(ctx context.Context, record *integration.SyncStatusRecord) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStatusModel{}).
		Where("connection_id = ? AND status = ? AND run_id = ?",
			record.ConnectionID, integration.SyncStatusInProgress, runIDColumn(record.RunID)).
		Updates(map[string]any{
			"status":         record.Status,
			"started_at":     nil,
			"run_id":         nil,
			"last_synced_at": record.LastSyncedAt,
			"last_error":     record.LastError,
			"last_result":    models.EncodeSyncResult(record.LastResult),
			"updated_at":     record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, record.ConnectionID); err != nil {
			return err
		}
		return integration.ErrSyncSuperseded
	}
	return nil
}

func runIDColumn(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// MarkPending flags a resync unless a run is in progress
func (r *GormSyncStatusRepository) MarkPending(ctx context.Context, connectionID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStatusModel{}).
		Where("connection_id = ? AND status <> ?", connectionID, integration.SyncStatusInProgress).
		Updates(map[string]any{
			"status":     integration.SyncStatusPending,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
