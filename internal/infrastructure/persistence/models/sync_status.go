package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/integration"
)

// SyncStatusModel is the persistence model for integration.SyncStatusRecord.
// One row per connection; the conditional update on Status/StartedAt is the
// run gate and RunID fences the outcome write.
type SyncStatusModel struct {
	ConnectionID uuid.UUID                `gorm:"type:uuid;primary_key"`
	MerchantID   string                   `gorm:"type:varchar(100);not null;index"`
	Platform     integration.PlatformType `gorm:"type:varchar(20);not null"`
	Status       integration.SyncStatus   `gorm:"type:varchar(20);not null;default:'NEVER_SYNCED'"`
	StartedAt    *time.Time
	RunID        *uuid.UUID `gorm:"type:uuid"`
	LastSyncedAt *time.Time
	LastError    string    `gorm:"type:text"`
	LastResult   *string   `gorm:"type:jsonb"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncStatusModel) TableName() string {
	return "sync_status"
}

// ToDomain converts the model to a SyncStatusRecord
func (m *SyncStatusModel) ToDomain() *integration.SyncStatusRecord {
	record := &integration.SyncStatusRecord{
		ConnectionID: m.ConnectionID,
		MerchantID:   m.MerchantID,
		Platform:     m.Platform,
		Status:       m.Status,
		StartedAt:    m.StartedAt,
		LastSyncedAt: m.LastSyncedAt,
		LastError:    m.LastError,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.RunID != nil {
		record.RunID = *m.RunID
	}
	if m.LastResult != nil && *m.LastResult != "" {
		var result integration.SyncResult
		if err := json.Unmarshal([]byte(*m.LastResult), &result); err == nil {
			record.LastResult = &result
		}
	}
	return record
}

// FromDomain populates the model from a SyncStatusRecord
func (m *SyncStatusModel) FromDomain(r *integration.SyncStatusRecord) {
	m.ConnectionID = r.ConnectionID
	m.MerchantID = r.MerchantID
	m.Platform = r.Platform
	m.Status = r.Status
	m.StartedAt = r.StartedAt
	m.RunID = nil
	if r.RunID != uuid.Nil {
		runID := r.RunID
		m.RunID = &runID
	}
	m.LastSyncedAt = r.LastSyncedAt
	m.LastError = r.LastError
	m.LastResult = EncodeSyncResult(r.LastResult)
	m.UpdatedAt = r.UpdatedAt
}

// EncodeSyncResult renders a result for the last_result column
func EncodeSyncResult(result *integration.SyncResult) *string {
	if result == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
