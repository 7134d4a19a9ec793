package handler

import (
	"time"

	"github.com/marketplace/backend/internal/domain/integration"
)

// TriggerSyncRequest names the connection to sync, either directly or by
// merchant and platform
// @Description Sync trigger
type TriggerSyncRequest struct {
	ConnectionID string `json:"connection_id,omitempty" binding:"omitempty,uuid" example:"2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e"`
	MerchantID   string `json:"merchant_id,omitempty" binding:"omitempty,max=64" example:"merchant-42"`
	Platform     string `json:"platform,omitempty" binding:"required_without=ConnectionID" example:"shopify"`
}

// SweepRequest configures a deletion sweep
// @Description Deletion sweep options
type SweepRequest struct {
	// ConfirmEmptyRemote allows deleting every linked product when the
	// platform reports an empty catalog
	ConfirmEmptyRemote bool `json:"confirm_empty_remote" example:"false"`
}

// SyncInProgressResponse is returned when another run holds the connection
// @Description Sync already running
type SyncInProgressResponse struct {
	Status string `json:"status" example:"in_progress"`
}

// SyncStatusResponse is the per-connection sync record
// @Description Sync status
type SyncStatusResponse struct {
	ConnectionID string                  `json:"connection_id"`
	Platform     string                  `json:"platform" example:"SHOPIFY"`
	Status       string                  `json:"status" example:"COMPLETED"`
	LastSyncedAt *time.Time              `json:"last_synced_at"`
	StartedAt    *time.Time              `json:"started_at,omitempty"`
	LastError    string                  `json:"last_error,omitempty"`
	LastResult   *integration.SyncResult `json:"last_result,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// ToSyncStatusResponse converts a status record
func ToSyncStatusResponse(r *integration.SyncStatusRecord) SyncStatusResponse {
	return SyncStatusResponse{
		ConnectionID: r.ConnectionID.String(),
		Platform:     r.Platform.String(),
		Status:       r.Status.String(),
		LastSyncedAt: r.LastSyncedAt,
		StartedAt:    r.StartedAt,
		LastError:    r.LastError,
		LastResult:   r.LastResult,
		UpdatedAt:    r.UpdatedAt,
	}
}
