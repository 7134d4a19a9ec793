package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// CredentialSealer encrypts credential documents at rest.
// *crypto.CredentialCipher satisfies it.
type CredentialSealer interface {
	Seal(plaintext, associatedData []byte) ([]byte, error)
	Open(sealed, associatedData []byte) ([]byte, error)
}

// GormConnectionRepository implements integration.ConnectionRepository using GORM.
// Credentials are sealed with the connection ID as associated data, so a
// ciphertext copied onto another row fails to open.
type GormConnectionRepository struct {
	db     *gorm.DB
	sealer CredentialSealer
}

var _ integration.ConnectionRepository = (*GormConnectionRepository)(nil)

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB, sealer CredentialSealer) *GormConnectionRepository {
	return &GormConnectionRepository{db: db, sealer: sealer}
}

// FindByID finds a connection by its ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &integration.CredentialsNotFoundError{ConnectionID: id}
		}
		return nil, err
	}
	return r.toDomain(&model)
}

// FindByMerchant finds the merchant's connection to a platform
func (r *GormConnectionRepository) FindByMerchant(ctx context.Context, merchantID string, platform integration.PlatformType) (*integration.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND platform = ?", merchantID, platform).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &integration.CredentialsNotFoundError{MerchantID: merchantID, Platform: platform}
		}
		return nil, err
	}
	return r.toDomain(&model)
}

// FindByIdentity finds the connection for a shop domain or store URL
func (r *GormConnectionRepository) FindByIdentity(ctx context.Context, platform integration.PlatformType, identity string) (*integration.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND identity = ?", platform, identity).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &integration.CredentialsNotFoundError{Platform: platform, Identity: identity}
		}
		return nil, err
	}
	return r.toDomain(&model)
}

// ListActiveIDs returns the IDs of active connections without opening their credentials
func (r *GormConnectionRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("status = ?", integration.ConnectionStatusActive).
		Order("created_at").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a connection, sealing its credentials
func (r *GormConnectionRepository) Save(ctx context.Context, conn *integration.Connection) error {
	plaintext, err := json.Marshal(conn.Credentials)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	sealed, err := r.sealer.Seal(plaintext, conn.ID[:])
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	var model models.ConnectionModel
	model.FromDomain(conn, sealed)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a connection
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &integration.CredentialsNotFoundError{ConnectionID: id}
	}
	return nil
}

func (r *GormConnectionRepository) toDomain(model *models.ConnectionModel) (*integration.Connection, error) {
	plaintext, err := r.sealer.Open(model.CredentialsCiphertext, model.ID[:])
	if err != nil {
		return nil, fmt.Errorf("open credentials for connection %s: %w", model.ID, err)
	}
	creds, err := integration.DecodeCredentials(model.Platform, plaintext)
	if err != nil {
		return nil, fmt.Errorf("decode credentials for connection %s: %w", model.ID, err)
	}
	return model.ToDomain(creds), nil
}
