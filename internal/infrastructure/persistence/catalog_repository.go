package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormCatalogRepository implements integration.CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

var _ integration.CatalogRepository = (*GormCatalogRepository)(nil)

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// ---------------------------------------------------------------------------
// CatalogReader implementation
// ---------------------------------------------------------------------------

// FindByPlatformIDs loads the linked products for one page of remote IDs
func (r *GormCatalogRepository) FindByPlatformIDs(ctx context.Context, connectionID uuid.UUID, platformIDs []string) (map[string]*integration.CatalogProduct, error) {
	result := make(map[string]*integration.CatalogProduct, len(platformIDs))
	if len(platformIDs) == 0 {
		return result, nil
	}

	var productModels []models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND platform_product_id IN ?", connectionID, platformIDs).
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	for i := range productModels {
		p := productModels[i].ToDomain()
		result[p.PlatformProductID] = p
	}
	return result, nil
}

// FindByPlatformID finds one linked product
func (r *GormCatalogRepository) FindByPlatformID(ctx context.Context, connectionID uuid.UUID, platformID string) (*integration.CatalogProduct, error) {
	var model models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND platform_product_id = ?", connectionID, platformID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListPlatformIDs returns every platform product ID linked to the connection
func (r *GormCatalogRepository) ListPlatformIDs(ctx context.Context, connectionID uuid.UUID) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.CatalogProductModel{}).
		Where("connection_id = ?", connectionID).
		Order("platform_product_id ASC").
		Pluck("platform_product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// CatalogWriter implementation
// ---------------------------------------------------------------------------

// Create inserts a new linked product
func (r *GormCatalogRepository) Create(ctx context.Context, product *integration.CatalogProduct) error {
	var model models.CatalogProductModel
	model.FromDomain(product)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update overwrites every mutable column of a linked product
func (r *GormCatalogRepository) Update(ctx context.Context, product *integration.CatalogProduct) error {
	var model models.CatalogProductModel
	model.FromDomain(product)
	result := r.db.WithContext(ctx).
		Model(&models.CatalogProductModel{}).
		Where("id = ?", product.ID).
		Select("*").
		Omit("id", "created_at", "connection_id", "platform_product_id").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrProductNotFound
	}
	return nil
}

// Delete removes the product linked to a platform ID
func (r *GormCatalogRepository) Delete(ctx context.Context, connectionID uuid.UUID, platformID string) error {
	result := r.db.WithContext(ctx).
		Where("connection_id = ? AND platform_product_id = ?", connectionID, platformID).
		Delete(&models.CatalogProductModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrProductNotFound
	}
	return nil
}

// CountByConnection returns how many products are linked to a connection
func (r *GormCatalogRepository) CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CatalogProductModel{}).
		Where("connection_id = ?", connectionID).
		Count(&count).Error
	return count, err
}
