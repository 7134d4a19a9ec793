package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements integration.OrderWriter over the
// platform_orders ledger
type GormOrderRepository struct {
	db *gorm.DB
}

var _ integration.OrderWriter = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Upsert inserts the order or refreshes the existing ledger row
func (r *GormOrderRepository) Upsert(ctx context.Context, conn *integration.Connection, order *integration.PlatformOrder) (bool, error) {
	if err := order.Validate(); err != nil {
		return false, err
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.PlatformOrderModel
		err := tx.Where("connection_id = ? AND platform_order_id = ?", conn.ID, order.ID).First(&model).Error
		now := time.Now()
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			model.ID = uuid.New()
			model.CreatedAt = now
			model.UpdatedAt = now
			model.ApplyOrder(conn, order)
			created = true
			return tx.Create(&model).Error
		case err != nil:
			return err
		default:
			model.ApplyOrder(conn, order)
			model.UpdatedAt = now
			return tx.Save(&model).Error
		}
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// FindByPlatformID returns one ledger entry
func (r *GormOrderRepository) FindByPlatformID(ctx context.Context, connectionID uuid.UUID, platformOrderID string) (*integration.PlatformOrder, error) {
	var model models.PlatformOrderModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND platform_order_id = ?", connectionID, platformOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
