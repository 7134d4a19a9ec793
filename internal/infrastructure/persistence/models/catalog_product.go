package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/integration"
)

// CatalogProductModel is the persistence model for integration.CatalogProduct.
// (connection_id, platform_product_id) is unique so a remote product links to
// at most one local entry.
type CatalogProductModel struct {
	BaseModel
	ConnectionID      uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_products_connection_platform_id,priority:1"`
	PlatformProductID string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_catalog_products_connection_platform_id,priority:2"`
	MerchantID        string                   `gorm:"type:varchar(100);not null;index"`
	Platform          integration.PlatformType `gorm:"type:varchar(20);not null"`
	Name              string                   `gorm:"type:varchar(500);not null"`
	Description       string                   `gorm:"type:text"`
	SKU               string                   `gorm:"type:varchar(100);index"`
	PriceAmount       int64                    `gorm:"not null;default:0"`
	Currency          string                   `gorm:"type:varchar(3)"`
	Quantity          int64                    `gorm:"not null;default:0"`
	Images            string                   `gorm:"type:jsonb"`
	Categories        string                   `gorm:"type:jsonb"`
	Variants          string                   `gorm:"type:jsonb"`
	PlatformData      *string                  `gorm:"type:jsonb"`
	LastSyncedAt      time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the model to a CatalogProduct
func (m *CatalogProductModel) ToDomain() *integration.CatalogProduct {
	return &integration.CatalogProduct{
		ID:                m.ID,
		ConnectionID:      m.ConnectionID,
		MerchantID:        m.MerchantID,
		Platform:          m.Platform,
		PlatformProductID: m.PlatformProductID,
		Name:              m.Name,
		Description:       m.Description,
		SKU:               m.SKU,
		Price:             integration.Money{Amount: m.PriceAmount, Currency: m.Currency},
		Quantity:          m.Quantity,
		Images:            unmarshalJSONColumn[string](m.Images),
		Categories:        unmarshalJSONColumn[string](m.Categories),
		Variants:          unmarshalJSONColumn[integration.ProductVariant](m.Variants),
		PlatformData:      rawJSON(m.PlatformData),
		LastSyncedAt:      m.LastSyncedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the model from a CatalogProduct
func (m *CatalogProductModel) FromDomain(p *integration.CatalogProduct) {
	m.ID = p.ID
	m.ConnectionID = p.ConnectionID
	m.MerchantID = p.MerchantID
	m.Platform = p.Platform
	m.PlatformProductID = p.PlatformProductID
	m.Name = p.Name
	m.Description = p.Description
	m.SKU = p.SKU
	m.PriceAmount = p.Price.Amount
	m.Currency = p.Price.Currency
	m.Quantity = p.Quantity
	m.Images = marshalJSONColumn(p.Images)
	m.Categories = marshalJSONColumn(p.Categories)
	m.Variants = marshalJSONColumn(p.Variants)
	m.PlatformData = nullableJSON(p.PlatformData)
	m.LastSyncedAt = p.LastSyncedAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}
