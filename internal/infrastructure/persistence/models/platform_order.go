package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/integration"
)

// PlatformOrderModel is one row of the imported order ledger
type PlatformOrderModel struct {
	BaseModel
	ConnectionID    uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_platform_orders_connection_order,priority:1"`
	PlatformOrderID string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_platform_orders_connection_order,priority:2"`
	MerchantID      string                   `gorm:"type:varchar(100);not null;index"`
	Platform        integration.PlatformType `gorm:"type:varchar(20);not null"`
	OrderNumber     string                   `gorm:"type:varchar(50)"`
	Email           string                   `gorm:"type:varchar(255)"`
	TotalAmount     int64                    `gorm:"not null;default:0"`
	Currency        string                   `gorm:"type:varchar(3)"`
	FinancialStatus string                   `gorm:"type:varchar(50)"`
	LineItems       string                   `gorm:"type:jsonb"`
	PlatformData    *string                  `gorm:"type:jsonb"`
	OrderedAt       time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PlatformOrderModel) TableName() string {
	return "platform_orders"
}

// ToDomain converts the model to a PlatformOrder
func (m *PlatformOrderModel) ToDomain() *integration.PlatformOrder {
	return &integration.PlatformOrder{
		ID:              m.PlatformOrderID,
		Number:          m.OrderNumber,
		Email:           m.Email,
		Total:           integration.Money{Amount: m.TotalAmount, Currency: m.Currency},
		FinancialStatus: m.FinancialStatus,
		Platform:        m.Platform,
		LineItems:       unmarshalJSONColumn[integration.OrderLineItem](m.LineItems),
		CreatedAt:       m.OrderedAt,
		PlatformData:    rawJSON(m.PlatformData),
	}
}

// ApplyOrder copies the order fields onto the ledger row
func (m *PlatformOrderModel) ApplyOrder(conn *integration.Connection, o *integration.PlatformOrder) {
	m.ConnectionID = conn.ID
	m.MerchantID = conn.MerchantID
	m.Platform = conn.Platform
	m.PlatformOrderID = o.ID
	m.OrderNumber = o.Number
	m.Email = o.Email
	m.TotalAmount = o.Total.Amount
	m.Currency = o.Total.Currency
	m.FinancialStatus = o.FinancialStatus
	m.LineItems = marshalJSONColumn(o.LineItems)
	m.PlatformData = nullableJSON(o.PlatformData)
	m.OrderedAt = o.CreatedAt
}
