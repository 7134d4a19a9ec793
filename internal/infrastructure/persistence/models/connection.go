package models

import (
	"github.com/marketplace/backend/internal/domain/integration"
)

// ConnectionModel is the persistence model for integration.Connection.
// Credentials are stored only as sealed ciphertext; Identity is the
// normalized shop domain or store URL used to route webhooks.
type ConnectionModel struct {
	BaseModel
	MerchantID            string                       `gorm:"type:varchar(100);not null;uniqueIndex:idx_connections_merchant_platform,priority:1"`
	Platform              integration.PlatformType     `gorm:"type:varchar(20);not null;uniqueIndex:idx_connections_merchant_platform,priority:2;uniqueIndex:idx_connections_platform_identity,priority:1"`
	Identity              string                       `gorm:"type:varchar(255);not null;uniqueIndex:idx_connections_platform_identity,priority:2"`
	CredentialsCiphertext []byte                       `gorm:"type:bytea;not null"`
	Status                integration.ConnectionStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "integration_connections"
}

// ToDomain converts the model to a Connection with the given decoded credentials
func (m *ConnectionModel) ToDomain(creds integration.PlatformCredentials) *integration.Connection {
	return &integration.Connection{
		ID:          m.ID,
		MerchantID:  m.MerchantID,
		Platform:    m.Platform,
		Credentials: creds,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the model from a Connection and its sealed credentials
func (m *ConnectionModel) FromDomain(c *integration.Connection, sealed []byte) {
	m.ID = c.ID
	m.MerchantID = c.MerchantID
	m.Platform = c.Platform
	m.Identity = c.Identity()
	m.CredentialsCiphertext = sealed
	m.Status = c.Status
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
