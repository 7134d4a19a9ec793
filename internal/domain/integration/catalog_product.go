package integration

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// CatalogProduct is a marketplace catalog entry linked to one platform
// product. The pair (ConnectionID, PlatformProductID) is unique.
type CatalogProduct struct {
	ID                uuid.UUID
	ConnectionID      uuid.UUID
	MerchantID        string
	Platform          PlatformType
	PlatformProductID string
	Name              string
	Description       string
	SKU               string
	Price             Money
	Quantity          int64
	Images            []string
	Categories        []string
	Variants          []ProductVariant
	PlatformData      json.RawMessage
	LastSyncedAt      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewCatalogProduct creates a local catalog entry from a remote product
func NewCatalogProduct(conn *Connection, remote *PlatformProduct) (*CatalogProduct, error) {
	if remote == nil || remote.ID == "" {
		return nil, ErrInvalidProduct
	}
	now := time.Now()
	p := &CatalogProduct{
		ID:                uuid.New(),
		ConnectionID:      conn.ID,
		MerchantID:        conn.MerchantID,
		Platform:          conn.Platform,
		PlatformProductID: remote.ID,
		CreatedAt:         now,
	}
	p.ApplyRemote(remote)
	return p, nil
}

// ApplyRemote copies remote fields onto the local entry
func (p *CatalogProduct) ApplyRemote(remote *PlatformProduct) {
	now := time.Now()
	p.Name = remote.Name
	p.Description = remote.Description
	p.SKU = remote.SKU
	p.Price = remote.Price
	p.Quantity = remote.Quantity
	p.Images = slices.Clone(remote.Images)
	p.Categories = slices.Clone(remote.Categories)
	p.Variants = slices.Clone(remote.Variants)
	p.PlatformData = remote.PlatformData
	p.LastSyncedAt = now
	p.UpdatedAt = now
}

// NormalizedFields returns the fields compared during reconciliation
func (p *CatalogProduct) NormalizedFields() ComparableFields {
	return newComparableFields(p.Name, p.Description, p.Price, p.Quantity, p.Images)
}

// Matches reports whether the remote product carries no changes
func (p *CatalogProduct) Matches(remote *PlatformProduct) bool {
	return p.NormalizedFields().Equal(remote.NormalizedFields())
}
