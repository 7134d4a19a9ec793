package integration

import (
	"encoding/json"
	"time"
)

// PlatformOrder is an order imported from a platform
type PlatformOrder struct {
	ID              string          `json:"id"`
	Number          string          `json:"number,omitempty"`
	Email           string          `json:"email,omitempty"`
	Total           Money           `json:"total"`
	FinancialStatus string          `json:"financial_status,omitempty"`
	Platform        PlatformType    `json:"platform"`
	LineItems       []OrderLineItem `json:"line_items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	PlatformData    json.RawMessage `json:"platform_data,omitempty"`
}

// OrderLineItem is one purchased product inside an order
type OrderLineItem struct {
	ProductID string `json:"product_id,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Price     Money  `json:"price"`
}

// Validate checks that the order can be keyed in the ledger
func (o *PlatformOrder) Validate() error {
	if o == nil || o.ID == "" {
		return ErrInvalidOrder
	}
	return nil
}

// OrderPage is one page of a remote order listing
type OrderPage struct {
	Items []PlatformOrder
	// Invalid holds listed orders that could not be decoded
	Invalid    []*ItemDecodeError
	NextCursor string
}

// HasMore returns true if another page can be fetched
func (p *OrderPage) HasMore() bool {
	return p != nil && p.NextCursor != ""
}
