package integration

import (
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// PlatformProduct
// ---------------------------------------------------------------------------

// PlatformProduct is a product as reported by (or pushed to) a platform.
// ID is the platform-native identifier and is empty for a product that has
// not been created remotely yet.
type PlatformProduct struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Price        Money            `json:"price"`
	SKU          string           `json:"sku,omitempty"`
	Quantity     int64            `json:"quantity"`
	Images       []string         `json:"images,omitempty"`
	Platform     PlatformType     `json:"platform"`
	PlatformData json.RawMessage  `json:"platform_data,omitempty"`
	Categories   []string         `json:"categories,omitempty"`
	Variants     []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a purchasable option of a product
type ProductVariant struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	SKU      string `json:"sku,omitempty"`
	Price    Money  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// NormalizedFields returns the fields compared during reconciliation
func (p *PlatformProduct) NormalizedFields() ComparableFields {
	return newComparableFields(p.Name, p.Description, p.Price, p.Quantity, p.Images)
}

// ---------------------------------------------------------------------------
// ComparableFields
// ---------------------------------------------------------------------------

// ComparableFields is the normalized projection of a product used to decide
// between update and skip. Strings are NFC-normalized and trimmed, money is
// compared in minor units and image order is significant.
type ComparableFields struct {
	Name        string
	Description string
	PriceMinor  int64
	Quantity    int64
	Images      []string
}

func newComparableFields(name, description string, price Money, quantity int64, images []string) ComparableFields {
	normalized := make([]string, 0, len(images))
	for _, img := range images {
		if s := strings.TrimSpace(img); s != "" {
			normalized = append(normalized, s)
		}
	}
	return ComparableFields{
		Name:        NormalizeText(name),
		Description: NormalizeText(description),
		PriceMinor:  price.Amount,
		Quantity:    quantity,
		Images:      normalized,
	}
}

// Equal reports whether two projections are identical
func (f ComparableFields) Equal(other ComparableFields) bool {
	return f.Name == other.Name &&
		f.Description == other.Description &&
		f.PriceMinor == other.PriceMinor &&
		f.Quantity == other.Quantity &&
		slices.Equal(f.Images, other.Images)
}

// NormalizeText applies Unicode NFC and trims surrounding whitespace
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ---------------------------------------------------------------------------
// ProductPage
// ---------------------------------------------------------------------------

// ProductPage is one page of a remote catalog listing.
// An empty NextCursor means the listing is exhausted.
type ProductPage struct {
	Items []PlatformProduct
	// Invalid holds listed products that could not be decoded. They still
	// exist on the platform.
	Invalid    []*ItemDecodeError
	NextCursor string
}

// HasMore returns true if another page can be fetched
func (p *ProductPage) HasMore() bool {
	return p != nil && p.NextCursor != ""
}
