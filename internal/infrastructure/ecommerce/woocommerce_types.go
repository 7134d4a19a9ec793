package ecommerce

import (
	"encoding/json"
	"strings"
)

// wooProduct is the subset of the WooCommerce product resource the service reads
type wooProduct struct {
	ID               json.Number   `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	ShortDescription string        `json:"short_description"`
	SKU              string        `json:"sku"`
	Price            string        `json:"price"`
	RegularPrice     string        `json:"regular_price"`
	ManageStock      bool          `json:"manage_stock"`
	StockQuantity    *int64        `json:"stock_quantity"`
	Status           string        `json:"status"`
	Images           []wooImage    `json:"images"`
	Categories       []wooCategory `json:"categories"`
	Variations       []json.Number `json:"variations"`
}

type wooImage struct {
	ID  json.Number `json:"id,omitempty"`
	Src string      `json:"src"`
}

type wooCategory struct {
	ID   json.Number `json:"id,omitempty"`
	Name string      `json:"name"`
}

// wooProductRequest is the create/update body
type wooProductRequest struct {
	Name          string     `json:"name,omitempty"`
	Description   string     `json:"description,omitempty"`
	SKU           string     `json:"sku,omitempty"`
	RegularPrice  string     `json:"regular_price"`
	ManageStock   bool       `json:"manage_stock"`
	StockQuantity int64      `json:"stock_quantity"`
	Images        []wooImage `json:"images,omitempty"`
}

type wooOrder struct {
	ID             json.Number   `json:"id"`
	Number         string        `json:"number"`
	Status         string        `json:"status"`
	Currency       string        `json:"currency"`
	Total          string        `json:"total"`
	DateCreatedGMT string        `json:"date_created_gmt"`
	Billing        wooBilling    `json:"billing"`
	LineItems      []wooLineItem `json:"line_items"`
}

type wooBilling struct {
	Email string `json:"email"`
}

type wooLineItem struct {
	ProductID   json.Number `json:"product_id"`
	VariationID json.Number `json:"variation_id"`
	SKU         string      `json:"sku"`
	Name        string      `json:"name"`
	Quantity    int64       `json:"quantity"`
	// Price is a JSON number on line items, unlike the string prices on products
	Price json.Number `json:"price"`
}

// wooErrorResponse is the WP REST error envelope
type wooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func extractWooMessage(body []byte) string {
	var resp wooErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || (resp.Code == "" && resp.Message == "") {
		return truncateMessage(string(body))
	}
	if resp.Code == "" {
		return truncateMessage(resp.Message)
	}
	return truncateMessage(resp.Code + ": " + resp.Message)
}

// wooDateLayout is the format of date_created_gmt (no zone designator)
const wooDateLayout = "2006-01-02T15:04:05"

func wooID(n json.Number) string {
	s := strings.TrimSpace(n.String())
	if s == "0" {
		return ""
	}
	return s
}
