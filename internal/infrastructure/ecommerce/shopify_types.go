package ecommerce

import (
	"encoding/json"
	"net/url"
	"strings"
)

// shopifyProductsEnvelope keeps each product's raw JSON so it can be stored as platform data
type shopifyProductsEnvelope struct {
	Products []json.RawMessage `json:"products"`
}

type shopifyOrdersEnvelope struct {
	Orders []json.RawMessage `json:"orders"`
}

type shopifyCountResponse struct {
	Count int `json:"count"`
}

type shopifyShopResponse struct {
	Shop struct {
		ID     uint64 `json:"id"`
		Domain string `json:"myshopify_domain"`
	} `json:"shop"`
}

// shopifyErrorResponse covers both shapes Shopify uses:
// {"errors":"Not Found"} and {"errors":{"title":["can't be blank"]}}
type shopifyErrorResponse struct {
	Errors json.RawMessage `json:"errors"`
}

func extractShopifyMessage(body []byte) string {
	var resp shopifyErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Errors) == 0 {
		return truncateMessage(string(body))
	}
	var s string
	if err := json.Unmarshal(resp.Errors, &s); err == nil {
		return truncateMessage(s)
	}
	var fields map[string][]string
	if err := json.Unmarshal(resp.Errors, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for k, v := range fields {
			parts = append(parts, k+" "+strings.Join(v, ", "))
		}
		return truncateMessage(strings.Join(parts, "; "))
	}
	return truncateMessage(string(resp.Errors))
}

// shopifyNextPageInfo extracts page_info from the rel="next" entry of a Link header:
// <https://shop/admin/api/2024-10/products.json?limit=50&page_info=abc>; rel="next"
func shopifyNextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		isNext := false
		for _, s := range segs[1:] {
			if strings.TrimSpace(s) == `rel="next"` {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(segs[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}
