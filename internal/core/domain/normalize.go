package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type (
	rawVariant struct {
		ID                any      `json:"id"`
		SKU               string   `json:"sku"`
		Image             string   `json:"image"`
		ImageURL          string   `json:"image_url"`
		Stock             *int     `json:"stock"`
		RemainingQuantity *int     `json:"remaining_quantity"`
		RetailPrice       *float64 `json:"retail_price"`
	}

	rawProduct struct {
		ID          any          `json:"id"`
		ProductID   any          `json:"product_id"`
		SKU         string       `json:"sku"`
		Name        string       `json:"name"`
		Price       *float64     `json:"price"`
		RetailPrice *float64     `json:"retail_price"`
		CategoryID  any          `json:"category_id"`
		Tags        []string     `json:"tags"`
		Variants    []rawVariant `json:"variants"`
	}
)

// NormalizeProduct maps one loosely structured remote payload to a Product.
//
// Field precedence:
//   - id: id, product_id
//   - price: price, retail_price, first variant retail_price
//   - variant sku: sku, id
//   - variant image: image_url, image
//   - variant stock: remaining_quantity, stock, zero
//
// The original payload is retained in Product.Raw.
func NormalizeProduct(raw json.RawMessage) (Product, error) {
	const op = "domain.NormalizeProduct"

	var rp rawProduct
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Product{}, fmt.Errorf("%s: %w", op, err)
	}

	id := Identity(rp.ID)
	if id == "" {
		id = Identity(rp.ProductID)
	}
	if id == "" {
		return Product{}, fmt.Errorf("%s: %w", op, ErrNoProductID)
	}

	p := Product{
		ID:         id,
		SKU:        rp.SKU,
		Name:       rp.Name,
		CategoryID: Identity(rp.CategoryID),
		Tags:       rp.Tags,
		Raw:        raw,
	}

	for _, rv := range rp.Variants {
		p.Variants = append(p.Variants, normalizeVariant(rv))
	}

	p.Price = resolvePrice(rp)

	if p.SKU == "" && len(p.Variants) > 0 {
		p.SKU = p.Variants[0].SKU
	}

	return p, nil
}

func normalizeVariant(rv rawVariant) Variant {
	v := Variant{SKU: rv.SKU}
	if v.SKU == "" {
		v.SKU = Identity(rv.ID)
	}

	v.Image = rv.ImageURL
	if v.Image == "" {
		v.Image = rv.Image
	}

	switch {
	case rv.RemainingQuantity != nil:
		v.Stock = *rv.RemainingQuantity
	case rv.Stock != nil:
		v.Stock = *rv.Stock
	}
	return v
}

func resolvePrice(rp rawProduct) float64 {
	switch {
	case rp.Price != nil:
		return *rp.Price
	case rp.RetailPrice != nil:
		return *rp.RetailPrice
	}
	for _, rv := range rp.Variants {
		if rv.RetailPrice != nil {
			return *rv.RetailPrice
		}
	}
	return 0
}

// Identity renders a loosely typed identifier value as a string.
// Remote payloads carry ids as strings or JSON numbers.
func Identity(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}
