package domain

import "encoding/json"

type (
	// A Product is the unit of replication.
	//
	// ID is the stable remote identifier and the merge key.
	// Raw retains the original fetched payload for fields
	// that are not modeled yet.
	Product struct {
		ID         string          `json:"id"`
		SKU        string          `json:"sku"`
		Name       string          `json:"name"`
		Price      float64         `json:"price"`
		Variants   []Variant       `json:"variants"`
		Tags       []string        `json:"tags"`
		CategoryID string          `json:"category_id"`
		Raw        json.RawMessage `json:"raw,omitempty"`
	}

	Variant struct {
		SKU   string `json:"sku"`
		Image string `json:"image"`
		Stock int    `json:"stock"`
	}
)

type (
	// An Inventory is the stock breakdown for one product.
	Inventory struct {
		ProductID string         `json:"product_id"`
		Total     int            `json:"total"`
		Variants  []VariantStock `json:"variants"`
	}

	VariantStock struct {
		SKU   string `json:"sku"`
		Stock int    `json:"stock"`
	}
)

// StockTotal sums stock over all variants.
// A variant with unknown stock contributes zero.
func (p Product) StockTotal() int {
	var total int
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// HasSKU reports whether sku matches the product itself
// or any of its variants.
func (p Product) HasSKU(sku string) bool {
	if p.SKU == sku {
		return true
	}
	for _, v := range p.Variants {
		if v.SKU == sku {
			return true
		}
	}
	return false
}
