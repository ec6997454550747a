package schema

const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "product_event",
	"fields": [
		{"name": "op", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "sku", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "category_id", "type": "string"},
		{"name": "tags", "type": {"type": "array", "items": "string"}},
		{"name": "variants", "type": {"type": "array", "items": {
			"type": "record",
			"name": "product_variant",
			"fields": [
				{"name": "sku", "type": "string"},
				{"name": "image", "type": "string"},
				{"name": "stock", "type": "long"}
			]
		}}},
		{"name": "synced_at", "type": "long"}
	]
}`

type (
	// A ProductEventV1 is one change-feed record: a product state
	// as written to the local replica by a sync operation.
	ProductEventV1 struct {
		Op         string             `avro:"op"`
		ProductID  string             `avro:"product_id"`
		SKU        string             `avro:"sku"`
		Name       string             `avro:"name"`
		Price      float64            `avro:"price"`
		CategoryID string             `avro:"category_id"`
		Tags       []string           `avro:"tags"`
		Variants   []ProductVariantV1 `avro:"variants"`
		SyncedAt   int64              `avro:"synced_at"`
	}

	ProductVariantV1 struct {
		SKU   string `avro:"sku"`
		Image string `avro:"image"`
		Stock int    `avro:"stock"`
	}
)
