package port

import (
	"context"

	"github.com/niksmo/catalog-cache/internal/core/domain"
)

// A RemoteCatalog wraps the external product API.
//
// All operations are fail-soft: transport and HTTP errors
// surface as "no data", never as an error value.
type RemoteCatalog interface {
	FetchDetail(ctx context.Context, id string) (domain.Product, bool)
	FetchPage(ctx context.Context, page, pageSize int) []domain.Product
	FetchByCategory(ctx context.Context, categoryID string, page, pageSize int) []domain.Product
	FetchBySku(ctx context.Context, sku string) (domain.Product, bool)
}

// A CatalogStore is the local replica of the remote catalog.
//
// At most one record exists per product id. Mutations serialize
// with each other and persist the replica before returning.
// Get reports a miss as [domain.ErrNotFound].
type CatalogStore interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) error
	UpsertBatch(ctx context.Context, ps []domain.Product) error
	Replace(ctx context.Context, ps []domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
	Load(ctx context.Context) error
	Save(ctx context.Context) error
}

// A ChangeFeed publishes synced products for downstream consumers.
type ChangeFeed interface {
	PublishProducts(ctx context.Context, op string, ps []domain.Product) error
	Close()
}

type CatalogSyncer interface {
	SyncProduct(ctx context.Context, id string) (domain.Product, error)
	SyncAll(ctx context.Context) (int, error)
	SyncCategory(ctx context.Context, categoryID string) (int, error)
	SyncSKU(ctx context.Context, sku string) (domain.Product, error)
}

type CatalogQuerier interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
	Search(ctx context.Context, q string) ([]domain.Product, error)
	FuzzySearch(ctx context.Context, q string) ([]domain.Product, error)
	SkuImage(ctx context.Context, sku string) (string, error)
	Inventory(ctx context.Context, id string) (domain.Inventory, error)
	Upsell(ctx context.Context, id string) ([]domain.Product, error)
}

type WebhookIngester interface {
	Ingest(ctx context.Context, payload []byte) (domain.Product, error)
}
