package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
)

var _ port.WebhookIngester = (*IngestService)(nil)

// An IngestService turns heterogeneous webhook payloads into
// single-item sync operations.
type IngestService struct {
	syncer port.CatalogSyncer
}

func NewIngest(syncer port.CatalogSyncer) IngestService {
	return IngestService{syncer}
}

// Ingest extracts a product identity from the payload and runs the
// single-item sync path. A payload with no identity is rejected
// without any store mutation.
func (s IngestService) Ingest(
	ctx context.Context, payload []byte,
) (domain.Product, error) {
	const op = "IngestService.Ingest"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := ExtractProductID(payload)
	if err != nil {
		log.Warn("rejected webhook payload", "err", err)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.syncer.SyncProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("webhook product synced", "productID", p.ID)
	return p, nil
}

// ExtractProductID probes the payload shapes in a fixed order:
// data.id, resource.id, top-level id, product_id. The first
// non-empty match wins.
func ExtractProductID(payload []byte) (string, error) {
	const op = "service.ExtractProductID"

	var body struct {
		Data struct {
			ID any `json:"id"`
		} `json:"data"`
		Resource struct {
			ID any `json:"id"`
		} `json:"resource"`
		ID        any `json:"id"`
		ProductID any `json:"product_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, v := range []any{
		body.Data.ID, body.Resource.ID, body.ID, body.ProductID,
	} {
		if id := domain.Identity(v); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s: %w", op, domain.ErrNoProductID)
}
