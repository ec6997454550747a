package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
	"github.com/niksmo/catalog-cache/internal/metrics"
	"github.com/niksmo/catalog-cache/pkg/retry"
)

var _ port.CatalogSyncer = (*SyncService)(nil)

const (
	defaultPageSize = 100
	defaultMaxPages = 50
	feedOpUpsert    = "upsert"
	feedOpReplace   = "replace"
)

type SyncConfig struct {
	PageSize     int
	MaxPages     int
	FetchRetries int
}

func (c *SyncConfig) normalize() {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = 1
	}
}

// A SyncService reconciles remote product records into the local store.
//
// All strategies are idempotent: re-running with the same remote
// state produces the same store state. The fetched remote record
// always wins whole-record on merge.
type SyncService struct {
	remote port.RemoteCatalog
	store  port.CatalogStore
	feed   port.ChangeFeed
	cfg    SyncConfig
}

// NewSync constructs a SyncService. The feed is optional and may be nil.
func NewSync(
	remote port.RemoteCatalog,
	store port.CatalogStore,
	feed port.ChangeFeed,
	cfg SyncConfig,
) SyncService {
	cfg.normalize()
	return SyncService{remote, store, feed, cfg}
}

// SyncProduct fetches one record by id and upserts it.
// On fetch failure the store is left untouched.
func (s SyncService) SyncProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "SyncService.SyncProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := retry.DoWithResult(ctx, s.retryConfig(),
		func() (domain.Product, error) {
			p, ok := s.remote.FetchDetail(ctx, id)
			if !ok {
				return domain.Product{}, domain.ErrRemoteUnavailable
			}
			return p, nil
		},
	)
	if err != nil {
		metrics.RecordSync("webhook", "error", 0)
		return domain.Product{}, fmt.Errorf("%s: id %q: %w", op, id, err)
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		metrics.RecordSync("webhook", "error", 0)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, feedOpUpsert, []domain.Product{p})
	metrics.RecordSync("webhook", "ok", 1)
	return p, nil
}

// SyncAll pulls the complete remote catalog page by page and
// replaces the store wholesale. Stale local-only records are dropped.
func (s SyncService) SyncAll(ctx context.Context) (int, error) {
	const op = "SyncService.SyncAll"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	all := s.collectPages(func(page int) []domain.Product {
		return s.remote.FetchPage(ctx, page, s.cfg.PageSize)
	})

	if err := s.store.Replace(ctx, all); err != nil {
		metrics.RecordSync("full", "error", 0)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, feedOpReplace, all)
	metrics.RecordSync("full", "ok", len(all))
	return len(all), nil
}

// SyncCategory pulls one category page by page and merges the result
// by id. Records outside the category are left untouched.
func (s SyncService) SyncCategory(
	ctx context.Context, categoryID string,
) (int, error) {
	const op = "SyncService.SyncCategory"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	ps := s.collectPages(func(page int) []domain.Product {
		return s.remote.FetchByCategory(ctx, categoryID, page, s.cfg.PageSize)
	})

	if err := s.store.UpsertBatch(ctx, ps); err != nil {
		metrics.RecordSync("category", "error", 0)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, feedOpUpsert, ps)
	metrics.RecordSync("category", "ok", len(ps))
	return len(ps), nil
}

// SyncSKU resolves one product by sku. A direct remote lookup is
// attempted first; on miss the full catalog is fetched without
// persisting it and scanned linearly over variants.
func (s SyncService) SyncSKU(
	ctx context.Context, sku string,
) (domain.Product, error) {
	const op = "SyncService.SyncSKU"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, ok := s.remote.FetchBySku(ctx, sku)
	if !ok {
		p, ok = s.scanForSKU(ctx, sku)
	}
	if !ok {
		metrics.RecordSync("sku", "miss", 0)
		return domain.Product{}, fmt.Errorf("%s: sku %q: %w",
			op, sku, domain.ErrNotFound)
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		metrics.RecordSync("sku", "error", 0)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, feedOpUpsert, []domain.Product{p})
	metrics.RecordSync("sku", "ok", 1)
	return p, nil
}

// RunPeriodic runs a full sync every interval until ctx is done.
// Call from a goroutine.
func (s SyncService) RunPeriodic(ctx context.Context, interval time.Duration) {
	const op = "SyncService.RunPeriodic"
	log := slog.With("op", op)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total, err := s.SyncAll(ctx)
			if err != nil {
				log.Error("periodic full sync failed", "err", err)
				continue
			}
			log.Info("periodic full sync complete", "total", total)
		}
	}
}

// collectPages accumulates pages starting at 1 and stops on the
// first short or empty page. MaxPages bounds the loop against a
// misbehaving remote.
func (s SyncService) collectPages(
	fetch func(page int) []domain.Product,
) []domain.Product {
	var all []domain.Product
	for page := 1; page <= s.cfg.MaxPages; page++ {
		ps := fetch(page)
		all = append(all, ps...)
		if len(ps) < s.cfg.PageSize {
			break
		}
	}
	return all
}

func (s SyncService) scanForSKU(
	ctx context.Context, sku string,
) (domain.Product, bool) {
	all := s.collectPages(func(page int) []domain.Product {
		return s.remote.FetchPage(ctx, page, s.cfg.PageSize)
	})
	for _, p := range all {
		if p.HasSKU(sku) {
			return p, true
		}
	}
	return domain.Product{}, false
}

// publish ships synced records to the change feed.
// Feed failures never fail the sync itself.
func (s SyncService) publish(
	ctx context.Context, feedOp string, ps []domain.Product,
) {
	const op = "SyncService.publish"

	if s.feed == nil || len(ps) == 0 {
		return
	}
	if err := s.feed.PublishProducts(ctx, feedOp, ps); err != nil {
		slog.With("op", op).Warn("failed to publish change feed",
			"feedOp", feedOp, "err", err)
	}
}

func (s SyncService) retryConfig() retry.Config {
	return retry.Config{MaxAttempts: s.cfg.FetchRetries}
}
