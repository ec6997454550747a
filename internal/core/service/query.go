package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
)

var _ port.CatalogQuerier = (*QueryService)(nil)

const (
	defaultFuzzyLimit  = 10
	defaultUpsellLimit = 5
)

type QueryConfig struct {
	FuzzyMaxDistance int
	FuzzyLimit       int
	UpsellLimit      int

	// SkuImages is the externally maintained sku to image mapping,
	// consulted before the variant's own image field.
	SkuImages map[string]string
}

func (c *QueryConfig) normalize() {
	if c.FuzzyLimit <= 0 {
		c.FuzzyLimit = defaultFuzzyLimit
	}
	if c.UpsellLimit <= 0 {
		c.UpsellLimit = defaultUpsellLimit
	}
}

// A QueryService serves read-only views over the local store.
// It never calls the remote catalog and never mutates the store.
type QueryService struct {
	store port.CatalogStore
	cfg   QueryConfig
}

func NewQuery(store port.CatalogStore, cfg QueryConfig) QueryService {
	cfg.normalize()
	return QueryService{store, cfg}
}

func (s QueryService) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "QueryService.Products"

	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s QueryService) Product(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "QueryService.Product"

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: id %q: %w", op, id, err)
	}
	return p, nil
}

// Search returns all records whose name or sku contains q,
// case-insensitive, in store iteration order.
func (s QueryService) Search(
	ctx context.Context, q string,
) ([]domain.Product, error) {
	const op = "QueryService.Search"

	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q = strings.ToLower(q)
	var found []domain.Product
	for _, p := range ps {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.SKU), q) {
			found = append(found, p)
		}
	}
	return found, nil
}

// FuzzySearch returns the best approximate matches over name and sku,
// ranked by edit distance and capped at the configured result count.
func (s QueryService) FuzzySearch(
	ctx context.Context, q string,
) ([]domain.Product, error) {
	const op = "QueryService.FuzzySearch"

	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	type ranked struct {
		p    domain.Product
		rank int
	}

	var matches []ranked
	for _, p := range ps {
		rank := fuzzyRank(q, p.Name)
		if r := fuzzyRank(q, p.SKU); rank < 0 || (r >= 0 && r < rank) {
			rank = r
		}
		if rank < 0 {
			continue
		}
		if s.cfg.FuzzyMaxDistance > 0 && rank > s.cfg.FuzzyMaxDistance {
			continue
		}
		matches = append(matches, ranked{p, rank})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})

	if len(matches) > s.cfg.FuzzyLimit {
		matches = matches[:s.cfg.FuzzyLimit]
	}

	found := make([]domain.Product, len(matches))
	for i, m := range matches {
		found[i] = m.p
	}
	return found, nil
}

// SkuImage resolves a sku to an image URL. The external mapping is
// consulted first, then the matching variant's own image field.
func (s QueryService) SkuImage(
	ctx context.Context, sku string,
) (string, error) {
	const op = "QueryService.SkuImage"

	if img, ok := s.cfg.SkuImages[sku]; ok && img != "" {
		return img, nil
	}

	ps, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, p := range ps {
		for _, v := range p.Variants {
			if v.SKU == sku && v.Image != "" {
				return v.Image, nil
			}
		}
	}
	return "", fmt.Errorf("%s: sku %q: %w", op, sku, domain.ErrNotFound)
}

func (s QueryService) Inventory(
	ctx context.Context, id string,
) (domain.Inventory, error) {
	const op = "QueryService.Inventory"

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("%s: id %q: %w", op, id, err)
	}

	inv := domain.Inventory{ProductID: p.ID, Total: p.StockTotal()}
	for _, v := range p.Variants {
		inv.Variants = append(inv.Variants,
			domain.VariantStock{SKU: v.SKU, Stock: v.Stock})
	}
	return inv, nil
}

// Upsell suggests related products: same category when present,
// otherwise at least one overlapping tag, ranked by descending price.
// A product with neither category nor tags yields an empty set.
func (s QueryService) Upsell(
	ctx context.Context, id string,
) ([]domain.Product, error) {
	const op = "QueryService.Upsell"

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: id %q: %w", op, id, err)
	}

	related, err := s.relatedTo(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Price > related[j].Price
	})

	if len(related) > s.cfg.UpsellLimit {
		related = related[:s.cfg.UpsellLimit]
	}
	return related, nil
}

func (s QueryService) relatedTo(
	ctx context.Context, p domain.Product,
) ([]domain.Product, error) {
	byCategory := p.CategoryID != ""
	if !byCategory && len(p.Tags) == 0 {
		return nil, nil
	}

	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var related []domain.Product
	for _, c := range ps {
		if c.ID == p.ID {
			continue
		}
		if byCategory {
			if c.CategoryID == p.CategoryID {
				related = append(related, c)
			}
			continue
		}
		if tagsOverlap(p.Tags, c.Tags) {
			related = append(related, c)
		}
	}
	return related, nil
}

func tagsOverlap(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if strings.EqualFold(ta, tb) {
				return true
			}
		}
	}
	return false
}

func fuzzyRank(q, target string) int {
	if target == "" {
		return -1
	}
	return fuzzy.RankMatchNormalizedFold(q, target)
}
