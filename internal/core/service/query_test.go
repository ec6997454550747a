package service

import (
	"context"
	"testing"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, ps ...domain.Product) *memStore {
	t.Helper()
	store := newMemStore()
	require.NoError(t, store.UpsertBatch(context.Background(), ps))
	return store
}

func productIDs(ps []domain.Product) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func TestQuerySearch(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1", Name: "Red Chair", SKU: "CHR-1"},
		domain.Product{ID: "p2", Name: "Blue Table", SKU: "TBL-1"},
		domain.Product{ID: "p3", Name: "Lamp", SKU: "chr-99"},
	)
	s := NewQuery(store, QueryConfig{})

	t.Run("MatchesNameCaseInsensitive", func(t *testing.T) {
		ps, err := s.Search(ctx, "red")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, productIDs(ps))
	})

	t.Run("MatchesSKU", func(t *testing.T) {
		ps, err := s.Search(ctx, "CHR")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p3"}, productIDs(ps))
	})

	t.Run("NoMatch", func(t *testing.T) {
		ps, err := s.Search(ctx, "zzz")
		require.NoError(t, err)
		assert.Empty(t, ps)
	})
}

func TestQueryFuzzySearch(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1", Name: "keyboard"},
		domain.Product{ID: "p2", Name: "keybord"},
		domain.Product{ID: "p3", Name: "monitor"},
	)

	t.Run("RanksByDistance", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		ps, err := s.FuzzySearch(ctx, "keybord")
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, "p2", ps[0].ID)
		assert.Equal(t, "p1", ps[1].ID)
	})

	t.Run("MaxDistanceFilters", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{FuzzyMaxDistance: 3})
		ps, err := s.FuzzySearch(ctx, "keyb")
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, "p2", ps[0].ID)
	})

	t.Run("LimitCapsResults", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{FuzzyLimit: 1})
		ps, err := s.FuzzySearch(ctx, "keybord")
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, "p2", ps[0].ID)
	})
}

func TestQuerySkuImage(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1", Variants: []domain.Variant{
			{SKU: "v1", Image: "variantURL"},
			{SKU: "v2"},
		}},
	)

	t.Run("ExternalMappingWins", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{
			SkuImages: map[string]string{"v1": "mappedURL"},
		})
		img, err := s.SkuImage(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, "mappedURL", img)
	})

	t.Run("VariantFallback", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		img, err := s.SkuImage(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, "variantURL", img)
	})

	t.Run("VariantWithoutImageMisses", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		_, err := s.SkuImage(ctx, "v2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownSKU", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		_, err := s.SkuImage(ctx, "absent")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestQueryInventory(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1", Variants: []domain.Variant{
			{SKU: "v1", Stock: 3},
			{SKU: "v2", Stock: 0},
		}},
		domain.Product{ID: "p2"},
	)
	s := NewQuery(store, QueryConfig{})

	t.Run("SumsVariants", func(t *testing.T) {
		inv, err := s.Inventory(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", inv.ProductID)
		assert.Equal(t, 3, inv.Total)
		require.Len(t, inv.Variants, 2)
		assert.Equal(t, 0, inv.Variants[1].Stock)
	})

	t.Run("NoVariantsIsZero", func(t *testing.T) {
		inv, err := s.Inventory(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 0, inv.Total)
		assert.Empty(t, inv.Variants)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		_, err := s.Inventory(ctx, "absent")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestQueryUpsell(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1", CategoryID: "chairs", Price: 10},
		domain.Product{ID: "p2", CategoryID: "chairs", Price: 30},
		domain.Product{ID: "p3", CategoryID: "chairs", Price: 20},
		domain.Product{ID: "p4", CategoryID: "tables", Price: 99},
		domain.Product{ID: "t1", Tags: []string{"Wood", "rustic"}},
		domain.Product{ID: "t2", Tags: []string{"wood"}},
		domain.Product{ID: "t3", Tags: []string{"metal"}},
		domain.Product{ID: "lone"},
	)

	t.Run("SameCategoryByDescendingPrice", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		ps, err := s.Upsell(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p2", "p3"}, productIDs(ps))
	})

	t.Run("TagOverlapFoldsCase", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		ps, err := s.Upsell(ctx, "t2")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, productIDs(ps))
	})

	t.Run("NoCategoryNoTagsYieldsEmpty", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		ps, err := s.Upsell(ctx, "lone")
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("LimitCaps", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{UpsellLimit: 1})
		ps, err := s.Upsell(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p2"}, productIDs(ps))
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		s := NewQuery(store, QueryConfig{})
		_, err := s.Upsell(ctx, "absent")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestQueryProducts(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t,
		domain.Product{ID: "p1"},
		domain.Product{ID: "p2"},
	)
	s := NewQuery(store, QueryConfig{})

	ps, err := s.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, productIDs(ps))

	p, err := s.Product(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)

	_, err = s.Product(ctx, "absent")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
