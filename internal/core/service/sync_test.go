package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	detail     map[string]domain.Product
	bySku      map[string]domain.Product
	pages      [][]domain.Product
	byCategory map[string][][]domain.Product

	detailCalls int
	pageCalls   int
}

func (r *fakeRemote) FetchDetail(
	ctx context.Context, id string,
) (domain.Product, bool) {
	r.detailCalls++
	p, ok := r.detail[id]
	return p, ok
}

func (r *fakeRemote) FetchPage(
	ctx context.Context, page, pageSize int,
) []domain.Product {
	r.pageCalls++
	if page < 1 || page > len(r.pages) {
		return nil
	}
	return r.pages[page-1]
}

func (r *fakeRemote) FetchByCategory(
	ctx context.Context, categoryID string, page, pageSize int,
) []domain.Product {
	pages := r.byCategory[categoryID]
	if page < 1 || page > len(pages) {
		return nil
	}
	return pages[page-1]
}

func (r *fakeRemote) FetchBySku(
	ctx context.Context, sku string,
) (domain.Product, bool) {
	p, ok := r.bySku[sku]
	return p, ok
}

type memStore struct {
	byID  map[string]domain.Product
	order []string
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]domain.Product)}
}

func (s *memStore) Get(ctx context.Context, id string) (domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) Upsert(ctx context.Context, p domain.Product) error {
	if _, ok := s.byID[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p
	return nil
}

func (s *memStore) UpsertBatch(ctx context.Context, ps []domain.Product) error {
	for _, p := range ps {
		if err := s.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Replace(ctx context.Context, ps []domain.Product) error {
	s.byID = make(map[string]domain.Product, len(ps))
	s.order = nil
	return s.UpsertBatch(ctx, ps)
}

func (s *memStore) List(ctx context.Context) ([]domain.Product, error) {
	ps := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.byID[id])
	}
	return ps, nil
}

func (s *memStore) Load(ctx context.Context) error { return nil }
func (s *memStore) Save(ctx context.Context) error { return nil }

type fakeFeed struct {
	ops      []string
	products int
	err      error
}

func (f *fakeFeed) PublishProducts(
	ctx context.Context, op string, ps []domain.Product,
) error {
	f.ops = append(f.ops, op)
	f.products += len(ps)
	return f.err
}

func (f *fakeFeed) Close() {}

func makePage(n, offset int) []domain.Product {
	ps := make([]domain.Product, n)
	for i := range ps {
		ps[i] = domain.Product{ID: fmt.Sprintf("p%d", offset+i)}
	}
	return ps
}

func TestSyncProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchAndUpsert", func(t *testing.T) {
		remote := &fakeRemote{detail: map[string]domain.Product{
			"p1": {ID: "p1", Name: "testName"},
		}}
		store := newMemStore()
		feed := &fakeFeed{}
		s := NewSync(remote, store, feed, SyncConfig{})

		p, err := s.SyncProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "testName", p.Name)

		got, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Equal(t, []string{"upsert"}, feed.ops)
	})

	t.Run("Idempotent", func(t *testing.T) {
		remote := &fakeRemote{detail: map[string]domain.Product{
			"p1": {ID: "p1", Name: "testName"},
		}}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{})

		_, err := s.SyncProduct(ctx, "p1")
		require.NoError(t, err)
		_, err = s.SyncProduct(ctx, "p1")
		require.NoError(t, err)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, ps, 1)
	})

	t.Run("RemoteMissLeavesStoreUntouched", func(t *testing.T) {
		remote := &fakeRemote{}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{FetchRetries: 3})

		_, err := s.SyncProduct(ctx, "absent")
		require.ErrorIs(t, err, domain.ErrRemoteUnavailable)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ps)
		assert.Equal(t, 3, remote.detailCalls)
	})

	t.Run("FeedErrorDoesNotFailSync", func(t *testing.T) {
		remote := &fakeRemote{detail: map[string]domain.Product{
			"p1": {ID: "p1"},
		}}
		store := newMemStore()
		feed := &fakeFeed{err: errors.New("broker down")}
		s := NewSync(remote, store, feed, SyncConfig{})

		_, err := s.SyncProduct(ctx, "p1")
		require.NoError(t, err)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		s := NewSync(&fakeRemote{}, newMemStore(), nil, SyncConfig{})

		_, err := s.SyncProduct(canceled, "p1")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("PaginatesUntilShortPage", func(t *testing.T) {
		remote := &fakeRemote{pages: [][]domain.Product{
			makePage(2, 0),
			makePage(2, 2),
			makePage(1, 4),
		}}
		store := newMemStore()
		feed := &fakeFeed{}
		s := NewSync(remote, store, feed, SyncConfig{PageSize: 2})

		total, err := s.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, 3, remote.pageCalls)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, ps, 5)
		assert.Equal(t, []string{"replace"}, feed.ops)
		assert.Equal(t, 5, feed.products)
	})

	t.Run("ReplacesWholesale", func(t *testing.T) {
		remote := &fakeRemote{pages: [][]domain.Product{
			{{ID: "fresh"}},
		}}
		store := newMemStore()
		require.NoError(t, store.Upsert(ctx, domain.Product{ID: "stale"}))
		s := NewSync(remote, store, nil, SyncConfig{PageSize: 2})

		total, err := s.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, err = store.Get(ctx, "stale")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyRemoteEmptiesStore", func(t *testing.T) {
		remote := &fakeRemote{}
		store := newMemStore()
		require.NoError(t, store.Upsert(ctx, domain.Product{ID: "stale"}))
		s := NewSync(remote, store, nil, SyncConfig{})

		total, err := s.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("MaxPagesBoundsRunawayRemote", func(t *testing.T) {
		pages := make([][]domain.Product, 10)
		for i := range pages {
			pages[i] = makePage(2, i*2)
		}
		remote := &fakeRemote{pages: pages}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{PageSize: 2, MaxPages: 3})

		total, err := s.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Equal(t, 3, remote.pageCalls)
	})
}

func TestSyncCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesWithoutTouchingOthers", func(t *testing.T) {
		remote := &fakeRemote{byCategory: map[string][][]domain.Product{
			"cat1": {{
				{ID: "p1", CategoryID: "cat1", Name: "new"},
			}},
		}}
		store := newMemStore()
		require.NoError(t, store.Upsert(ctx, domain.Product{
			ID: "p1", CategoryID: "cat1", Name: "old",
		}))
		require.NoError(t, store.Upsert(ctx, domain.Product{
			ID: "other", CategoryID: "cat2",
		}))
		feed := &fakeFeed{}
		s := NewSync(remote, store, feed, SyncConfig{PageSize: 10})

		total, err := s.SyncCategory(ctx, "cat1")
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		p, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "new", p.Name)

		_, err = store.Get(ctx, "other")
		require.NoError(t, err)
		assert.Equal(t, []string{"upsert"}, feed.ops)
	})

	t.Run("EmptyCategory", func(t *testing.T) {
		remote := &fakeRemote{}
		store := newMemStore()
		require.NoError(t, store.Upsert(ctx, domain.Product{ID: "keep"}))
		feed := &fakeFeed{}
		s := NewSync(remote, store, feed, SyncConfig{})

		total, err := s.SyncCategory(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, ps, 1)
		assert.Empty(t, feed.ops)
	})
}

func TestSyncSKU(t *testing.T) {
	ctx := context.Background()

	t.Run("DirectLookup", func(t *testing.T) {
		remote := &fakeRemote{bySku: map[string]domain.Product{
			"SKU-1": {ID: "p1", SKU: "SKU-1"},
		}}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{})

		p, err := s.SyncSKU(ctx, "SKU-1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)

		_, err = store.Get(ctx, "p1")
		require.NoError(t, err)
	})

	t.Run("FullScanFallbackPersistsOnlyMatch", func(t *testing.T) {
		remote := &fakeRemote{pages: [][]domain.Product{{
			{ID: "p1", SKU: "other"},
			{ID: "p2", Variants: []domain.Variant{{SKU: "SKU-V"}}},
		}}}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{PageSize: 10})

		p, err := s.SyncSKU(ctx, "SKU-V")
		require.NoError(t, err)
		assert.Equal(t, "p2", p.ID)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, "p2", ps[0].ID)
	})

	t.Run("MissMutatesNothing", func(t *testing.T) {
		remote := &fakeRemote{pages: [][]domain.Product{{
			{ID: "p1", SKU: "other"},
		}}}
		store := newMemStore()
		s := NewSync(remote, store, nil, SyncConfig{PageSize: 10})

		_, err := s.SyncSKU(ctx, "absent")
		require.ErrorIs(t, err, domain.ErrNotFound)

		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})
}
