package service

import (
	"context"
	"testing"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"DataID", `{"data": {"id": "42"}}`, "42"},
		{"ResourceID", `{"resource": {"id": "r7"}}`, "r7"},
		{"TopLevelID", `{"id": "top"}`, "top"},
		{"ProductID", `{"product_id": "pid"}`, "pid"},
		{"NumericID", `{"data": {"id": 42}}`, "42"},
		{"DataWinsOverTopLevel", `{"data": {"id": "a"}, "id": "b"}`, "a"},
		{"ResourceWinsOverProductID",
			`{"resource": {"id": "a"}, "product_id": "b"}`, "a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ExtractProductID([]byte(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}

	t.Run("NoIdentity", func(t *testing.T) {
		_, err := ExtractProductID([]byte(`{"event": "product.updated"}`))
		require.ErrorIs(t, err, domain.ErrNoProductID)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := ExtractProductID([]byte(`{`))
		require.Error(t, err)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("SyncsExtractedProduct", func(t *testing.T) {
		remote := &fakeRemote{detail: map[string]domain.Product{
			"42": {ID: "42", Name: "testName"},
		}}
		store := newMemStore()
		syncer := NewSync(remote, store, nil, SyncConfig{})
		s := NewIngest(syncer)

		p, err := s.Ingest(ctx, []byte(`{"data": {"id": "42"}}`))
		require.NoError(t, err)
		assert.Equal(t, "42", p.ID)

		got, err := store.Get(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "testName", got.Name)
	})

	t.Run("RejectsPayloadWithoutIdentity", func(t *testing.T) {
		remote := &fakeRemote{}
		store := newMemStore()
		s := NewIngest(NewSync(remote, store, nil, SyncConfig{}))

		_, err := s.Ingest(ctx, []byte(`{"event": "noop"}`))
		require.ErrorIs(t, err, domain.ErrNoProductID)

		assert.Zero(t, remote.detailCalls)
		ps, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("RemoteMissSurfaces", func(t *testing.T) {
		remote := &fakeRemote{}
		store := newMemStore()
		s := NewIngest(NewSync(remote, store, nil, SyncConfig{}))

		_, err := s.Ingest(ctx, []byte(`{"id": "ghost"}`))
		require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	})
}
