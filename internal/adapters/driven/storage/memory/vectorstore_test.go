package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func newTestVectorStore(t *testing.T, dim int) *VectorStore {
	t.Helper()
	store := NewVectorStore()
	require.NoError(t, store.EnsureCollection(context.Background(), domain.NewCollection("kb", dim)))
	return store
}

func payload(text, category string) map[string]any {
	return map[string]any{
		domain.PayloadText:     text,
		domain.PayloadMetadata: map[string]any{"category": category},
	}
}

func TestVectorStore_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.EnsureCollection(ctx, domain.NewCollection("kb", 3)))
	require.NoError(t, store.EnsureCollection(ctx, domain.NewCollection("kb", 3)), "second call is a no-op")

	err := store.EnsureCollection(ctx, domain.NewCollection("kb", 4))
	assert.ErrorIs(t, err, domain.ErrCollectionConflict)

	err = store.EnsureCollection(ctx, domain.Collection{Name: "kb", Dimension: 3, Metric: domain.MetricDot})
	assert.ErrorIs(t, err, domain.ErrCollectionConflict)

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
}

func TestVectorStore_EnsureCollection_NonCosine(t *testing.T) {
	for _, metric := range []domain.DistanceMetric{domain.MetricDot, domain.MetricEuclid} {
		t.Run(metric.String(), func(t *testing.T) {
			store := NewVectorStore()

			err := store.EnsureCollection(context.Background(), domain.Collection{Name: "kb", Dimension: 3, Metric: metric})

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, err = store.Info(context.Background())
			assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
		})
	}
}

func TestVectorStore_EnsureCollection_Invalid(t *testing.T) {
	err := NewVectorStore().EnsureCollection(context.Background(), domain.NewCollection("", 3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_UpsertBeforeCollection(t *testing.T) {
	err := NewVectorStore().Upsert(context.Background(), "a", []float32{1}, nil)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestVectorStore_Upsert_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestVectorStore(t, 3)

	err := store.Upsert(ctx, "a", []float32{1, 0}, payload("x", "c"))
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Count, "store unchanged after rejected upsert")
}

func TestVectorStore_Upsert_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestVectorStore(t, 2)

	require.NoError(t, store.Upsert(ctx, "a", []float32{1, 0}, payload("first", "old")))
	require.NoError(t, store.Upsert(ctx, "a", []float32{1, 0}, payload("first", "new")))

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Count)

	results, err := store.Search(ctx, []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Metadata["category"])
}

func TestVectorStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestVectorStore(t, 2)

	require.NoError(t, store.Upsert(ctx, "x", []float32{1, 0}, payload("east", "geo")))
	require.NoError(t, store.Upsert(ctx, "y", []float32{1, 1}, payload("north-east", "geo")))
	require.NoError(t, store.Upsert(ctx, "z", []float32{-1, 0}, payload("west", "geo")))

	t.Run("orders by descending score", func(t *testing.T) {
		results, err := store.Search(ctx, []float32{1, 0}, 10, -1)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, []string{"x", "y", "z"}, []string{results[0].ID, results[1].ID, results[2].ID})
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, "east", results[0].Text)
	})

	t.Run("applies threshold", func(t *testing.T) {
		results, err := store.Search(ctx, []float32{1, 0}, 10, 0.5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, 0.5)
		}
	})

	t.Run("applies limit", func(t *testing.T) {
		results, err := store.Search(ctx, []float32{1, 0}, 1, -1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "x", results[0].ID)
	})

	t.Run("zero limit", func(t *testing.T) {
		results, err := store.Search(ctx, []float32{1, 0}, 0, -1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("wrong query length", func(t *testing.T) {
		_, err := store.Search(ctx, []float32{1, 0, 0}, 10, -1)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})
}

func TestVectorStore_ResultsDoNotAliasStorage(t *testing.T) {
	ctx := context.Background()
	store := newTestVectorStore(t, 2)
	require.NoError(t, store.Upsert(ctx, "a", []float32{1, 0}, payload("text", "orig")))

	results, err := store.Search(ctx, []float32{1, 0}, 1, 0)
	require.NoError(t, err)
	results[0].Metadata["category"] = "mutated"

	results, err = store.Search(ctx, []float32{1, 0}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "orig", results[0].Metadata["category"])
}

func TestVectorStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestVectorStore(t, 2)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_ = store.Upsert(ctx, string(rune('a'+id)), []float32{float32(id), 1}, payload("t", "c"))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Search(ctx, []float32{1, 1}, 5, -1)
		}()
	}
	wg.Wait()

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, info.Count)
}

func TestVectorStore_Info_NoCollection(t *testing.T) {
	_, err := NewVectorStore().Info(context.Background())
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}
