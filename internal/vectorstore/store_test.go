package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, index string) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, index)
}

func newSQLiteStore(t *testing.T, index string) *SQLiteStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, index)
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"redis":  newRedisStore(t, "products"),
		"sqlite": newSQLiteStore(t, "products"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := Record{
				ID:        "product_1",
				Text:      "Product: Acme X1",
				Embedding: []float64{1, 0, 0},
				Metadata:  map[string]any{"brand": "Acme", "price": 999.0},
			}
			require.NoError(t, store.Upsert(ctx, rec))

			got, err := store.Fetch(ctx, "product_1")
			require.NoError(t, err)
			assert.Equal(t, rec, *got)

			// upsert replaces metadata wholesale
			rec.Metadata = map[string]any{"brand": "Zeta"}
			require.NoError(t, store.Upsert(ctx, rec))
			got, err = store.Fetch(ctx, "product_1")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"brand": "Zeta"}, got.Metadata)

			require.NoError(t, store.Delete(ctx, "product_1"))
			_, err = store.Fetch(ctx, "product_1")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, "product_1"), ErrNotFound)
		})
	}
}

func TestStoreQueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Upsert(ctx,
				Record{ID: "a", Text: "a", Embedding: []float64{1, 0}},
				Record{ID: "b", Text: "b", Embedding: []float64{0.7, 0.7}},
				Record{ID: "c", Text: "c", Embedding: []float64{0, 1}},
				Record{ID: "d", Text: "catalog only"},
			))

			matches, err := store.Query(ctx, []float64{1, 0.1}, 2)
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, "a", matches[0].ID)
			assert.Equal(t, "b", matches[1].ID)
			assert.Greater(t, matches[0].Score, matches[1].Score)

			all, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "a", all[0].ID)
			assert.Equal(t, "d", all[3].ID)
		})
	}
}

func TestStoresAreIsolatedByIndex(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	defer db.Close()

	kb := NewSQLiteStore(db, "kb")
	catalog := NewSQLiteStore(db, "product-store")
	require.NoError(t, kb.Upsert(ctx, Record{ID: "1", Text: "kb"}))

	_, err = catalog.Fetch(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}
