package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/vectorstore"
)

// fakeEmbedder maps a text onto keyword axes so similarity is predictable.
type fakeEmbedder struct {
	calls [][]string
	err   error
}

var axes = []string{"phone", "laptop", "camera"}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, len(axes))
		for j, axis := range axes {
			if strings.Contains(strings.ToLower(text), axis) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func newStore(t *testing.T) vectorstore.Store {
	t.Helper()
	db, err := vectorstore.OpenSQLite(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return vectorstore.NewSQLiteStore(db, "kb")
}

func seed(t *testing.T, idx *Indexer) {
	t.Helper()
	items := []model.ProductItem{
		{ProductID: 1, Category: "Phones", Brand: "Acme", Model: "P1", Description: "A phone", MRP: 299},
		{ProductID: 2, Category: "Laptops", Brand: "Acme", Model: "L1", Description: "A laptop", MRP: 999},
		{ProductID: 3, Category: "Cameras", Brand: "Snap", Model: "C1", Description: "A camera", MRP: 499},
	}
	docs := make([]*schema.Document, len(items))
	for i, item := range items {
		docs[i] = ProductDocument(item)
	}
	ids, err := idx.Store(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"product_1", "product_2", "product_3"}, ids)
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	emb := &fakeEmbedder{}
	store := newStore(t)
	seed(t, NewIndexer(emb, store))

	r := NewRetriever(emb, store, 0)
	docs, err := r.Retrieve(context.Background(), "a good laptop")
	require.NoError(t, err)
	require.Len(t, docs, DefaultTopK)
	assert.Equal(t, "product_2", docs[0].ID)
	assert.Equal(t, "Acme", docs[0].MetaData["brand"])
	assert.Equal(t, "/products/2.jpg", docs[0].MetaData["img"])
	assert.InDelta(t, 1.0, docs[0].Score(), 1e-9)
}

func TestRetrieveOptions(t *testing.T) {
	emb := &fakeEmbedder{}
	store := newStore(t)
	seed(t, NewIndexer(emb, store))
	r := NewRetriever(emb, store, 3)

	docs, err := r.Retrieve(context.Background(), "camera", retriever.WithTopK(1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "product_3", docs[0].ID)

	docs, err = r.Retrieve(context.Background(), "camera", retriever.WithScoreThreshold(0.5))
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestRetrieveEmbedError(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota")}, newStore(t), 3)
	_, err := r.Retrieve(context.Background(), "phone")
	assert.ErrorContains(t, err, "quota")
}

func TestCachedEmbedderOnlyEmbedsMisses(t *testing.T) {
	inner := &fakeEmbedder{}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	_, err = cached.EmbedStrings(context.Background(), []string{"phone"})
	require.NoError(t, err)
	vecs, err := cached.EmbedStrings(context.Background(), []string{"phone", "laptop"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"phone"}, {"laptop"}}, inner.calls)
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 1, 0}}, vecs)

	_, err = cached.EmbedStrings(context.Background(), []string{"laptop", "phone"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2)
}

func TestCachedEmbedderSeparatesModels(t *testing.T) {
	inner := &fakeEmbedder{}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cached.EmbedStrings(ctx, []string{"phone"})
	require.NoError(t, err)
	_, err = cached.EmbedStrings(ctx, []string{"phone"}, embedding.WithModel("text-embedding-large"))
	require.NoError(t, err)
	require.Len(t, inner.calls, 2)

	_, err = cached.EmbedStrings(ctx, []string{"phone"}, embedding.WithModel("text-embedding-large"))
	require.NoError(t, err)
	_, err = cached.EmbedStrings(ctx, []string{"phone"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2)
}
