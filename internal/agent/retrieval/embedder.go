package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
)

// GeminiEmbedder implements embedding.Embedder on top of the Gemini
// EmbedContent API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

func NewGeminiEmbedder(client *genai.Client, cfg *model.EmbeddingConfig) *GeminiEmbedder {
	return &GeminiEmbedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	options := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dimensions)
	}

	resp, err := e.client.Models.EmbedContent(ctx, *options.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// CachedEmbedder memoizes embeddings per model and text in a bounded LRU.
// Only misses reach the wrapped embedder, in one batch.
type CachedEmbedder struct {
	inner embedding.Embedder
	cache *lru.Cache[string, []float64]
}

func NewCachedEmbedder(inner embedding.Embedder, size int) (*CachedEmbedder, error) {
	if inner == nil {
		return nil, errors.New("embedder is required")
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	var modelName string
	if m := embedding.GetCommonOptions(&embedding.Options{}, opts...).Model; m != nil {
		modelName = *m
	}

	out := make([][]float64, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if vec, ok := c.cache.Get(cacheKey(modelName, text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}
	for i, vec := range vectors {
		out[missIdx[i]] = vec
		c.cache.Add(cacheKey(modelName, missTexts[i]), vec)
	}
	return out, nil
}

// cacheKey scopes a text to the model override; "" is the wrapped
// embedder's default model.
func cacheKey(modelName, text string) string {
	return modelName + "\x00" + text
}
