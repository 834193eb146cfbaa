// Package retrieval adapts the vector store to eino's retriever, indexer and
// embedder components.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/vectorstore"
)

const DefaultTopK = 3

// Retriever returns the documents most similar to a query.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	topK     int
}

func NewRetriever(embedder embedding.Embedder, store vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)

	embedder := r.embedder
	if options.Embedding != nil {
		embedder = options.Embedding
	}

	vectors, err := embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errors.New("embed query: no vector returned")
	}

	matches, err := r.store.Query(ctx, vectors[0], *options.TopK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	docs := make([]*schema.Document, 0, len(matches))
	for _, m := range matches {
		if options.ScoreThreshold != nil && m.Score < *options.ScoreThreshold {
			continue
		}
		doc := &schema.Document{ID: m.ID, Content: m.Text, MetaData: m.Metadata}
		docs = append(docs, doc.WithScore(m.Score))
	}
	return docs, nil
}

// Indexer embeds documents and upserts them into the store.
type Indexer struct {
	embedder embedding.Embedder
	store    vectorstore.Store
}

func NewIndexer(embedder embedding.Embedder, store vectorstore.Store) *Indexer {
	return &Indexer{embedder: embedder, store: store}
}

func (i *Indexer) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	options := indexer.GetCommonOptions(&indexer.Options{Embedding: i.embedder}, opts...)
	if options.Embedding == nil {
		return nil, errors.New("indexer requires an embedder")
	}

	texts := make([]string, len(docs))
	for j, d := range docs {
		texts[j] = d.Content
	}
	vectors, err := options.Embedding.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(docs))
	}

	records := make([]vectorstore.Record, len(docs))
	ids := make([]string, len(docs))
	for j, d := range docs {
		records[j] = vectorstore.Record{ID: d.ID, Text: d.Content, Embedding: vectors[j], Metadata: d.MetaData}
		ids[j] = d.ID
	}
	if err := i.store.Upsert(ctx, records...); err != nil {
		return nil, fmt.Errorf("upsert documents: %w", err)
	}
	return ids, nil
}

// ProductDocument builds the knowledge base document for a product.
func ProductDocument(item model.ProductItem) *schema.Document {
	return &schema.Document{
		ID:       item.DocumentID(),
		Content:  item.DocumentText(),
		MetaData: item.Metadata(),
	}
}
