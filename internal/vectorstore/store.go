// Package vectorstore persists documents with their embeddings and answers
// nearest neighbour queries. Each Store value is bound to a single index
// name so the assistant knowledge base and the product catalog stay apart.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"
)

// ErrNotFound is returned (wrapped) by Fetch and Delete for unknown ids.
var ErrNotFound = errors.New("record not found")

// Record is one stored document. Embedding may be empty for records that
// are only ever looked up by id.
type Record struct {
	ID        string
	Text      string
	Embedding []float64
	Metadata  map[string]any
}

// Match is a Record scored against a query vector.
type Match struct {
	Record
	Score float64
}

// Store is implemented by every backend.
type Store interface {
	// Upsert inserts or fully replaces records by id.
	Upsert(ctx context.Context, records ...Record) error
	Fetch(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	// Query returns at most topK records ranked by cosine similarity.
	Query(ctx context.Context, vector []float64, topK int) ([]Match, error)
	// List returns every record ordered by id.
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// CosineSimilarity returns 0 when either vector is empty, zero or the
// dimensions differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores records against vector and keeps the best topK. Records
// without an embedding never match.
func rank(records []Record, vector []float64, topK int) []Match {
	matches := make([]Match, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		matches = append(matches, Match{Record: r, Score: CosineSimilarity(vector, r.Embedding)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func sortByID(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}
