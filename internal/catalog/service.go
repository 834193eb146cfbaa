// Package catalog manages the product catalog index behind the /products
// endpoints. Catalog records carry no embeddings.
package catalog

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	errx "github.com/Chative-core-poc-v1/emily/internal/core/error"
	"github.com/Chative-core-poc-v1/emily/internal/vectorstore"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// ListLimit caps the number of products a List call returns.
const ListLimit = 100

type Service struct {
	store vectorstore.Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store vectorstore.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Create stores a new product and returns its id.
func (s *Service) Create(ctx context.Context, in ProductFields) (string, error) {
	if err := errors.Join(in.ValidateCreate(), in.Validate()); err != nil {
		return "", errx.Invalid(err)
	}
	now := s.timestamp()
	p := Product{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&p)

	if err := s.put(ctx, p); err != nil {
		return "", err
	}
	logx.Info().Str("product_id", p.ID).Msg("catalog product created")
	return p.ID, nil
}

// List returns up to ListLimit products matching f, ordered by id.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !f.match(p) {
			continue
		}
		out = append(out, p)
		if len(out) == ListLimit {
			break
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	rec, err := s.store.Fetch(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	p := productFromMetadata(rec.ID, rec.Metadata)
	return &p, nil
}

// Update merges the non-nil fields into the stored product. created_at is
// kept and updated_at refreshed.
func (s *Service) Update(ctx context.Context, id string, patch ProductFields) error {
	if err := patch.Validate(); err != nil {
		return errx.Invalid(err)
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	patch.apply(p)
	p.UpdatedAt = s.timestamp()
	if p.CreatedAt == "" {
		p.CreatedAt = p.UpdatedAt
	}
	return s.put(ctx, *p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	logx.Info().Str("product_id", id).Msg("catalog product deleted")
	return nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(p Product) string { return p.Category })
}

// Brands returns the distinct non-empty brands, sorted.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(p Product) string { return p.Brand })
}

func (s *Service) distinct(ctx context.Context, field func(Product) string) ([]string, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range products {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) all(ctx context.Context) ([]Product, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	products := make([]Product, len(records))
	for i, r := range records {
		products[i] = productFromMetadata(r.ID, r.Metadata)
	}
	return products, nil
}

func (s *Service) put(ctx context.Context, p Product) error {
	err := s.store.Upsert(ctx, vectorstore.Record{ID: p.ID, Text: p.text(), Metadata: p.metadata()})
	if err != nil {
		logx.Error().Err(err).Str("product_id", p.ID).Msg("catalog upsert failed")
		return errx.WrapStore(err)
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, vectorstore.ErrNotFound) {
		return errx.NotFound(errx.ProductNotFoundMessage)
	}
	return errx.WrapStore(err)
}
