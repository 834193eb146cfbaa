// Package server exposes the assistant and the product catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/indexer"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/catalog"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// Assistant answers one conversation turn. It never fails; upstream faults
// surface as an error-shaped response.
type Assistant interface {
	Respond(ctx context.Context, in model.ConversationInput) *model.AssistantResponse
}

// Catalog is the product catalog behind /products.
type Catalog interface {
	Create(ctx context.Context, in catalog.ProductFields) (string, error)
	List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	Update(ctx context.Context, id string, patch catalog.ProductFields) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
}

type Deps struct {
	Assistant Assistant
	// Indexer receives products posted to /api/llm/addproduct.
	Indexer        indexer.Indexer
	Catalog        Catalog
	AllowedOrigins []string
}

func NewRouter(deps Deps) http.Handler {
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(chimiddleware.StripSlashes)
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors(deps.AllowedOrigins))

	r.Get("/", h.root)

	r.Route("/api/llm", func(r chi.Router) {
		r.Post("/response", h.respond)
		r.Post("/addproduct", h.addProduct)
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Get("/categories", h.categories)
	r.Get("/brands", h.brands)

	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled, then drains
// in-flight requests.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logx.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
