package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/agent/retrieval"
	"github.com/Chative-core-poc-v1/emily/internal/catalog"
	errx "github.com/Chative-core-poc-v1/emily/internal/core/error"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

const (
	statusSuccess = "success"

	rootMessage            = "Emily AI Retail Assistant API"
	assistantMissingDetail = "Assistant is not initialized"
	indexerMissingDetail   = "Product index is not initialized"
	catalogMissingDetail   = "Product catalog is not initialized"
	indexFailedDetail      = "Failed to add product"
)

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type detail struct {
	Detail string `json:"detail"`
}

type handlers struct {
	deps Deps
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request) {
	var in model.ConversationInput
	if err := decode(r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if h.deps.Assistant == nil {
		writeDetail(w, http.StatusInternalServerError, assistantMissingDetail)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Assistant.Respond(r.Context(), in))
}

func (h *handlers) addProduct(w http.ResponseWriter, r *http.Request) {
	var item model.ProductItem
	if err := decode(r, &item); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := item.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if h.deps.Indexer == nil {
		writeDetail(w, http.StatusInternalServerError, indexerMissingDetail)
		return
	}
	if _, err := h.deps.Indexer.Store(r.Context(), []*schema.Document{retrieval.ProductDocument(item)}); err != nil {
		logx.Error().Err(err).Int("product_id", item.ProductID).Msg("failed to index product")
		writeDetail(w, http.StatusInternalServerError, indexFailedDetail)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Product %s %s added successfully", item.Brand, item.Model),
	})
}

func (h *handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	var in catalog.ProductFields
	if err := decode(r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id, err := h.deps.Catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "Product added successfully",
		Data:    map[string]string{"product_id": id},
	})
}

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	q := r.URL.Query()
	f := catalog.Filter{
		Brand:    q.Get("brand"),
		Category: q.Get("category"),
	}
	var err error
	if f.MinPrice, err = priceParam(q.Get("min_price")); err != nil {
		writeDetail(w, http.StatusBadRequest, "min_price must be a number")
		return
	}
	if f.MaxPrice, err = priceParam(q.Get("max_price")); err != nil {
		writeDetail(w, http.StatusBadRequest, "max_price must be a number")
		return
	}

	products, err := h.deps.Catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status: statusSuccess,
		Data:   map[string]any{"products": products, "count": len(products)},
	})
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	p, err := h.deps.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: map[string]any{"product": p}})
}

func (h *handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	id := chi.URLParam(r, "id")
	var patch catalog.ProductFields
	if err := decode(r, &patch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.deps.Catalog.Update(r.Context(), id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "Product updated successfully",
		Data:    map[string]string{"product_id": id},
	})
}

func (h *handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.deps.Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "Product deleted successfully",
		Data:    map[string]string{"product_id": id},
	})
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	values, err := h.deps.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: map[string]any{"categories": values}})
}

func (h *handlers) brands(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	values, err := h.deps.Catalog.Brands(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: map[string]any{"brands": values}})
}

func (h *handlers) catalogReady(w http.ResponseWriter) bool {
	if h.deps.Catalog == nil {
		writeDetail(w, http.StatusInternalServerError, catalogMissingDetail)
		return false
	}
	return true
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func priceParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeDetail(w, status, errx.MessageOf(err))
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}
