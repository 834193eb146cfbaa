package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Metadata keys of a catalog record.
const (
	keyBrand       = "brand"
	keyCategory    = "category"
	keyDescription = "description"
	keyMRP         = "MRP"
	keyStock       = "stock"
	keyWarranty    = "warranty"
	keyCreatedAt   = "created_at"
	keyUpdatedAt   = "updated_at"
)

// Product is a catalog entry as returned to clients.
type Product struct {
	ID          string  `json:"id"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	MRP         float64 `json:"MRP"`
	Stock       int     `json:"stock"`
	Warranty    string  `json:"warranty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ProductFields is the request body for create (all fields required) and
// update (only non-nil fields are applied).
type ProductFields struct {
	Brand       *string  `json:"brand,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	MRP         *float64 `json:"MRP,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Warranty    *string  `json:"warranty,omitempty"`
}

// ValidateCreate reports every missing field.
func (f ProductFields) ValidateCreate() error {
	var missing []string
	if f.Brand == nil {
		missing = append(missing, keyBrand)
	}
	if f.Category == nil {
		missing = append(missing, keyCategory)
	}
	if f.Description == nil {
		missing = append(missing, keyDescription)
	}
	if f.MRP == nil {
		missing = append(missing, keyMRP)
	}
	if f.Stock == nil {
		missing = append(missing, keyStock)
	}
	if f.Warranty == nil {
		missing = append(missing, keyWarranty)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks values that are present.
func (f ProductFields) Validate() error {
	if f.MRP != nil && *f.MRP < 0 {
		return errors.New("MRP must not be negative")
	}
	if f.Stock != nil && *f.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}

// apply merges the non-nil fields onto p.
func (f ProductFields) apply(p *Product) {
	if f.Brand != nil {
		p.Brand = *f.Brand
	}
	if f.Category != nil {
		p.Category = *f.Category
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.MRP != nil {
		p.MRP = *f.MRP
	}
	if f.Stock != nil {
		p.Stock = *f.Stock
	}
	if f.Warranty != nil {
		p.Warranty = *f.Warranty
	}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Brand    string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

func (f Filter) match(p Product) bool {
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.MRP < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.MRP > *f.MaxPrice {
		return false
	}
	return true
}

func (p Product) metadata() map[string]any {
	return map[string]any{
		keyBrand:       p.Brand,
		keyCategory:    p.Category,
		keyDescription: p.Description,
		keyMRP:         p.MRP,
		keyStock:       p.Stock,
		keyWarranty:    p.Warranty,
		keyCreatedAt:   p.CreatedAt,
		keyUpdatedAt:   p.UpdatedAt,
	}
}

func (p Product) text() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s\n%s", p.Brand, p.Category, p.Description))
}

func productFromMetadata(id string, meta map[string]any) Product {
	return Product{
		ID:          id,
		Brand:       str(meta[keyBrand]),
		Category:    str(meta[keyCategory]),
		Description: str(meta[keyDescription]),
		MRP:         num(meta[keyMRP]),
		Stock:       int(num(meta[keyStock])),
		Warranty:    str(meta[keyWarranty]),
		CreatedAt:   str(meta[keyCreatedAt]),
		UpdatedAt:   str(meta[keyUpdatedAt]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
