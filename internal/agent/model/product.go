package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ProductItem is a product submitted for indexing into the assistant's
// knowledge base.
type ProductItem struct {
	ProductID   int     `json:"Product_ID" yaml:"Product_ID"`
	Category    string  `json:"Category" yaml:"Category"`
	Brand       string  `json:"Brand" yaml:"Brand"`
	Model       string  `json:"Model" yaml:"Model"`
	Description string  `json:"Description" yaml:"Description"`
	MRP         float64 `json:"MRP" yaml:"MRP"`
	Discount    string  `json:"Discount" yaml:"Discount"`
	Stock       int     `json:"Stock" yaml:"Stock"`
	Warranty    string  `json:"Warranty" yaml:"Warranty"`
	Rating      float64 `json:"Rating" yaml:"Rating"`
	ImageURL    string  `json:"Image_URL,omitempty" yaml:"Image_URL,omitempty"`
}

// Validate checks the fields the document text cannot do without.
func (p ProductItem) Validate() error {
	var missing []string
	if p.ProductID <= 0 {
		missing = append(missing, "Product_ID")
	}
	if strings.TrimSpace(p.Brand) == "" {
		missing = append(missing, "Brand")
	}
	if strings.TrimSpace(p.Model) == "" {
		missing = append(missing, "Model")
	}
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "Category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Name is the display name used in cards and messages.
func (p ProductItem) Name() string {
	return strings.TrimSpace(p.Brand + " " + p.Model)
}

// DocumentID is the vector index key for the product.
func (p ProductItem) DocumentID() string {
	return "product_" + strconv.Itoa(p.ProductID)
}

// Image returns the supplied image URL or the conventional static path.
func (p ProductItem) Image() string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	return fmt.Sprintf("/products/%d.jpg", p.ProductID)
}

// DocumentText is the text that gets embedded for retrieval.
func (p ProductItem) DocumentText() string {
	return fmt.Sprintf("Product: %s %s\nCategory: %s\nDescription: %s\nPrice: %s\nDiscount: %s",
		p.Brand, p.Model, p.Category, p.Description, formatNumber(p.MRP), p.Discount)
}

// Metadata is stored next to the document and rendered into the prompt.
func (p ProductItem) Metadata() map[string]any {
	return map[string]any{
		"product_id":  p.ProductID,
		"category":    p.Category,
		"brand":       p.Brand,
		"model":       p.Model,
		"name":        p.Name(),
		"price":       p.MRP,
		"description": p.Description,
		"discount":    p.Discount,
		"stock":       p.Stock,
		"warranty":    p.Warranty,
		"rating":      p.Rating,
		"img":         p.Image(),
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
