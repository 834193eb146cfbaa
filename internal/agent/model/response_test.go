package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCardFlattensExtra(t *testing.T) {
	card := ProductCard{
		Name:        "Acme X1",
		Description: "Product description not available",
		Price:       999.0,
		Category:    "Uncategorized",
		Img:         "/default-product.jpg",
		Extra:       map[string]any{"brand": "Acme", "name": "shadowed"},
	}

	b, err := json.Marshal(card)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Acme X1", got["name"])
	assert.Equal(t, "Acme", got["brand"])
	assert.Equal(t, 999.0, got["price"])

	var back ProductCard
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "Acme X1", back.Name)
	assert.Equal(t, map[string]any{"brand": "Acme"}, back.Extra)
}

func TestAssistantResponseProductsNeverNull(t *testing.T) {
	resp := NewAssistantResponse([]ReplyMessage{{Text: "hi", FacialExpression: ExpressionDefault, Animation: AnimationIdle}}, nil)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"products":[]`)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ExpressionFunnyFace.Valid())
	assert.False(t, FacialExpression("grin").Valid())
	assert.True(t, AnimationWaving.Valid())
	assert.True(t, AnimationTalkingThree.Valid())
	assert.False(t, Animation("Moonwalk").Valid())
}

func TestProductItemDocument(t *testing.T) {
	item := ProductItem{ProductID: 7, Category: "Phones", Brand: "Acme", Model: "X1", Description: "Fast", MRP: 999, Discount: "10%"}

	assert.Equal(t, "product_7", item.DocumentID())
	assert.Equal(t, "Product: Acme X1\nCategory: Phones\nDescription: Fast\nPrice: 999\nDiscount: 10%", item.DocumentText())
	assert.Equal(t, "/products/7.jpg", item.Metadata()["img"])
	assert.Equal(t, "Acme X1", item.Metadata()["name"])
	assert.NoError(t, item.Validate())
	assert.Error(t, ProductItem{}.Validate())
}
