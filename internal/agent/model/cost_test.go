package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 2_000_000, CompletionTokens: 1_000_000, TotalTokens: 3_000_000}

	u := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.Equal(t, 3_000_000, u.TotalTokens)
	assert.InDelta(t, 0.60, u.InputCost, 1e-9)
	assert.InDelta(t, 2.50, u.OutputCost, 1e-9)
	assert.InDelta(t, 3.10, u.TotalCost, 1e-9)

	assert.Zero(t, ComputeCost(usage, ResolvePricing("unknown-model")).TotalCost)
	assert.Equal(t, Usage{}, ComputeCost(nil, ResolvePricing("gemini-2.5-flash")))
}
