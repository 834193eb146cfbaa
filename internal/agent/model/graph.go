package model

import (
	"github.com/cloudwego/eino/schema"
)

// GraphState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - Read and written only inside Eino state handlers (WithStatePreHandler,
//     WithStatePostHandler) or compose.ProcessState, which serialize access.
type GraphState struct {
	Input     ConversationInput
	Documents []*schema.Document // set by the retriever post-handler

	// Accumulated LLM cost (USD) for this query
	TotalCostUSD float64
}
