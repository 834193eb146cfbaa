package nodes

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// Graph node keys.
const (
	NodeInputConverter    = "input_converter"
	NodeRetriever         = "retriever"
	NodePromptAssembler   = "prompt_assembler"
	NodeResponseTemplate  = "response_template"
	NodeResponseChatModel = "response_chat_model"
	NodeResponseParser    = "response_parser"
)

// ErrEmptyQuery is returned when the query is blank after trimming.
var ErrEmptyQuery = errors.New("query is empty")

// NewInputConverterPreHandler records the request in state for later nodes.
func NewInputConverterPreHandler() func(context.Context, model.ConversationInput, *model.GraphState) (model.ConversationInput, error) {
	return func(ctx context.Context, in model.ConversationInput, s *model.GraphState) (model.ConversationInput, error) {
		s.Input = in
		s.Documents = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode extracts the retrieval query.
func NewInputConverterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationInput) (string, error) {
		query := strings.TrimSpace(in.Query.String())
		if query == "" {
			return "", ErrEmptyQuery
		}
		return query, nil
	})
}

// NewRetrieverPostHandler keeps the retrieved documents in state.
func NewRetrieverPostHandler() func(context.Context, []*schema.Document, *model.GraphState) ([]*schema.Document, error) {
	return func(ctx context.Context, docs []*schema.Document, s *model.GraphState) ([]*schema.Document, error) {
		s.Documents = docs
		logx.Debug().Int("documents", len(docs)).Msg("Retrieved context documents")
		return docs, nil
	}
}

// NewPromptAssemblerNode turns retrieved documents plus the request held in
// state into template variables.
func NewPromptAssemblerNode(composer *prompts.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, docs []*schema.Document) (map[string]any, error) {
		var in model.ConversationInput
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.GraphState) error {
			in = s.Input
			return nil
		})
		if err != nil {
			return nil, err
		}
		// the raw query goes to the model; retrieval used the trimmed one
		return composer.Variables(in.Query.String(), docs, in.History, in.ResolvedLanguage()), nil
	})
}

// NewResponseChatModelPostHandler computes and logs usage cost for the
// response model.
func NewResponseChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.GraphState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.GraphState) (*schema.Message, error) {
		if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
			return out, nil
		}
		usage := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(modelName))
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost"] = map[string]any{
			"currency":          "USD",
			"model":             modelName,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
			"input_cost":        usage.InputCost,
			"output_cost":       usage.OutputCost,
			"total_cost":        usage.TotalCost,
		}
		state.TotalCostUSD += usage.TotalCost

		logx.Debug().
			Str("node", NodeResponseChatModel).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("total_cost_usd", usage.TotalCost).
			Msg("LLM usage")
		return out, nil
	}
}

// NewResponseParserNode normalizes the model output. It never fails.
func NewResponseParserNode(parser *parsers.ResponseParser) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*model.AssistantResponse, error) {
		raw := ""
		if msg != nil {
			raw = msg.Content
		}
		return parser.Parse(raw), nil
	})
}
