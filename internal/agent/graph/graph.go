package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/emily/internal/agent/cache"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

const defaultPersonaName = "Emily"

// GraphConfig holds all collaborators needed to build the graph.
type GraphConfig struct {
	ChatModel einomodel.BaseChatModel
	ModelName string
	Retriever retriever.Retriever
	Composer  *prompts.Composer
	Parser    *parsers.ResponseParser
}

// Config adds the orchestration concerns around the compiled graph.
type Config struct {
	Graph           GraphConfig
	Cache           cache.ResponseCache
	UpstreamTimeout time.Duration
	PersonaName     string
}

// Orchestrator answers a conversation turn with exactly one
// AssistantResponse. It never returns an error.
type Orchestrator struct {
	runnable compose.Runnable[model.ConversationInput, *model.AssistantResponse]
	cache    cache.ResponseCache
	timeout  time.Duration
	persona  string
}

// NewOrchestrator builds the graph and wires the cache around it.
func NewOrchestrator(ctx context.Context, cfg Config) (*Orchestrator, error) {
	if cfg.Cache == nil {
		return nil, errors.New("response cache is nil")
	}
	runnable, err := BuildGraph(ctx, &cfg.Graph)
	if err != nil {
		return nil, err
	}

	persona := cfg.PersonaName
	if persona == "" {
		persona = defaultPersonaName
	}

	logx.Debug().Msg("Response graph built successfully")
	return &Orchestrator{
		runnable: runnable,
		cache:    cfg.Cache,
		timeout:  cfg.UpstreamTimeout,
		persona:  persona,
	}, nil
}

// Respond serves from the cache when the raw query was answered before and
// otherwise runs retrieve, prompt, generate and parse. Failures produce the
// fixed error response, which is never cached.
func (o *Orchestrator) Respond(ctx context.Context, in model.ConversationInput) (resp *model.AssistantResponse) {
	key := in.Query.String()
	if cached, ok := o.cache.Get(ctx, key); ok {
		logx.Debug().Str("query", key).Msg("response cache hit")
		return cached
	}

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("orchestrator recovered from panic")
			resp = ErrorResponse(o.persona)
		}
	}()

	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	out, err := o.runnable.Invoke(runCtx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("query", key).Msg("Error generating response")
		return ErrorResponse(o.persona)
	}
	if out == nil || len(out.Messages) != model.MessageCount {
		logx.Error().Str("query", key).Msg("graph returned an incomplete response")
		return ErrorResponse(o.persona)
	}

	o.cache.Add(ctx, key, out)
	return out
}

// ErrorResponse is returned for any upstream failure.
func ErrorResponse(persona string) *model.AssistantResponse {
	return model.NewAssistantResponse([]model.ReplyMessage{
		{Text: fmt.Sprintf("Hello there! I'm %s, your virtual assistant.", persona), FacialExpression: model.ExpressionSmile, Animation: model.AnimationTalkingOne},
		{Text: "I apologize, but I encountered an error processing your request.", FacialExpression: model.ExpressionSad, Animation: model.AnimationSadIdle},
		{Text: "Is there something else I can help you with today?", FacialExpression: model.ExpressionDefault, Animation: model.AnimationIdle},
	}, nil)
}

// BuildGraph constructs and returns the compiled response graph:
// input converter, retriever, prompt assembler, chat template, chat model,
// response parser.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ConversationInput, *model.AssistantResponse], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not properly initialized")
	}
	if config.Retriever == nil {
		return nil, fmt.Errorf("retriever is nil")
	}
	if config.Composer == nil || config.Parser == nil {
		return nil, fmt.Errorf("prompt composer or response parser is nil")
	}

	g := compose.NewGraph[model.ConversationInput, *model.AssistantResponse](
		compose.WithGenLocalState(func(ctx context.Context) *model.GraphState {
			return &model.GraphState{}
		}),
	)

	err := errors.Join(
		g.AddLambdaNode(nodes.NodeInputConverter,
			nodes.NewInputConverterNode(),
			compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		),
		g.AddRetrieverNode(nodes.NodeRetriever,
			config.Retriever,
			compose.WithStatePostHandler(nodes.NewRetrieverPostHandler()),
		),
		g.AddLambdaNode(nodes.NodePromptAssembler,
			nodes.NewPromptAssemblerNode(config.Composer),
		),
		g.AddChatTemplateNode(nodes.NodeResponseTemplate,
			config.Composer.Template(),
		),
		g.AddChatModelNode(nodes.NodeResponseChatModel,
			config.ChatModel,
			compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(config.ModelName)),
		),
		g.AddLambdaNode(nodes.NodeResponseParser,
			nodes.NewResponseParserNode(config.Parser),
		),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error adding graph nodes")
		return nil, fmt.Errorf("error adding graph nodes: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeRetriever},
		{nodes.NodeRetriever, nodes.NodePromptAssembler},
		{nodes.NodePromptAssembler, nodes.NodeResponseTemplate},
		{nodes.NodeResponseTemplate, nodes.NodeResponseChatModel},
		{nodes.NodeResponseChatModel, nodes.NodeResponseParser},
		{nodes.NodeResponseParser, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("emily_response"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
