package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// GeminiConfig holds the credentials for the shared Gemini client.
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// NewGeminiClient creates the client shared by the chat model and the
// embedder.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*genai.Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewResponseChatModel creates the chat model that writes assistant replies.
// A negative thinking budget leaves the model default in place.
func NewResponseChatModel(ctx context.Context, client *genai.Client, config *model.ResponseModelConfig) (*gemini.ChatModel, error) {
	if client == nil || config == nil {
		return nil, errors.New("gemini client and response config are required")
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       config.Model,
		Temperature: &config.Temperature,
		MaxTokens:   &config.MaxTokens,
	}
	if config.ThinkingBudget >= 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(config.ThinkingBudget),
		}
	}

	chatModel, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Response model")
		return nil, fmt.Errorf("error creating Response model: %w", err)
	}
	return chatModel, nil
}
