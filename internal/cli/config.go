package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/core"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/emily/pkg/redis"
)

// Backend names accepted by INDEX_BACKEND and CACHE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// AppConfig is the whole service configuration, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	Index model.IndexConfig
	Cache model.CacheConfig

	// LLM provider
	Gemini nodes.GeminiConfig

	// Agent configs
	Response     model.ResponseModelConfig
	Embedding    model.EmbeddingConfig
	Retriever    model.RetrieverConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig

	Server model.ServerConfig
}

// LoadConfig reads envFile when it exists and binds the environment onto
// AppConfig.
func LoadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
			logx.Warn().Str("file", envFile).Msg("env file not found, using process environment")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints envconfig cannot express.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Index.Backend {
	case BackendRedis, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", BackendRedis, BackendSQLite, c.Index.Backend))
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend))
	}
	if c.needsRedis() && !c.Redis.Enabled() {
		errs = append(errs, errors.New("REDIS_URL is required when a redis backend is selected"))
	}
	if c.Retriever.TopK <= 0 {
		errs = append(errs, fmt.Errorf("RETRIEVER_TOP_K must be positive, got %d", c.Retriever.TopK))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size))
	}
	return errors.Join(errs...)
}

func (c *AppConfig) needsRedis() bool {
	return c.Index.Backend == BackendRedis || c.Cache.Backend == BackendRedis
}
