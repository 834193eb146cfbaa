package model

import "time"

// ================ Config ================
type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

type EmbeddingConfig struct {
	Model      string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimensions int32  `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	CacheSize  int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`
}

type RetrieverConfig struct {
	TopK int `envconfig:"RETRIEVER_TOP_K" default:"3"`
}

type ResponsePromptConfig struct {
	PersonaName        string `envconfig:"PROMPT_PERSONA_NAME" default:"Emily"`
	BusinessType       string `envconfig:"PROMPT_BUSINESS_TYPE" default:"retail store"`
	OpeningPhrasesFile string `envconfig:"PROMPT_OPENING_PHRASES_FILE"`
}

type IndexConfig struct {
	Backend     string `envconfig:"INDEX_BACKEND" default:"redis"`
	Name        string `envconfig:"INDEX_NAME" required:"true"`
	CatalogName string `envconfig:"CATALOG_INDEX_NAME" default:"product-store"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"emily.db"`
}

type CacheConfig struct {
	Backend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	Size    int           `envconfig:"CACHE_SIZE" default:"100"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

type ServerConfig struct {
	Addr               string        `envconfig:"HTTP_ADDR" default:":8000"`
	UpstreamTimeout    time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type ConversationConfig struct {
	// MaxTurns bounds how much history reaches the prompt; 0 keeps all of it.
	MaxTurns int `envconfig:"CONVERSATION_MAX_TURNS" default:"0"`
}
