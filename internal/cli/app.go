package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Chative-core-poc-v1/emily/internal/agent/cache"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/emily/internal/agent/retrieval"
	"github.com/Chative-core-poc-v1/emily/internal/catalog"
	"github.com/Chative-core-poc-v1/emily/internal/vectorstore"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// app holds the long-lived handles built once per process.
type app struct {
	cfg *AppConfig

	rdb *redis.Client
	db  *sql.DB

	assistant *graph.Orchestrator
	indexer   *retrieval.Indexer
	catalog   *catalog.Service
}

func newApp(ctx context.Context, cfg *AppConfig) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	if cfg.needsRedis() {
		if a.rdb, err = cfg.Redis.New(ctx); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logx.Info().Msg("Connected to Redis successfully")
	}
	if cfg.Index.Backend == BackendSQLite {
		if a.db, err = vectorstore.OpenSQLite(cfg.Index.SQLitePath); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}

	client, err := nodes.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	embedder, err := retrieval.NewCachedEmbedder(retrieval.NewGeminiEmbedder(client, &cfg.Embedding), cfg.Embedding.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	knowledge := a.store(cfg.Index.Name)
	a.indexer = retrieval.NewIndexer(embedder, knowledge)
	a.catalog = catalog.NewService(a.store(cfg.Index.CatalogName))

	chatModel, err := nodes.NewResponseChatModel(ctx, client, &cfg.Response)
	if err != nil {
		return nil, err
	}

	parserOpts := []parsers.Option{parsers.WithPersona(cfg.Prompt.PersonaName)}
	if cfg.Prompt.OpeningPhrasesFile != "" {
		phrases, err := loadOpeningPhrases(cfg.Prompt.OpeningPhrasesFile)
		if err != nil {
			return nil, err
		}
		parserOpts = append(parserOpts, parsers.WithOpeningPhrases(phrases))
	}

	responses, err := a.responseCache()
	if err != nil {
		return nil, err
	}

	a.assistant, err = graph.NewOrchestrator(ctx, graph.Config{
		Graph: graph.GraphConfig{
			ChatModel: chatModel,
			ModelName: cfg.Response.Model,
			Retriever: retrieval.NewRetriever(embedder, knowledge, cfg.Retriever.TopK),
			Composer:  prompts.NewComposer(cfg.Prompt, conversations.NewMessagesManager(cfg.Prompt.PersonaName, cfg.Conversation)),
			Parser:    parsers.NewResponseParser(parserOpts...),
		},
		Cache:           responses,
		UpstreamTimeout: cfg.Server.UpstreamTimeout,
		PersonaName:     cfg.Prompt.PersonaName,
	})
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	return a, nil
}

func (a *app) store(index string) vectorstore.Store {
	if a.cfg.Index.Backend == BackendSQLite {
		return vectorstore.NewSQLiteStore(a.db, index)
	}
	return vectorstore.NewRedisStore(a.rdb, index)
}

func (a *app) responseCache() (cache.ResponseCache, error) {
	if a.cfg.Cache.Backend == BackendRedis {
		return cache.NewRedis(a.rdb, a.cfg.Index.Name, a.cfg.Cache.TTL), nil
	}
	mem, err := cache.NewMemory(a.cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("build response cache: %w", err)
	}
	return mem, nil
}

func (a *app) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
