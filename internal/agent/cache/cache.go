// Package cache memoizes assistant responses by the raw query text.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

const DefaultSize = 100

// ResponseCache is consulted before and filled after every successful
// generation. Implementations must be safe for concurrent use.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*model.AssistantResponse, bool)
	Add(ctx context.Context, key string, resp *model.AssistantResponse)
}

// Memory is a process-local bounded LRU.
type Memory struct {
	lru *lru.Cache[string, *model.AssistantResponse]
}

func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, *model.AssistantResponse](size)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	return &Memory{lru: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) (*model.AssistantResponse, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Add(_ context.Context, key string, resp *model.AssistantResponse) {
	m.lru.Add(key, resp)
}

func (m *Memory) Len() int {
	return m.lru.Len()
}

// Redis shares cached responses between replicas. Failures are logged and
// treated as misses.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix + ":response:", ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*model.AssistantResponse, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Warn().Err(err).Msg("response cache read failed")
		}
		return nil, false
	}

	var resp model.AssistantResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logx.Warn().Err(err).Msg("response cache entry is corrupt")
		return nil, false
	}
	if resp.Products == nil {
		resp.Products = []model.ProductCard{}
	}
	return &resp, true
}

func (r *Redis) Add(ctx context.Context, key string, resp *model.AssistantResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		logx.Warn().Err(err).Msg("response cache encode failed")
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		logx.Warn().Err(err).Msg("response cache write failed")
	}
}
