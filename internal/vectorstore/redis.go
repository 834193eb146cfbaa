package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldText      = "text"
	fieldMetadata  = "metadata"
	fieldEmbedding = "embedding"
)

// RedisStore keeps each record in a hash at "<index>:product:<id>" and the
// set of ids at "<index>:ids".
type RedisStore struct {
	client redis.Cmdable
	index  string
}

// NewRedisStore binds a store to index on an existing client. The client is
// owned by the caller.
func NewRedisStore(client redis.Cmdable, index string) *RedisStore {
	return &RedisStore{client: client, index: index}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:product:%s", s.index, id)
}

func (s *RedisStore) idsKey() string {
	return s.index + ":ids"
}

func (s *RedisStore) Upsert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	type encoded struct {
		id     string
		fields map[string]any
	}
	batch := make([]encoded, 0, len(records))
	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", r.ID, err)
		}
		emb, err := json.Marshal(r.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding %s: %w", r.ID, err)
		}
		batch = append(batch, encoded{id: r.ID, fields: map[string]any{
			fieldText:      r.Text,
			fieldMetadata:  string(meta),
			fieldEmbedding: string(emb),
		}})
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range batch {
			key := s.key(e.id)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, e.fields)
			pipe.SAdd(ctx, s.idsKey(), e.id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}
	return nil
}

func (s *RedisStore) Fetch(ctx context.Context, id string) (*Record, error) {
	values, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", id, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("fetch record %s: %w", id, ErrNotFound)
	}
	return decodeHash(id, values)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.idsKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete record %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Query(ctx context.Context, vector []float64, topK int) ([]Match, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return rank(records, vector, topK), nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.key(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]Record, 0, len(ids))
	for i, id := range ids {
		values := cmds[i].Val()
		// ids left behind by a partial delete are skipped
		if len(values) == 0 {
			continue
		}
		r, err := decodeHash(id, values)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	sortByID(records)
	return records, nil
}

// Close is a no-op; the client belongs to the caller.
func (s *RedisStore) Close() error {
	return nil
}

func decodeHash(id string, values map[string]string) (*Record, error) {
	r := &Record{ID: id, Text: values[fieldText]}
	if raw := values[fieldMetadata]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", id, err)
		}
	}
	if raw := values[fieldEmbedding]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &r.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", id, err)
		}
	}
	return r, nil
}
