// Package artifactindex persists the {articleID -> artifactID} mapping
// as a Redis hash, so individual ids can be written or removed without
// a read-modify-write of the whole map.
package artifactindex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/articlesync/internal/types"
	"github.com/redis/go-redis/v9"
)

// Store reads and writes the ArtifactIndex under a single Redis hash key.
type Store struct {
	rdb *redis.Client
	key string
}

// New builds a Store backed by rdb, persisting under key (the configured
// default, from config.Defaults, is "article_openai_id").
func New(rdb *redis.Client, key string) *Store {
	return &Store{rdb: rdb, key: key}
}

// GetAll returns the full ArtifactIndex.
func (s *Store) GetAll(ctx context.Context) (types.ArtifactIndex, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("artifactindex: hgetall %s: %w", s.key, err)
	}

	index := make(types.ArtifactIndex, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			// A foreign subkey shouldn't stop the whole read; skip it.
			continue
		}
		index[id] = v
	}
	return index, nil
}

// SetMany writes the given entries without disturbing unrelated subkeys.
// A no-op on an empty map.
func (s *Store) SetMany(ctx context.Context, entries types.ArtifactIndex) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make(map[string]any, len(entries))
	for id, artifactID := range entries {
		fields[strconv.FormatInt(id, 10)] = artifactID
	}

	if err := s.rdb.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("artifactindex: hset %s: %w", s.key, err)
	}
	return nil
}

// RemoveMany deletes the given article ids from the index. A no-op on an
// empty slice.
func (s *Store) RemoveMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(id, 10)
	}

	if err := s.rdb.HDel(ctx, s.key, fields...).Err(); err != nil {
		return fmt.Errorf("artifactindex: hdel %s: %w", s.key, err)
	}
	return nil
}
