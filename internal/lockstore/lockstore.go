// Package lockstore persists the {articleID -> contentHash} lock as a
// single JSON value under one Redis key.
//
// Reads tolerate two encodings: the canonical bare JSON object, and a
// legacy encoding where the object was itself JSON-string-escaped (the
// "JSON-path-typed KV command" layout the original implementation used
// before settling on a plain blob). Writes always produce the canonical
// form. This lets a deployment migrate off the legacy layout without a
// separate migration step: the first successful tick after upgrade
// rewrites the key canonically.
package lockstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
	"github.com/redis/go-redis/v9"
)

// Store reads and writes the Lock under a single Redis key.
type Store struct {
	rdb *redis.Client
	key string
}

// New builds a Store backed by rdb, persisting under key (the configured
// default, from config.Defaults, is "lock:all").
func New(rdb *redis.Client, key string) *Store {
	return &Store{rdb: rdb, key: key}
}

// Get returns the persisted Lock, or an empty Lock if the key does not
// exist yet (cold start). Returns syncerr.ErrCorruptLock if the stored
// value cannot be decoded under either the canonical or legacy encoding.
func (s *Store) Get(ctx context.Context) (types.Lock, error) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return types.Lock{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lockstore: get %s: %w", s.key, err)
	}

	asMap, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("lockstore: decode %s: %w: %w", s.key, syncerr.ErrCorruptLock, err)
	}

	lock := make(types.Lock, len(asMap))
	for k, v := range asMap {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lockstore: non-integer key %q: %w", k, syncerr.ErrCorruptLock)
		}
		lock[id] = types.ContentHash(v)
	}
	return lock, nil
}

// Put overwrites the persisted Lock in a single call, in canonical
// (bare-object) encoding.
func (s *Store) Put(ctx context.Context, lock types.Lock) error {
	encoded := make(map[string]string, len(lock))
	for id, h := range lock {
		encoded[strconv.FormatInt(id, 10)] = string(h)
	}

	data, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("lockstore: marshal: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("lockstore: put %s: %w", s.key, err)
	}
	return nil
}

// decode accepts either `{"1":"abc"}` (canonical) or `"{\"1\":\"abc\"}"`
// (legacy, double-encoded as a JSON string) and returns the plain map.
func decode(raw string) (map[string]string, error) {
	var asMap map[string]string
	if err := json.Unmarshal([]byte(raw), &asMap); err == nil {
		return asMap, nil
	}

	var asString string
	if err := json.Unmarshal([]byte(raw), &asString); err != nil {
		return nil, fmt.Errorf("value is neither an object nor a JSON string: %w", err)
	}
	if err := json.Unmarshal([]byte(asString), &asMap); err != nil {
		return nil, fmt.Errorf("legacy-encoded value is not an object: %w", err)
	}
	return asMap, nil
}
