// Package hash computes the deterministic content hash the orchestrator
// uses to detect whether an article's body has changed since the last
// sync.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
)

// Hash returns the lowercase hex SHA-256 digest of body's UTF-8 bytes.
// An empty body is rejected: empty bodies collide across unrelated
// articles and would mask genuine content changes in the lock.
func Hash(body string) (types.ContentHash, error) {
	if body == "" {
		return "", syncerr.ErrEmptyBody
	}
	sum := sha256.Sum256([]byte(body))
	return types.ContentHash(hex.EncodeToString(sum[:])), nil
}

// Article hashes a.Body, returning syncerr.ErrEmptyBody wrapped with the
// article id and name for a legible log line.
func Article(a *types.Article) (types.ContentHash, error) {
	h, err := Hash(a.Body)
	if err != nil {
		return "", fmt.Errorf("article %d (%s): %w", a.ID, a.Name, err)
	}
	return h, nil
}
