package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	h1, err := Hash("hello world")
	require.NoError(t, err)
	h2, err := Hash("hello world")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashMatchesSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("some body"))
	want := types.ContentHash(hex.EncodeToString(sum[:]))

	got, err := Hash("some body")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHashDiffersOnDifferentBody(t *testing.T) {
	h1, _ := Hash("a")
	h2, _ := Hash("b")
	assert.NotEqual(t, h1, h2)
}

func TestHashWhitespaceOnlyIsValid(t *testing.T) {
	got, err := Hash("   \n\t  ")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestHashEmptyBodyFails(t *testing.T) {
	_, err := Hash("")
	assert.True(t, errors.Is(err, syncerr.ErrEmptyBody))
}

func TestArticleWrapsEmptyBodyError(t *testing.T) {
	a := &types.Article{ID: 42, Name: "Empty Article", Body: ""}
	_, err := Article(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncerr.ErrEmptyBody))
	assert.Contains(t, err.Error(), "42")
}
