package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/articlesync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugBasic(t *testing.T) {
	assert.Equal(t, "hello-world", Slug("Hello, World!"))
}

func TestSlugCollapsesRuns(t *testing.T) {
	assert.Equal(t, "a-b-c", Slug("a   --- b___c"))
}

func TestSlugTrimsLeadingTrailingHyphens(t *testing.T) {
	assert.Equal(t, "article", Slug("  !!! Article !!!  "))
}

func TestSlugUnicodeNormalizes(t *testing.T) {
	assert.Equal(t, "cafe-resume", Slug("Café Résumé"))
}

func TestSlugIsDeterministic(t *testing.T) {
	assert.Equal(t, Slug("Some Article Name"), Slug("Some Article Name"))
}

func TestStageWritesFileAndRecordsPath(t *testing.T) {
	dir := t.TempDir()
	stager := New(filepath.Join(dir, "out"), false)

	a := &types.Article{ID: 1, Name: "My Article", Body: "# Hi"}
	path, err := stager.Stage(a)
	require.NoError(t, err)

	assert.Equal(t, path, a.StagedPath)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Hi", string(content))
}

func TestStageOverwritesOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	stager := New(dir, false)

	a := &types.Article{ID: 1, Name: "Doc", Body: "v1"}
	_, err := stager.Stage(a)
	require.NoError(t, err)

	a.Body = "v2"
	path, err := stager.Stage(a)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
}

func TestStageCollidingNamesLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	stager := New(dir, false)

	a1 := &types.Article{ID: 1, Name: "Report", Body: "first"}
	a2 := &types.Article{ID: 2, Name: "Report!", Body: "second"}

	p1, err := stager.Stage(a1)
	require.NoError(t, err)
	p2, err := stager.Stage(a2)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	content, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestStageSuffixWithIDEliminatesCollisions(t *testing.T) {
	dir := t.TempDir()
	stager := New(dir, true)

	a1 := &types.Article{ID: 1, Name: "Report", Body: "first"}
	a2 := &types.Article{ID: 2, Name: "Report", Body: "second"}

	p1, err := stager.Stage(a1)
	require.NoError(t, err)
	p2, err := stager.Stage(a2)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestStageCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	stager := New(dir, false)

	a := &types.Article{ID: 1, Name: "Doc", Body: "hi"}
	_, err := stager.Stage(a)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
