// Package stage writes each article's rendered body to a local working
// directory under a deterministic, filesystem-safe filename derived from
// the article's name.
package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stager writes rendered article bodies under OutputDir.
type Stager struct {
	OutputDir string

	// SuffixWithID appends "-{id}" to every slug, eliminating name
	// collisions at the cost of changing on-disk filenames. Off by
	// default to match the documented last-write-wins behavior.
	SuffixWithID bool

	seen map[string]int64 // slug -> last article id that wrote it, for collision logging
}

// New builds a Stager writing into outputDir.
func New(outputDir string, suffixWithID bool) *Stager {
	return &Stager{OutputDir: outputDir, SuffixWithID: suffixWithID, seen: make(map[string]int64)}
}

// Stage ensures OutputDir exists, renders a.Body to
// "{OutputDir}/{slug}.md", and records the resulting path on a.
func (s *Stager) Stage(a *types.Article) (string, error) {
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("stage: mkdir %s: %w: %w", s.OutputDir, syncerr.ErrStage, err)
	}

	name := Slug(a.Name)
	if s.SuffixWithID {
		name = fmt.Sprintf("%s-%d", name, a.ID)
	}

	if prevID, ok := s.seen[name]; ok && prevID != a.ID {
		applog.WithComponent("stage").Warn().
			Str("slug", name).
			Int64("previous_article_id", prevID).
			Int64("article_id", a.ID).
			Msg("slug collision, later write wins")
	}
	s.seen[name] = a.ID

	path := filepath.Join(s.OutputDir, name+".md")
	if err := os.WriteFile(path, []byte(a.Body), 0o644); err != nil {
		return "", fmt.Errorf("stage: write %s: %w: %w", path, syncerr.ErrStage, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("stage: resolve absolute path for %s: %w: %w", path, syncerr.ErrStage, err)
	}
	path = absPath

	a.StagedPath = path
	return path, nil
}

// Slug normalizes name into a lowercase, hyphen-separated token: strip
// accents (NFKD + drop combining marks), keep letters and digits,
// collapse everything else into single hyphens, and trim leading and
// trailing hyphens.
func Slug(name string) string {
	folded, _, err := transform.String(norm.NFKD, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastWasHyphen := false
	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark dropped by NFKD decomposition, skip
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastWasHyphen = false
		default:
			if !lastWasHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastWasHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
