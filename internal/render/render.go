// Package render converts an article body from HTML, as harvested from
// the remote help center, into Markdown for staging and hashing.
package render

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
)

// Render converts html into Markdown, preserving headings, paragraphs,
// emphasis, lists, links, blockquotes, and code blocks. Empty input
// yields empty output without invoking the converter.
func Render(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("render: %w: %w", syncerr.ErrRender, err)
	}
	return md, nil
}

// Article renders a.Body in place.
func Article(a *types.Article) error {
	md, err := Render(a.Body)
	if err != nil {
		return fmt.Errorf("render article %d (%s): %w", a.ID, a.Name, err)
	}
	a.Body = md
	return nil
}
