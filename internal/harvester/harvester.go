// Package harvester walks the remote help-center hierarchy — categories,
// then sections, then articles — and flattens the result into one
// article set for a single sync tick.
package harvester

import (
	"context"
	"fmt"

	"github.com/cuemby/articlesync/internal/sourceapi"
	"github.com/cuemby/articlesync/internal/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const defaultConcurrency = 16

// Harvester lists the remote hierarchy and flattens it into an Article set.
type Harvester struct {
	client      *sourceapi.Client
	concurrency int64
}

// New builds a Harvester. concurrency <= 0 falls back to the default of 16
// in-flight listings.
func New(client *sourceapi.Client, concurrency int) *Harvester {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Harvester{client: client, concurrency: int64(concurrency)}
}

// Harvest fetches every category, then every section within each category,
// then every article within each section. A single listing error cancels
// the whole harvest; no partial result is ever returned.
func (h *Harvester) Harvest(ctx context.Context) ([]types.Article, error) {
	categories, err := h.client.GetAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvester: list categories: %w", err)
	}

	sections, err := h.fanOutSections(ctx, categories)
	if err != nil {
		return nil, err
	}

	articles, err := h.fanOutArticles(ctx, sections)
	if err != nil {
		return nil, err
	}

	return articles, nil
}

func (h *Harvester) fanOutSections(ctx context.Context, categories []sourceapi.Category) ([]sourceapi.Section, error) {
	sem := semaphore.NewWeighted(h.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]sourceapi.Section, len(categories))
	for i, category := range categories {
		i, category := i, category
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, fmt.Errorf("harvester: acquire section slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			sections, err := h.client.GetAllSections(gctx, category.ID)
			if err != nil {
				return fmt.Errorf("harvester: list sections for category %d: %w", category.ID, err)
			}
			results[i] = sections
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []sourceapi.Section
	for _, s := range results {
		flat = append(flat, s...)
	}
	return flat, nil
}

func (h *Harvester) fanOutArticles(ctx context.Context, sections []sourceapi.Section) ([]types.Article, error) {
	sem := semaphore.NewWeighted(h.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]types.Article, len(sections))
	for i, section := range sections {
		i, section := i, section
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, fmt.Errorf("harvester: acquire article slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			remote, err := h.client.GetAllArticles(gctx, section.ID)
			if err != nil {
				return fmt.Errorf("harvester: list articles for section %d: %w", section.ID, err)
			}
			articles := make([]types.Article, len(remote))
			for j, ra := range remote {
				articles[j] = types.Article{ID: ra.ID, Name: ra.Name, Body: ra.Body}
			}
			results[i] = articles
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []types.Article
	for _, a := range results {
		flat = append(flat, a...)
	}
	return flat, nil
}
