// Package uploader batches article artifacts into the external vector
// store: creating new files, replacing changed ones, and deleting
// retired ones, all bounded to a fixed number of in-flight operations.
package uploader

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/vectorstore"
	"golang.org/x/sync/semaphore"
)

const defaultConcurrency = 20

// FailedUpload records one article's id, path, and why its upload failed.
type FailedUpload struct {
	ArticleID int64
	Path      string
	Reason    error
}

// BatchResult partitions a batch into successes (article id -> artifact
// id) and failures.
type BatchResult struct {
	Successful map[int64]string
	Failed     []FailedUpload
}

// Item is one article queued for upload, keyed by source article id.
type Item struct {
	ArticleID  int64
	Path       string
	ArtifactID string // non-empty only for Replace/Delete
}

// Uploader drives CreateBatch/ReplaceBatch/DeleteBatch against one
// vector store collection.
type Uploader struct {
	store        *vectorstore.Client
	collectionID string
	concurrency  int64
}

// New builds an Uploader. concurrency <= 0 falls back to the default of
// 20 in-flight uploads.
func New(store *vectorstore.Client, collectionID string, concurrency int) *Uploader {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Uploader{store: store, collectionID: collectionID, concurrency: int64(concurrency)}
}

// CreateBatch uploads each item's file and attaches it to the
// collection, then issues one collection refresh.
func (u *Uploader) CreateBatch(ctx context.Context, items []Item) BatchResult {
	result := u.runBounded(ctx, items, func(ctx context.Context, item Item) (string, error) {
		return u.createOne(ctx, item)
	})
	u.refresh(ctx)
	return result
}

// ReplaceBatch deletes each item's old artifact first (ignoring
// not-found; delete failures never fail the batch, only logged), then
// creates the new artifact, then issues one collection refresh.
func (u *Uploader) ReplaceBatch(ctx context.Context, items []Item) BatchResult {
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(u.concurrency)
	for _, item := range items {
		item := item
		if item.ArtifactID == "" {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			applog.WithComponent("uploader").Warn().
				Int64("article_id", item.ArticleID).
				Err(err).
				Msg("replace: delete semaphore acquire failed, continuing")
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			if err := u.store.DetachAndDelete(ctx, u.collectionID, item.ArtifactID); err != nil {
				applog.WithComponent("uploader").Warn().
					Int64("article_id", item.ArticleID).
					Str("artifact_id", item.ArtifactID).
					Err(err).
					Msg("replace: delete of old artifact failed, continuing")
			}
		}()
	}
	wg.Wait()

	result := u.runBounded(ctx, items, func(ctx context.Context, item Item) (string, error) {
		return u.createOne(ctx, item)
	})
	u.refresh(ctx)
	return result
}

// DeleteBatch detaches and deletes each item's artifact. There is no
// collection-file upload step, so no per-item create call; a refresh is
// still issued once all deletes complete.
func (u *Uploader) DeleteBatch(ctx context.Context, items []Item) BatchResult {
	result := u.runBounded(ctx, items, func(ctx context.Context, item Item) (string, error) {
		if item.ArtifactID == "" {
			return "", fmt.Errorf("uploader: delete %d: %w", item.ArticleID, syncerr.ErrUpload)
		}
		if err := u.store.DetachAndDelete(ctx, u.collectionID, item.ArtifactID); err != nil {
			return "", fmt.Errorf("uploader: delete %d (%s): %w: %w", item.ArticleID, item.ArtifactID, syncerr.ErrUpload, err)
		}
		return item.ArtifactID, nil
	})
	u.refresh(ctx)
	return result
}

func (u *Uploader) createOne(ctx context.Context, item Item) (string, error) {
	content, err := os.ReadFile(item.Path)
	if err != nil {
		return "", fmt.Errorf("uploader: read %s: %w: %w", item.Path, syncerr.ErrUpload, err)
	}

	fileID, err := u.store.UploadBytes(ctx, item.Path, content)
	if err != nil {
		return "", fmt.Errorf("uploader: upload %s: %w: %w", item.Path, syncerr.ErrUpload, err)
	}

	if err := u.store.AttachToCollection(ctx, u.collectionID, fileID); err != nil {
		return "", fmt.Errorf("uploader: attach %s: %w: %w", item.Path, syncerr.ErrUpload, err)
	}

	return fileID, nil
}

func (u *Uploader) runBounded(ctx context.Context, items []Item, op func(context.Context, Item) (string, error)) BatchResult {
	result := BatchResult{Successful: make(map[int64]string)}
	if len(items) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(u.concurrency)

	for _, item := range items {
		item := item
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Failed = append(result.Failed, FailedUpload{ArticleID: item.ArticleID, Path: item.Path, Reason: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			artifactID, err := op(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, FailedUpload{ArticleID: item.ArticleID, Path: item.Path, Reason: err})
				return
			}
			result.Successful[item.ArticleID] = artifactID
		}()
	}
	wg.Wait()
	return result
}

func (u *Uploader) refresh(ctx context.Context) {
	if err := u.store.RefreshCollection(ctx, u.collectionID); err != nil {
		applog.WithComponent("uploader").Warn().Err(err).Msg("collection refresh failed")
	}
}
