// Package sync implements the Orchestrator: the single fixed protocol
// that drives one sync tick from harvest through lock commit.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/artifactindex"
	"github.com/cuemby/articlesync/internal/diff"
	"github.com/cuemby/articlesync/internal/events"
	"github.com/cuemby/articlesync/internal/harvester"
	"github.com/cuemby/articlesync/internal/hash"
	"github.com/cuemby/articlesync/internal/lockstore"
	"github.com/cuemby/articlesync/internal/metrics"
	"github.com/cuemby/articlesync/internal/reconcile"
	"github.com/cuemby/articlesync/internal/render"
	"github.com/cuemby/articlesync/internal/stage"
	"github.com/cuemby/articlesync/internal/syncerr"
	"github.com/cuemby/articlesync/internal/types"
	"github.com/cuemby/articlesync/internal/uploader"
)

// Report summarizes the outcome of one tick.
type Report struct {
	TickID    string
	StartedAt time.Time
	Duration  time.Duration
	New       int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int
}

// Orchestrator drives Sync against one set of backing clients. Build a
// fresh one per tick loop iteration after an error — see internal/syncloop.
type Orchestrator struct {
	harvester  *harvester.Harvester
	renderer   func(string) (string, error)
	stager     *stage.Stager
	lock       *lockstore.Store
	index      *artifactindex.Store
	uploader   *uploader.Uploader
	reconciler *reconcile.DeleteReconciler
	broker     *events.Broker
}

// New assembles an Orchestrator from its component clients. broker may
// be nil if per-article lifecycle events aren't consumed.
func New(
	h *harvester.Harvester,
	stager *stage.Stager,
	lock *lockstore.Store,
	index *artifactindex.Store,
	up *uploader.Uploader,
	reconciler *reconcile.DeleteReconciler,
	broker *events.Broker,
) *Orchestrator {
	return &Orchestrator{
		harvester:  h,
		renderer:   render.Render,
		stager:     stager,
		lock:       lock,
		index:      index,
		uploader:   up,
		reconciler: reconciler,
		broker:     broker,
	}
}

// Sync runs one complete tick: harvest, render, stage, hash, diff,
// dispatch, reconcile deletes, commit. Lock is written last — a crash at
// any earlier step leaves the prior lock in place, so the next tick
// redoes the work (step 7's replace-deletes-old-first keeps this
// idempotent on the artifact store side). tickID is the caller's
// correlation id — internal/syncloop mints one per tick and reuses it
// for the lifecycle events published around this call.
func (o *Orchestrator) Sync(ctx context.Context, tickID string) (*Report, error) {
	logger := applog.WithTickID(tickID)
	startedAt := time.Now()
	timer := metrics.NewTimer()

	logger.Info().Msg("tick started")

	articles, err := o.harvest(ctx, tickID)
	if err != nil {
		return nil, err
	}

	if err := o.renderAndStage(articles); err != nil {
		return nil, err
	}

	currentLock, err := o.hashAll(articles)
	if err != nil {
		return nil, err
	}

	previousLock, err := o.lock.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: load previous lock: %w", err)
	}

	diffTimer := metrics.NewTimer()
	result := diff.Diff(previousLock, currentLock)
	diffTimer.ObserveDuration(metrics.DiffDuration)
	metrics.ArticlesByOutcome.WithLabelValues("new").Set(float64(len(result.New)))
	metrics.ArticlesByOutcome.WithLabelValues("updated").Set(float64(len(result.Updated)))
	metrics.ArticlesByOutcome.WithLabelValues("deleted").Set(float64(len(result.Deleted)))

	byID := articlesByID(articles)

	artifacts, err := o.index.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: load artifact index: %w", err)
	}

	totalArticles := len(currentLock)

	failedIDs, err := o.dispatch(ctx, tickID, result, byID, artifacts)
	if err != nil {
		return nil, err
	}

	// A failed upload must not be committed to the lock: its id stays
	// absent from both Lock and the artifact index, so the next tick's
	// diff sees it as new/updated again and retries it.
	for id := range failedIDs {
		delete(currentLock, id)
	}

	if err := o.reconciler.Reconcile(ctx, tickID, result.Deleted, artifacts); err != nil {
		logger.Error().Err(err).Msg("delete reconciliation failed; lock commit proceeds regardless")
	}

	if err := o.lock.Put(ctx, currentLock); err != nil {
		return nil, fmt.Errorf("sync: commit lock: %w: %w", syncerr.ErrLockWrite, err)
	}

	timer.ObserveDuration(metrics.TickDuration)
	metrics.TicksTotal.WithLabelValues("success").Inc()
	metrics.RecordTickCompleted(time.Now())

	report := &Report{
		TickID:    tickID,
		StartedAt: startedAt,
		Duration:  timer.Duration(),
		New:       len(result.New),
		Updated:   len(result.Updated),
		Deleted:   len(result.Deleted),
		Unchanged: totalArticles - len(result.New) - len(result.Updated),
		Failed:    len(failedIDs),
	}

	logger.Info().
		Int("new", report.New).
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Int("unchanged", report.Unchanged).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("tick completed")

	return report, nil
}

func (o *Orchestrator) harvest(ctx context.Context, tickID string) ([]types.Article, error) {
	timer := metrics.NewTimer()
	articles, err := o.harvester.Harvest(ctx)
	timer.ObserveDuration(metrics.HarvestDuration)
	if err != nil {
		return nil, fmt.Errorf("sync: tick %s: %w: %w", tickID, syncerr.ErrHarvest, err)
	}
	metrics.ArticlesHarvestedTotal.Set(float64(len(articles)))
	return articles, nil
}

func (o *Orchestrator) renderAndStage(articles []types.Article) error {
	for i := range articles {
		md, err := o.renderer(articles[i].Body)
		if err != nil {
			return fmt.Errorf("sync: render article %d: %w", articles[i].ID, err)
		}
		articles[i].Body = md

		if _, err := o.stager.Stage(&articles[i]); err != nil {
			return fmt.Errorf("sync: stage article %d: %w", articles[i].ID, err)
		}
	}
	return nil
}

func (o *Orchestrator) hashAll(articles []types.Article) (types.Lock, error) {
	lock := make(types.Lock, len(articles))
	for _, a := range articles {
		h, err := hash.Article(&a)
		if err != nil {
			return nil, fmt.Errorf("sync: hash article %d: %w", a.ID, err)
		}
		lock[a.ID] = h
	}
	return lock, nil
}

// dispatch runs step 6 (new) and step 7 (updated) of the protocol,
// persisting artifact index updates after each batch. Returns the set
// of article ids whose upload failed, across both batches — callers
// must exclude these from the Lock commit so they're retried next tick.
func (o *Orchestrator) dispatch(ctx context.Context, tickID string, result types.DiffResult, byID map[int64]types.Article, artifacts types.ArtifactIndex) (map[int64]struct{}, error) {
	failedIDs := make(map[int64]struct{})

	if len(result.New) > 0 {
		items := itemsFor(result.New, byID, nil)
		timer := metrics.NewTimer()
		batch := o.uploader.CreateBatch(ctx, items)
		timer.ObserveDurationVec(metrics.UploadDuration, "create")
		for _, f := range batch.Failed {
			applog.WithArticleID(f.ArticleID).Error().Str("path", f.Path).Err(f.Reason).Msg("create failed for one article")
			failedIDs[f.ArticleID] = struct{}{}
			o.publishArticleEvent(events.ArticleFailed, tickID, f.ArticleID, f.Reason.Error())
		}
		for id := range batch.Successful {
			o.publishArticleEvent(events.ArticleCreated, tickID, id, "")
		}
		if err := o.persistArtifacts(ctx, batch.Successful); err != nil {
			return failedIDs, err
		}
	}

	// Step 7: demote to new when artifactId is missing.
	var updated, demoted []int64
	for _, id := range result.Updated {
		if _, ok := artifacts[id]; ok {
			updated = append(updated, id)
		} else {
			demoted = append(demoted, id)
		}
	}

	if len(demoted) > 0 {
		items := itemsFor(demoted, byID, nil)
		timer := metrics.NewTimer()
		batch := o.uploader.CreateBatch(ctx, items)
		timer.ObserveDurationVec(metrics.UploadDuration, "create")
		for _, f := range batch.Failed {
			applog.WithArticleID(f.ArticleID).Error().Str("path", f.Path).Err(f.Reason).Msg("demoted-to-create failed for one article")
			failedIDs[f.ArticleID] = struct{}{}
			o.publishArticleEvent(events.ArticleFailed, tickID, f.ArticleID, f.Reason.Error())
		}
		for id := range batch.Successful {
			o.publishArticleEvent(events.ArticleCreated, tickID, id, "")
		}
		if err := o.persistArtifacts(ctx, batch.Successful); err != nil {
			return failedIDs, err
		}
	}

	if len(updated) > 0 {
		items := itemsFor(updated, byID, artifacts)
		timer := metrics.NewTimer()
		batch := o.uploader.ReplaceBatch(ctx, items)
		timer.ObserveDurationVec(metrics.UploadDuration, "replace")
		for _, f := range batch.Failed {
			applog.WithArticleID(f.ArticleID).Error().Str("path", f.Path).Err(f.Reason).Msg("replace failed for one article")
			failedIDs[f.ArticleID] = struct{}{}
			o.publishArticleEvent(events.ArticleFailed, tickID, f.ArticleID, f.Reason.Error())
		}
		for id := range batch.Successful {
			o.publishArticleEvent(events.ArticleUpdated, tickID, id, "")
		}
		if err := o.persistArtifacts(ctx, batch.Successful); err != nil {
			return failedIDs, err
		}
	}

	metrics.UploadFailuresTotal.Add(float64(len(failedIDs)))
	return failedIDs, nil
}

// publishArticleEvent is a no-op if the Orchestrator was built without
// a broker.
func (o *Orchestrator) publishArticleEvent(eventType events.Type, tickID string, articleID int64, message string) {
	if o.broker == nil {
		return
	}
	o.broker.Publish(&events.Event{
		Type:      eventType,
		TickID:    tickID,
		ArticleID: articleID,
		Message:   message,
	})
}

func (o *Orchestrator) persistArtifacts(ctx context.Context, successful map[int64]string) error {
	if len(successful) == 0 {
		return nil
	}
	entries := make(types.ArtifactIndex, len(successful))
	for id, artifactID := range successful {
		entries[id] = artifactID
	}
	if err := o.index.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("sync: persist artifact index: %w: %w", syncerr.ErrIndexWrite, err)
	}
	return nil
}

func itemsFor(ids []int64, byID map[int64]types.Article, oldArtifacts types.ArtifactIndex) []uploader.Item {
	items := make([]uploader.Item, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			continue
		}
		item := uploader.Item{ArticleID: id, Path: a.StagedPath}
		if oldArtifacts != nil {
			item.ArtifactID = oldArtifacts[id]
		}
		items = append(items, item)
	}
	return items
}

func articlesByID(articles []types.Article) map[int64]types.Article {
	byID := make(map[int64]types.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	return byID
}
