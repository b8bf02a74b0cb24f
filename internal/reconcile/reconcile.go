// Package reconcile is the Orchestrator's delete-reconciliation
// extension point: record-only by default, optionally active against
// the external artifact store.
package reconcile

import (
	"context"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/artifactindex"
	"github.com/cuemby/articlesync/internal/events"
	"github.com/cuemby/articlesync/internal/metrics"
	"github.com/cuemby/articlesync/internal/types"
	"github.com/cuemby/articlesync/internal/uploader"
)

// DeleteReconciler decides what happens to articles the Differ reports
// as deleted. Record-only mode (the default) leaves the artifact index
// and remote store untouched — a deleted id simply stops appearing in
// the lock. Active mode removes the backing artifact too.
type DeleteReconciler struct {
	uploader *uploader.Uploader
	index    *artifactindex.Store
	active   bool
	broker   *events.Broker
}

// New builds a DeleteReconciler. active toggles between record-only
// (false) and active deletion against the remote store (true). broker
// may be nil if per-article lifecycle events aren't consumed.
func New(up *uploader.Uploader, index *artifactindex.Store, active bool, broker *events.Broker) *DeleteReconciler {
	return &DeleteReconciler{uploader: up, index: index, active: active, broker: broker}
}

// Reconcile handles a tick's deleted article ids. In record-only mode it
// only logs; in active mode it deletes the backing artifacts and prunes
// the artifact index.
func (r *DeleteReconciler) Reconcile(ctx context.Context, tickID string, deleted []int64, artifacts types.ArtifactIndex) error {
	if len(deleted) == 0 {
		return nil
	}

	logger := applog.WithComponent("reconcile")

	if !r.active {
		logger.Info().Int("count", len(deleted)).Msg("record-only: deleted articles left in artifact store")
		return nil
	}

	timer := metrics.NewTimer()
	items := make([]uploader.Item, 0, len(deleted))
	for _, id := range deleted {
		artifactID, ok := artifacts[id]
		if !ok {
			logger.Warn().Int64("article_id", id).Msg("deleted article has no artifact id, skipping")
			continue
		}
		items = append(items, uploader.Item{ArticleID: id, ArtifactID: artifactID})
	}

	result := r.uploader.DeleteBatch(ctx, items)
	timer.ObserveDurationVec(metrics.UploadDuration, "delete")

	for _, failure := range result.Failed {
		logger.Error().Str("path", failure.Path).Err(failure.Reason).Msg("delete reconciliation failed for one article")
		r.publish(events.ArticleFailed, tickID, failure.ArticleID, failure.Reason.Error())
	}
	metrics.UploadFailuresTotal.Add(float64(len(result.Failed)))

	if len(result.Successful) > 0 {
		ids := make([]int64, 0, len(result.Successful))
		for id := range result.Successful {
			ids = append(ids, id)
			r.publish(events.ArticleDeleted, tickID, id, "")
		}
		if err := r.index.RemoveMany(ctx, ids); err != nil {
			return err
		}
	}

	logger.Info().
		Int("deleted", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Dur("duration", timer.Duration()).
		Msg("delete reconciliation complete")

	return nil
}

func (r *DeleteReconciler) publish(eventType events.Type, tickID string, articleID int64, message string) {
	if r.broker == nil {
		return
	}
	r.broker.Publish(&events.Event{Type: eventType, TickID: tickID, ArticleID: articleID, Message: message})
}
