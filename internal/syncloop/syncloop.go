// Package syncloop drives internal/sync.Orchestrator on a fixed cadence,
// rebuilding a fresh Orchestrator (and its backing clients) whenever a
// tick fails, rather than retrying with potentially poisoned state.
package syncloop

import (
	"context"
	"time"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/artifactindex"
	"github.com/cuemby/articlesync/internal/config"
	"github.com/cuemby/articlesync/internal/events"
	"github.com/cuemby/articlesync/internal/harvester"
	"github.com/cuemby/articlesync/internal/kvclient"
	"github.com/cuemby/articlesync/internal/lockstore"
	"github.com/cuemby/articlesync/internal/metrics"
	"github.com/cuemby/articlesync/internal/reconcile"
	"github.com/cuemby/articlesync/internal/sourceapi"
	"github.com/cuemby/articlesync/internal/stage"
	"github.com/cuemby/articlesync/internal/sync"
	"github.com/cuemby/articlesync/internal/telemetry"
	"github.com/cuemby/articlesync/internal/uploader"
	"github.com/cuemby/articlesync/internal/vectorstore"
	"github.com/google/uuid"
)

// Build assembles a fresh Orchestrator from cfg: new HTTP clients, a new
// Redis connection, a new vector-store client. Called once at startup
// and again after any tick error, so a tick never reuses a connection
// that may have been left in a bad state by the failure that preceded it.
// broker may be nil if per-article lifecycle events aren't consumed.
func Build(cfg config.Config, broker *events.Broker) *sync.Orchestrator {
	client := sourceapi.NewClient(cfg.SourceAPIURL, cfg.SourceLocale, cfg.CallTimeout)
	h := harvester.New(client, cfg.HarvestConcurrency)

	stager := stage.New(cfg.OutputDir, cfg.SlugSuffixWithID)

	rdb := kvclient.New(cfg)
	lock := lockstore.New(rdb, cfg.LockKey)
	index := artifactindex.New(rdb, cfg.ArtifactIndexKey)

	vs := vectorstore.New(cfg.VectorStoreAPIKey, cfg.CallTimeout)
	vs.SetBaseURL(cfg.VectorStoreBaseURL)
	up := uploader.New(vs, cfg.CollectionName, cfg.UploadConcurrency)

	reconciler := reconcile.New(up, index, cfg.ReconcileDeletes, broker)

	return sync.New(h, stager, lock, index, up, reconciler, broker)
}

// Loop drives Orchestrator.Sync on a fixed cadence until ctx is
// cancelled. A tick error is logged, reported via telemetry and the
// event broker, and followed by a backoff sleep and a rebuilt
// Orchestrator; the loop itself never returns except on cancellation.
type Loop struct {
	cfg      config.Config
	reporter *telemetry.Reporter
	broker   *events.Broker
}

// New builds a Loop. broker may be nil if lifecycle events aren't consumed.
func New(cfg config.Config, reporter *telemetry.Reporter, broker *events.Broker) *Loop {
	return &Loop{cfg: cfg, reporter: reporter, broker: broker}
}

// Run blocks until ctx is cancelled, invoking Sync every cfg.TickInterval.
func (l *Loop) Run(ctx context.Context) {
	logger := applog.WithComponent("syncloop")
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	orchestrator := Build(l.cfg, l.broker)
	logger.Info().Dur("interval", l.cfg.TickInterval).Msg("tick loop started")

	for {
		select {
		case <-ticker.C:
			orchestrator = l.tick(ctx, orchestrator)
		case <-ctx.Done():
			logger.Info().Msg("tick loop stopped")
			return
		}
	}
}

// RunOnce performs a single tick without waiting for the ticker. Used by
// the CLI's one-shot "tick" subcommand.
func (l *Loop) RunOnce(ctx context.Context) error {
	orchestrator := Build(l.cfg, l.broker)
	_, err := orchestrator.Sync(ctx, uuid.NewString())
	return err
}

func (l *Loop) tick(ctx context.Context, orchestrator *sync.Orchestrator) *sync.Orchestrator {
	logger := applog.WithComponent("syncloop")
	tickID := uuid.NewString()
	l.publish(events.TickStarted, tickID, "")

	report, err := orchestrator.Sync(ctx, tickID)
	if err != nil {
		logger.Error().Err(err).Msg("tick failed, rebuilding orchestrator")
		metrics.TicksTotal.WithLabelValues("error").Inc()
		l.publish(events.TickFailed, tickID, err.Error())
		l.reportFailure(ctx, err)

		select {
		case <-time.After(l.cfg.TickErrorBackoff):
		case <-ctx.Done():
		}
		return Build(l.cfg, l.broker)
	}

	metrics.RecordTickCompleted(time.Now())
	l.publish(events.TickCompleted, tickID, "")
	l.reportSuccess(ctx, report)
	return orchestrator
}

func (l *Loop) publish(eventType events.Type, tickID, message string) {
	if l.broker == nil {
		return
	}
	l.broker.Publish(&events.Event{Type: eventType, TickID: tickID, Message: message})
}

func (l *Loop) reportSuccess(ctx context.Context, report *sync.Report) {
	if l.reporter == nil {
		return
	}
	l.reporter.Report(ctx, telemetry.TickReport{
		TickID:    report.TickID,
		StartedAt: report.StartedAt,
		Duration:  report.Duration.Seconds(),
		New:       report.New,
		Updated:   report.Updated,
		Deleted:   report.Deleted,
		Unchanged: report.Unchanged,
		Failed:    report.Failed,
	})
}

func (l *Loop) reportFailure(ctx context.Context, err error) {
	if l.reporter == nil {
		return
	}
	l.reporter.Report(ctx, telemetry.TickReport{
		StartedAt: time.Now(),
		Error:     err.Error(),
	})
}
