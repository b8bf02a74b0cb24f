package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/articlesync/internal/applog"
	"github.com/cuemby/articlesync/internal/config"
	"github.com/cuemby/articlesync/internal/events"
	"github.com/cuemby/articlesync/internal/kvclient"
	"github.com/cuemby/articlesync/internal/lockstore"
	"github.com/cuemby/articlesync/internal/metrics"
	"github.com/cuemby/articlesync/internal/syncloop"
	"github.com/cuemby/articlesync/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "synctl",
	Short:   "synctl drives the help-center-to-vector-store sync daemon",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("synctl version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); run and tick replace it with logLevel from config once config is loaded")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format; run and tick replace it with logJson from config once config is loaded")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(showLockCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")

	if level == "" {
		level = "info"
	}
	applog.Init(applog.Config{
		Level:      applog.Level(level),
		JSONOutput: jsonOutput,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon on its configured tick cadence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applog.Init(applog.Config{Level: applog.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		reporter := telemetry.New(cfg.TelemetrySinkURL, cfg.CallTimeout)
		loop := syncloop.New(cfg, reporter, broker)

		go serveMetrics()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		loop.Run(ctx)
		return nil
	},
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run exactly one sync tick and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applog.Init(applog.Config{Level: applog.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

		reporter := telemetry.New(cfg.TelemetrySinkURL, cfg.CallTimeout)
		loop := syncloop.New(cfg, reporter, nil)
		return loop.RunOnce(cmd.Context())
	},
}

var showLockCmd = &cobra.Command{
	Use:   "show-lock",
	Short: "Print the persisted lock as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		rdb := kvclient.New(cfg)
		defer rdb.Close()

		store := lockstore.New(rdb, cfg.LockKey)
		lock, err := store.Get(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lock)
	},
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	applog.WithComponent("synctl").Info().Str("addr", ":9090").Msg("metrics server listening")
	if err := http.ListenAndServe(":9090", mux); err != nil {
		applog.WithComponent("synctl").Error().Err(err).Msg("metrics server exited")
	}
}
