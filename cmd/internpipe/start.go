package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/scheduler"
	"github.com/internpipe/internpipe/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daily pipeline daemon",
	Long:  "Run the pipeline immediately and then on every schedule.interval tick; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"keywords", cfg.Search.Keywords,
		"location", cfg.Search.Location,
		"enrichment", cfg.Processing.Enrichment.Enabled,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	p := buildPipeline(cfg, sqlStore, httpClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(p, cfg.Schedule.Interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
