package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/store"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run one full pipeline cycle and exit",
	Long:  "Fetch postings, clean them, persist both batches, write the daily report, and notify. Exits when done.",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	batch, err := p.RunDaily(ctx)
	if err != nil {
		logger.Error("daily run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("daily run finished",
		"batch_id", batch.ID,
		"raw_batch_id", batch.RawBatchID,
		"final_count", batch.Meta.FinalCount,
	)
	return nil
}
