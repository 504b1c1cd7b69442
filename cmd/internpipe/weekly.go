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

var (
	weeklyStart string
	weeklyEnd   string
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Write a weekly summary report and exit",
	Long:  "Aggregate the processed batches of the last seven days (or an explicit --start/--end range) into a JSON summary.",
	RunE:  runWeekly,
}

func init() {
	weeklyCmd.Flags().StringVar(&weeklyStart, "start", "", "range start date (YYYY-MM-DD)")
	weeklyCmd.Flags().StringVar(&weeklyEnd, "end", "", "range end date (YYYY-MM-DD)")
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(cmd *cobra.Command, args []string) error {
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

	var summaryErr error
	if weeklyStart != "" && weeklyEnd != "" {
		_, summaryErr = p.WeeklyRange(ctx, weeklyStart, weeklyEnd)
	} else {
		_, summaryErr = p.RunWeekly(ctx)
	}
	if summaryErr != nil {
		logger.Error("weekly run failed", "error", summaryErr)
		os.Exit(1)
	}
	return nil
}
