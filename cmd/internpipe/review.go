package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/review"
	"github.com/internpipe/internpipe/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review <raw-batch-id>",
	Short: "Browse a raw batch's duplicate groups in an interactive TUI",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
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

	groups, err := p.DuplicateGroups(args[0])
	if err != nil {
		logger.Error("grouping failed", "error", err)
		os.Exit(1)
	}

	if _, err := review.RunReviewTUI(groups); err != nil {
		logger.Error("review tui failed", "error", err)
		os.Exit(1)
	}
	return nil
}
