package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/model"
	"github.com/internpipe/internpipe/internal/store"
)

var (
	searchLocation string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Ad-hoc search: fetch and clean, print results, persist nothing",
	Long:  "Run the fetch and cleaning stages for the given keywords (defaults to search.keywords from config) and print the surviving postings. Nothing is stored, reported, or notified.",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "location filter (defaults to search.location from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results, 0 = API default")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	query := model.SearchQuery{
		Keywords: cfg.Search.Keywords,
		Location: cfg.Search.Location,
		Limit:    cfg.Search.Limit,
	}
	if len(args) > 0 {
		query.Keywords = args
	}
	if searchLocation != "" {
		query.Location = searchLocation
	}
	if searchLimit > 0 {
		query.Limit = searchLimit
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	p := buildPipeline(cfg, store.NewNopStore(), httpClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batch, err := p.RunSearch(ctx, query)
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	for _, job := range batch.Jobs {
		fmt.Printf("%s · %s\n", job.Company, job.Title)
		if job.Location != "" {
			fmt.Printf("    %s\n", job.Location)
		}
		if job.URL != "" {
			fmt.Printf("    %s\n", job.URL)
		}
	}
	fmt.Printf("\n%d postings (%d fetched, %d duplicates removed)\n",
		batch.Meta.FinalCount,
		batch.Meta.OriginalCount,
		batch.Meta.OriginalCount-batch.Meta.AfterDedup,
	)
	return nil
}
