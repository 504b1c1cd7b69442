package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/internpipe/internpipe/internal/ai"
	"github.com/internpipe/internpipe/internal/client"
	"github.com/internpipe/internpipe/internal/config"
	"github.com/internpipe/internpipe/internal/dedup"
	"github.com/internpipe/internpipe/internal/enrich"
	"github.com/internpipe/internpipe/internal/model"
	"github.com/internpipe/internpipe/internal/notifier"
	"github.com/internpipe/internpipe/internal/pipeline"
	"github.com/internpipe/internpipe/internal/ratelimit"
	"github.com/internpipe/internpipe/internal/report"
	"github.com/internpipe/internpipe/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

const (
	retryMaxAttempts = 2
	retryBaseDelay   = 5 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "internpipe",
	Short: "Internship pipeline: fetch, dedup, enrich, report",
	Long:  "InternPipe fetches internship postings daily, removes duplicates, screens out scams, enriches companies, and writes digest reports.",
	// Default to `start` so that `internpipe` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: INTERNPIPE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > INTERNPIPE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("INTERNPIPE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildSource wires the job board client with rate limiting and retries.
func buildSource(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.JobSource {
	var source model.JobSource = client.NewRapidAPIClient(cfg.API.Key, cfg.API.Host, httpClient)
	source = ratelimit.NewPacedSource(source, ratelimit.NewLimiter(cfg.API.RequestsPerSec))
	source = retry.NewRetrySource(source, retryMaxAttempts, retryBaseDelay, logger)
	return source
}

// buildEnricher wires the Wikipedia enricher and the optional LLM profiler.
// Returns nil when enrichment is disabled.
func buildEnricher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Enricher {
	if !cfg.Processing.Enrichment.Enabled {
		return nil
	}

	var profiler ai.CompanyProfiler
	if cfg.AI.Enabled {
		provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
		profiler = ai.NewLLMCompanyProfiler(provider, ai.CompanyProfileTemplate, logger)
		logger.Info("llm company profiling enabled", "model", cfg.AI.Model)
	}

	limiter := ratelimit.NewLimiter(cfg.Processing.Enrichment.RequestsPerSec)
	return enrich.NewWikipediaEnricher(cfg.Processing.Enrichment.WikipediaBaseURL, httpClient, limiter, profiler, logger)
}

// buildPipeline assembles a pipeline around the given store.
func buildPipeline(cfg *config.Config, jobStore model.Store, httpClient *http.Client, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(
		buildSource(cfg, httpClient, logger),
		dedup.New(cfg.Processing.Dedup.SimilarityThreshold, logger),
		jobStore,
		buildEnricher(cfg, httpClient, logger),
		report.NewReporter(cfg.Reports.Dir, logger),
		setupNotifier(cfg, httpClient, logger),
		cfg.Search,
		cfg.Processing.Filters,
		logger,
	)
}
