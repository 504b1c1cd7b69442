package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the internpipe pipeline.
type Config struct {
	API          APIConfig
	Search       SearchConfig
	Processing   ProcessingConfig
	Database     DatabaseConfig
	Reports      ReportsConfig
	Notification NotificationConfig
	AI           AIConfig
	Schedule     ScheduleConfig
}

// APIConfig holds job-board API credentials and pacing.
type APIConfig struct {
	Key            string        // expanded from env var by Load
	Host           string        // RapidAPI host, e.g. internships-api.p.rapidapi.com
	RequestsPerSec float64       // upstream pacing, default 1 rps
	Timeout        time.Duration // per-request timeout
}

// SearchConfig holds the default search parameters for daily runs.
type SearchConfig struct {
	Keywords []string // OR-joined title filter terms
	Location string
	Limit    int
}

// ProcessingConfig controls the cleaning stages.
type ProcessingConfig struct {
	Dedup      DedupConfig
	Filters    FilterConfig
	Enrichment EnrichmentConfig
}

// DedupConfig controls the deduplication engine.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // in (0,1], default 0.8
}

// FilterConfig holds post-dedup predicate filters.
type FilterConfig struct {
	Keywords  []string `yaml:"keywords"`   // job must mention at least one (title or description)
	Location  string   `yaml:"location"`   // substring match on location
	MinSalary int64    `yaml:"min_salary"` // drop jobs paying less, 0 disables
}

// EnrichmentConfig controls company enrichment.
type EnrichmentConfig struct {
	Enabled          bool
	WikipediaBaseURL string
	RequestsPerSec   float64
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ReportsConfig controls where report files are written.
type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// AIConfig controls the optional LLM company-profile layer.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// ScheduleConfig controls the daemon loop.
type ScheduleConfig struct {
	Interval time.Duration // gap between daily pipeline runs
}

const (
	defaultWikipediaBaseURL = "https://en.wikipedia.org/api/rest_v1"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	API          rawAPIConfig        `yaml:"api"`
	Search       rawSearchConfig     `yaml:"search"`
	Processing   rawProcessingConfig `yaml:"processing"`
	Database     DatabaseConfig      `yaml:"database"`
	Reports      ReportsConfig       `yaml:"reports"`
	Notification NotificationConfig  `yaml:"notification"`
	AI           rawAIConfig         `yaml:"ai"`
	Schedule     rawScheduleConfig   `yaml:"schedule"`
}

type rawAPIConfig struct {
	Key            string  `yaml:"key"`
	Host           string  `yaml:"host"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Timeout        string  `yaml:"timeout"`
}

type rawSearchConfig struct {
	Keywords []string `yaml:"keywords"`
	Location string   `yaml:"location"`
	Limit    int      `yaml:"limit"`
}

type rawProcessingConfig struct {
	Dedup      DedupConfig         `yaml:"deduplication"`
	Filters    FilterConfig        `yaml:"filters"`
	Enrichment rawEnrichmentConfig `yaml:"enrichment"`
}

type rawEnrichmentConfig struct {
	Enabled          bool    `yaml:"enabled"`
	WikipediaBaseURL string  `yaml:"wikipedia_base_url"`
	RequestsPerSec   float64 `yaml:"requests_per_sec"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variables in the file are expanded before
// parsing, so api keys can be written as ${RAPID_API_KEY}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	apiTimeout := 30 * time.Second // default
	if raw.API.Timeout != "" {
		apiTimeout, err = time.ParseDuration(raw.API.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse api.timeout %q: %w", raw.API.Timeout, err)
		}
	}

	apiRPS := raw.API.RequestsPerSec
	if apiRPS <= 0 {
		apiRPS = 1 // matches the upstream 1 req/s allowance
	}

	threshold := raw.Processing.Dedup.SimilarityThreshold
	if threshold == 0 {
		threshold = 0.8
	}

	wikiBase := raw.Processing.Enrichment.WikipediaBaseURL
	if wikiBase == "" {
		wikiBase = defaultWikipediaBaseURL
	}
	enrichRPS := raw.Processing.Enrichment.RequestsPerSec
	if enrichRPS <= 0 {
		enrichRPS = 1
	}

	aiTimeout := 30 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	interval := 24 * time.Hour // default: one daily run
	if raw.Schedule.Interval != "" {
		interval, err = time.ParseDuration(raw.Schedule.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.interval %q: %w", raw.Schedule.Interval, err)
		}
	}

	dbPath := raw.Database.Path
	if dbPath == "" {
		dbPath = "internships.db"
	}

	reportsDir := raw.Reports.Dir
	if reportsDir == "" {
		reportsDir = "reports"
	}

	cfg := &Config{
		API: APIConfig{
			Key:            raw.API.Key,
			Host:           raw.API.Host,
			RequestsPerSec: apiRPS,
			Timeout:        apiTimeout,
		},
		Search: SearchConfig{
			Keywords: raw.Search.Keywords,
			Location: raw.Search.Location,
			Limit:    raw.Search.Limit,
		},
		Processing: ProcessingConfig{
			Dedup:   DedupConfig{SimilarityThreshold: threshold},
			Filters: raw.Processing.Filters,
			Enrichment: EnrichmentConfig{
				Enabled:          raw.Processing.Enrichment.Enabled,
				WikipediaBaseURL: wikiBase,
				RequestsPerSec:   enrichRPS,
			},
		},
		Database:     DatabaseConfig{Path: dbPath},
		Reports:      ReportsConfig{Dir: reportsDir},
		Notification: raw.Notification,
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Schedule: ScheduleConfig{Interval: interval},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.API.Key == "" {
		return fmt.Errorf("api.key is required")
	}
	if cfg.API.Host == "" {
		return fmt.Errorf("api.host is required")
	}

	if len(cfg.Search.Keywords) == 0 {
		return fmt.Errorf("search.keywords must list at least one term")
	}

	t := cfg.Processing.Dedup.SimilarityThreshold
	if t <= 0 || t > 1 {
		return fmt.Errorf("processing.deduplication.similarity_threshold must be in (0,1], got %v", t)
	}

	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
