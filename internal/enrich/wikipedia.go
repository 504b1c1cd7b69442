// Package enrich augments company names with metadata from Wikipedia and,
// optionally, an LLM profiler.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/internpipe/internpipe/internal/ai"
	"github.com/internpipe/internpipe/internal/model"
)

// searchEndpoint is the MediaWiki action API used when a direct page-summary
// lookup misses (company name differs from the article title).
const searchEndpoint = "https://en.wikipedia.org/w/api.php"

// WikipediaEnricher looks up company metadata on Wikipedia. Results are
// cached in memory for the lifetime of the enricher, so each company is
// fetched at most once per run.
type WikipediaEnricher struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	profiler   ai.CompanyProfiler
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]*model.CompanyInfo
}

// NewWikipediaEnricher creates an enricher against the Wikipedia REST API at
// baseURL. profiler may be nil to disable LLM augmentation.
func NewWikipediaEnricher(baseURL string, httpClient *http.Client, limiter *rate.Limiter, profiler ai.CompanyProfiler, logger *slog.Logger) *WikipediaEnricher {
	return &WikipediaEnricher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		profiler:   profiler,
		logger:     logger,
		cache:      make(map[string]*model.CompanyInfo),
	}
}

// EnrichCompany returns metadata for the named company. Lookup failures are
// not fatal: the result may carry empty fields and an empty source list.
func (e *WikipediaEnricher) EnrichCompany(ctx context.Context, name string) (*model.CompanyInfo, error) {
	e.mu.Lock()
	if cached, ok := e.cache[name]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	info := &model.CompanyInfo{Name: name, Sources: []string{}}

	summary, err := e.pageSummary(ctx, name)
	if err != nil {
		// Cancelled context aborts the whole lookup.
		if ctx.Err() != nil {
			return nil, err
		}
		e.logger.Debug("wikipedia summary lookup failed", "company", name, "error", err)
		summary, err = e.searchFallback(ctx, name)
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
	}

	if summary != nil && summary.Extract != "" {
		info.WikiSummary = summary.Extract
		info.Description = summary.Extract
		info.Sources = append(info.Sources, "wikipedia")
	}

	if e.profiler != nil {
		if err := e.profiler.Profile(ctx, info); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			e.logger.Warn("llm company profile failed", "company", name, "error", err)
		}
	}

	e.mu.Lock()
	e.cache[name] = info
	e.mu.Unlock()

	return info, nil
}

// pageSummaryResponse mirrors the fields we use from the REST summary endpoint.
type pageSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// pageSummary fetches /page/summary/{title} with spaces underscored.
func (e *WikipediaEnricher) pageSummary(ctx context.Context, title string) (*pageSummaryResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wikipedia rate limiter: %w", err)
	}

	slug := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	endpoint := e.baseURL + "/page/summary/" + slug

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("wikipedia summary for %q", title),
		}
	}

	var summary pageSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("wikipedia summary: decode: %w", err)
	}
	return &summary, nil
}

// searchResponse mirrors the MediaWiki search API result list.
type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// searchFallback runs a full-text search for the company and retries the
// summary lookup with the best-matching article title.
func (e *WikipediaEnricher) searchFallback(ctx context.Context, name string) (*pageSummaryResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wikipedia rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", name)
	params.Set("srlimit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("wikipedia search for %q", name),
		}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("wikipedia search: decode: %w", err)
	}
	if len(sr.Query.Search) == 0 {
		return nil, fmt.Errorf("wikipedia search for %q: no results", name)
	}

	return e.pageSummary(ctx, sr.Query.Search[0].Title)
}

// CacheSize reports how many companies are cached.
func (e *WikipediaEnricher) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// ClearCache empties the company cache.
func (e *WikipediaEnricher) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*model.CompanyInfo)
}
