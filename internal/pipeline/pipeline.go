// Package pipeline owns the full daily run: fetch, persist raw, clean,
// persist processed, report, notify.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/internpipe/internpipe/internal/config"
	"github.com/internpipe/internpipe/internal/dedup"
	"github.com/internpipe/internpipe/internal/model"
	"github.com/internpipe/internpipe/internal/report"
)

// Pipeline wires the fetch and cleaning stages together.
type Pipeline struct {
	source   model.JobSource
	deduper  *dedup.Deduper
	store    model.Store
	enricher model.Enricher
	reporter *report.Reporter
	notifier model.Notifier
	search   config.SearchConfig
	filters  config.FilterConfig
	logger   *slog.Logger
}

// New creates a pipeline wired with all its dependencies.
// enricher may be nil to disable the enrichment stage.
func New(
	source model.JobSource,
	deduper *dedup.Deduper,
	store model.Store,
	enricher model.Enricher,
	reporter *report.Reporter,
	notifier model.Notifier,
	search config.SearchConfig,
	filters config.FilterConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		source:   source,
		deduper:  deduper,
		store:    store,
		enricher: enricher,
		reporter: reporter,
		notifier: notifier,
		search:   search,
		filters:  filters,
		logger:   logger,
	}
}

// RunDaily executes one full cycle: fetch jobs, save the raw batch, clean it,
// save the processed batch, write the daily report, and notify.
func (p *Pipeline) RunDaily(ctx context.Context) (*model.Batch, error) {
	query := model.SearchQuery{
		Keywords: p.search.Keywords,
		Location: p.search.Location,
		Limit:    p.search.Limit,
	}

	jobs, err := p.source.SearchJobs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("daily run: fetching jobs: %w", err)
	}

	now := time.Now().UTC()
	rawBatch := model.Batch{
		Jobs: jobs,
		Meta: model.BatchMeta{
			FetchedAt:     now.Format(time.RFC3339),
			Keywords:      query.Keywords,
			Location:      query.Location,
			OriginalCount: len(jobs),
		},
	}

	rawID, err := p.store.SaveRawBatch(rawBatch)
	if err != nil {
		return nil, fmt.Errorf("daily run: saving raw batch: %w", err)
	}

	processed := p.Clean(ctx, jobs, rawBatch.Meta)
	processed.RawBatchID = rawID

	processedID, err := p.store.SaveProcessedBatch(*processed)
	if err != nil {
		return nil, fmt.Errorf("daily run: saving processed batch: %w", err)
	}
	processed.ID = processedID

	date := now.Format("2006-01-02")
	if _, _, err := p.reporter.Daily(processed, date); err != nil {
		return nil, fmt.Errorf("daily run: writing report: %w", err)
	}

	if len(processed.Jobs) > 0 {
		if err := p.notifier.Notify(processed.Jobs); err != nil {
			return nil, fmt.Errorf("daily run: notifying: %w", err)
		}
	}

	p.logger.Info("daily run complete",
		"fetched", processed.Meta.OriginalCount,
		"after_dedup", processed.Meta.AfterDedup,
		"after_filtering", processed.Meta.AfterFiltering,
		"after_verification", processed.Meta.AfterVerification,
		"final", processed.Meta.FinalCount,
	)
	return processed, nil
}

// Clean runs the in-memory cleaning stages over jobs and returns a processed
// batch with per-stage counts: dedup, predicate filters, fake-posting
// screening, then company enrichment.
func (p *Pipeline) Clean(ctx context.Context, jobs []model.Job, meta model.BatchMeta) *model.Batch {
	meta.OriginalCount = len(jobs)

	unique := p.deduper.RemoveDuplicates(jobs)
	meta.AfterDedup = len(unique)

	filtered := p.applyFilters(unique)
	meta.AfterFiltering = len(filtered)

	verified := dropLikelyFakes(filtered)
	meta.AfterVerification = len(verified)

	enriched := p.enrichCompanies(ctx, verified)
	meta.FinalCount = len(enriched)

	return &model.Batch{Jobs: enriched, Meta: meta}
}

// applyFilters keeps jobs passing every configured predicate: at least one
// keyword in title or description, location substring match, and minimum
// salary. Unset predicates pass everything.
func (p *Pipeline) applyFilters(jobs []model.Job) []model.Job {
	filtered := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if len(p.filters.Keywords) > 0 {
			text := strings.ToLower(job.Title + " " + job.Description)
			if !containsAny(text, p.filters.Keywords) {
				continue
			}
		}

		if p.filters.Location != "" {
			if !strings.Contains(strings.ToLower(job.Location), strings.ToLower(p.filters.Location)) {
				continue
			}
		}

		if p.filters.MinSalary > 0 {
			if job.Salary == nil || job.Salary.Max < p.filters.MinSalary {
				continue
			}
		}

		filtered = append(filtered, job)
	}
	return filtered
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// dropLikelyFakes screens out postings matching the scam pattern: a
// work-from-home title promising no experience needed and immediate start.
func dropLikelyFakes(jobs []model.Job) []model.Job {
	verified := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if !isLikelyFake(job) {
			verified = append(verified, job)
		}
	}
	return verified
}

func isLikelyFake(job model.Job) bool {
	title := strings.ToLower(job.Title)
	desc := strings.ToLower(job.Description)
	return strings.Contains(title, "work from home") &&
		strings.Contains(desc, "no experience") &&
		strings.Contains(desc, "immediate start")
}

// enrichCompanies attaches company metadata to each job. Enrichment failures
// never drop a job.
func (p *Pipeline) enrichCompanies(ctx context.Context, jobs []model.Job) []model.Job {
	if p.enricher == nil {
		return jobs
	}

	enriched := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Company != "" {
			info, err := p.enricher.EnrichCompany(ctx, job.Company)
			if err != nil {
				p.logger.Warn("company enrichment failed", "company", job.Company, "error", err)
			} else {
				job.CompanyInfo = info
			}
		}
		enriched = append(enriched, job)
	}
	return enriched
}

// RunWeekly aggregates the last seven days of processed batches into a
// summary report ending today.
func (p *Pipeline) RunWeekly(ctx context.Context) (*report.WeeklySummary, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -6)
	return p.WeeklyRange(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// WeeklyRange writes a summary over processed batches between startDate and
// endDate inclusive.
func (p *Pipeline) WeeklyRange(_ context.Context, startDate, endDate string) (*report.WeeklySummary, error) {
	batches, err := p.store.ProcessedBatchesInRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("weekly run: loading batches: %w", err)
	}

	_, summary, err := p.reporter.Weekly(batches, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("weekly run: writing summary: %w", err)
	}
	return summary, nil
}

// RunSearch fetches and cleans jobs for an ad-hoc query without persisting,
// reporting, or notifying.
func (p *Pipeline) RunSearch(ctx context.Context, query model.SearchQuery) (*model.Batch, error) {
	jobs, err := p.source.SearchJobs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: fetching jobs: %w", err)
	}

	meta := model.BatchMeta{
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
		Keywords:  query.Keywords,
		Location:  query.Location,
	}
	return p.Clean(ctx, jobs, meta), nil
}

// DuplicateGroups exposes the deduper's grouping over a raw batch, for the
// review tooling.
func (p *Pipeline) DuplicateGroups(rawBatchID string) ([][]model.Job, error) {
	batch, err := p.store.RawBatch(rawBatchID)
	if err != nil {
		return nil, fmt.Errorf("loading raw batch %s: %w", rawBatchID, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("raw batch %s not found", rawBatchID)
	}
	return p.deduper.DuplicateGroups(batch.Jobs), nil
}
