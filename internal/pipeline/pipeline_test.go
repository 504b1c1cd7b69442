package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/internpipe/internpipe/internal/config"
	"github.com/internpipe/internpipe/internal/dedup"
	"github.com/internpipe/internpipe/internal/model"
	"github.com/internpipe/internpipe/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	jobs []model.Job
	err  error
}

func (s *fakeSource) SearchJobs(_ context.Context, _ model.SearchQuery) ([]model.Job, error) {
	return s.jobs, s.err
}

type fakeStore struct {
	rawSaved       []model.Batch
	processedSaved []model.Batch
	rawByID        map[string]*model.Batch
	inRange        []model.Batch
}

func (s *fakeStore) SaveRawBatch(batch model.Batch) (string, error) {
	batch.ID = "raw-1"
	s.rawSaved = append(s.rawSaved, batch)
	return batch.ID, nil
}

func (s *fakeStore) SaveProcessedBatch(batch model.Batch) (string, error) {
	batch.ID = "proc-1"
	s.processedSaved = append(s.processedSaved, batch)
	return batch.ID, nil
}

func (s *fakeStore) RawBatch(id string) (*model.Batch, error) {
	return s.rawByID[id], nil
}

func (s *fakeStore) ProcessedBatchByDate(_ string) (*model.Batch, error) { return nil, nil }

func (s *fakeStore) ProcessedBatchesInRange(_, _ string) ([]model.Batch, error) {
	return s.inRange, nil
}

type fakeEnricher struct {
	calls []string
	err   error
}

func (e *fakeEnricher) EnrichCompany(_ context.Context, name string) (*model.CompanyInfo, error) {
	e.calls = append(e.calls, name)
	if e.err != nil {
		return nil, e.err
	}
	return &model.CompanyInfo{Name: name, Industry: "Software"}, nil
}

type fakeNotifier struct {
	notified []model.Job
	err      error
}

func (n *fakeNotifier) Notify(jobs []model.Job) error {
	n.notified = append(n.notified, jobs...)
	return n.err
}

func newTestPipeline(t *testing.T, source model.JobSource, store model.Store, enricher model.Enricher, notifier model.Notifier, filters config.FilterConfig) *Pipeline {
	t.Helper()
	return New(
		source,
		dedup.New(dedup.DefaultThreshold, discardLogger()),
		store,
		enricher,
		report.NewReporter(t.TempDir(), discardLogger()),
		notifier,
		config.SearchConfig{Keywords: []string{"intern"}, Location: "United States"},
		filters,
		discardLogger(),
	)
}

func TestRunDaily_FullCycle(t *testing.T) {
	jobs := []model.Job{
		{ID: "1", Title: "Software Engineering Intern", Company: "Acme Corp", Description: "Build services.", URL: "https://a/1"},
		// Exact duplicate of the first posting under a different URL.
		{ID: "2", Title: "Software Engineering Intern", Company: "Acme Corp", Description: "Build services.", URL: "https://a/2"},
		// Scam pattern: dropped by verification.
		{ID: "3", Title: "Work From Home Intern", Company: "Shady LLC", Description: "No experience needed, immediate start!"},
		{ID: "4", Title: "Data Intern", Company: "Globex", Description: "Analyze pipelines."},
	}

	store := &fakeStore{}
	enricher := &fakeEnricher{}
	notifier := &fakeNotifier{}
	p := newTestPipeline(t, &fakeSource{jobs: jobs}, store, enricher, notifier, config.FilterConfig{})

	processed, err := p.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("RunDaily: %v", err)
	}

	meta := processed.Meta
	if meta.OriginalCount != 4 {
		t.Errorf("OriginalCount = %d, want 4", meta.OriginalCount)
	}
	if meta.AfterDedup != 3 {
		t.Errorf("AfterDedup = %d, want 3", meta.AfterDedup)
	}
	if meta.AfterVerification != 2 {
		t.Errorf("AfterVerification = %d, want 2", meta.AfterVerification)
	}
	if meta.FinalCount != 2 {
		t.Errorf("FinalCount = %d, want 2", meta.FinalCount)
	}

	if len(store.rawSaved) != 1 || len(store.rawSaved[0].Jobs) != 4 {
		t.Errorf("raw batch not saved with all fetched jobs")
	}
	if len(store.processedSaved) != 1 {
		t.Fatalf("processed batches saved = %d, want 1", len(store.processedSaved))
	}
	if store.processedSaved[0].RawBatchID != "raw-1" {
		t.Errorf("RawBatchID = %q, want raw-1", store.processedSaved[0].RawBatchID)
	}

	if len(notifier.notified) != 2 {
		t.Errorf("notified = %d jobs, want 2", len(notifier.notified))
	}

	for _, job := range processed.Jobs {
		if job.CompanyInfo == nil {
			t.Errorf("job %s missing enrichment", job.ID)
		}
	}
}

func TestRunDaily_FetchErrorPropagates(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{err: errors.New("upstream down")}, &fakeStore{}, nil, &fakeNotifier{}, config.FilterConfig{})

	if _, err := p.RunDaily(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestRunDaily_NoNotifyOnEmptyResult(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("should not be called")}
	p := newTestPipeline(t, &fakeSource{jobs: nil}, &fakeStore{}, nil, notifier, config.FilterConfig{})

	if _, err := p.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily: %v", err)
	}
	if len(notifier.notified) != 0 {
		t.Errorf("notifier called with %d jobs, want 0", len(notifier.notified))
	}
}

func TestApplyFilters(t *testing.T) {
	jobs := []model.Job{
		{ID: "1", Title: "Software Intern", Description: "Go backend", Location: "New York, NY, US", Salary: &model.Salary{Max: 40}},
		{ID: "2", Title: "Barista", Description: "Coffee", Location: "New York, NY, US", Salary: &model.Salary{Max: 20}},
		{ID: "3", Title: "Software Intern", Description: "Go backend", Location: "London, UK", Salary: &model.Salary{Max: 50}},
		{ID: "4", Title: "Software Intern", Description: "Go backend", Location: "New York, NY, US"},
	}

	p := newTestPipeline(t, nil, &fakeStore{}, nil, &fakeNotifier{}, config.FilterConfig{
		Keywords:  []string{"software"},
		Location:  "new york",
		MinSalary: 30,
	})

	got := p.applyFilters(jobs)
	if len(got) != 1 || got[0].ID != "1" {
		ids := make([]string, len(got))
		for i, j := range got {
			ids[i] = j.ID
		}
		t.Errorf("filtered IDs = %v, want [1]", ids)
	}
}

func TestApplyFilters_UnsetPassesAll(t *testing.T) {
	jobs := []model.Job{{ID: "1"}, {ID: "2"}}
	p := newTestPipeline(t, nil, &fakeStore{}, nil, &fakeNotifier{}, config.FilterConfig{})

	if got := p.applyFilters(jobs); len(got) != 2 {
		t.Errorf("filtered = %d, want 2", len(got))
	}
}

func TestIsLikelyFake(t *testing.T) {
	fake := model.Job{
		Title:       "Work From Home Data Entry Intern",
		Description: "No experience required! Immediate start available.",
	}
	if !isLikelyFake(fake) {
		t.Error("expected scam pattern to be flagged")
	}

	// Only two of three markers.
	legit := model.Job{
		Title:       "Work From Home Support Intern",
		Description: "No experience needed, we train you over six weeks.",
	}
	if isLikelyFake(legit) {
		t.Error("two markers should not be flagged")
	}
}

func TestClean_EnrichmentFailureKeepsJob(t *testing.T) {
	enricher := &fakeEnricher{err: errors.New("wikipedia down")}
	p := newTestPipeline(t, nil, &fakeStore{}, enricher, &fakeNotifier{}, config.FilterConfig{})

	jobs := []model.Job{{ID: "1", Title: "Data Intern", Company: "Globex"}}
	batch := p.Clean(context.Background(), jobs, model.BatchMeta{})

	if len(batch.Jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(batch.Jobs))
	}
	if batch.Jobs[0].CompanyInfo != nil {
		t.Error("CompanyInfo should be nil after enrichment failure")
	}
	if len(enricher.calls) != 1 {
		t.Errorf("enricher calls = %d, want 1", len(enricher.calls))
	}
}

func TestRunSearch_DoesNotPersistOrNotify(t *testing.T) {
	jobs := []model.Job{{ID: "1", Title: "Data Intern", Company: "Globex"}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	p := newTestPipeline(t, &fakeSource{jobs: jobs}, store, nil, notifier, config.FilterConfig{})

	batch, err := p.RunSearch(context.Background(), model.SearchQuery{Keywords: []string{"data"}})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(batch.Jobs) != 1 {
		t.Errorf("jobs = %d, want 1", len(batch.Jobs))
	}
	if len(store.rawSaved) != 0 || len(store.processedSaved) != 0 {
		t.Error("search run should not persist batches")
	}
	if len(notifier.notified) != 0 {
		t.Error("search run should not notify")
	}
}

func TestWeeklyRange(t *testing.T) {
	store := &fakeStore{inRange: []model.Batch{
		{Jobs: []model.Job{{Company: "Acme Corp"}, {Company: "Globex"}}, Meta: model.BatchMeta{FetchedAt: "2026-08-24T09:00:00Z"}},
		{Jobs: []model.Job{{Company: "Acme Corp"}}, Meta: model.BatchMeta{FetchedAt: "2026-08-26T09:00:00Z"}},
	}}
	p := newTestPipeline(t, nil, store, nil, &fakeNotifier{}, config.FilterConfig{})

	summary, err := p.WeeklyRange(context.Background(), "2026-08-24", "2026-08-30")
	if err != nil {
		t.Fatalf("WeeklyRange: %v", err)
	}
	if summary.TotalJobs != 3 {
		t.Errorf("TotalJobs = %d, want 3", summary.TotalJobs)
	}
	if summary.UniqueCompanies != 2 {
		t.Errorf("UniqueCompanies = %d, want 2", summary.UniqueCompanies)
	}
}

func TestDuplicateGroups_UnknownBatch(t *testing.T) {
	p := newTestPipeline(t, nil, &fakeStore{rawByID: map[string]*model.Batch{}}, nil, &fakeNotifier{}, config.FilterConfig{})

	if _, err := p.DuplicateGroups("missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDuplicateGroups_FromStoredBatch(t *testing.T) {
	raw := &model.Batch{Jobs: []model.Job{
		{ID: "1", Title: "Software Engineering Intern Summer 2026", Company: "Acme Corp"},
		{ID: "2", Title: "Software Engineering Intern Fall 2026", Company: "Acme Corp."},
		{ID: "3", Title: "Mechanical Engineer", Company: "Initech"},
	}}
	store := &fakeStore{rawByID: map[string]*model.Batch{"raw-9": raw}}
	p := newTestPipeline(t, nil, store, nil, &fakeNotifier{}, config.FilterConfig{})

	groups, err := p.DuplicateGroups("raw-9")
	if err != nil {
		t.Fatalf("DuplicateGroups: %v", err)
	}
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("groups = %v, want one group of two", groups)
	}
}
