package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/internpipe/internpipe/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRawBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)

	batch := model.Batch{
		Jobs: []model.Job{
			{ID: "101", Title: "Software Engineering Intern", Company: "Acme Corp"},
			{ID: "102", Title: "Data Intern", Company: "Globex"},
		},
		Meta: model.BatchMeta{OriginalCount: 2, Keywords: []string{"intern"}},
	}

	id, err := s.SaveRawBatch(batch)
	if err != nil {
		t.Fatalf("SaveRawBatch: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated batch ID")
	}

	got, err := s.RawBatch(id)
	if err != nil {
		t.Fatalf("RawBatch: %v", err)
	}
	if got == nil {
		t.Fatal("expected batch, got nil")
	}
	if len(got.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(got.Jobs))
	}
	if got.Jobs[0].Title != "Software Engineering Intern" {
		t.Errorf("Title = %q", got.Jobs[0].Title)
	}
	if got.Meta.OriginalCount != 2 {
		t.Errorf("OriginalCount = %d, want 2", got.Meta.OriginalCount)
	}
}

func TestRawBatchUnknownReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.RawBatch("does-not-exist")
	if err != nil {
		t.Fatalf("RawBatch: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil batch for unknown ID, got %+v", got)
	}
}

func TestSaveProcessedBatchWritesJobAndCompanyRows(t *testing.T) {
	s := newTestStore(t)

	batch := model.Batch{
		RawBatchID: "raw-1",
		Jobs: []model.Job{
			{
				ID:      "101",
				Title:   "Software Engineering Intern",
				Company: "Acme Corp",
				CompanyInfo: &model.CompanyInfo{
					Name:     "Acme Corp",
					Industry: "Software",
					Size:     "1000+",
				},
			},
			{ID: "102", Title: "Data Intern", Company: "Globex"},
		},
		Meta: model.BatchMeta{OriginalCount: 5, FinalCount: 2},
	}

	id, err := s.SaveProcessedBatch(batch)
	if err != nil {
		t.Fatalf("SaveProcessedBatch: %v", err)
	}

	var jobRows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs WHERE batch_id = ?", id).Scan(&jobRows); err != nil {
		t.Fatalf("counting job rows: %v", err)
	}
	if jobRows != 2 {
		t.Errorf("job rows = %d, want 2", jobRows)
	}

	var industry string
	if err := s.db.QueryRow("SELECT industry FROM companies WHERE name = ?", "Acme Corp").Scan(&industry); err != nil {
		t.Fatalf("loading company row: %v", err)
	}
	if industry != "Software" {
		t.Errorf("industry = %q, want Software", industry)
	}
}

func TestCompanyUpsertReplacesStaleMetadata(t *testing.T) {
	s := newTestStore(t)

	save := func(industry string) {
		t.Helper()
		_, err := s.SaveProcessedBatch(model.Batch{
			Jobs: []model.Job{{
				ID:      "101",
				Company: "Acme Corp",
				CompanyInfo: &model.CompanyInfo{
					Name:     "Acme Corp",
					Industry: industry,
				},
			}},
		})
		if err != nil {
			t.Fatalf("SaveProcessedBatch: %v", err)
		}
	}

	save("Software")
	save("Robotics")

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM companies WHERE name = ?", "Acme Corp").Scan(&count); err != nil {
		t.Fatalf("counting companies: %v", err)
	}
	if count != 1 {
		t.Errorf("company rows = %d, want 1", count)
	}

	var industry string
	if err := s.db.QueryRow("SELECT industry FROM companies WHERE name = ?", "Acme Corp").Scan(&industry); err != nil {
		t.Fatalf("loading company: %v", err)
	}
	if industry != "Robotics" {
		t.Errorf("industry = %q, want Robotics", industry)
	}
}

func TestProcessedBatchByDateReturnsLatest(t *testing.T) {
	s := newTestStore(t)

	// created_at is bound as a formatted string so SQLite's DATE() can parse
	// it, like DEFAULT CURRENT_TIMESTAMP.
	insert := func(id, createdAt string, finalCount int) {
		t.Helper()
		payload := fmt.Sprintf(`{"id":%q,"jobs":null,"metadata":{"original_count":0,"after_dedup":0,"after_filtering":0,"after_verification":0,"final_count":%d}}`, id, finalCount)
		_, err := s.db.Exec(
			"INSERT INTO processed_batches (id, payload, created_at) VALUES (?, ?, ?)",
			id, payload, createdAt,
		)
		if err != nil {
			t.Fatalf("inserting batch %s: %v", id, err)
		}
	}

	insert("morning", "2026-08-25 09:00:00", 1)
	insert("evening", "2026-08-25 18:00:00", 7)
	insert("next-day", "2026-08-26 09:00:00", 9)

	got, err := s.ProcessedBatchByDate("2026-08-25")
	if err != nil {
		t.Fatalf("ProcessedBatchByDate: %v", err)
	}
	if got == nil {
		t.Fatal("expected batch for date, got nil")
	}
	if got.Meta.FinalCount != 7 {
		t.Errorf("FinalCount = %d, want 7 (most recent batch that day)", got.Meta.FinalCount)
	}
}

func TestProcessedBatchByDateMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ProcessedBatchByDate("1999-01-01")
	if err != nil {
		t.Fatalf("ProcessedBatchByDate: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty date, got %+v", got)
	}
}

func TestProcessedBatchesInRange(t *testing.T) {
	s := newTestStore(t)

	days := []string{"2026-08-24", "2026-08-26", "2026-08-30"}
	for i, day := range days {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatalf("parsing %s: %v", day, err)
		}
		payload := fmt.Sprintf(`{"jobs":null,"metadata":{"original_count":0,"after_dedup":0,"after_filtering":0,"after_verification":0,"final_count":%d}}`, i)
		_, err = s.db.Exec(
			"INSERT INTO processed_batches (id, payload, created_at) VALUES (?, ?, ?)",
			day, payload, ts.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			t.Fatalf("inserting batch for %s: %v", day, err)
		}
	}

	got, err := s.ProcessedBatchesInRange("2026-08-24", "2026-08-27")
	if err != nil {
		t.Fatalf("ProcessedBatchesInRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("batches = %d, want 2", len(got))
	}
	// Oldest first.
	if got[0].Meta.FinalCount != 0 || got[1].Meta.FinalCount != 1 {
		t.Errorf("unexpected order: %d, %d", got[0].Meta.FinalCount, got[1].Meta.FinalCount)
	}
}

func TestSaveRawBatchKeepsExistingID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.SaveRawBatch(model.Batch{ID: "fixed-id"})
	if err != nil {
		t.Fatalf("SaveRawBatch: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("id = %q, want fixed-id", id)
	}
}
