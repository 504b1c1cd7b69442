// Package report renders processed batches into digest files: a daily CSV
// and markdown pair, and a weekly JSON summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/internpipe/internpipe/internal/model"
)

// Reporter writes digest reports into a directory, creating it on demand.
type Reporter struct {
	dir    string
	logger *slog.Logger
}

// NewReporter creates a reporter writing into dir.
func NewReporter(dir string, logger *slog.Logger) *Reporter {
	return &Reporter{dir: dir, logger: logger}
}

// Daily writes the CSV and markdown digest for one processed batch.
// Returns the paths of both files.
func (r *Reporter) Daily(batch *model.Batch, date string) (csvPath, mdPath string, err error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating reports dir: %w", err)
	}

	csvPath = filepath.Join(r.dir, fmt.Sprintf("daily_report_%s.csv", date))
	if err := r.writeCSV(csvPath, batch.Jobs); err != nil {
		return "", "", err
	}

	mdPath = filepath.Join(r.dir, fmt.Sprintf("daily_report_%s.md", date))
	if err := r.writeMarkdown(mdPath, batch, date); err != nil {
		return "", "", err
	}

	r.logger.Info("daily report written",
		"date", date,
		"jobs", len(batch.Jobs),
		"csv", csvPath,
		"markdown", mdPath,
	)
	return csvPath, mdPath, nil
}

var csvHeader = []string{
	"id", "title", "company", "location", "remote", "job_type",
	"salary_min", "salary_max", "salary_currency", "url", "posted_at",
}

func (r *Reporter) writeCSV(path string, jobs []model.Job) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, job := range jobs {
		row := []string{
			job.ID, job.Title, job.Company, job.Location,
			strconv.FormatBool(job.Remote), job.JobType,
			"", "", "",
			job.URL, job.PostedAt,
		}
		if job.Salary != nil {
			row[6] = strconv.FormatInt(job.Salary.Min, 10)
			row[7] = strconv.FormatInt(job.Salary.Max, 10)
			row[8] = job.Salary.Currency
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv report: %w", err)
	}
	return nil
}

func (r *Reporter) writeMarkdown(path string, batch *model.Batch, date string) error {
	// Group jobs by company, preserving first-seen order.
	var order []string
	byCompany := make(map[string][]model.Job)
	for _, job := range batch.Jobs {
		company := job.Company
		if company == "" {
			company = "Unknown"
		}
		if _, ok := byCompany[company]; !ok {
			order = append(order, company)
		}
		byCompany[company] = append(byCompany[company], job)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Internship Report - %s\n\n", date)
	fmt.Fprintf(&b, "**Total Jobs Found:** %d\n\n", len(batch.Jobs))
	fmt.Fprintf(&b, "**Unique Companies:** %d\n\n", len(byCompany))

	for _, company := range order {
		fmt.Fprintf(&b, "## %s\n\n", company)
		for _, job := range byCompany[company] {
			fmt.Fprintf(&b, "- **%s**\n", orNA(job.Title))
			fmt.Fprintf(&b, "  - Location: %s\n", orNA(job.Location))
			fmt.Fprintf(&b, "  - Salary: %s\n", formatSalary(job.Salary))
			fmt.Fprintf(&b, "  - URL: %s\n\n", orNA(job.URL))
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing markdown report: %w", err)
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatSalary(s *model.Salary) string {
	if s == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d-%d %s", s.Min, s.Max, s.Currency)
}

// WeeklySummary aggregates a date range of processed batches.
type WeeklySummary struct {
	Period          string         `json:"period"`
	TotalJobs       int            `json:"total_jobs"`
	UniqueCompanies int            `json:"unique_companies"`
	UniqueLocations int            `json:"unique_locations"`
	DailyBreakdown  map[string]int `json:"daily_breakdown"`
}

// Weekly writes a JSON summary over batches fetched between startDate and
// endDate. Returns the file path and the summary itself.
func (r *Reporter) Weekly(batches []model.Batch, startDate, endDate string) (string, *WeeklySummary, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating reports dir: %w", err)
	}

	summary := &WeeklySummary{
		Period:         fmt.Sprintf("%s to %s", startDate, endDate),
		DailyBreakdown: make(map[string]int),
	}

	companies := make(map[string]struct{})
	locations := make(map[string]struct{})
	for _, batch := range batches {
		summary.TotalJobs += len(batch.Jobs)

		day := batch.Meta.FetchedAt
		if len(day) >= 10 {
			day = day[:10]
		}
		if day == "" {
			day = "unknown"
		}
		summary.DailyBreakdown[day] += len(batch.Jobs)

		for _, job := range batch.Jobs {
			if job.Company != "" {
				companies[job.Company] = struct{}{}
			}
			if job.Location != "" {
				locations[job.Location] = struct{}{}
			}
		}
	}
	summary.UniqueCompanies = len(companies)
	summary.UniqueLocations = len(locations)

	path := filepath.Join(r.dir, fmt.Sprintf("weekly_summary_%s_to_%s.json", startDate, endDate))
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encoding weekly summary: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", nil, fmt.Errorf("writing weekly summary: %w", err)
	}

	r.logger.Info("weekly summary written",
		"period", summary.Period,
		"total_jobs", summary.TotalJobs,
		"path", path,
	)
	return path, summary, nil
}
