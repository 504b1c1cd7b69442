package model

import "context"

// Job is the unified representation of an internship posting from the job
// board API. Title, Company, Location and Description drive deduplication;
// everything else is carried through the pipeline untouched.
type Job struct {
	ID          string `json:"id"` // upstream posting ID, not guaranteed unique
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"` // unbounded length
	URL         string `json:"url"`         // direct apply link
	PostedAt    string `json:"posted_at,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Remote      bool   `json:"remote,omitempty"`

	Salary      *Salary      `json:"salary,omitempty"`
	CompanyInfo *CompanyInfo `json:"company_info,omitempty"` // populated by enrichment

	// Extra holds pass-through fields the pipeline does not interpret
	// (linkedin org metadata, apply flags, and so on).
	Extra map[string]string `json:"extra,omitempty"`
}

// Salary is the parsed pay range attached to a posting, if the API provides one.
type Salary struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
}

// CompanyInfo is auxiliary company metadata from enrichment sources.
type CompanyInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Size         string   `json:"size,omitempty"`
	Website      string   `json:"website,omitempty"`
	Headquarters string   `json:"headquarters,omitempty"`
	WikiSummary  string   `json:"wikipedia_summary,omitempty"`
	Sources      []string `json:"sources"`
}

// Batch is a set of jobs fetched or processed together, plus stage counts.
type Batch struct {
	ID         string    `json:"id"`
	RawBatchID string    `json:"raw_batch_id,omitempty"` // set on processed batches
	Jobs       []Job     `json:"jobs"`
	Meta       BatchMeta `json:"metadata"`
}

// BatchMeta records the fetch parameters and how many jobs survived each
// cleaning stage.
type BatchMeta struct {
	FetchedAt         string   `json:"fetched_at,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	Location          string   `json:"location,omitempty"`
	OriginalCount     int      `json:"original_count"`
	AfterDedup        int      `json:"after_dedup"`
	AfterFiltering    int      `json:"after_filtering"`
	AfterVerification int      `json:"after_verification"`
	FinalCount        int      `json:"final_count"`
}

// JobSource fetches internship postings from an upstream job board.
type JobSource interface {
	SearchJobs(ctx context.Context, query SearchQuery) ([]Job, error)
}

// SearchQuery describes one upstream search.
type SearchQuery struct {
	Keywords []string // OR-joined title filter terms
	Location string   // optional location filter
	Limit    int      // max results, 0 = API default
}

// Store persists raw and processed batches and per-job rows.
type Store interface {
	SaveRawBatch(batch Batch) (string, error)
	SaveProcessedBatch(batch Batch) (string, error)
	RawBatch(id string) (*Batch, error)
	ProcessedBatchByDate(date string) (*Batch, error)
	ProcessedBatchesInRange(startDate, endDate string) ([]Batch, error)
}

// Enricher returns auxiliary metadata for a company name.
type Enricher interface {
	EnrichCompany(ctx context.Context, name string) (*CompanyInfo, error)
}

// Notifier announces the unique jobs that survived a pipeline run.
type Notifier interface {
	Notify(jobs []Job) error
}
