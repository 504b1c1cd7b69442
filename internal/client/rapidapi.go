// Package client talks to the RapidAPI internships job board and normalizes
// its responses into the unified Job model.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/internpipe/internpipe/internal/model"
)

// activeJobsEndpoint returns postings active within the last 7 days.
const activeJobsEndpoint = "/active-jb-7d"

// RapidAPIClient fetches internship postings from the RapidAPI internships host.
type RapidAPIClient struct {
	apiKey     string
	host       string
	httpClient *http.Client
}

// NewRapidAPIClient creates a client for the given RapidAPI host.
func NewRapidAPIClient(apiKey, host string, httpClient *http.Client) *RapidAPIClient {
	return &RapidAPIClient{
		apiKey:     apiKey,
		host:       host,
		httpClient: httpClient,
	}
}

// apiJob mirrors one posting in the RapidAPI response.
type apiJob struct {
	ID              json.Number   `json:"id"`
	Title           string        `json:"title"`
	Organization    string        `json:"organization"`
	OrganizationURL string        `json:"organization_url"`
	DatePosted      string        `json:"date_posted"`
	DateValidThru   string        `json:"date_validthrough"`
	Description     string        `json:"description"`
	URL             string        `json:"url"`
	ExternalApply   string        `json:"external_apply_url"`
	LocationsRaw    []apiLocation `json:"locations_raw"`
	SalaryRaw       *apiSalaryRaw `json:"salary_raw"`
	EmploymentType  []string      `json:"employment_type"`
	DirectApply     bool          `json:"directapply"`

	LinkedinOrgURL          string `json:"linkedin_org_url"`
	LinkedinOrgSize         string `json:"linkedin_org_size"`
	LinkedinOrgIndustry     string `json:"linkedin_org_industry"`
	LinkedinOrgHeadquarters string `json:"linkedin_org_headquarters"`
}

type apiLocation struct {
	LocationType string     `json:"location_type"`
	Address      apiAddress `json:"address"`
}

type apiAddress struct {
	Country  string `json:"addressCountry"`
	Locality string `json:"addressLocality"`
	Region   string `json:"addressRegion"`
}

// apiSalaryRaw is the schema.org MonetaryAmount shape the API uses.
type apiSalaryRaw struct {
	Currency string `json:"currency"`
	Value    struct {
		MinValue float64 `json:"minValue"`
		MaxValue float64 `json:"maxValue"`
	} `json:"value"`
}

// SearchJobs queries the active-postings endpoint with an OR-joined title
// filter and optional location filter, and normalizes the results.
func (c *RapidAPIClient) SearchJobs(ctx context.Context, query model.SearchQuery) ([]model.Job, error) {
	endpoint := c.buildURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("job search: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("job search on %s", c.host),
		}
	}

	var raw []apiJob
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("job search: decode response: %w", err)
	}

	jobs := make([]model.Job, 0, len(raw))
	for _, aj := range raw {
		jobs = append(jobs, normalizeJob(aj))
	}

	if query.Limit > 0 && len(jobs) > query.Limit {
		jobs = jobs[:query.Limit]
	}

	return jobs, nil
}

// buildURL assembles the endpoint URL with encoded filters.
func (c *RapidAPIClient) buildURL(query model.SearchQuery) string {
	params := url.Values{}
	params.Set("title_filter", strings.Join(query.Keywords, " OR "))
	if query.Location != "" {
		params.Set("location_filter", query.Location)
	}
	return "https://" + c.host + activeJobsEndpoint + "?" + params.Encode()
}

// normalizeJob converts an API posting into the unified Job model.
func normalizeJob(aj apiJob) model.Job {
	job := model.Job{
		ID:          aj.ID.String(),
		Title:       aj.Title,
		Company:     aj.Organization,
		Location:    formatLocation(aj.LocationsRaw),
		Description: aj.Description,
		URL:         aj.URL,
		PostedAt:    aj.DatePosted,
		Extra:       map[string]string{},
	}

	if len(aj.EmploymentType) > 0 {
		job.JobType = aj.EmploymentType[0]
	}

	if len(aj.LocationsRaw) > 0 && strings.EqualFold(aj.LocationsRaw[0].LocationType, "TELECOMMUTE") {
		job.Remote = true
	}

	if aj.SalaryRaw != nil {
		job.Salary = &model.Salary{
			Min:      int64(aj.SalaryRaw.Value.MinValue),
			Max:      int64(aj.SalaryRaw.Value.MaxValue),
			Currency: aj.SalaryRaw.Currency,
		}
	}

	// Pass-through metadata the pipeline does not interpret.
	setExtra(job.Extra, "organization_url", aj.OrganizationURL)
	setExtra(job.Extra, "external_apply_url", aj.ExternalApply)
	setExtra(job.Extra, "date_validthrough", aj.DateValidThru)
	setExtra(job.Extra, "linkedin_org_url", aj.LinkedinOrgURL)
	setExtra(job.Extra, "linkedin_org_size", aj.LinkedinOrgSize)
	setExtra(job.Extra, "linkedin_org_industry", aj.LinkedinOrgIndustry)
	setExtra(job.Extra, "linkedin_org_headquarters", aj.LinkedinOrgHeadquarters)
	if aj.DirectApply {
		job.Extra["directapply"] = "true"
	}

	return job
}

func setExtra(extra map[string]string, key, value string) {
	if value != "" {
		extra[key] = value
	}
}

// formatLocation renders the first raw location as "locality, region, country".
func formatLocation(locs []apiLocation) string {
	if len(locs) == 0 {
		return ""
	}
	addr := locs[0].Address

	parts := make([]string, 0, 3)
	for _, p := range []string{addr.Locality, addr.Region, addr.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
