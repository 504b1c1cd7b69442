package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/internpipe/internpipe/internal/model"
)

// CompanyProfiler fills in industry, size and description for a company.
type CompanyProfiler interface {
	Profile(ctx context.Context, info *model.CompanyInfo) error
}

// LLMCompanyProfiler implements CompanyProfiler using an LLM.
type LLMCompanyProfiler struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewLLMCompanyProfiler creates a profiler that augments company metadata with
// LLM-generated fields.
func NewLLMCompanyProfiler(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMCompanyProfiler {
	return &LLMCompanyProfiler{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Profile fills the empty fields of info in place. Fields already populated
// from other sources are left untouched.
func (p *LLMCompanyProfiler) Profile(ctx context.Context, info *model.CompanyInfo) error {
	var promptBuf bytes.Buffer
	err := p.tmpl.Execute(&promptBuf, struct {
		Name        string
		WikiSummary string
	}{
		Name:        info.Name,
		WikiSummary: info.WikiSummary,
	})
	if err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}

	raw, err := p.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return fmt.Errorf("llm complete: %w", err)
	}

	profile, err := parseProfile(raw)
	if err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}

	if info.Industry == "" {
		info.Industry = profile.Industry
	}
	if info.Size == "" && profile.Size != "unknown" {
		info.Size = profile.Size
	}
	if info.Description == "" {
		info.Description = profile.Description
	}
	info.Sources = append(info.Sources, "llm")
	return nil
}

// rawProfile is the JSON shape returned by the LLM (matches companyProfileSchema).
type rawProfile struct {
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	Description string `json:"description"`
}

// parseProfile deserializes the LLM response. Structured outputs guarantee
// valid JSON conforming to companyProfileSchema.
func parseProfile(raw string) (*rawProfile, error) {
	var rp rawProfile
	if err := json.Unmarshal([]byte(raw), &rp); err != nil {
		return nil, fmt.Errorf("unmarshal profile JSON: %w", err)
	}
	return &rp, nil
}
