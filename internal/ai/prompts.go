package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/company_profile.md
var companyProfilePromptRaw string

// CompanyProfileTemplate is the parsed prompt template for company profiling.
// Parsed once at package init; reused on every Profile call.
var CompanyProfileTemplate = template.Must(template.New("company_profile").Parse(companyProfilePromptRaw))
