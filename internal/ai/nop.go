package ai

import (
	"context"

	"github.com/internpipe/internpipe/internal/model"
)

// NopCompanyProfiler is a no-op profiler used when ai.enabled is false.
// It leaves company metadata unchanged with no LLM calls.
type NopCompanyProfiler struct{}

// NewNopCompanyProfiler returns a NopCompanyProfiler.
func NewNopCompanyProfiler() *NopCompanyProfiler {
	return &NopCompanyProfiler{}
}

// Profile leaves info unchanged.
func (n *NopCompanyProfiler) Profile(_ context.Context, _ *model.CompanyInfo) error {
	return nil
}
