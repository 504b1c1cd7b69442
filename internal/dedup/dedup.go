package dedup

import (
	"log/slog"
	"sync"

	"github.com/internpipe/internpipe/internal/model"
)

const (
	// DefaultThreshold is used when the configured threshold is out of (0,1].
	DefaultThreshold = 0.8

	// nearIdenticalTitle flags a pair as duplicate on title alone, regardless
	// of company. Catches reposts under subsidiaries and staffing agencies.
	nearIdenticalTitle = 0.95
)

// Deduper removes duplicate jobs from incoming batches. It keeps a set of
// fingerprints seen across its lifetime, so repeated submissions of the same
// posting are suppressed even across batches. One instance per session; the
// seen set is guarded by a mutex so a shared instance is safe.
type Deduper struct {
	threshold float64
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates a Deduper with the given similarity threshold. Thresholds
// outside (0,1] fall back to DefaultThreshold.
func New(threshold float64, logger *slog.Logger) *Deduper {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduper{
		threshold: threshold,
		logger:    logger,
		seen:      make(map[string]struct{}),
	}
}

// RemoveDuplicates filters jobs down to the unique ones, preserving input
// order. A job is rejected if its fingerprint was seen before (exact
// duplicate, this call or any earlier one) or if it is similar enough to a
// job already accepted in this call.
//
// Only accepted jobs register their fingerprint; similarity-rejected jobs do
// not. This mirrors the exact-hash short-circuit being a cross-batch cache
// while the similarity scan is scoped to one batch.
//
// The operation never propagates an internal fault to the caller: on panic it
// returns the original batch unfiltered. Processing duplicates beats dropping
// the whole batch.
func (d *Deduper) RemoveDuplicates(jobs []model.Job) (unique []model.Job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("deduplication failed, returning batch unfiltered", "panic", r)
			unique = jobs
		}
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	duplicates := 0
	for _, job := range jobs {
		fp := Fingerprint(job)

		if _, ok := d.seen[fp]; ok {
			duplicates++
			d.logger.Debug("exact duplicate", "title", job.Title, "company", job.Company)
			continue
		}

		if d.similarToAny(job, unique) {
			duplicates++
			d.logger.Debug("similar duplicate", "title", job.Title, "company", job.Company)
			continue
		}

		unique = append(unique, job)
		d.seen[fp] = struct{}{}
	}

	d.logger.Info("deduplication complete",
		"input", len(jobs),
		"unique", len(unique),
		"duplicates", duplicates,
	)
	return unique
}

// similarToAny reports whether job matches any of existing under the pairwise
// rule in isSimilar.
func (d *Deduper) similarToAny(job model.Job, existing []model.Job) bool {
	title := Normalize(job.Title)
	company := Normalize(job.Company)

	for _, other := range existing {
		if d.isSimilar(title, company, Normalize(other.Title), Normalize(other.Company)) {
			return true
		}
	}
	return false
}

// isSimilar is the pairwise duplicate rule: both title and company above the
// threshold, or a near-identical title on its own.
func (d *Deduper) isSimilar(titleA, companyA, titleB, companyB string) bool {
	titleSim := Ratio(titleA, titleB)
	companySim := Ratio(companyA, companyB)

	if titleSim > d.threshold && companySim > d.threshold {
		return true
	}
	return titleSim > nearIdenticalTitle
}

// DuplicateGroups partitions a batch into clusters of similar jobs for
// inspection. Clustering is seed-anchored: each unprocessed job opens a group
// and pulls in every later unprocessed job that is pairwise-similar to the
// seed itself, not to other members, so the relation is deliberately
// non-transitive. Singleton groups are dropped. The seen set is not consulted.
func (d *Deduper) DuplicateGroups(jobs []model.Job) [][]model.Job {
	var groups [][]model.Job
	processed := make(map[int]struct{}, len(jobs))

	for i, seed := range jobs {
		if _, done := processed[i]; done {
			continue
		}
		processed[i] = struct{}{}

		group := []model.Job{seed}
		seedTitle := Normalize(seed.Title)
		seedCompany := Normalize(seed.Company)

		for j := i + 1; j < len(jobs); j++ {
			if _, done := processed[j]; done {
				continue
			}
			other := jobs[j]
			if d.isSimilar(Normalize(other.Title), Normalize(other.Company), seedTitle, seedCompany) {
				group = append(group, other)
				processed[j] = struct{}{}
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	d.logger.Info("duplicate grouping complete", "input", len(jobs), "groups", len(groups))
	return groups
}

// Reset clears the seen-fingerprint set, starting a fresh dedup session.
func (d *Deduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
	d.logger.Info("deduplication hashes reset")
}

// SeenCount returns the number of distinct fingerprints recorded so far.
func (d *Deduper) SeenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
