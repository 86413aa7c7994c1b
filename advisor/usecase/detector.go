package usecase

import (
	"sort"
	"time"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// DuplicateDetector finds query families that issued the same query shape
// more than once in rapid succession
type DuplicateDetector struct {
	window    time.Duration
	threshold time.Duration
}

// NewDuplicateDetector creates a detector. Window bounds how far back
// samples are considered; threshold is the gap below which two identical
// queries count as duplicates.
func NewDuplicateDetector(window, threshold time.Duration) *DuplicateDetector {
	if window <= 0 || threshold <= 0 {
		panic(common.ErrMonitoringState("duplicate detection window and threshold must be positive"))
	}

	return &DuplicateDetector{window: window, threshold: threshold}
}

// Detect scans a stats snapshot for duplicate request patterns. Per
// family, samples younger than the window are grouped by query shape; a
// group reports at most one issue, taken from the first consecutive pair
// of timestamps closer together than the threshold. Detect reads only the
// snapshot and is safe to call from anywhere.
func (d *DuplicateDetector) Detect(snapshot *entity.StatsSnapshot, now time.Time) entity.DuplicateFindings {
	var findings entity.DuplicateFindings

	keys := make([]entity.QueryStatKey, 0, len(snapshot.Stats))
	for key := range snapshot.Stats {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, key := range keys {
		stats := snapshot.Stats[key]

		groups := make(map[string][]entity.QuerySample)
		var order []string
		for _, sample := range stats.RecentSamples {
			if now.Sub(sample.Timestamp) >= d.window {
				continue
			}
			if _, seen := groups[sample.Query]; !seen {
				order = append(order, sample.Query)
			}
			groups[sample.Query] = append(groups[sample.Query], sample)
		}

		for _, query := range order {
			group := groups[query]
			if len(group) < 2 {
				continue
			}

			sort.Slice(group, func(i, j int) bool {
				return group[i].Timestamp.Before(group[j].Timestamp)
			})

			for i := 1; i < len(group); i++ {
				delta := group[i].Timestamp.Sub(group[i-1].Timestamp)
				if delta < d.threshold {
					findings.Issues = append(findings.Issues, entity.DuplicateRequestIssue{
						QueryKey:         key.String(),
						Query:            query,
						InstanceCount:    len(group),
						TimeDifferenceMs: float64(delta) / float64(time.Millisecond),
					})
					break
				}
			}
		}
	}

	if len(findings.Issues) > 0 {
		findings.Suggestions = duplicateSuggestions()
	}

	return findings
}

func duplicateSuggestions() []string {
	return []string{
		"Cache results of frequently repeated queries in the request scope",
		"Batch identical lookups issued while rendering a single page",
		"Move repeated reference reads behind the Redis cache layer",
	}
}
