package entity

import (
	"time"
)

// DuplicateRequestIssue reports a query family that issued the same query
// shape more than once in rapid succession
type DuplicateRequestIssue struct {
	QueryKey         string  `json:"query_key"`
	Query            string  `json:"query"`
	InstanceCount    int     `json:"instance_count"`
	TimeDifferenceMs float64 `json:"time_difference_ms"`
}

// DuplicateFindings bundles detected duplicate issues with remediation
// suggestions. Suggestions are empty when no issues were found.
type DuplicateFindings struct {
	Issues      []DuplicateRequestIssue `json:"issues"`
	Suggestions []string                `json:"suggestions"`
}

// QueryPerformance is one row of the per-family performance breakdown
type QueryPerformance struct {
	Collection string  `json:"collection"`
	Operation  string  `json:"operation"`
	Count      int64   `json:"count"`
	AvgTimeMs  float64 `json:"avg_time_ms"`
	MaxTimeMs  float64 `json:"max_time_ms"`
}

// QueryPerformanceSummary aggregates recorded query activity for a report.
// AvgTimeMs is weighted by execution count across families, and the
// breakdown is sorted by descending average latency.
type QueryPerformanceSummary struct {
	TotalQueries   int64              `json:"total_queries"`
	SlowQueryCount int                `json:"slow_query_count"`
	AvgTimeMs      float64            `json:"avg_time_ms"`
	Breakdown      []QueryPerformance `json:"breakdown"`
	SlowQueries    []SlowQueryRecord  `json:"slow_queries"`
}

// ImageRecommendation flags one static asset that is likely to hurt page
// load performance
type ImageRecommendation struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// AssetFindings summarizes the static asset scan
type AssetFindings struct {
	ScannedCount    int                   `json:"scanned_count"`
	Recommendations []ImageRecommendation `json:"recommendations"`
}

// PerformanceReport is the full advisory output for one generation run
type PerformanceReport struct {
	ID                  string                  `json:"id"`
	GeneratedAt         time.Time               `json:"generated_at"`
	Score               int                     `json:"score"`
	CriticalIssues      int                     `json:"critical_issues"`
	RecommendationCount int                     `json:"recommendation_count"`
	Collections         []CollectionMetadata    `json:"collections"`
	MissingIndexes      []IndexRecommendation   `json:"missing_indexes"`
	QueryPerformance    QueryPerformanceSummary `json:"query_performance"`
	Duplicates          DuplicateFindings       `json:"duplicates"`
	Assets              AssetFindings           `json:"assets"`
	Degraded            []string                `json:"degraded,omitempty"`
}

// OptimizationOutcome reports what an auto-optimization run did
type OptimizationOutcome struct {
	ReportID         string                `json:"report_id"`
	LogOnly          bool                  `json:"log_only"`
	Created          int                   `json:"created"`
	Skipped          int                   `json:"skipped"`
	Errored          int                   `json:"errored"`
	Results          []RemediationResult   `json:"results"`
	Errors           []string              `json:"errors"`
	AssetSuggestions []ImageRecommendation `json:"asset_suggestions"`
}

// ComputeScore derives the overall health score from issue counts. Each
// issue class deducts from 100 up to a per-class cap: 5 points per slow
// query capped at 30, 3 per missing index capped at 20, 2 per duplicate
// issue capped at 15. The result is clamped to [0, 100].
func ComputeScore(slowQueryCount, missingIndexCount, duplicateIssueCount int) int {
	score := 100

	score -= capped(slowQueryCount*5, 30)
	score -= capped(missingIndexCount*3, 20)
	score -= capped(duplicateIssueCount*2, 15)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func capped(value, limit int) int {
	if value > limit {
		return limit
	}
	return value
}
