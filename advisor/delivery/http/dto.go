package http

import "github.com/suletetes/techverse-advisor/advisor/domain/entity"

// DTOs for HTTP API requests and responses

// Optimization DTOs

type OptimizeRequestDTO struct {
	// CreateIndexes defaults to true when omitted
	CreateIndexes *bool `json:"create_indexes"`
	LogOnly       bool  `json:"log_only"`
}

// Report DTOs

type ReportSummaryDTO struct {
	ID                  string   `json:"id"`
	GeneratedAt         string   `json:"generated_at"`
	Score               int      `json:"score"`
	CriticalIssues      int      `json:"critical_issues"`
	RecommendationCount int      `json:"recommendation_count"`
	MissingIndexes      int      `json:"missing_indexes"`
	DuplicateIssues     int      `json:"duplicate_issues"`
	SlowQueries         int      `json:"slow_queries"`
	Degraded            []string `json:"degraded,omitempty"`
}

type ReportListResponseDTO struct {
	Reports []ReportSummaryDTO `json:"reports"`
	Count   int                `json:"count"`
}

// Stats DTOs

type StatsResponseDTO struct {
	TotalQueries   int64                 `json:"total_queries"`
	TrackedQueries int                   `json:"tracked_queries"`
	SlowQueries    int                   `json:"slow_queries"`
	Queries        []QueryStatsEntryDTO  `json:"queries"`
	Slow           []entity.SlowQueryRecord `json:"slow"`
}

type QueryStatsEntryDTO struct {
	Collection  string  `json:"collection"`
	Operation   string  `json:"operation"`
	Count       int64   `json:"count"`
	TotalTimeMs float64 `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MaxTimeMs   float64 `json:"max_time_ms"`
	SampleCount int     `json:"sample_count"`
}
