package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
)

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{
		Level:       "error",
		Format:      "console",
		Output:      "stdout",
		ServiceName: "report-test",
	})
	require.NoError(t, err)
	return logger
}

func sampleReport() *entity.PerformanceReport {
	return &entity.PerformanceReport{
		ID:                  "0b1f8a32-4c1d-4a7e-9c3f-6d2e8b5a9f01",
		GeneratedAt:         time.Date(2024, 3, 14, 9, 5, 7, 0, time.UTC),
		Score:               89,
		CriticalIssues:      1,
		RecommendationCount: 3,
		Collections: []entity.CollectionMetadata{
			{
				Collection:    "products",
				DocumentCount: 1200,
				StorageBytes:  4 * 1024 * 1024,
				IndexBytes:    512 * 1024,
				Indexes: []entity.IndexSpec{
					{Name: "_id_", Fields: []entity.IndexField{{Name: "_id", Direction: 1}}},
				},
			},
			{Collection: "orders", Error: "collection scan timed out"},
		},
		MissingIndexes: []entity.IndexRecommendation{
			{
				Collection: "reviews",
				Fields:     entity.AscendingFields([]string{"product_id", "created_at"}),
				Reason:     "review listing sort",
				Priority:   entity.PriorityLow,
			},
			{
				Collection: "products",
				Fields:     entity.AscendingFields([]string{"status", "visibility"}),
				Reason:     "storefront listing filter",
				Priority:   entity.PriorityHigh,
			},
			{
				Collection: "orders",
				Fields:     entity.AscendingFields([]string{"user_id"}),
				Reason:     "account order lookup",
				Priority:   entity.PriorityMedium,
			},
		},
		QueryPerformance: entity.QueryPerformanceSummary{
			TotalQueries:   42,
			SlowQueryCount: 1,
			AvgTimeMs:      18.5,
			Breakdown: []entity.QueryPerformance{
				{Collection: "products", Operation: "find", Count: 30, AvgTimeMs: 22.1, MaxTimeMs: 150.0},
				{Collection: "orders", Operation: "find", Count: 12, AvgTimeMs: 9.4, MaxTimeMs: 31.0},
			},
		},
		Duplicates: entity.DuplicateFindings{
			Issues: []entity.DuplicateRequestIssue{
				{
					QueryKey:         "products.find",
					Query:            `{"status":"active"}`,
					InstanceCount:    4,
					TimeDifferenceMs: 250,
				},
			},
			Suggestions: []string{
				"Cache frequently accessed data",
				"Implement request deduplication",
			},
		},
		Assets: entity.AssetFindings{
			ScannedCount: 18,
			Recommendations: []entity.ImageRecommendation{
				{
					Path:       "hero/banner.png",
					SizeBytes:  2 * 1024 * 1024,
					Issue:      "oversized image",
					Suggestion: "Convert to WebP and resize",
				},
			},
		},
	}
}

func TestWriteJSONCreatesTimestampedArtifact(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, newTestLogger(t))

	path, err := writer.WriteJSON(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "performance-report-20240314-090507.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded entity.PerformanceReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "0b1f8a32-4c1d-4a7e-9c3f-6d2e8b5a9f01", decoded.ID)
	assert.Equal(t, 89, decoded.Score)
	assert.Len(t, decoded.MissingIndexes, 3)
}

func TestWriteJSONCreatesNestedOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "daily")
	writer := NewWriter(dir, newTestLogger(t))

	path, err := writer.WriteJSON(sampleReport())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestFormatSummaryOrdersRecommendationsByPriority(t *testing.T) {
	summary := FormatSummary(sampleReport(), nil)

	high := strings.Index(summary, "🔴")
	medium := strings.Index(summary, "🟡")
	low := strings.Index(summary, "🟢")
	require.NotEqual(t, -1, high)
	require.NotEqual(t, -1, medium)
	require.NotEqual(t, -1, low)
	assert.Less(t, high, medium)
	assert.Less(t, medium, low)

	assert.Contains(t, summary, "🔴 products: status_1_visibility_1 (storefront listing filter)")
	assert.Contains(t, summary, "🟡 orders: user_id_1 (account order lookup)")
	assert.Contains(t, summary, "🟢 reviews: product_id_1_created_at_1 (review listing sort)")
}

func TestFormatSummaryReportsCollections(t *testing.T) {
	summary := FormatSummary(sampleReport(), nil)

	assert.Contains(t, summary, "Health score:    89/100")
	assert.Contains(t, summary, "products")
	assert.Contains(t, summary, "1200 documents")
	assert.Contains(t, summary, "4.0 MiB storage")
	assert.Contains(t, summary, "read failed: collection scan timed out")
}

func TestFormatSummaryListsDuplicatesWithSuggestions(t *testing.T) {
	summary := FormatSummary(sampleReport(), nil)

	assert.Contains(t, summary, "products.find issued 4 times within 250 ms")
	assert.Contains(t, summary, `{"status":"active"}`)
	assert.Contains(t, summary, "- Cache frequently accessed data")
	assert.Contains(t, summary, "- Implement request deduplication")
}

func TestFormatSummaryWithoutFindings(t *testing.T) {
	clean := &entity.PerformanceReport{
		GeneratedAt: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
		Score:       100,
	}

	summary := FormatSummary(clean, nil)

	assert.Contains(t, summary, "none, all expected indexes are present")
	assert.Contains(t, summary, "none detected")
	assert.NotContains(t, summary, "Static assets")
	assert.NotContains(t, summary, "Optimization")
	assert.NotContains(t, summary, "Degraded:")
}

func TestFormatSummaryIncludesDegradedSections(t *testing.T) {
	report := sampleReport()
	report.Degraded = []string{"metadata", "assets"}

	summary := FormatSummary(report, nil)

	assert.Contains(t, summary, "Degraded:        metadata, assets")
}

func TestFormatSummaryOptimizationOutcome(t *testing.T) {
	outcome := &entity.OptimizationOutcome{
		Created: 1,
		Skipped: 1,
		Errored: 1,
		Results: []entity.RemediationResult{
			{Collection: "products", IndexName: "status_1_visibility_1", Status: entity.RemediationCreated},
			{Collection: "orders", IndexName: "user_id_1", Status: entity.RemediationExists},
			{Collection: "reviews", IndexName: "product_id_1", Status: entity.RemediationError, Error: "index build aborted"},
		},
	}

	summary := FormatSummary(sampleReport(), outcome)

	assert.Contains(t, summary, "1 created, 1 already present, 1 failed")
	assert.Contains(t, summary, "- products.status_1_visibility_1 created")
	assert.Contains(t, summary, "- orders.user_id_1 exists")
	assert.Contains(t, summary, "- reviews.product_id_1 failed: index build aborted")
}

func TestFormatSummaryLogOnlyOutcome(t *testing.T) {
	outcome := &entity.OptimizationOutcome{
		LogOnly: true,
		Skipped: 2,
	}

	summary := FormatSummary(sampleReport(), outcome)

	assert.Contains(t, summary, "log-only run, 2 high priority recommendations not applied")
	assert.NotContains(t, summary, "already present")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "2.0 MiB", formatBytes(2*1024*1024))
	assert.Equal(t, "1.5 GiB", formatBytes(3*1024*1024*1024/2))
}
