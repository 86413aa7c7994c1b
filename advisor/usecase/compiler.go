package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// ReportCompiler assembles a performance report from the advisory sections
type ReportCompiler struct {
	store       repository.Store
	reader      *MetadataReader
	analyzer    *GapAnalyzer
	detector    *DuplicateDetector
	scanner     *AssetScanner
	recorder    *Recorder
	collections []string
	logger      *logging.Logger
	now         func() time.Time
}

// NewReportCompiler creates a compiler over the advisory components
func NewReportCompiler(
	store repository.Store,
	reader *MetadataReader,
	analyzer *GapAnalyzer,
	detector *DuplicateDetector,
	scanner *AssetScanner,
	recorder *Recorder,
	collections []string,
	logger *logging.Logger,
) *ReportCompiler {
	return &ReportCompiler{
		store:       store,
		reader:      reader,
		analyzer:    analyzer,
		detector:    detector,
		scanner:     scanner,
		recorder:    recorder,
		collections: collections,
		logger:      logger.WithComponent("report-compiler"),
		now:         time.Now,
	}
}

// Generate builds a full report. An unreachable store is the only fatal
// error; everything else degrades the affected section and the report
// still comes back. Sections cut short by context cancellation are listed
// under Degraded.
func (c *ReportCompiler) Generate(ctx context.Context) (*entity.PerformanceReport, error) {
	if err := c.store.Ping(ctx); err != nil {
		return nil, common.WrapError(err, common.ErrCodeStoreConnection, "Advisory store is unreachable")
	}

	report := &entity.PerformanceReport{
		ID:          uuid.New().String(),
		GeneratedAt: c.now(),
	}

	report.Collections = c.reader.ReadIndexes(ctx, c.collections)
	if ctx.Err() != nil {
		report.Degraded = append(report.Degraded, "collections")
	}

	report.MissingIndexes = c.analyzer.Analyze(report.Collections)

	snapshot := c.recorder.Snapshot()
	report.QueryPerformance = buildQuerySummary(snapshot)
	report.Duplicates = c.detector.Detect(snapshot, report.GeneratedAt)

	assets, err := c.scanner.Scan(ctx)
	report.Assets = assets
	if err != nil {
		c.logger.Warn("Asset scan cut short", logging.Any("error", err))
		report.Degraded = append(report.Degraded, "assets")
	}

	slowCount := len(snapshot.SlowQueries)
	missingCount := len(report.MissingIndexes)
	duplicateCount := len(report.Duplicates.Issues)

	report.Score = entity.ComputeScore(slowCount, missingCount, duplicateCount)
	report.CriticalIssues = slowCount + duplicateCount
	report.RecommendationCount = missingCount + len(report.Duplicates.Suggestions) + len(report.Assets.Recommendations)

	return report, nil
}

// buildQuerySummary folds a snapshot into the report's performance section.
// The overall average is weighted by execution count, and the breakdown is
// sorted by descending average latency.
func buildQuerySummary(snapshot *entity.StatsSnapshot) entity.QueryPerformanceSummary {
	summary := entity.QueryPerformanceSummary{
		TotalQueries:   snapshot.TotalQueries(),
		SlowQueryCount: len(snapshot.SlowQueries),
		SlowQueries:    snapshot.SlowQueries,
	}

	var totalTime float64
	for _, stats := range snapshot.Stats {
		totalTime += stats.TotalTimeMs
		summary.Breakdown = append(summary.Breakdown, entity.QueryPerformance{
			Collection: stats.Collection,
			Operation:  stats.Operation,
			Count:      stats.Count,
			AvgTimeMs:  stats.AvgTimeMs,
			MaxTimeMs:  stats.MaxTimeMs,
		})
	}

	if summary.TotalQueries > 0 {
		summary.AvgTimeMs = totalTime / float64(summary.TotalQueries)
	}

	sort.Slice(summary.Breakdown, func(i, j int) bool {
		a, b := summary.Breakdown[i], summary.Breakdown[j]
		if a.AvgTimeMs != b.AvgTimeMs {
			return a.AvgTimeMs > b.AvgTimeMs
		}
		if a.Collection != b.Collection {
			return a.Collection < b.Collection
		}
		return a.Operation < b.Operation
	})

	return summary
}
