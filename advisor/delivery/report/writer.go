package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// Writer persists generated reports as timestamped JSON artifacts
type Writer struct {
	outputDir string
	logger    *logging.Logger
}

// NewWriter creates a report writer targeting outputDir
func NewWriter(outputDir string, logger *logging.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		logger:    logger.WithComponent("report-writer"),
	}
}

// WriteJSON writes the report as an indented JSON file named after its
// generation time, performance-report-YYYYMMDD-HHMMSS.json, and returns
// the file path.
func (w *Writer) WriteJSON(report *entity.PerformanceReport) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", common.WrapError(err, common.ErrCodeInternal, "failed to create report directory")
	}

	name := fmt.Sprintf("performance-report-%s.json", report.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(w.outputDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", common.WrapError(err, common.ErrCodeInternal, "failed to encode report")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", common.WrapError(err, common.ErrCodeInternal, "failed to write report file")
	}

	w.logger.Info("Report written",
		logging.String("path", path),
		logging.Int("bytes", len(data)))
	return path, nil
}

// FormatSummary renders a report, and optionally an optimization outcome,
// as human readable console text.
func FormatSummary(report *entity.PerformanceReport, outcome *entity.OptimizationOutcome) string {
	var b strings.Builder

	rule := strings.Repeat("=", 70)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, " TechVerse Performance Report")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Generated:       %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Health score:    %d/100\n", report.Score)
	fmt.Fprintf(&b, "Critical issues: %d\n", report.CriticalIssues)
	fmt.Fprintf(&b, "Recommendations: %d\n", report.RecommendationCount)
	if len(report.Degraded) > 0 {
		fmt.Fprintf(&b, "Degraded:        %s\n", strings.Join(report.Degraded, ", "))
	}

	writeCollectionsSection(&b, report.Collections)
	writeMissingIndexSection(&b, report.MissingIndexes)
	writeQuerySection(&b, report.QueryPerformance)
	writeDuplicateSection(&b, report.Duplicates)
	writeAssetSection(&b, report.Assets)
	if outcome != nil {
		writeOptimizationSection(&b, outcome)
	}

	return b.String()
}

func writeSectionHeader(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func writeCollectionsSection(b *strings.Builder, collections []entity.CollectionMetadata) {
	if len(collections) == 0 {
		return
	}
	writeSectionHeader(b, "Collections")

	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	for _, meta := range collections {
		if meta.Error != "" {
			fmt.Fprintf(tw, "  %s\tread failed: %s\n", meta.Collection, meta.Error)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%d documents\t%s storage\t%s indexes\t%d indexes defined\n",
			meta.Collection, meta.DocumentCount,
			formatBytes(meta.StorageBytes), formatBytes(meta.IndexBytes), len(meta.Indexes))
	}
	tw.Flush()
}

func writeMissingIndexSection(b *strings.Builder, missing []entity.IndexRecommendation) {
	writeSectionHeader(b, "Missing indexes")
	if len(missing) == 0 {
		fmt.Fprintln(b, "  none, all expected indexes are present")
		return
	}

	ordered := make([]entity.IndexRecommendation, len(missing))
	copy(ordered, missing)
	sort.SliceStable(ordered, func(i, j int) bool {
		return priorityRank(ordered[i].Priority) < priorityRank(ordered[j].Priority)
	})

	for _, rec := range ordered {
		fmt.Fprintf(b, "  %s %s: %s (%s)\n",
			priorityGlyph(rec.Priority), rec.Collection, entity.DefaultIndexName(rec.Fields), rec.Reason)
	}
}

func writeQuerySection(b *strings.Builder, summary entity.QueryPerformanceSummary) {
	writeSectionHeader(b, "Query performance")
	fmt.Fprintf(b, "  %d queries recorded, %d slow, %.1f ms average\n",
		summary.TotalQueries, summary.SlowQueryCount, summary.AvgTimeMs)

	if len(summary.Breakdown) == 0 {
		return
	}

	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	for _, row := range summary.Breakdown {
		fmt.Fprintf(tw, "  %s.%s\tcount %d\tavg %.1f ms\tmax %.1f ms\n",
			row.Collection, row.Operation, row.Count, row.AvgTimeMs, row.MaxTimeMs)
	}
	tw.Flush()
}

func writeDuplicateSection(b *strings.Builder, findings entity.DuplicateFindings) {
	writeSectionHeader(b, "Duplicate queries")
	if len(findings.Issues) == 0 {
		fmt.Fprintln(b, "  none detected")
		return
	}

	for _, issue := range findings.Issues {
		fmt.Fprintf(b, "  %s issued %d times within %.0f ms\n",
			issue.QueryKey, issue.InstanceCount, issue.TimeDifferenceMs)
		fmt.Fprintf(b, "    %s\n", issue.Query)
	}

	if len(findings.Suggestions) > 0 {
		fmt.Fprintln(b, "  Suggestions:")
		for _, suggestion := range findings.Suggestions {
			fmt.Fprintf(b, "    - %s\n", suggestion)
		}
	}
}

func writeAssetSection(b *strings.Builder, findings entity.AssetFindings) {
	if findings.ScannedCount == 0 && len(findings.Recommendations) == 0 {
		return
	}
	writeSectionHeader(b, "Static assets")
	fmt.Fprintf(b, "  %d images scanned, %d flagged\n", findings.ScannedCount, len(findings.Recommendations))
	for _, rec := range findings.Recommendations {
		fmt.Fprintf(b, "  - %s (%s): %s\n", rec.Path, formatBytes(rec.SizeBytes), rec.Suggestion)
	}
}

func writeOptimizationSection(b *strings.Builder, outcome *entity.OptimizationOutcome) {
	writeSectionHeader(b, "Optimization")
	if outcome.LogOnly {
		fmt.Fprintf(b, "  log-only run, %d high priority recommendations not applied\n", outcome.Skipped)
		return
	}

	fmt.Fprintf(b, "  %d created, %d already present, %d failed\n",
		outcome.Created, outcome.Skipped, outcome.Errored)
	for _, result := range outcome.Results {
		if result.Status == entity.RemediationError {
			fmt.Fprintf(b, "  - %s.%s failed: %s\n", result.Collection, result.IndexName, result.Error)
			continue
		}
		fmt.Fprintf(b, "  - %s.%s %s\n", result.Collection, result.IndexName, result.Status)
	}
}

func priorityRank(p entity.Priority) int {
	switch p {
	case entity.PriorityHigh:
		return 0
	case entity.PriorityMedium:
		return 1
	default:
		return 2
	}
}

func priorityGlyph(p entity.Priority) string {
	switch p {
	case entity.PriorityHigh:
		return "🔴"
	case entity.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// formatBytes renders a byte count with a binary unit suffix
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
