package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// EngineConfig configures one advisory engine instance
type EngineConfig struct {
	MonitoredCollections []string
	Recorder             RecorderConfig
	DuplicateWindow      time.Duration
	DuplicateThreshold   time.Duration
	MetadataConcurrency  int64
	AssetsDir            string
	MaxImageBytes        int64
	IndexRules           map[string][]entity.IndexRule
}

// DefaultEngineConfig returns the standard advisory settings for the
// storefront deployment
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MonitoredCollections: []string{"products", "orders", "reviews", "users", "categories"},
		Recorder:             DefaultRecorderConfig(),
		DuplicateWindow:      60 * time.Second,
		DuplicateThreshold:   time.Second,
		MetadataConcurrency:  4,
		MaxImageBytes:        512000,
		IndexRules:           DefaultIndexRules(),
	}
}

// Engine is the advisory facade. It records query activity, compiles
// performance reports, and applies index remediations. Every instance owns
// its state; two engines never share anything.
type Engine struct {
	config     EngineConfig
	recorder   *Recorder
	compiler   *ReportCompiler
	remediator *Remediator
	archive    repository.ReportArchive
	publisher  repository.EventPublisher
	logger     *logging.Logger
	metrics    *metrics.Collector

	mu         sync.Mutex
	lastReport *entity.PerformanceReport
}

// NewEngine creates an advisory engine over a store. Archive and publisher
// are optional; pass nil to run without report persistence or event
// publishing.
func NewEngine(
	config EngineConfig,
	store repository.Store,
	archive repository.ReportArchive,
	publisher repository.EventPublisher,
	logger *logging.Logger,
	collector *metrics.Collector,
) *Engine {
	if config.IndexRules == nil {
		config.IndexRules = DefaultIndexRules()
	}

	recorder := NewRecorder(config.Recorder, logger, collector)
	reader := NewMetadataReader(store, config.MetadataConcurrency, logger)
	analyzer := NewGapAnalyzer(config.IndexRules)
	detector := NewDuplicateDetector(config.DuplicateWindow, config.DuplicateThreshold)
	scanner := NewAssetScanner(config.AssetsDir, config.MaxImageBytes, logger)

	return &Engine{
		config:     config,
		recorder:   recorder,
		compiler:   NewReportCompiler(store, reader, analyzer, detector, scanner, recorder, config.MonitoredCollections, logger),
		remediator: NewRemediator(store, logger, collector),
		archive:    archive,
		publisher:  publisher,
		logger:     logger.WithComponent("advisor-engine"),
		metrics:    collector,
	}
}

// Record folds one observed query execution into the engine's stats. It is
// safe for concurrent use and never fails; the database client calls it on
// every completed operation.
func (e *Engine) Record(collection, operation string, query interface{}, duration time.Duration) {
	e.recorder.Record(collection, operation, query, duration)
}

// Stats returns a deep-copied snapshot of the recorded query activity
func (e *Engine) Stats() *entity.StatsSnapshot {
	return e.recorder.Snapshot()
}

// ClearStats drops all recorded query activity
func (e *Engine) ClearStats() {
	e.recorder.Clear()
	e.logger.Info("Query stats cleared")
}

// GenerateReport compiles a report, archives it, and announces it. Archive
// and publish failures are logged and never fail the report. Trigger names
// what started the run, for metrics.
func (e *Engine) GenerateReport(ctx context.Context, trigger string) (*entity.PerformanceReport, error) {
	start := time.Now()

	report, err := e.compiler.Generate(ctx)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordReportGenerated(trigger, "error", time.Since(start))
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordReportGenerated(trigger, "ok", time.Since(start))
		e.metrics.RecordReportSummary(report.Score, len(report.MissingIndexes), len(report.Duplicates.Issues))
	}
	e.logger.LogReportEvent(report.ID, report.Score, report.CriticalIssues,
		logging.Int("missing_indexes", len(report.MissingIndexes)),
		logging.Int("duplicate_issues", len(report.Duplicates.Issues)),
		logging.Int("slow_queries", report.QueryPerformance.SlowQueryCount))

	e.mu.Lock()
	e.lastReport = report
	e.mu.Unlock()

	if e.archive != nil {
		if err := e.archive.Save(ctx, report); err != nil {
			e.logger.Warn("Failed to archive report",
				logging.String("report_id", report.ID),
				logging.Any("error", err))
		}
	}

	if e.publisher != nil {
		if err := e.publisher.PublishReportGenerated(ctx, report); err != nil {
			e.logger.Warn("Failed to publish report event",
				logging.String("report_id", report.ID),
				logging.Any("error", err))
		}
	}

	return report, nil
}

// LatestReport returns the most recent report, preferring the archive over
// the in-memory copy
func (e *Engine) LatestReport(ctx context.Context) (*entity.PerformanceReport, error) {
	if e.archive != nil {
		report, err := e.archive.Latest(ctx)
		if err == nil {
			return report, nil
		}
		if !common.HasErrorCode(err, common.ErrCodeNotFound) {
			return nil, err
		}
	}

	e.mu.Lock()
	report := e.lastReport
	e.mu.Unlock()

	if report == nil {
		return nil, common.ErrNotFound("report")
	}
	return report, nil
}

// GetReport returns an archived report by ID
func (e *Engine) GetReport(ctx context.Context, id string) (*entity.PerformanceReport, error) {
	if e.archive == nil {
		return nil, common.ErrNotFound("report")
	}
	return e.archive.GetByID(ctx, id)
}

// ListReports returns up to limit archived reports, newest first
func (e *Engine) ListReports(ctx context.Context, limit int) ([]*entity.PerformanceReport, error) {
	if e.archive == nil {
		return nil, nil
	}
	return e.archive.ListRecent(ctx, limit)
}

// OptimizeOptions controls an auto-optimization run
type OptimizeOptions struct {
	// CreateIndexes enables applying index recommendations
	CreateIndexes bool
	// LogOnly logs what would be created without touching the store
	LogOnly bool
}

// DefaultOptimizeOptions applies high priority recommendations for real
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{CreateIndexes: true}
}

// AutoOptimize generates a fresh report and applies its high priority
// index recommendations. In log-only mode, or with index creation
// disabled, the recommendations are logged and counted as skipped. Asset
// suggestions always ride along for the caller to surface.
func (e *Engine) AutoOptimize(ctx context.Context, opts OptimizeOptions) (*entity.OptimizationOutcome, error) {
	report, err := e.GenerateReport(ctx, "optimize")
	if err != nil {
		return nil, err
	}

	var high []entity.IndexRecommendation
	for _, rec := range report.MissingIndexes {
		if rec.Priority == entity.PriorityHigh {
			high = append(high, rec)
		}
	}

	outcome := &entity.OptimizationOutcome{
		ReportID:         report.ID,
		LogOnly:          opts.LogOnly || !opts.CreateIndexes,
		AssetSuggestions: report.Assets.Recommendations,
	}

	if outcome.LogOnly {
		for _, rec := range high {
			e.logger.Info("Would create index",
				logging.String("collection", rec.Collection),
				logging.String("index", entity.DefaultIndexName(rec.Fields)),
				logging.String("reason", rec.Reason))
		}
		outcome.Skipped = len(high)
		return outcome, nil
	}

	outcome.Results = e.remediator.Apply(ctx, high, ApplyOptions{Background: true})

	for _, result := range outcome.Results {
		switch result.Status {
		case entity.RemediationCreated:
			outcome.Created++
			if e.publisher != nil {
				if err := e.publisher.PublishIndexCreated(ctx, result); err != nil {
					e.logger.Warn("Failed to publish index event",
						logging.String("collection", result.Collection),
						logging.String("index", result.IndexName),
						logging.Any("error", err))
				}
			}
		case entity.RemediationExists:
			outcome.Skipped++
		case entity.RemediationError:
			outcome.Errored++
			outcome.Errors = append(outcome.Errors, result.Error)
		}
	}

	return outcome, nil
}
