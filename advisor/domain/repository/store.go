package repository

import (
	"context"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

// Store defines the database surface the advisory engine inspects and
// remediates
type Store interface {
	// Ping verifies the store is reachable. Report generation aborts when
	// it is not.
	Ping(ctx context.Context) error

	// ListIndexes returns the indexes on a collection with their declared
	// field order
	ListIndexes(ctx context.Context, collection string) ([]entity.IndexSpec, error)

	// CollectionStats returns document and size figures for a collection
	CollectionStats(ctx context.Context, collection string) (*CollectionSizes, error)

	// CreateIndex creates an index and returns its name
	CreateIndex(ctx context.Context, collection string, fields []entity.IndexField, opts CreateIndexOptions) (string, error)
}

// CollectionSizes holds the size figures read for one collection
type CollectionSizes struct {
	DocumentCount int64 `json:"document_count"`
	StorageBytes  int64 `json:"storage_bytes"`
	IndexBytes    int64 `json:"index_bytes"`
}

// CreateIndexOptions carries the options for one index build
type CreateIndexOptions struct {
	Name       string `json:"name"`
	Background bool   `json:"background"`
}

// ReportArchive persists generated reports for later retrieval
type ReportArchive interface {
	// Save stores a report and marks it as the latest
	Save(ctx context.Context, report *entity.PerformanceReport) error

	// Latest returns the most recently saved report
	Latest(ctx context.Context) (*entity.PerformanceReport, error)

	// GetByID returns a report by its identifier
	GetByID(ctx context.Context, id string) (*entity.PerformanceReport, error)

	// ListRecent returns up to limit reports, newest first
	ListRecent(ctx context.Context, limit int) ([]*entity.PerformanceReport, error)
}

// EventPublisher announces advisory outcomes to downstream consumers
type EventPublisher interface {
	// PublishReportGenerated announces a completed report
	PublishReportGenerated(ctx context.Context, report *entity.PerformanceReport) error

	// PublishIndexCreated announces one applied index remediation
	PublishIndexCreated(ctx context.Context, result entity.RemediationResult) error

	// Close flushes and releases the publisher
	Close() error
}
