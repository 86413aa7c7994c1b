package cache

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
	"github.com/suletetes/techverse-advisor/shared/database/redis"
)

const (
	reportPrefix = "report:"
	latestKey    = "latest"

	defaultListLimit = 10
)

// RedisReportArchive persists performance reports in Redis. Reports are
// stored under their ID with a copy under a well-known latest key, and
// expire with the prefix TTL.
type RedisReportArchive struct {
	cache  *redis.CacheManager
	logger *logging.Logger
}

// NewRedisReportArchive creates a report archive over the shared cache
func NewRedisReportArchive(cache *redis.CacheManager, logger *logging.Logger) *RedisReportArchive {
	return &RedisReportArchive{
		cache:  cache,
		logger: logger.WithComponent("report-archive"),
	}
}

// Save stores a report and marks it as the latest
func (a *RedisReportArchive) Save(ctx context.Context, report *entity.PerformanceReport) error {
	if err := a.cache.StoreObject(ctx, reportPrefix, report.ID, report); err != nil {
		return errors.Wrap(err, "failed to store report")
	}

	if err := a.cache.StoreObject(ctx, reportPrefix, latestKey, report); err != nil {
		return errors.Wrap(err, "failed to update latest report")
	}

	a.logger.Debug("Report archived",
		logging.String("report_id", report.ID),
		logging.Int("score", report.Score))

	return nil
}

// Latest returns the most recently saved report
func (a *RedisReportArchive) Latest(ctx context.Context) (*entity.PerformanceReport, error) {
	var report entity.PerformanceReport

	found, err := a.cache.GetObject(ctx, reportPrefix, latestKey, &report)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load latest report")
	}
	if !found {
		return nil, common.ErrNotFound("report")
	}

	return &report, nil
}

// GetByID returns a report by its identifier
func (a *RedisReportArchive) GetByID(ctx context.Context, id string) (*entity.PerformanceReport, error) {
	var report entity.PerformanceReport

	found, err := a.cache.GetObject(ctx, reportPrefix, id, &report)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load report")
	}
	if !found {
		return nil, common.ErrNotFound("report")
	}

	return &report, nil
}

// ListRecent returns up to limit reports, newest first. Reports that fail
// to load are skipped so one damaged entry never hides the rest.
func (a *RedisReportArchive) ListRecent(ctx context.Context, limit int) ([]*entity.PerformanceReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	keys, err := a.cache.Keys(ctx, reportPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list report keys")
	}

	reports := make([]*entity.PerformanceReport, 0, len(keys))
	for _, key := range keys {
		if key == latestKey {
			continue
		}

		var report entity.PerformanceReport
		found, err := a.cache.GetObject(ctx, reportPrefix, key, &report)
		if err != nil {
			a.logger.Warn("Skipping unreadable archived report",
				logging.String("report_id", key),
				logging.Any("error", err))
			continue
		}
		if !found {
			continue
		}

		reports = append(reports, &report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})

	if len(reports) > limit {
		reports = reports[:limit]
	}

	return reports, nil
}
