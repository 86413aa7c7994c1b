package usecase

import (
	"sync"
	"time"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// RecorderConfig bounds what the recorder retains in memory
type RecorderConfig struct {
	// SlowQueryThreshold marks executions strictly slower than this as slow
	SlowQueryThreshold time.Duration
	// MaxRecentSamples caps the per-family sample ring
	MaxRecentSamples int
	// MaxSlowQueries caps the global slow query ring
	MaxSlowQueries int
}

// DefaultRecorderConfig returns the standard retention bounds
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SlowQueryThreshold: 100 * time.Millisecond,
		MaxRecentSamples:   100,
		MaxSlowQueries:     50,
	}
}

type statsEntry struct {
	count   int64
	totalMs float64
	maxMs   float64
	samples *ring[entity.QuerySample]
}

// Recorder aggregates query observations per collection and operation.
// Record sits on the hot path of every database call, so it only ever
// touches in-memory state and never returns an error.
type Recorder struct {
	mu          sync.Mutex
	entries     map[entity.QueryStatKey]*statsEntry
	slowQueries *ring[entity.SlowQueryRecord]

	config  RecorderConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewRecorder creates a recorder with the given retention bounds. Invalid
// bounds are a wiring defect, so they panic rather than surface as runtime
// errors.
func NewRecorder(config RecorderConfig, logger *logging.Logger, collector *metrics.Collector) *Recorder {
	if config.MaxRecentSamples <= 0 || config.MaxSlowQueries <= 0 {
		panic(common.ErrMonitoringState("recorder capacities must be positive"))
	}
	if config.SlowQueryThreshold <= 0 {
		panic(common.ErrMonitoringState("slow query threshold must be positive"))
	}

	return &Recorder{
		entries:     make(map[entity.QueryStatKey]*statsEntry),
		slowQueries: newRing[entity.SlowQueryRecord](config.MaxSlowQueries),
		config:      config,
		logger:      logger,
		metrics:     collector,
		now:         time.Now,
	}
}

// Record folds one observed execution into the stats for its query family,
// creating the family on first sight. Executions strictly over the slow
// threshold are also kept in the global slow query ring.
func (r *Recorder) Record(collection, operation string, query interface{}, duration time.Duration) {
	ms := float64(duration) / float64(time.Millisecond)
	serialized := entity.SerializeQuery(query)
	timestamp := r.now()
	slow := duration > r.config.SlowQueryThreshold

	key := entity.QueryStatKey{Collection: collection, Operation: operation}

	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &statsEntry{samples: newRing[entity.QuerySample](r.config.MaxRecentSamples)}
		r.entries[key] = entry
	}

	entry.count++
	entry.totalMs += ms
	if ms > entry.maxMs {
		entry.maxMs = ms
	}
	entry.samples.Push(entity.QuerySample{Query: serialized, ExecutionTimeMs: ms, Timestamp: timestamp})

	if slow {
		r.slowQueries.Push(entity.SlowQueryRecord{
			Collection:      collection,
			Operation:       operation,
			Query:           serialized,
			ExecutionTimeMs: ms,
			Timestamp:       timestamp,
		})
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordQueryObservation(collection, operation, slow)
	}
	if slow && r.logger != nil {
		r.logger.LogSlowQuery(serialized, duration,
			logging.String("collection", collection),
			logging.String("operation", operation))
	}
}

// Snapshot returns a deep copy of the recorder state. Concurrent Record
// calls during or after the snapshot never show through it.
func (r *Recorder) Snapshot() *entity.StatsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := &entity.StatsSnapshot{
		TakenAt:     r.now(),
		Stats:       make(map[entity.QueryStatKey]entity.QueryStats, len(r.entries)),
		SlowQueries: r.slowQueries.Snapshot(),
	}

	for key, entry := range r.entries {
		snapshot.Stats[key] = entity.QueryStats{
			Collection:    key.Collection,
			Operation:     key.Operation,
			Count:         entry.count,
			TotalTimeMs:   entry.totalMs,
			AvgTimeMs:     entry.totalMs / float64(entry.count),
			MaxTimeMs:     entry.maxMs,
			RecentSamples: entry.samples.Snapshot(),
		}
	}

	return snapshot
}

// Clear drops all accumulated stats and slow query records
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[entity.QueryStatKey]*statsEntry)
	r.slowQueries.Reset()
}
