package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

func newTestRecorder(config RecorderConfig) *Recorder {
	return NewRecorder(config, newTestLogger(), nil)
}

func TestRecorderAggregatesPerFamily(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())

	r.Record("products", "find", "q1", 10*time.Millisecond)
	r.Record("products", "find", "q2", 20*time.Millisecond)
	r.Record("products", "find", "q3", 60*time.Millisecond)

	snapshot := r.Snapshot()
	key := entity.QueryStatKey{Collection: "products", Operation: "find"}
	stats, ok := snapshot.Stats[key]
	require.True(t, ok)

	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 90.0, stats.TotalTimeMs)
	assert.Equal(t, 30.0, stats.AvgTimeMs)
	assert.Equal(t, 60.0, stats.MaxTimeMs)
	require.Len(t, stats.RecentSamples, 3)
	assert.Equal(t, "q1", stats.RecentSamples[0].Query)
	assert.Equal(t, 10.0, stats.RecentSamples[0].ExecutionTimeMs)
	assert.Equal(t, 60.0, stats.RecentSamples[2].ExecutionTimeMs)
}

func TestRecorderCreatesFamiliesLazily(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())

	assert.Empty(t, r.Snapshot().Stats)

	r.Record("products", "find", nil, time.Millisecond)
	r.Record("products", "count", nil, time.Millisecond)
	r.Record("orders", "find", nil, time.Millisecond)

	snapshot := r.Snapshot()
	assert.Len(t, snapshot.Stats, 3)
	assert.Equal(t, int64(3), snapshot.TotalQueries())
}

func TestRecorderAverageTracksTotalOverCount(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())

	for i := 1; i <= 25; i++ {
		r.Record("orders", "find", nil, time.Duration(i)*time.Millisecond)
	}

	stats := r.Snapshot().Stats[entity.QueryStatKey{Collection: "orders", Operation: "find"}]
	assert.Equal(t, stats.TotalTimeMs/float64(stats.Count), stats.AvgTimeMs)
	assert.Equal(t, 25.0, stats.MaxTimeMs)
}

func TestRecorderSampleRingEvictsOldest(t *testing.T) {
	config := DefaultRecorderConfig()
	config.MaxRecentSamples = 5
	r := newTestRecorder(config)

	for i := 0; i < 8; i++ {
		r.Record("products", "find", fmt.Sprintf("q%d", i), time.Millisecond)
	}

	stats := r.Snapshot().Stats[entity.QueryStatKey{Collection: "products", Operation: "find"}]
	require.Len(t, stats.RecentSamples, 5)
	assert.Equal(t, "q3", stats.RecentSamples[0].Query)
	assert.Equal(t, "q7", stats.RecentSamples[4].Query)
	assert.Equal(t, int64(8), stats.Count)
}

func TestRecorderSlowQueriesKeepNewestFifty(t *testing.T) {
	config := DefaultRecorderConfig()
	config.MaxSlowQueries = 3
	r := newTestRecorder(config)

	for i := 0; i < 5; i++ {
		r.Record("orders", "aggregate", fmt.Sprintf("slow%d", i), 150*time.Millisecond)
	}

	snapshot := r.Snapshot()
	require.Len(t, snapshot.SlowQueries, 3)
	assert.Equal(t, "slow2", snapshot.SlowQueries[0].Query)
	assert.Equal(t, "slow4", snapshot.SlowQueries[2].Query)
}

func TestRecorderSlowThresholdIsStrict(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())

	r.Record("products", "find", "at-threshold", 100*time.Millisecond)
	assert.Empty(t, r.Snapshot().SlowQueries)

	r.Record("products", "find", "over-threshold", 101*time.Millisecond)
	slow := r.Snapshot().SlowQueries
	require.Len(t, slow, 1)
	assert.Equal(t, "over-threshold", slow[0].Query)
	assert.Equal(t, 101.0, slow[0].ExecutionTimeMs)
	assert.Equal(t, "products", slow[0].Collection)
	assert.Equal(t, "find", slow[0].Operation)
}

func TestRecorderSnapshotIsDeepCopy(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())
	r.Record("users", "find", "q1", 10*time.Millisecond)

	before := r.Snapshot()
	r.Record("users", "find", "q2", 200*time.Millisecond)

	key := entity.QueryStatKey{Collection: "users", Operation: "find"}
	assert.Equal(t, int64(1), before.Stats[key].Count)
	assert.Len(t, before.Stats[key].RecentSamples, 1)
	assert.Empty(t, before.SlowQueries)

	// Mutating a snapshot must not reach the recorder either.
	samples := before.Stats[key].RecentSamples
	samples[0].Query = "mutated"

	after := r.Snapshot()
	assert.Equal(t, "q1", after.Stats[key].RecentSamples[0].Query)
}

func TestRecorderConcurrentRecord(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())

	const goroutines = 10
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				r.Record("products", "find", "hot", 2*time.Millisecond)
			}
		}()
	}
	wg.Wait()

	stats := r.Snapshot().Stats[entity.QueryStatKey{Collection: "products", Operation: "find"}]
	assert.Equal(t, int64(goroutines*perGoroutine), stats.Count)
	assert.InDelta(t, float64(goroutines*perGoroutine)*2.0, stats.TotalTimeMs, 0.001)
}

func TestRecorderClear(t *testing.T) {
	r := newTestRecorder(DefaultRecorderConfig())
	r.Record("products", "find", nil, 150*time.Millisecond)

	r.Clear()

	snapshot := r.Snapshot()
	assert.Empty(t, snapshot.Stats)
	assert.Empty(t, snapshot.SlowQueries)

	// The recorder keeps working after a clear.
	r.Record("products", "find", nil, time.Millisecond)
	assert.Len(t, r.Snapshot().Stats, 1)
}

func TestRecorderRejectsInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewRecorder(RecorderConfig{SlowQueryThreshold: time.Second, MaxRecentSamples: 0, MaxSlowQueries: 50}, newTestLogger(), nil)
	})
	assert.Panics(t, func() {
		NewRecorder(RecorderConfig{SlowQueryThreshold: 0, MaxRecentSamples: 100, MaxSlowQueries: 50}, newTestLogger(), nil)
	})
}
