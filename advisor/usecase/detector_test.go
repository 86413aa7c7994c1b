package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

func detectorNow() time.Time {
	return time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
}

func snapshotWith(key entity.QueryStatKey, samples ...entity.QuerySample) *entity.StatsSnapshot {
	return &entity.StatsSnapshot{
		TakenAt: detectorNow(),
		Stats: map[entity.QueryStatKey]entity.QueryStats{
			key: {
				Collection:    key.Collection,
				Operation:     key.Operation,
				Count:         int64(len(samples)),
				RecentSamples: samples,
			},
		},
	}
}

func sampleAt(query string, offset time.Duration) entity.QuerySample {
	return entity.QuerySample{Query: query, Timestamp: detectorNow().Add(offset)}
}

func TestDetectFlagsRapidRepeats(t *testing.T) {
	key := entity.QueryStatKey{Collection: "products", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"slug":"red-mug"}`, -300*time.Millisecond),
		sampleAt(`{"slug":"red-mug"}`, -250*time.Millisecond),
		sampleAt(`{"slug":"red-mug"}`, -200*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	require.Len(t, findings.Issues, 1)
	issue := findings.Issues[0]
	assert.Equal(t, "products.find", issue.QueryKey)
	assert.Equal(t, `{"slug":"red-mug"}`, issue.Query)
	assert.Equal(t, 3, issue.InstanceCount)
	assert.InDelta(t, 50.0, issue.TimeDifferenceMs, 0.001)
}

func TestDetectReportsFirstRapidPairOnly(t *testing.T) {
	key := entity.QueryStatKey{Collection: "orders", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"status":"paid"}`, -30*time.Second),
		sampleAt(`{"status":"paid"}`, -30*time.Second+100*time.Millisecond),
		sampleAt(`{"status":"paid"}`, -25*time.Second+100*time.Millisecond),
		sampleAt(`{"status":"paid"}`, -25*time.Second+300*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	require.Len(t, findings.Issues, 1)
	assert.Equal(t, 4, findings.Issues[0].InstanceCount)
	assert.InDelta(t, 100.0, findings.Issues[0].TimeDifferenceMs, 0.001)
}

func TestDetectWindowIsStrict(t *testing.T) {
	key := entity.QueryStatKey{Collection: "users", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"email":"a@b.c"}`, -time.Minute),
		sampleAt(`{"email":"a@b.c"}`, -100*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	// The sample aged exactly one window is excluded, leaving a group of one.
	assert.Empty(t, findings.Issues)
}

func TestDetectKeepsSamplesJustInsideWindow(t *testing.T) {
	key := entity.QueryStatKey{Collection: "users", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"email":"a@b.c"}`, -time.Minute+time.Millisecond),
		sampleAt(`{"email":"a@b.c"}`, -time.Minute+2*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	require.Len(t, findings.Issues, 1)
	assert.Equal(t, 2, findings.Issues[0].InstanceCount)
}

func TestDetectIgnoresDistinctQueries(t *testing.T) {
	key := entity.QueryStatKey{Collection: "products", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"slug":"red-mug"}`, -200*time.Millisecond),
		sampleAt(`{"slug":"blue-mug"}`, -150*time.Millisecond),
		sampleAt(`{"slug":"green-mug"}`, -100*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	assert.Empty(t, findings.Issues)
	assert.Empty(t, findings.Suggestions)
}

func TestDetectIgnoresSlowlySpacedRepeats(t *testing.T) {
	key := entity.QueryStatKey{Collection: "categories", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"parent_id":null}`, -10*time.Second),
		sampleAt(`{"parent_id":null}`, -8*time.Second),
		sampleAt(`{"parent_id":null}`, -6*time.Second),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	assert.Empty(t, findings.Issues)
}

func TestDetectGroupsPerKeySeparately(t *testing.T) {
	rapid := entity.QueryStatKey{Collection: "products", Operation: "find"}
	spaced := entity.QueryStatKey{Collection: "orders", Operation: "find"}
	snapshot := &entity.StatsSnapshot{
		TakenAt: detectorNow(),
		Stats: map[entity.QueryStatKey]entity.QueryStats{
			rapid: {
				Collection: rapid.Collection,
				Operation:  rapid.Operation,
				RecentSamples: []entity.QuerySample{
					sampleAt(`{"featured":true}`, -400*time.Millisecond),
					sampleAt(`{"featured":true}`, -300*time.Millisecond),
				},
			},
			spaced: {
				Collection: spaced.Collection,
				Operation:  spaced.Operation,
				RecentSamples: []entity.QuerySample{
					sampleAt(`{"featured":true}`, -20*time.Second),
					sampleAt(`{"featured":true}`, -5*time.Second),
				},
			},
		},
	}

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	require.Len(t, findings.Issues, 1)
	assert.Equal(t, "products.find", findings.Issues[0].QueryKey)
}

func TestDetectSuggestionsAccompanyIssues(t *testing.T) {
	key := entity.QueryStatKey{Collection: "products", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"slug":"red-mug"}`, -200*time.Millisecond),
		sampleAt(`{"slug":"red-mug"}`, -100*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	findings := d.Detect(snapshot, detectorNow())

	require.NotEmpty(t, findings.Issues)
	assert.NotEmpty(t, findings.Suggestions)
}

func TestDetectIsPureOverSnapshot(t *testing.T) {
	key := entity.QueryStatKey{Collection: "products", Operation: "find"}
	snapshot := snapshotWith(key,
		sampleAt(`{"slug":"red-mug"}`, -200*time.Millisecond),
		sampleAt(`{"slug":"red-mug"}`, -100*time.Millisecond),
	)

	d := NewDuplicateDetector(time.Minute, time.Second)
	first := d.Detect(snapshot, detectorNow())
	second := d.Detect(snapshot, detectorNow())

	assert.Equal(t, first, second)
	assert.Len(t, snapshot.Stats[key].RecentSamples, 2)
}

func TestDetectorRejectsInvalidConfig(t *testing.T) {
	assert.Panics(t, func() { NewDuplicateDetector(0, time.Second) })
	assert.Panics(t, func() { NewDuplicateDetector(time.Minute, 0) })
	assert.Panics(t, func() { NewDuplicateDetector(-time.Minute, time.Second) })
}
