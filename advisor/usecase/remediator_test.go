package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

func recommend(collection string, priority entity.Priority, fields ...string) entity.IndexRecommendation {
	return entity.IndexRecommendation{
		Collection: collection,
		Fields:     entity.AscendingFields(fields),
		Reason:     "test rule",
		Priority:   priority,
	}
}

func TestApplyCreatesMissingIndexes(t *testing.T) {
	store := newFakeStore()
	r := NewRemediator(store, newTestLogger(), nil)

	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("orders", entity.PriorityHigh, "user_id", "created_at"),
		recommend("users", entity.PriorityHigh, "email"),
	}, ApplyOptions{Background: true})

	require.Len(t, results, 2)
	assert.Equal(t, entity.RemediationCreated, results[0].Status)
	assert.Equal(t, "user_id_1_created_at_1", results[0].IndexName)
	assert.Equal(t, entity.RemediationCreated, results[1].Status)
	assert.Equal(t, "email_1", results[1].IndexName)
	assert.True(t, store.lastBackground)
}

func TestApplySkipsExactDuplicates(t *testing.T) {
	store := newFakeStore()
	store.seedIndex("users", entity.IndexField{Name: "email", Direction: 1})
	r := NewRemediator(store, newTestLogger(), nil)

	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("users", entity.PriorityHigh, "email"),
	}, ApplyOptions{Background: true})

	require.Len(t, results, 1)
	assert.Equal(t, entity.RemediationExists, results[0].Status)
	assert.Equal(t, 0, store.createCalls)
}

func TestApplyCreatesWhenDirectionsDiffer(t *testing.T) {
	store := newFakeStore()
	store.seedIndex("products",
		entity.IndexField{Name: "status", Direction: 1},
		entity.IndexField{Name: "visibility", Direction: -1})

	// The analyzer would already consider this rule covered, because it
	// compares field names only. Remediation compares directions too, so
	// the ascending variant is still created alongside the existing index.
	analyzer := NewGapAnalyzer(map[string][]entity.IndexRule{
		"products": {{Fields: []string{"status", "visibility"}, Reason: "listing filter", Priority: entity.PriorityHigh}},
	})
	metadata := []entity.CollectionMetadata{{
		Collection: "products",
		Indexes: []entity.IndexSpec{{
			Name: "status_1_visibility_-1",
			Fields: []entity.IndexField{
				{Name: "status", Direction: 1},
				{Name: "visibility", Direction: -1},
			},
		}},
	}}
	assert.Empty(t, analyzer.Analyze(metadata))

	r := NewRemediator(store, newTestLogger(), nil)
	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("products", entity.PriorityHigh, "status", "visibility"),
	}, ApplyOptions{Background: true})

	require.Len(t, results, 1)
	assert.Equal(t, entity.RemediationCreated, results[0].Status)
	assert.Contains(t, store.createdIndexNames("products"), "status_1_visibility_1")
}

func TestApplyContinuesPastCreateFailures(t *testing.T) {
	store := newFakeStore()
	store.createErr["orders"] = errors.New("index build rejected")
	r := NewRemediator(store, newTestLogger(), nil)

	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("orders", entity.PriorityHigh, "user_id", "created_at"),
		recommend("users", entity.PriorityHigh, "email"),
	}, ApplyOptions{Background: true})

	require.Len(t, results, 2)
	assert.Equal(t, entity.RemediationError, results[0].Status)
	assert.Contains(t, results[0].Error, "orders")
	assert.Equal(t, entity.RemediationCreated, results[1].Status)
}

func TestApplyListFailureFailsThatCollectionOnly(t *testing.T) {
	store := newFakeStore()
	store.listErr["orders"] = errors.New("listIndexes timed out")
	r := NewRemediator(store, newTestLogger(), nil)

	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("orders", entity.PriorityHigh, "user_id", "created_at"),
		recommend("orders", entity.PriorityMedium, "status"),
		recommend("users", entity.PriorityHigh, "email"),
	}, ApplyOptions{})

	require.Len(t, results, 3)
	assert.Equal(t, entity.RemediationError, results[0].Status)
	assert.Equal(t, entity.RemediationError, results[1].Status)
	assert.Equal(t, entity.RemediationCreated, results[2].Status)
}

func TestApplyIsIdempotentAcrossRuns(t *testing.T) {
	store := newFakeStore()
	r := NewRemediator(store, newTestLogger(), nil)
	recs := []entity.IndexRecommendation{
		recommend("users", entity.PriorityHigh, "email"),
		recommend("orders", entity.PriorityHigh, "user_id", "created_at"),
	}

	first := r.Apply(context.Background(), recs, ApplyOptions{Background: true})
	second := r.Apply(context.Background(), recs, ApplyOptions{Background: true})

	for _, result := range first {
		assert.Equal(t, entity.RemediationCreated, result.Status)
	}
	for _, result := range second {
		assert.Equal(t, entity.RemediationExists, result.Status)
	}
	assert.Equal(t, 2, store.createCalls)
}

func TestApplyDeduplicatesWithinOneRun(t *testing.T) {
	store := newFakeStore()
	r := NewRemediator(store, newTestLogger(), nil)

	results := r.Apply(context.Background(), []entity.IndexRecommendation{
		recommend("users", entity.PriorityHigh, "email"),
		recommend("users", entity.PriorityMedium, "email"),
	}, ApplyOptions{})

	require.Len(t, results, 2)
	assert.Equal(t, entity.RemediationCreated, results[0].Status)
	assert.Equal(t, entity.RemediationExists, results[1].Status)
	assert.Equal(t, 1, store.createCalls)
}
