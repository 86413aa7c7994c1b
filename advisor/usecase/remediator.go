package usecase

import (
	"context"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// Remediator applies index recommendations to the store
type Remediator struct {
	store   repository.Store
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewRemediator creates a remediator
func NewRemediator(store repository.Store, logger *logging.Logger, collector *metrics.Collector) *Remediator {
	return &Remediator{
		store:   store,
		logger:  logger.WithComponent("remediator"),
		metrics: collector,
	}
}

// ApplyOptions controls how recommendations are applied
type ApplyOptions struct {
	// Background requests non-blocking index builds
	Background bool
}

// Apply creates every recommended index that the collection does not
// already carry. Existence is judged on the full ordered fields and
// directions, stricter than the analyzer's name-only comparison, so an
// index covering the right fields with different directions is created
// again under its own name. One failed creation never stops the rest.
func (r *Remediator) Apply(ctx context.Context, recommendations []entity.IndexRecommendation, opts ApplyOptions) []entity.RemediationResult {
	results := make([]entity.RemediationResult, 0, len(recommendations))

	existingByCollection := make(map[string]map[string]struct{})
	listFailures := make(map[string]error)

	for _, rec := range recommendations {
		spec := rec.Spec()
		result := entity.RemediationResult{
			Collection: rec.Collection,
			IndexName:  spec.Name,
			Priority:   rec.Priority,
		}

		existing, err := r.existingIndexes(ctx, rec.Collection, existingByCollection, listFailures)
		if err != nil {
			results = append(results, r.failed(result, err))
			continue
		}

		if _, found := existing[spec.ExactKey()]; found {
			result.Status = entity.RemediationExists
			r.record(result)
			results = append(results, result)
			continue
		}

		name, err := r.store.CreateIndex(ctx, rec.Collection, rec.Fields, repository.CreateIndexOptions{
			Name:       spec.Name,
			Background: opts.Background,
		})
		if err != nil {
			results = append(results, r.failed(result, err))
			continue
		}

		existing[spec.ExactKey()] = struct{}{}
		result.IndexName = name
		result.Status = entity.RemediationCreated
		r.record(result)
		results = append(results, result)
	}

	return results
}

// existingIndexes lists a collection's indexes once per run. A listing
// failure is remembered so every recommendation for that collection fails
// the same way instead of retrying.
func (r *Remediator) existingIndexes(ctx context.Context, collection string, cache map[string]map[string]struct{}, failures map[string]error) (map[string]struct{}, error) {
	if err, failed := failures[collection]; failed {
		return nil, err
	}
	if existing, cached := cache[collection]; cached {
		return existing, nil
	}

	indexes, err := r.store.ListIndexes(ctx, collection)
	if err != nil {
		failures[collection] = err
		return nil, err
	}

	existing := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		existing[idx.ExactKey()] = struct{}{}
	}
	cache[collection] = existing

	return existing, nil
}

func (r *Remediator) failed(result entity.RemediationResult, err error) entity.RemediationResult {
	createErr := common.ErrIndexCreate(result.Collection, result.IndexName, err)

	result.Status = entity.RemediationError
	result.Error = createErr.Error()
	r.record(result)

	return result
}

func (r *Remediator) record(result entity.RemediationResult) {
	r.logger.LogIndexEvent(result.Collection, result.IndexName, string(result.Status))

	if r.metrics != nil {
		r.metrics.RecordIndexRemediation(result.Collection, string(result.Status))
	}
}
