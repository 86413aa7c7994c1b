package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// MetadataReader gathers index and size metadata for monitored collections
type MetadataReader struct {
	store       repository.Store
	concurrency int64
	logger      *logging.Logger
}

// NewMetadataReader creates a metadata reader. Concurrency bounds how many
// collections are read at once.
func NewMetadataReader(store repository.Store, concurrency int64, logger *logging.Logger) *MetadataReader {
	if concurrency <= 0 {
		concurrency = 4
	}

	return &MetadataReader{
		store:       store,
		concurrency: concurrency,
		logger:      logger.WithComponent("metadata-reader"),
	}
}

// ReadIndexes reads metadata for every collection, in the given order.
// Reads fan out concurrently under a weighted semaphore. A collection that
// fails to read carries its error in the result and never fails the batch.
func (m *MetadataReader) ReadIndexes(ctx context.Context, collections []string) []entity.CollectionMetadata {
	results := make([]entity.CollectionMetadata, len(collections))
	sem := semaphore.NewWeighted(m.concurrency)
	var wg sync.WaitGroup

	for i, name := range collections {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = entity.CollectionMetadata{Collection: name, Error: err.Error()}
			continue
		}

		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = m.readCollection(ctx, name)
		}(i, name)
	}

	wg.Wait()
	return results
}

func (m *MetadataReader) readCollection(ctx context.Context, name string) entity.CollectionMetadata {
	indexes, err := m.store.ListIndexes(ctx, name)
	if err != nil {
		return m.failedRead(name, err)
	}

	sizes, err := m.store.CollectionStats(ctx, name)
	if err != nil {
		return m.failedRead(name, err)
	}

	return entity.CollectionMetadata{
		Collection:    name,
		Indexes:       indexes,
		DocumentCount: sizes.DocumentCount,
		StorageBytes:  sizes.StorageBytes,
		IndexBytes:    sizes.IndexBytes,
	}
}

func (m *MetadataReader) failedRead(name string, err error) entity.CollectionMetadata {
	readErr := common.ErrCollectionRead(name, err)

	m.logger.Warn("Failed to read collection metadata",
		logging.String("collection", name),
		logging.Any("error", readErr))

	return entity.CollectionMetadata{Collection: name, Error: readErr.Error()}
}
