package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
)

// fakeStore is an in-memory Store for tests. Collections without seeded
// indexes read back empty, like a fresh database.
type fakeStore struct {
	mu sync.Mutex

	pingErr error
	indexes map[string][]entity.IndexSpec
	sizes   map[string]repository.CollectionSizes

	listErr   map[string]error
	statsErr  map[string]error
	createErr map[string]error

	createCalls    int
	lastBackground bool

	listInFlight    int
	maxListInFlight int
	listGate        func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		indexes:   make(map[string][]entity.IndexSpec),
		sizes:     make(map[string]repository.CollectionSizes),
		listErr:   make(map[string]error),
		statsErr:  make(map[string]error),
		createErr: make(map[string]error),
	}
}

func (f *fakeStore) seedIndex(collection string, fields ...entity.IndexField) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexes[collection] = append(f.indexes[collection], entity.IndexSpec{
		Name:   entity.DefaultIndexName(fields),
		Fields: fields,
	})
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) ListIndexes(ctx context.Context, collection string) ([]entity.IndexSpec, error) {
	f.mu.Lock()
	if err, failed := f.listErr[collection]; failed {
		f.mu.Unlock()
		return nil, err
	}
	f.listInFlight++
	if f.listInFlight > f.maxListInFlight {
		f.maxListInFlight = f.listInFlight
	}
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		gate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listInFlight--

	out := make([]entity.IndexSpec, len(f.indexes[collection]))
	copy(out, f.indexes[collection])
	return out, nil
}

func (f *fakeStore) CollectionStats(ctx context.Context, collection string) (*repository.CollectionSizes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, failed := f.statsErr[collection]; failed {
		return nil, err
	}

	sizes := f.sizes[collection]
	return &sizes, nil
}

func (f *fakeStore) CreateIndex(ctx context.Context, collection string, fields []entity.IndexField, opts repository.CreateIndexOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	f.lastBackground = opts.Background

	if err, failed := f.createErr[collection]; failed {
		return "", err
	}

	name := opts.Name
	if name == "" {
		name = entity.DefaultIndexName(fields)
	}

	f.indexes[collection] = append(f.indexes[collection], entity.IndexSpec{Name: name, Fields: fields})
	return name, nil
}

func (f *fakeStore) createdIndexNames(collection string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for _, idx := range f.indexes[collection] {
		names = append(names, idx.Name)
	}
	return names
}

func newTestLogger() *logging.Logger {
	logger, err := logging.NewLogger(logging.Config{
		Level:       "error",
		Format:      "console",
		Output:      "stdout",
		ServiceName: "advisor-test",
	})
	if err != nil {
		panic(fmt.Sprintf("test logger: %v", err))
	}
	return logger
}
