package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
	"github.com/suletetes/techverse-advisor/shared/database/mongodb"
)

// MongoStore implements repository.Store over the shared MongoDB client
type MongoStore struct {
	client *mongodb.Client
	logger *logging.Logger
}

// NewMongoStore creates a store backed by MongoDB
func NewMongoStore(client *mongodb.Client, logger *logging.Logger) *MongoStore {
	return &MongoStore{
		client: client,
		logger: logger.WithComponent("mongo-store"),
	}
}

// Ping verifies the database connection
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Health(ctx)
}

// ListIndexes returns the indexes on a collection. Field order inside each
// index is preserved as declared on the server.
func (s *MongoStore) ListIndexes(ctx context.Context, collection string) ([]entity.IndexSpec, error) {
	docs, err := s.client.Collection(collection).ListIndexDocuments(ctx)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list indexes")
	}

	specs := make([]entity.IndexSpec, 0, len(docs))
	for _, doc := range docs {
		spec := indexSpecFromDocument(doc)
		if len(spec.Fields) == 0 {
			s.logger.Debug("Skipping index document without keys",
				logging.String("collection", collection),
				logging.String("index", spec.Name))
			continue
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// CollectionStats returns document and size figures for a collection
func (s *MongoStore) CollectionStats(ctx context.Context, collection string) (*repository.CollectionSizes, error) {
	stats, err := s.client.Collection(collection).Stats(ctx)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to read collection stats")
	}

	return &repository.CollectionSizes{
		DocumentCount: stats.Count,
		StorageBytes:  stats.StorageSize,
		IndexBytes:    stats.TotalIndexSize,
	}, nil
}

// CreateIndex creates an index and returns its name
func (s *MongoStore) CreateIndex(ctx context.Context, collection string, fields []entity.IndexField, opts repository.CreateIndexOptions) (string, error) {
	keys := make(bson.D, len(fields))
	for i, field := range fields {
		keys[i] = bson.E{Key: field.Name, Value: field.Direction}
	}

	name, err := s.client.Collection(collection).CreateIndexSpec(ctx, keys, mongodb.IndexOptions{
		Name:       opts.Name,
		Background: opts.Background,
	})
	if err != nil {
		return "", common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to create index")
	}

	return name, nil
}

// indexSpecFromDocument extracts name and ordered key fields from a raw
// index document. Non-numeric key values, like "text" or "2dsphere", map to
// direction zero so they never match a recommended ascending index.
func indexSpecFromDocument(doc bson.D) entity.IndexSpec {
	var spec entity.IndexSpec

	for _, elem := range doc {
		switch elem.Key {
		case "name":
			if name, ok := elem.Value.(string); ok {
				spec.Name = name
			}
		case "key":
			keys, ok := elem.Value.(bson.D)
			if !ok {
				continue
			}
			for _, key := range keys {
				spec.Fields = append(spec.Fields, entity.IndexField{
					Name:      key.Key,
					Direction: directionValue(key.Value),
				})
			}
		}
	}

	return spec
}

func directionValue(value interface{}) int {
	switch v := value.(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
