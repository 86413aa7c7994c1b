package mongodb

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
)

// Collection wraps a MongoDB collection with circuit breaking and
// per-operation instrumentation. Every completed operation is reported to
// the metrics collector and to the attached query recorder.
type Collection struct {
	name           string
	collection     *mongo.Collection
	logger         *logging.Logger
	metrics        *metrics.Collector
	circuitBreaker *gobreaker.CircuitBreaker
	client         *Client
	timeout        time.Duration
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Collection) observe(operation string, query interface{}, start time.Time) {
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordDatabaseQuery("mongodb", operation, c.name, duration)
	}
	if rec := c.client.currentRecorder(); rec != nil {
		rec.Record(c.name, operation, query, duration)
	}
}

// InsertOne inserts a single document
func (c *Collection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	start := time.Now()
	defer c.observe("insert", document, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.InsertOne(opCtx, document, opts...)
	})
	if err != nil {
		c.logger.Error("Insert operation failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*mongo.InsertOneResult), nil
}

// Find executes a query and returns a cursor over the matching documents
func (c *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	start := time.Now()
	defer c.observe("find", filter, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.Find(opCtx, filter, opts...)
	})
	if err != nil {
		c.logger.Error("Find operation failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*mongo.Cursor), nil
}

// FindOne executes a query and returns at most one matching document
func (c *Collection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	start := time.Now()
	defer c.observe("find", filter, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.FindOne(opCtx, filter, opts...), nil
	})
	if err != nil {
		return mongo.NewSingleResultFromDocument(nil, err, nil)
	}

	return result.(*mongo.SingleResult)
}

// UpdateOne updates a single document matching the filter
func (c *Collection) UpdateOne(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	start := time.Now()
	defer c.observe("update", filter, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.UpdateOne(opCtx, filter, update, opts...)
	})
	if err != nil {
		c.logger.Error("Update operation failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*mongo.UpdateResult), nil
}

// DeleteOne deletes a single document matching the filter
func (c *Collection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	start := time.Now()
	defer c.observe("delete", filter, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.DeleteOne(opCtx, filter, opts...)
	})
	if err != nil {
		c.logger.Error("Delete operation failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*mongo.DeleteResult), nil
}

// CountDocuments counts the documents matching the filter
func (c *Collection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	start := time.Now()
	defer c.observe("count", filter, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.CountDocuments(opCtx, filter, opts...)
	})
	if err != nil {
		c.logger.Error("Count operation failed", logging.Any("error", err))
		return 0, err
	}

	return result.(int64), nil
}

// EstimatedDocumentCount returns the estimated number of documents from
// collection metadata without scanning
func (c *Collection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	start := time.Now()
	defer c.observe("estimatedCount", nil, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.EstimatedDocumentCount(opCtx)
	})
	if err != nil {
		return 0, err
	}

	return result.(int64), nil
}

// Aggregate executes an aggregation pipeline
func (c *Collection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	start := time.Now()
	defer c.observe("aggregate", pipeline, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.Aggregate(opCtx, pipeline, opts...)
	})
	if err != nil {
		c.logger.Error("Aggregate operation failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*mongo.Cursor), nil
}

// ListIndexDocuments returns the raw index documents for the collection.
// Documents are decoded as bson.D so the declared key order of compound
// indexes survives the round trip.
func (c *Collection) ListIndexDocuments(ctx context.Context) ([]bson.D, error) {
	start := time.Now()
	defer c.observe("listIndexes", nil, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()

		cursor, err := c.collection.Indexes().List(opCtx)
		if err != nil {
			return nil, err
		}

		var indexes []bson.D
		if err := cursor.All(opCtx, &indexes); err != nil {
			return nil, err
		}
		return indexes, nil
	})
	if err != nil {
		c.logger.Error("List indexes failed", logging.Any("error", err))
		return nil, err
	}

	return result.([]bson.D), nil
}

// Stats runs collStats and returns the size and count figures the advisory
// engine consumes
func (c *Collection) Stats(ctx context.Context) (*CollStats, error) {
	start := time.Now()
	defer c.observe("collStats", nil, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()

		var stats CollStats
		cmd := bson.D{{Key: "collStats", Value: c.name}}
		if err := c.collection.Database().RunCommand(opCtx, cmd).Decode(&stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
	if err != nil {
		c.logger.Error("Collection stats failed", logging.Any("error", err))
		return nil, err
	}

	return result.(*CollStats), nil
}

// CreateIndexSpec creates an index with the given ordered keys and options,
// returning the created index name
func (c *Collection) CreateIndexSpec(ctx context.Context, keys bson.D, opts IndexOptions) (string, error) {
	start := time.Now()
	defer c.observe("createIndex", keys, start)

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()

		indexOptions := options.Index()
		if opts.Name != "" {
			indexOptions.SetName(opts.Name)
		}
		if opts.Background {
			indexOptions.SetBackground(true)
		}
		if opts.Unique {
			indexOptions.SetUnique(true)
		}
		if opts.Sparse {
			indexOptions.SetSparse(true)
		}
		if opts.TTL > 0 {
			indexOptions.SetExpireAfterSeconds(int32(opts.TTL.Seconds()))
		}

		model := mongo.IndexModel{Keys: keys, Options: indexOptions}
		return c.collection.Indexes().CreateOne(opCtx, model)
	})
	if err != nil {
		c.logger.Error("Index creation failed", logging.Any("error", err))
		return "", err
	}

	c.logger.Info("Index created", logging.String("index", result.(string)))
	return result.(string), nil
}

// DropIndex drops the named index
func (c *Collection) DropIndex(ctx context.Context, name string) error {
	start := time.Now()
	defer c.observe("dropIndex", name, start)

	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		return c.collection.Indexes().DropOne(opCtx, name)
	})
	if err != nil {
		c.logger.Error("Drop index failed", logging.Any("error", err))
		return err
	}

	return nil
}
