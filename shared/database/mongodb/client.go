package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// QueryRecorder receives one observation per completed collection operation.
// The advisory engine implements this interface; the client calls it on the
// operation goroutine, so implementations must be safe for concurrent use and
// must never fail.
type QueryRecorder interface {
	Record(collection, operation string, query interface{}, duration time.Duration)
}

// Client wraps the MongoDB driver with circuit breaking, metrics and
// per-operation query recording
type Client struct {
	config         *Config
	client         *mongo.Client
	database       *mongo.Database
	logger         *logging.Logger
	metrics        *metrics.Collector
	circuitBreaker *gobreaker.CircuitBreaker

	mutex       sync.Mutex
	collections map[string]*Collection
	recorder    QueryRecorder
	closed      bool
}

// NewClient creates a new MongoDB client with the given configuration
func NewClient(ctx context.Context, config *Config, logger *logging.Logger, collector *metrics.Collector) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MongoDB configuration: %w", err)
	}

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ServerSelectionTimeout).
		SetSocketTimeout(config.SocketTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxConnIdleTime)

	if config.ReplicaSet != "" {
		clientOptions.SetReplicaSet(config.ReplicaSet)
	}

	if config.Username != "" && config.Password != "" {
		credential := options.Credential{
			Username:      config.Username,
			Password:      config.Password,
			AuthSource:    config.AuthSource,
			AuthMechanism: config.AuthMechanism,
		}
		clientOptions.SetAuth(credential)
	}

	if readPref, err := parseReadPreference(config.ReadPreference); err == nil {
		clientOptions.SetReadPreference(readPref)
	} else {
		logger.Warn("Invalid read preference, using primary",
			logging.String("read_preference", config.ReadPreference),
			logging.Any("error", err))
	}

	if rc := parseReadConcern(config.ReadConcern); rc != nil {
		clientOptions.SetReadConcern(rc)
	}

	if wc := parseWriteConcern(config.WriteConcern); wc != nil {
		clientOptions.SetWriteConcern(wc)
	}

	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, common.ErrStoreConnection(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ServerSelectionTimeout)
	defer cancel()

	if err := mongoClient.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, common.ErrStoreConnection(err)
	}

	breakerSettings := gobreaker.Settings{
		Name:        "mongodb",
		MaxRequests: config.CircuitBreaker.MaxRequests,
		Interval:    config.CircuitBreaker.Interval,
		Timeout:     config.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("MongoDB circuit breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
	}

	client := &Client{
		config:         config,
		client:         mongoClient,
		database:       mongoClient.Database(config.Database),
		logger:         logger.WithComponent("mongodb"),
		metrics:        collector,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		collections:    make(map[string]*Collection),
	}

	logger.Info("Connected to MongoDB",
		logging.String("database", config.Database),
		logging.String("read_preference", config.ReadPreference))

	return client, nil
}

// SetRecorder attaches a query recorder to the client. Every operation
// completed after this call is reported to the recorder. The recorder is
// attached after construction so the advisory engine can observe the very
// store it reports on without a dependency cycle.
func (c *Client) SetRecorder(recorder QueryRecorder) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.recorder = recorder
}

func (c *Client) currentRecorder() QueryRecorder {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.recorder
}

// Collection returns an instrumented collection wrapper, creating it on
// first use
func (c *Client) Collection(name string) *Collection {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if coll, exists := c.collections[name]; exists {
		return coll
	}

	coll := &Collection{
		name:           name,
		collection:     c.database.Collection(name),
		logger:         c.logger.WithCollection(name),
		metrics:        c.metrics,
		circuitBreaker: c.circuitBreaker,
		client:         c,
		timeout:        c.config.SocketTimeout,
	}
	c.collections[name] = coll

	return coll
}

// Database returns the underlying database handle
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Health checks the health of the MongoDB connection
func (c *Client) Health(ctx context.Context) error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return fmt.Errorf("MongoDB client is closed")
	}
	c.mutex.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return common.ErrStoreConnection(err)
	}

	return nil
}

// BreakerState reports the current circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	c.logger.Info("MongoDB connection closed")
	return nil
}

func parseReadPreference(pref string) (*readpref.ReadPref, error) {
	switch pref {
	case "primary":
		return readpref.Primary(), nil
	case "primaryPreferred":
		return readpref.PrimaryPreferred(), nil
	case "secondary":
		return readpref.Secondary(), nil
	case "secondaryPreferred":
		return readpref.SecondaryPreferred(), nil
	case "nearest":
		return readpref.Nearest(), nil
	default:
		return nil, fmt.Errorf("unknown read preference: %s", pref)
	}
}

func parseReadConcern(concern string) *readconcern.ReadConcern {
	switch concern {
	case "local":
		return readconcern.Local()
	case "available":
		return readconcern.Available()
	case "majority":
		return readconcern.Majority()
	case "linearizable":
		return readconcern.Linearizable()
	case "snapshot":
		return readconcern.Snapshot()
	default:
		return nil
	}
}

func parseWriteConcern(concern string) *writeconcern.WriteConcern {
	switch concern {
	case "majority":
		return writeconcern.Majority()
	case "acknowledged":
		return writeconcern.W1()
	case "unacknowledged":
		return writeconcern.Unacknowledged()
	case "journaled":
		return writeconcern.Journaled()
	default:
		return nil
	}
}
