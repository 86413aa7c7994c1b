package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/suletetes/techverse-advisor/pkg/logging"
)

// Client wraps a standalone Redis client with circuit breaking. Values are
// stored as raw bytes; serialization and compression happen in the cache
// layer above.
type Client struct {
	config         *Config
	client         *redis.Client
	logger         *logging.Logger
	circuitBreaker *gobreaker.CircuitBreaker

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Redis client with the given configuration
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redis configuration: %w", err)
	}

	opts := &redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		PoolTimeout:  config.PoolTimeout,
		IdleTimeout:  config.ConnMaxIdleTime,
	}

	client := &Client{
		config: config,
		client: redis.NewClient(opts),
		logger: logger.WithComponent("redis"),
	}

	client.circuitBreaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: config.CircuitBreaker.MaxRequests,
		Interval:    config.CircuitBreaker.Interval,
		Timeout:     config.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			client.logger.Warn("Redis circuit breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	client.logger.Info("Redis client initialized",
		logging.String("address", config.Address),
		logging.String("key_prefix", config.KeyPrefix))

	return client, nil
}

// Ping tests the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.client.Ping(ctx).Result()
	})
	return err
}

// Get retrieves the raw value for a key. A missing key is not an error and
// does not count against the circuit breaker.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		value, err := c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}

	return result.([]byte), true, nil
}

// Set stores a raw value under a key with the given TTL
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

// Del deletes one or more keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	return err
}

// Exists reports how many of the given keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.client.Exists(ctx, keys...).Result()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Expire sets a timeout on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.client.Expire(ctx, key, ttl).Err()
	})
	return err
}

// Scan walks the keyspace and returns every key matching the pattern
func (c *Client) Scan(ctx context.Context, pattern string) ([]string, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		var keys []string
		var cursor uint64

		for {
			batch, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return nil, err
			}

			keys = append(keys, batch...)
			cursor = next

			if cursor == 0 {
				break
			}
		}

		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Info returns the requested INFO section
func (c *Client) Info(ctx context.Context, section string) (string, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.client.Info(ctx, section).Result()
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Health checks the health of the Redis connection
func (c *Client) Health(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("Redis client is closed")
	}
	c.mu.Unlock()

	return c.Ping(ctx)
}

// Close closes the Redis connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	c.logger.Info("Redis connection closed")
	return nil
}
