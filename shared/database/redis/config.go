package redis

import (
	"fmt"
	"time"
)

// Config represents Redis configuration for the report archive
type Config struct {
	// Connection settings
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`

	// Timeouts
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// Connection pool settings
	PoolSize        int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns    int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	PoolTimeout     time.Duration `yaml:"pool_timeout" json:"pool_timeout"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`

	// KeyPrefix namespaces every key written by this instance
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`

	// Circuit breaker settings
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`

	// Cache behaviour
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// CircuitBreakerConfig defines circuit breaker settings
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests" json:"max_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold" json:"failure_threshold"`
}

// CacheConfig defines serialization, compression and TTL behaviour
type CacheConfig struct {
	DefaultTTL    time.Duration           `yaml:"default_ttl" json:"default_ttl"`
	Serialization string                  `yaml:"serialization" json:"serialization"`
	Compression   CompressionConfig       `yaml:"compression" json:"compression"`
	Prefixes      map[string]PrefixConfig `yaml:"prefixes" json:"prefixes"`
}

// CompressionConfig defines payload compression settings
type CompressionConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Algorithm string `yaml:"algorithm" json:"algorithm"`
	Level     int    `yaml:"level" json:"level"`
	Threshold int    `yaml:"threshold" json:"threshold"`
}

// PrefixConfig defines per-prefix cache behaviour
type PrefixConfig struct {
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Compress bool          `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a production-ready Redis configuration
func DefaultConfig() *Config {
	return &Config{
		Address:         "localhost:6379",
		DB:              0,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		KeyPrefix:       "advisor:",
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 5,
		},
		Cache: CacheConfig{
			DefaultTTL:    time.Hour,
			Serialization: "msgpack",
			Compression: CompressionConfig{
				Enabled:   true,
				Algorithm: "lz4",
				Level:     6,
				Threshold: 1024,
			},
			Prefixes: map[string]PrefixConfig{
				"report:": {TTL: 7 * 24 * time.Hour, Compress: true},
				"stats:":  {TTL: 15 * time.Minute, Compress: false},
			},
		},
	}
}

// Validate validates the Redis configuration
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("Redis address is required")
	}

	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive")
	}

	if c.Cache.Compression.Enabled && c.Cache.Compression.Threshold < 0 {
		return fmt.Errorf("compression threshold cannot be negative")
	}

	return nil
}

// GetCacheKey builds the fully qualified key for a prefix and a bare key
func (c *Config) GetCacheKey(prefix, key string) string {
	return c.KeyPrefix + prefix + key
}

// PrefixTTL returns the TTL for a prefix, falling back to the default
func (c *Config) PrefixTTL(prefix string) time.Duration {
	if pc, exists := c.Cache.Prefixes[prefix]; exists && pc.TTL > 0 {
		return pc.TTL
	}
	return c.Cache.DefaultTTL
}

// PrefixCompress reports whether values under a prefix should be compressed
func (c *Config) PrefixCompress(prefix string) bool {
	if pc, exists := c.Cache.Prefixes[prefix]; exists {
		return pc.Compress
	}
	return false
}
