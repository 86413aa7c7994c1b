package mongodb

import (
	"fmt"
	"time"
)

// Config represents MongoDB configuration for the advisory store
type Config struct {
	// Connection settings
	URI                    string        `yaml:"uri" json:"uri"`
	Database               string        `yaml:"database" json:"database"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout" json:"server_selection_timeout"`
	SocketTimeout          time.Duration `yaml:"socket_timeout" json:"socket_timeout"`

	// Connection pool settings
	MaxPoolSize     uint64        `yaml:"max_pool_size" json:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size" json:"min_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" json:"max_conn_idle_time"`

	// Replica set configuration
	ReplicaSet     string `yaml:"replica_set" json:"replica_set"`
	ReadPreference string `yaml:"read_preference" json:"read_preference"`
	ReadConcern    string `yaml:"read_concern" json:"read_concern"`
	WriteConcern   string `yaml:"write_concern" json:"write_concern"`

	// Authentication settings
	Username      string `yaml:"username" json:"username"`
	Password      string `yaml:"password" json:"password"`
	AuthSource    string `yaml:"auth_source" json:"auth_source"`
	AuthMechanism string `yaml:"auth_mechanism" json:"auth_mechanism"`

	// Circuit breaker settings
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`
}

// CircuitBreakerConfig defines circuit breaker settings
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests" json:"max_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold" json:"failure_threshold"`
}

// IndexOptions defines index options
type IndexOptions struct {
	Name       string        `yaml:"name" json:"name"`
	Background bool          `yaml:"background" json:"background"`
	Unique     bool          `yaml:"unique" json:"unique"`
	Sparse     bool          `yaml:"sparse" json:"sparse"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
}

// CollStats holds the subset of collStats the advisory engine consumes
type CollStats struct {
	Count          int64 `bson:"count"`
	Size           int64 `bson:"size"`
	StorageSize    int64 `bson:"storageSize"`
	TotalIndexSize int64 `bson:"totalIndexSize"`
	AvgObjSize     int64 `bson:"avgObjSize"`
	NIndexes       int32 `bson:"nindexes"`
}

// DefaultConfig returns a production-ready MongoDB configuration
func DefaultConfig() *Config {
	return &Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "techverse",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
		SocketTimeout:          30 * time.Second,
		MaxPoolSize:            100,
		MinPoolSize:            5,
		MaxConnIdleTime:        30 * time.Minute,
		ReadPreference:         "primary",
		ReadConcern:            "majority",
		WriteConcern:           "majority",
		AuthSource:             "admin",
		AuthMechanism:          "SCRAM-SHA-256",
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      10,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate validates the MongoDB configuration
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.ServerSelectionTimeout <= 0 {
		return fmt.Errorf("server selection timeout must be positive")
	}

	if c.MaxPoolSize == 0 {
		return fmt.Errorf("max pool size must be positive")
	}

	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("min pool size cannot exceed max pool size")
	}

	return nil
}
