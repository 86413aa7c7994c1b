package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/suletetes/techverse-advisor/shared/common"
)

// Config represents the advisory service configuration
type Config struct {
	// Service configuration
	Service ServiceConfig `mapstructure:"service"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Message queue configuration
	MessageQueue MessageQueueConfig `mapstructure:"messagequeue"`

	// Advisory engine configuration
	Advisor AdvisorConfig `mapstructure:"advisor"`

	// Asset scan configuration
	Assets AssetsConfig `mapstructure:"assets"`

	// Report output configuration
	Reports ReportsConfig `mapstructure:"reports"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServiceConfig contains service-specific configuration
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	BuildTime   string `mapstructure:"build_time"`
	GitCommit   string `mapstructure:"git_commit"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `mapstructure:"idle_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig contains rate limiting configuration for report generation
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	MaxPoolSize     uint64        `mapstructure:"max_pool_size"`
	MinPoolSize     uint64        `mapstructure:"min_pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	SocketTimeout   time.Duration `mapstructure:"socket_timeout"`
	ReadPreference  string        `mapstructure:"read_preference"`
	WriteConcern    string        `mapstructure:"write_concern"`
	EnableBreaker   bool          `mapstructure:"enable_breaker"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
}

// CacheConfig contains cache configuration
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	Password             string        `mapstructure:"password"`
	Database             int           `mapstructure:"database"`
	MaxRetries           int           `mapstructure:"max_retries"`
	PoolSize             int           `mapstructure:"pool_size"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	KeyPrefix            string        `mapstructure:"key_prefix"`
	CompressionThreshold int           `mapstructure:"compression_threshold"`
}

// MessageQueueConfig contains message queue configuration
type MessageQueueConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	ClientID     string        `mapstructure:"client_id"`
	ReportsTopic string        `mapstructure:"reports_topic"`
	IndexesTopic string        `mapstructure:"indexes_topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// AdvisorConfig contains advisory engine configuration
type AdvisorConfig struct {
	MonitoredCollections []string      `mapstructure:"monitored_collections"`
	SlowQueryThreshold   time.Duration `mapstructure:"slow_query_threshold"`
	MaxRecentSamples     int           `mapstructure:"max_recent_samples"`
	MaxSlowQueries       int           `mapstructure:"max_slow_queries"`
	DuplicateWindow      time.Duration `mapstructure:"duplicate_window"`
	DuplicateThreshold   time.Duration `mapstructure:"duplicate_threshold"`
	MetadataConcurrency  int64         `mapstructure:"metadata_concurrency"`
	ScheduleInterval     time.Duration `mapstructure:"schedule_interval"`
	ScheduleAutoFix      bool          `mapstructure:"schedule_auto_fix"`
}

// AssetsConfig contains asset scan configuration
type AssetsConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

// ReportsConfig contains report output configuration
type ReportsConfig struct {
	OutputDir  string        `mapstructure:"output_dir"`
	ArchiveTTL time.Duration `mapstructure:"archive_ttl"`
	MaxRecent  int           `mapstructure:"max_recent"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig loads configuration from various sources
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set default values
	setDefaults()

	// Set configuration paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if configPath != "" {
		viper.AddConfigPath(configPath)
	}
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/techverse-advisor")
	viper.AddConfigPath(".")

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ADVISOR")

	// Bind environment variables
	bindEnvironmentVariables()

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal configuration
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Service defaults
	viper.SetDefault("service.name", "performance-advisor")
	viper.SetDefault("service.version", "1.0.0")
	viper.SetDefault("service.environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.rps", 0.2)
	viper.SetDefault("server.rate_limit.burst", 3)

	// Database defaults
	viper.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.mongodb.database", "techverse")
	viper.SetDefault("database.mongodb.max_pool_size", 100)
	viper.SetDefault("database.mongodb.min_pool_size", 5)
	viper.SetDefault("database.mongodb.connect_timeout", "10s")
	viper.SetDefault("database.mongodb.socket_timeout", "30s")
	viper.SetDefault("database.mongodb.read_preference", "primary")
	viper.SetDefault("database.mongodb.write_concern", "majority")
	viper.SetDefault("database.mongodb.enable_breaker", true)
	viper.SetDefault("database.mongodb.breaker_failures", 5)

	// Cache defaults
	viper.SetDefault("cache.redis.enabled", false)
	viper.SetDefault("cache.redis.host", "localhost")
	viper.SetDefault("cache.redis.port", 6379)
	viper.SetDefault("cache.redis.database", 0)
	viper.SetDefault("cache.redis.max_retries", 3)
	viper.SetDefault("cache.redis.pool_size", 10)
	viper.SetDefault("cache.redis.idle_timeout", "5m")
	viper.SetDefault("cache.redis.key_prefix", "advisor")
	viper.SetDefault("cache.redis.compression_threshold", 1024)

	// Message queue defaults
	viper.SetDefault("messagequeue.kafka.enabled", false)
	viper.SetDefault("messagequeue.kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("messagequeue.kafka.client_id", "performance-advisor")
	viper.SetDefault("messagequeue.kafka.reports_topic", "advisor.reports")
	viper.SetDefault("messagequeue.kafka.indexes_topic", "advisor.indexes")
	viper.SetDefault("messagequeue.kafka.batch_size", 100)
	viper.SetDefault("messagequeue.kafka.batch_timeout", "1s")
	viper.SetDefault("messagequeue.kafka.write_timeout", "10s")
	viper.SetDefault("messagequeue.kafka.max_attempts", 3)

	// Advisor defaults
	viper.SetDefault("advisor.monitored_collections",
		[]string{"products", "orders", "reviews", "users", "categories"})
	viper.SetDefault("advisor.slow_query_threshold", "100ms")
	viper.SetDefault("advisor.max_recent_samples", 100)
	viper.SetDefault("advisor.max_slow_queries", 50)
	viper.SetDefault("advisor.duplicate_window", "60s")
	viper.SetDefault("advisor.duplicate_threshold", "1s")
	viper.SetDefault("advisor.metadata_concurrency", 4)
	viper.SetDefault("advisor.schedule_interval", "0")
	viper.SetDefault("advisor.schedule_auto_fix", false)

	// Asset scan defaults
	viper.SetDefault("assets.dir", "./public/images")
	viper.SetDefault("assets.max_image_bytes", 512000)

	// Report defaults
	viper.SetDefault("reports.output_dir", "./reports")
	viper.SetDefault("reports.archive_ttl", "168h")
	viper.SetDefault("reports.max_recent", 20)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.development", false)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.host", "0.0.0.0")
	viper.SetDefault("metrics.port", 8081)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.namespace", "techverse_advisor")
}

// bindEnvironmentVariables binds environment variables to configuration keys
func bindEnvironmentVariables() {
	// Service
	viper.BindEnv("service.name", "SERVICE_NAME")
	viper.BindEnv("service.version", "SERVICE_VERSION")
	viper.BindEnv("service.environment", "ENVIRONMENT")

	// Server
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Database
	viper.BindEnv("database.mongodb.uri", "MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "MONGODB_DATABASE")
	viper.BindEnv("database.mongodb.username", "MONGODB_USERNAME")
	viper.BindEnv("database.mongodb.password", "MONGODB_PASSWORD")

	// Cache
	viper.BindEnv("cache.redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("cache.redis.host", "REDIS_HOST")
	viper.BindEnv("cache.redis.port", "REDIS_PORT")
	viper.BindEnv("cache.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("cache.redis.database", "REDIS_DB")

	// Message queue
	viper.BindEnv("messagequeue.kafka.enabled", "KAFKA_ENABLED")
	viper.BindEnv("messagequeue.kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("messagequeue.kafka.client_id", "KAFKA_CLIENT_ID")

	// Advisor
	viper.BindEnv("advisor.slow_query_threshold", "ADVISOR_SLOW_QUERY_THRESHOLD")
	viper.BindEnv("advisor.schedule_interval", "ADVISOR_SCHEDULE_INTERVAL")

	// Reports
	viper.BindEnv("reports.output_dir", "ADVISOR_REPORT_DIR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var ve common.ValidationErrors

	if c.Service.Name == "" {
		ve.Add("service.name", "is required", c.Service.Name)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		ve.Add("server.port", "must be a valid port", c.Server.Port)
	}

	if c.Database.MongoDB.URI == "" {
		ve.Add("database.mongodb.uri", "is required", c.Database.MongoDB.URI)
	}

	if c.Database.MongoDB.Database == "" {
		ve.Add("database.mongodb.database", "is required", c.Database.MongoDB.Database)
	}

	if len(c.Advisor.MonitoredCollections) == 0 {
		ve.Add("advisor.monitored_collections", "must list at least one collection", nil)
	}

	if c.Advisor.SlowQueryThreshold <= 0 {
		ve.Add("advisor.slow_query_threshold", "must be positive", c.Advisor.SlowQueryThreshold)
	}

	if c.Advisor.MaxRecentSamples <= 0 {
		ve.Add("advisor.max_recent_samples", "must be positive", c.Advisor.MaxRecentSamples)
	}

	if c.Advisor.MaxSlowQueries <= 0 {
		ve.Add("advisor.max_slow_queries", "must be positive", c.Advisor.MaxSlowQueries)
	}

	if c.Advisor.DuplicateWindow <= 0 {
		ve.Add("advisor.duplicate_window", "must be positive", c.Advisor.DuplicateWindow)
	}

	if c.Advisor.DuplicateThreshold <= 0 {
		ve.Add("advisor.duplicate_threshold", "must be positive", c.Advisor.DuplicateThreshold)
	}

	if c.Advisor.MetadataConcurrency <= 0 {
		ve.Add("advisor.metadata_concurrency", "must be positive", c.Advisor.MetadataConcurrency)
	}

	if c.MessageQueue.Kafka.Enabled && len(c.MessageQueue.Kafka.Brokers) == 0 {
		ve.Add("messagequeue.kafka.brokers", "required when kafka is enabled", nil)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
