package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Service: ServiceConfig{Name: "performance-advisor"},
		Server:  ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "techverse",
			},
		},
		Advisor: AdvisorConfig{
			MonitoredCollections: []string{"products"},
			SlowQueryThreshold:   100 * time.Millisecond,
			MaxRecentSamples:     100,
			MaxSlowQueries:       50,
			DuplicateWindow:      time.Minute,
			DuplicateThreshold:   time.Second,
			MetadataConcurrency:  4,
		},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "performance-advisor", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 0.2, cfg.Server.RateLimit.RPS)
	assert.Equal(t, 3, cfg.Server.RateLimit.Burst)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.MongoDB.URI)
	assert.Equal(t, "techverse", cfg.Database.MongoDB.Database)

	assert.Equal(t,
		[]string{"products", "orders", "reviews", "users", "categories"},
		cfg.Advisor.MonitoredCollections)
	assert.Equal(t, 100*time.Millisecond, cfg.Advisor.SlowQueryThreshold)
	assert.Equal(t, 100, cfg.Advisor.MaxRecentSamples)
	assert.Equal(t, 50, cfg.Advisor.MaxSlowQueries)
	assert.Equal(t, time.Minute, cfg.Advisor.DuplicateWindow)
	assert.Equal(t, time.Second, cfg.Advisor.DuplicateThreshold)

	assert.False(t, cfg.Cache.Redis.Enabled)
	assert.False(t, cfg.MessageQueue.Kafka.Enabled)

	assert.Equal(t, "./reports", cfg.Reports.OutputDir)
	assert.Equal(t, int64(512000), cfg.Assets.MaxImageBytes)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 8081, cfg.Metrics.Port)
	assert.Equal(t, "techverse_advisor", cfg.Metrics.Namespace)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db.internal:27017")
	t.Setenv("MONGODB_DATABASE", "storefront")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ADVISOR_REPORT_DIR", "/var/lib/advisor/reports")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017", cfg.Database.MongoDB.URI)
	assert.Equal(t, "storefront", cfg.Database.MongoDB.Database)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/advisor/reports", cfg.Reports.OutputDir)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingServiceName(t *testing.T) {
	cfg := validConfig()
	cfg.Service.Name = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service.name")
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	require.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingMongoSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MongoDB.URI = ""

	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Database.MongoDB.Database = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadAdvisorBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no collections", func(c *Config) { c.Advisor.MonitoredCollections = nil }},
		{"zero threshold", func(c *Config) { c.Advisor.SlowQueryThreshold = 0 }},
		{"zero samples", func(c *Config) { c.Advisor.MaxRecentSamples = 0 }},
		{"zero slow cap", func(c *Config) { c.Advisor.MaxSlowQueries = 0 }},
		{"zero window", func(c *Config) { c.Advisor.DuplicateWindow = 0 }},
		{"zero duplicate threshold", func(c *Config) { c.Advisor.DuplicateThreshold = 0 }},
		{"zero concurrency", func(c *Config) { c.Advisor.MetadataConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.MessageQueue.Kafka.Enabled = true
	cfg.MessageQueue.Kafka.Brokers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
