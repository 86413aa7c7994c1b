package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suletetes/techverse-advisor/advisor/delivery/report"
	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/infrastructure/database"
	"github.com/suletetes/techverse-advisor/advisor/usecase"
	"github.com/suletetes/techverse-advisor/config"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/database/mongodb"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration directory")
	autoFix := flag.Bool("auto-fix", false, "apply high priority index recommendations after the report")
	logOnly := flag.Bool("log-only", false, "log recommendations without creating indexes")
	outputDir := flag.String("output-dir", "", "directory for the report artifact, defaults to reports.output_dir")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: cfg.Service.Name,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Interrupting the run mid-flight surfaces as a degraded report rather
	// than an aborted one
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// Connect to MongoDB
	mongoCfg := buildMongoConfig(cfg.Database.MongoDB)

	connectCtx, connectCancel := context.WithTimeout(runCtx, mongoCfg.ConnectTimeout)
	client, err := mongodb.NewClient(connectCtx, mongoCfg, logger, nil)
	connectCancel()
	if err != nil {
		logger.Error("Failed to connect to MongoDB", logging.Any("error", err))
		os.Exit(1)
	}

	// Build the advisory engine over the live store
	store := database.NewMongoStore(client, logger)
	engine := usecase.NewEngine(buildEngineConfig(cfg), store, nil, nil, logger, nil)
	client.SetRecorder(engine)

	// Run the advisory cycle
	var outcome *entity.OptimizationOutcome
	var perfReport *entity.PerformanceReport

	if *autoFix || *logOnly {
		opts := usecase.DefaultOptimizeOptions()
		opts.LogOnly = *logOnly

		outcome, err = engine.AutoOptimize(runCtx, opts)
		if err == nil {
			perfReport, err = engine.LatestReport(runCtx)
		}
	} else {
		perfReport, err = engine.GenerateReport(runCtx, "cli")
	}

	if err != nil {
		logger.Error("Advisory run failed", logging.Any("error", err))
		closeClient(client, logger)
		os.Exit(1)
	}

	// Write the report artifact
	dir := cfg.Reports.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}

	writer := report.NewWriter(dir, logger)
	path, err := writer.WriteJSON(perfReport)
	if err != nil {
		logger.Error("Failed to write report artifact", logging.Any("error", err))
		closeClient(client, logger)
		os.Exit(1)
	}

	fmt.Print(report.FormatSummary(perfReport, outcome))
	fmt.Printf("\nReport written to %s\n", path)

	closeClient(client, logger)
}

// buildMongoConfig maps the service configuration onto the MongoDB client
// configuration, keeping library defaults for anything unset
func buildMongoConfig(cfg config.MongoDBConfig) *mongodb.Config {
	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = cfg.URI
	mongoCfg.Database = cfg.Database
	mongoCfg.Username = cfg.Username
	mongoCfg.Password = cfg.Password
	if cfg.MaxPoolSize > 0 {
		mongoCfg.MaxPoolSize = cfg.MaxPoolSize
	}
	if cfg.MinPoolSize > 0 {
		mongoCfg.MinPoolSize = cfg.MinPoolSize
	}
	if cfg.ConnectTimeout > 0 {
		mongoCfg.ConnectTimeout = cfg.ConnectTimeout
		mongoCfg.ServerSelectionTimeout = cfg.ConnectTimeout
	}
	if cfg.SocketTimeout > 0 {
		mongoCfg.SocketTimeout = cfg.SocketTimeout
	}
	if cfg.ReadPreference != "" {
		mongoCfg.ReadPreference = cfg.ReadPreference
	}
	if cfg.WriteConcern != "" {
		mongoCfg.WriteConcern = cfg.WriteConcern
	}
	if !cfg.EnableBreaker {
		// a threshold no workload reaches keeps the breaker permanently closed
		mongoCfg.CircuitBreaker.FailureThreshold = math.MaxUint32
	} else if cfg.BreakerFailures > 0 {
		mongoCfg.CircuitBreaker.FailureThreshold = cfg.BreakerFailures
	}
	return mongoCfg
}

// buildEngineConfig maps the service configuration onto the advisory engine
// configuration
func buildEngineConfig(cfg *config.Config) usecase.EngineConfig {
	engineCfg := usecase.DefaultEngineConfig()
	engineCfg.MonitoredCollections = cfg.Advisor.MonitoredCollections
	engineCfg.Recorder = usecase.RecorderConfig{
		SlowQueryThreshold: cfg.Advisor.SlowQueryThreshold,
		MaxRecentSamples:   cfg.Advisor.MaxRecentSamples,
		MaxSlowQueries:     cfg.Advisor.MaxSlowQueries,
	}
	engineCfg.DuplicateWindow = cfg.Advisor.DuplicateWindow
	engineCfg.DuplicateThreshold = cfg.Advisor.DuplicateThreshold
	engineCfg.MetadataConcurrency = cfg.Advisor.MetadataConcurrency
	engineCfg.AssetsDir = cfg.Assets.Dir
	engineCfg.MaxImageBytes = cfg.Assets.MaxImageBytes
	return engineCfg
}

func closeClient(client *mongodb.Client, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Close(ctx); err != nil {
		logger.Warn("Error closing MongoDB connection", logging.Any("error", err))
	}
}
