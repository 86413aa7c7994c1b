package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpdelivery "github.com/suletetes/techverse-advisor/advisor/delivery/http"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/advisor/infrastructure/cache"
	"github.com/suletetes/techverse-advisor/advisor/infrastructure/database"
	"github.com/suletetes/techverse-advisor/advisor/infrastructure/messaging"
	"github.com/suletetes/techverse-advisor/advisor/usecase"
	"github.com/suletetes/techverse-advisor/config"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/database/mongodb"
	redisdb "github.com/suletetes/techverse-advisor/shared/database/redis"
)

const (
	serviceName = "performance-advisor"
	version     = "1.0.0"

	shutdownTimeout   = 30 * time.Second
	scheduledRunLimit = 5 * time.Minute
)

// Application represents the advisory daemon
type Application struct {
	config *config.Config
	logger *logging.Logger

	// Metrics
	collector     *metrics.Collector
	metricsServer *metrics.Server

	// Database connections
	mongo *mongodb.Client
	redis *redisdb.Client

	// Repositories
	store     *database.MongoStore
	archive   *cache.RedisReportArchive
	publisher *messaging.KafkaPublisher

	// Advisory engine
	engine *usecase.Engine

	// Servers
	httpServer *httpdelivery.AdvisorHTTPServer

	// Graceful shutdown
	shutdownCh  chan os.Signal
	schedulerCh chan struct{}
	wg          sync.WaitGroup
}

func main() {
	// Create application instance
	app := &Application{
		shutdownCh:  make(chan os.Signal, 1),
		schedulerCh: make(chan struct{}),
	}

	// Initialize application
	if err := app.Initialize(); err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", logging.Any("error", err))
	}

	// Wait for shutdown signal
	app.WaitForShutdown()

	// Shutdown application
	if err := app.Shutdown(); err != nil {
		app.logger.Error("Error during shutdown", logging.Any("error", err))
		os.Exit(1)
	}

	app.logger.Info("Application shutdown complete")
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	var err error

	// Load configuration
	app.config, err = config.LoadConfig("./config")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	app.logger.Info("Starting TechVerse Performance Advisor",
		logging.String("service", serviceName),
		logging.String("version", version),
		logging.String("environment", app.config.Service.Environment))

	// Initialize metrics before the clients that report into them
	if err := app.initMetrics(); err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize cache
	if err := app.initCache(); err != nil {
		return fmt.Errorf("failed to init cache: %w", err)
	}

	// Initialize messaging
	if err := app.initMessaging(); err != nil {
		return fmt.Errorf("failed to init messaging: %w", err)
	}

	// Initialize advisory engine
	if err := app.initEngine(); err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}

	// Initialize servers
	if err := app.initServers(); err != nil {
		return fmt.Errorf("failed to init servers: %w", err)
	}

	app.logger.Info("Application initialization complete")
	return nil
}

// initLogger initializes the logger
func (app *Application) initLogger() error {
	logger, err := logging.NewLogger(logging.Config{
		Level:       app.config.Logging.Level,
		Format:      app.config.Logging.Format,
		Output:      app.config.Logging.Output,
		ServiceName: app.config.Service.Name,
		Development: app.config.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	app.logger = logger
	return nil
}

// initMetrics initializes metrics collection
func (app *Application) initMetrics() error {
	if !app.config.Metrics.Enabled {
		return nil
	}

	app.logger.Info("Initializing metrics",
		logging.String("namespace", app.config.Metrics.Namespace))

	app.collector = metrics.NewCollector(app.config.Metrics.Namespace)
	app.metricsServer = metrics.NewServer(metrics.Config{
		Enabled:   true,
		Namespace: app.config.Metrics.Namespace,
		Host:      app.config.Metrics.Host,
		Port:      app.config.Metrics.Port,
		Path:      app.config.Metrics.Path,
	}, app.collector)

	return nil
}

// initDatabase initializes the MongoDB connection
func (app *Application) initDatabase() error {
	cfg := app.config.Database.MongoDB

	app.logger.Info("Connecting to MongoDB",
		logging.String("database", cfg.Database))

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

	ctx, cancel := context.WithTimeout(context.Background(), mongoCfg.ConnectTimeout)
	defer cancel()

	client, err := mongodb.NewClient(ctx, mongoCfg, app.logger, app.collector)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	app.mongo = client
	app.store = database.NewMongoStore(client, app.logger)
	app.logger.Info("MongoDB connection established")
	return nil
}

// initCache initializes the Redis report archive
func (app *Application) initCache() error {
	cfg := app.config.Cache.Redis
	if !cfg.Enabled {
		app.logger.Info("Redis disabled, reports are kept in memory only")
		return nil
	}

	app.logger.Info("Connecting to Redis",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port))

	redisCfg := redisdb.DefaultConfig()
	redisCfg.Address = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	redisCfg.Password = cfg.Password
	redisCfg.DB = cfg.Database
	if cfg.PoolSize > 0 {
		redisCfg.PoolSize = cfg.PoolSize
	}
	if cfg.IdleTimeout > 0 {
		redisCfg.ConnMaxIdleTime = cfg.IdleTimeout
	}
	if cfg.KeyPrefix != "" {
		redisCfg.KeyPrefix = cfg.KeyPrefix + ":"
	}
	if cfg.CompressionThreshold > 0 {
		redisCfg.Cache.Compression.Threshold = cfg.CompressionThreshold
	}
	if ttl := app.config.Reports.ArchiveTTL; ttl > 0 {
		redisCfg.Cache.Prefixes["report:"] = redisdb.PrefixConfig{TTL: ttl, Compress: true}
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisCfg.DialTimeout)
	defer cancel()

	client, err := redisdb.NewClient(ctx, redisCfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	app.redis = client
	manager := redisdb.NewCacheManager(client, redisCfg, app.logger, app.collector)
	app.archive = cache.NewRedisReportArchive(manager, app.logger)
	app.logger.Info("Redis connection established")
	return nil
}

// initMessaging initializes the Kafka event publisher
func (app *Application) initMessaging() error {
	cfg := app.config.MessageQueue.Kafka
	if !cfg.Enabled {
		app.logger.Info("Kafka disabled, advisory events are not published")
		return nil
	}

	app.logger.Info("Initializing Kafka publisher",
		logging.Strings("brokers", cfg.Brokers))

	pubCfg := messaging.DefaultPublisherConfig()
	pubCfg.Brokers = cfg.Brokers
	if cfg.ClientID != "" {
		pubCfg.ClientID = cfg.ClientID
	}
	if cfg.ReportsTopic != "" {
		pubCfg.ReportsTopic = cfg.ReportsTopic
	}
	if cfg.IndexesTopic != "" {
		pubCfg.IndexesTopic = cfg.IndexesTopic
	}
	if cfg.BatchSize > 0 {
		pubCfg.BatchSize = cfg.BatchSize
	}
	if cfg.BatchTimeout > 0 {
		pubCfg.BatchTimeout = cfg.BatchTimeout
	}
	if cfg.WriteTimeout > 0 {
		pubCfg.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.MaxAttempts > 0 {
		pubCfg.MaxRetries = cfg.MaxAttempts
	}

	app.publisher = messaging.NewKafkaPublisher(app.logger, app.collector, pubCfg)
	return nil
}

// initEngine initializes the advisory engine and attaches it to the store
// client so every database operation is recorded
func (app *Application) initEngine() error {
	app.logger.Info("Initializing advisory engine",
		logging.Strings("collections", app.config.Advisor.MonitoredCollections))

	engineCfg := usecase.DefaultEngineConfig()
	engineCfg.MonitoredCollections = app.config.Advisor.MonitoredCollections
	engineCfg.Recorder = usecase.RecorderConfig{
		SlowQueryThreshold: app.config.Advisor.SlowQueryThreshold,
		MaxRecentSamples:   app.config.Advisor.MaxRecentSamples,
		MaxSlowQueries:     app.config.Advisor.MaxSlowQueries,
	}
	engineCfg.DuplicateWindow = app.config.Advisor.DuplicateWindow
	engineCfg.DuplicateThreshold = app.config.Advisor.DuplicateThreshold
	engineCfg.MetadataConcurrency = app.config.Advisor.MetadataConcurrency
	engineCfg.AssetsDir = app.config.Assets.Dir
	engineCfg.MaxImageBytes = app.config.Assets.MaxImageBytes

	// Assign through locals so a disabled backend stays a nil interface
	var archive repository.ReportArchive
	var publisher repository.EventPublisher
	if app.archive != nil {
		archive = app.archive
	}
	if app.publisher != nil {
		publisher = app.publisher
	}

	app.engine = usecase.NewEngine(engineCfg, app.store, archive, publisher, app.logger, app.collector)
	app.mongo.SetRecorder(app.engine)

	return nil
}

// initServers initializes the HTTP server
func (app *Application) initServers() error {
	app.httpServer = httpdelivery.NewAdvisorHTTPServer(
		app.engine,
		app.store,
		app.logger,
		app.collector,
		app.config.Server,
	)

	app.logger.Info("HTTP server initialized",
		logging.String("host", app.config.Server.Host),
		logging.Int("port", app.config.Server.Port))
	return nil
}

// Start starts all application services
func (app *Application) Start() error {
	app.logger.Info("Starting application services")

	// Start metrics server
	if app.metricsServer != nil {
		app.wg.Add(1)
		go app.startMetricsServer()
	}

	// Start HTTP server
	app.wg.Add(1)
	go app.startHTTPServer()

	// Start report scheduler
	if app.config.Advisor.ScheduleInterval > 0 {
		app.wg.Add(1)
		go app.startScheduler()
	}

	// Setup signal handling
	signal.Notify(app.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	app.logger.Info("All services started successfully")
	return nil
}

// startMetricsServer starts the Prometheus metrics server
func (app *Application) startMetricsServer() {
	defer app.wg.Done()

	app.logger.Info("Starting metrics server",
		logging.String("host", app.config.Metrics.Host),
		logging.Int("port", app.config.Metrics.Port))

	if err := app.metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error("Metrics server error", logging.Any("error", err))
	}
}

// startHTTPServer starts the HTTP server
func (app *Application) startHTTPServer() {
	defer app.wg.Done()

	app.logger.Info("Starting HTTP server",
		logging.Int("port", app.config.Server.Port))

	if err := app.httpServer.Start(); err != nil {
		app.logger.Error("HTTP server error", logging.Any("error", err))
	}
}

// startScheduler periodically generates reports, optionally applying the
// high priority recommendations each run produces
func (app *Application) startScheduler() {
	defer app.wg.Done()

	interval := app.config.Advisor.ScheduleInterval
	app.logger.Info("Starting report scheduler",
		logging.Duration("interval", interval),
		logging.Bool("auto_fix", app.config.Advisor.ScheduleAutoFix))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-app.schedulerCh:
			app.logger.Info("Report scheduler stopped")
			return
		case <-ticker.C:
			app.runScheduledCycle()
		}
	}
}

// runScheduledCycle executes one scheduled advisory run
func (app *Application) runScheduledCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunLimit)
	defer cancel()

	if app.config.Advisor.ScheduleAutoFix {
		outcome, err := app.engine.AutoOptimize(ctx, usecase.DefaultOptimizeOptions())
		if err != nil {
			app.logger.Error("Scheduled optimization failed", logging.Any("error", err))
			return
		}
		app.logger.Info("Scheduled optimization complete",
			logging.String("report_id", outcome.ReportID),
			logging.Int("created", outcome.Created),
			logging.Int("skipped", outcome.Skipped),
			logging.Int("errored", outcome.Errored))
		return
	}

	generated, err := app.engine.GenerateReport(ctx, "schedule")
	if err != nil {
		app.logger.Error("Scheduled report failed", logging.Any("error", err))
		return
	}
	app.logger.Info("Scheduled report complete",
		logging.String("report_id", generated.ID),
		logging.Int("score", generated.Score))
}

// WaitForShutdown waits for shutdown signal
func (app *Application) WaitForShutdown() {
	<-app.shutdownCh
	app.logger.Info("Shutdown signal received")
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("Starting graceful shutdown")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop the scheduler
	close(app.schedulerCh)

	// Stop HTTP server
	if app.httpServer != nil {
		app.logger.Info("Stopping HTTP server")
		if err := app.httpServer.Shutdown(ctx); err != nil {
			app.logger.Error("Error stopping HTTP server", logging.Any("error", err))
		}
	}

	// Stop metrics server
	if app.metricsServer != nil {
		app.logger.Info("Stopping metrics server")
		if err := app.metricsServer.Stop(); err != nil {
			app.logger.Error("Error stopping metrics server", logging.Any("error", err))
		}
	}

	// Wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All services stopped")
	case <-ctx.Done():
		app.logger.Warn("Shutdown timeout exceeded")
	}

	// Close the event publisher
	if app.publisher != nil {
		app.logger.Info("Closing Kafka publisher")
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("Error closing Kafka publisher", logging.Any("error", err))
		}
	}

	// Close database connections
	if app.redis != nil {
		app.logger.Info("Closing Redis connection")
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing Redis", logging.Any("error", err))
		}
	}

	if app.mongo != nil {
		app.logger.Info("Closing MongoDB connection")
		if err := app.mongo.Close(ctx); err != nil {
			app.logger.Error("Error closing MongoDB", logging.Any("error", err))
		}
	}

	// Sync logger
	if app.logger != nil {
		_ = app.logger.Sync()
	}

	return nil
}
