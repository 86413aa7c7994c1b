package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config represents metrics configuration
type Config struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Path      string `json:"path" yaml:"path"`
}

// Collector manages all metrics for the advisory service
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
	ErrorsTotal      *prometheus.CounterVec

	// System metrics
	StartTime prometheus.Gauge

	// Database metrics
	DatabaseQueries  *prometheus.CounterVec
	DatabaseDuration *prometheus.HistogramVec

	// Advisory metrics
	QueriesRecorded   *prometheus.CounterVec
	SlowQueries       *prometheus.CounterVec
	ReportsGenerated  *prometheus.CounterVec
	ReportDuration    prometheus.Histogram
	PerformanceScore  prometheus.Gauge
	MissingIndexes    prometheus.Gauge
	DuplicateIssues   prometheus.Gauge
	IndexRemediations *prometheus.CounterVec

	// Cache metrics
	CacheOperations *prometheus.CounterVec
	CacheHitRatio   *prometheus.GaugeVec

	// Message queue metrics
	MessagesSent *prometheus.CounterVec
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		namespace: namespace,
		registry:  registry,
	}

	c.initializeMetrics()
	c.registerMetrics()

	return c
}

// initializeMetrics initializes all metrics
func (c *Collector) initializeMetrics() {
	// HTTP metrics
	c.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	c.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status_code"},
	)

	c.RequestsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
		[]string{"method", "endpoint"},
	)

	c.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"error_type", "component"},
	)

	// System metrics
	c.StartTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "start_time_seconds",
			Help:      "Service start time in Unix seconds",
		},
	)

	// Database metrics
	c.DatabaseQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "database_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"database", "operation", "collection"},
	)

	c.DatabaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "database_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"database", "operation", "collection"},
	)

	// Advisory metrics
	c.QueriesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "queries_recorded_total",
			Help:      "Total number of query observations recorded by the advisory engine",
		},
		[]string{"collection", "operation"},
	)

	c.SlowQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "slow_queries_total",
			Help:      "Total number of recorded queries exceeding the slow query threshold",
		},
		[]string{"collection", "operation"},
	)

	c.ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "reports_generated_total",
			Help:      "Total number of performance reports generated",
		},
		[]string{"trigger", "status"},
	)

	c.ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "report_generation_duration_seconds",
			Help:      "Performance report generation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	c.PerformanceScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "performance_score",
			Help:      "Performance score of the most recent report",
		},
	)

	c.MissingIndexes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "missing_indexes",
			Help:      "Missing index recommendations in the most recent report",
		},
	)

	c.DuplicateIssues = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "duplicate_request_issues",
			Help:      "Duplicate request issues in the most recent report",
		},
	)

	c.IndexRemediations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "index_remediations_total",
			Help:      "Total number of index remediation attempts by outcome",
		},
		[]string{"collection", "status"},
	)

	// Cache metrics
	c.CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	c.CacheHitRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "cache_hit_ratio",
			Help:      "Cache hit ratio",
		},
		[]string{"cache_name"},
	)

	// Message queue metrics
	c.MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		},
		[]string{"topic", "status"},
	)
}

// registerMetrics registers all metrics with the registry
func (c *Collector) registerMetrics() {
	c.registry.MustRegister(c.RequestsTotal)
	c.registry.MustRegister(c.RequestDuration)
	c.registry.MustRegister(c.RequestsInFlight)
	c.registry.MustRegister(c.ErrorsTotal)

	c.registry.MustRegister(c.StartTime)

	c.registry.MustRegister(c.DatabaseQueries)
	c.registry.MustRegister(c.DatabaseDuration)

	c.registry.MustRegister(c.QueriesRecorded)
	c.registry.MustRegister(c.SlowQueries)
	c.registry.MustRegister(c.ReportsGenerated)
	c.registry.MustRegister(c.ReportDuration)
	c.registry.MustRegister(c.PerformanceScore)
	c.registry.MustRegister(c.MissingIndexes)
	c.registry.MustRegister(c.DuplicateIssues)
	c.registry.MustRegister(c.IndexRemediations)

	c.registry.MustRegister(c.CacheOperations)
	c.registry.MustRegister(c.CacheHitRatio)

	c.registry.MustRegister(c.MessagesSent)

	// Set start time
	c.StartTime.SetToCurrentTime()
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusStr := strconv.Itoa(statusCode)
	c.RequestsTotal.WithLabelValues(method, endpoint, statusStr).Inc()
	c.RequestDuration.WithLabelValues(method, endpoint, statusStr).Observe(duration.Seconds())
}

// RecordHTTPRequestInFlight records in-flight HTTP requests
func (c *Collector) RecordHTTPRequestInFlight(method, endpoint string, delta float64) {
	c.RequestsInFlight.WithLabelValues(method, endpoint).Add(delta)
}

// RecordError records error metrics
func (c *Collector) RecordError(errorType, component string) {
	c.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordDatabaseQuery records database query metrics
func (c *Collector) RecordDatabaseQuery(database, operation, collection string, duration time.Duration) {
	c.DatabaseQueries.WithLabelValues(database, operation, collection).Inc()
	c.DatabaseDuration.WithLabelValues(database, operation, collection).Observe(duration.Seconds())
}

// RecordQueryObservation records an advisory engine query observation
func (c *Collector) RecordQueryObservation(collection, operation string, slow bool) {
	c.QueriesRecorded.WithLabelValues(collection, operation).Inc()
	if slow {
		c.SlowQueries.WithLabelValues(collection, operation).Inc()
	}
}

// RecordReportGenerated records report generation metrics
func (c *Collector) RecordReportGenerated(trigger, status string, duration time.Duration) {
	c.ReportsGenerated.WithLabelValues(trigger, status).Inc()
	c.ReportDuration.Observe(duration.Seconds())
}

// RecordReportSummary updates the gauges reflecting the most recent report
func (c *Collector) RecordReportSummary(score, missingIndexes, duplicateIssues int) {
	c.PerformanceScore.Set(float64(score))
	c.MissingIndexes.Set(float64(missingIndexes))
	c.DuplicateIssues.Set(float64(duplicateIssues))
}

// RecordIndexRemediation records an index remediation outcome
func (c *Collector) RecordIndexRemediation(collection, status string) {
	c.IndexRemediations.WithLabelValues(collection, status).Inc()
}

// RecordCacheOperation records cache operation metrics
func (c *Collector) RecordCacheOperation(operation, result string) {
	c.CacheOperations.WithLabelValues(operation, result).Inc()
}

// RecordCacheHitRatio records cache hit ratio metrics
func (c *Collector) RecordCacheHitRatio(cacheName string, ratio float64) {
	c.CacheHitRatio.WithLabelValues(cacheName).Set(ratio)
}

// RecordMessageSent records message sent metrics
func (c *Collector) RecordMessageSent(topic, status string) {
	c.MessagesSent.WithLabelValues(topic, status).Inc()
}

// GetRegistry returns the metrics registry
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// CreateHandler creates an HTTP handler for metrics
func (c *Collector) CreateHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Server represents a metrics server
type Server struct {
	config    Config
	collector *Collector
	server    *http.Server
}

// NewServer creates a new metrics server
func NewServer(config Config, collector *Collector) *Server {
	if !config.Enabled {
		return &Server{config: config}
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, collector.CreateHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return &Server{
		config:    config,
		collector: collector,
		server:    server,
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	if !s.config.Enabled || s.server == nil {
		return nil
	}

	return s.server.ListenAndServe()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

// Timer helps measure operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed duration
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration observes duration on a histogram
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Global metrics collector
var globalCollector *Collector

// InitGlobalCollector initializes the global metrics collector
func InitGlobalCollector(namespace string) {
	globalCollector = NewCollector(namespace)
}

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *Collector {
	if globalCollector == nil {
		globalCollector = NewCollector("techverse_advisor")
	}
	return globalCollector
}
