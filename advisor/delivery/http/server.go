package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/advisor/domain/repository"
	"github.com/suletetes/techverse-advisor/advisor/usecase"
	"github.com/suletetes/techverse-advisor/config"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// AdvisorHTTPServer implements the HTTP REST API for the performance
// advisor
type AdvisorHTTPServer struct {
	router     *gin.Engine
	engine     *usecase.Engine
	store      repository.Store
	logger     *logging.Logger
	metrics    *metrics.Collector
	limiter    *RateLimiter
	httpServer *http.Server
	config     config.ServerConfig
}

// NewAdvisorHTTPServer creates a new HTTP server
func NewAdvisorHTTPServer(
	engine *usecase.Engine,
	store repository.Store,
	logger *logging.Logger,
	collector *metrics.Collector,
	cfg config.ServerConfig,
) *AdvisorHTTPServer {
	server := &AdvisorHTTPServer{
		engine:  engine,
		store:   store,
		logger:  logger.WithComponent("http-server"),
		metrics: collector,
		config:  cfg,
	}

	if cfg.RateLimit.Enabled {
		server.limiter = NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server
}

// setupRoutes configures all HTTP routes
func (s *AdvisorHTTPServer) setupRoutes() {
	s.router = gin.New()

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())

	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		advisor := v1.Group("/advisor")
		{
			// Recorder endpoints
			advisor.GET("/stats", s.getStats)
			advisor.DELETE("/stats", s.clearStats)

			// Report endpoints
			reports := advisor.Group("/reports")
			{
				reports.POST("", s.limited(s.generateReport)...)
				reports.GET("", s.listReports)
				reports.GET("/latest", s.getLatestReport)
				reports.GET("/:id", s.getReport)
			}

			// Optimization endpoint
			advisor.POST("/optimize", s.limited(s.autoOptimize)...)
		}
	}
}

// limited prepends the rate limiting middleware when it is enabled.
// Report generation and optimization both walk the full store, so only
// those routes are throttled.
func (s *AdvisorHTTPServer) limited(handler gin.HandlerFunc) []gin.HandlerFunc {
	if s.limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{s.limiter.Middleware(), handler}
}

// HTTP Handlers

// healthCheck returns the health status of the service
func (s *AdvisorHTTPServer) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "performance-advisor",
	}

	// Check store health
	if err := s.store.Ping(ctx); err != nil {
		health["status"] = "unhealthy"
		health["store_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["store"] = "ok"
	c.JSON(http.StatusOK, health)
}

// getStats returns the current query statistics snapshot
func (s *AdvisorHTTPServer) getStats(c *gin.Context) {
	snapshot := s.engine.Stats()
	c.JSON(http.StatusOK, s.convertStatsToDTO(snapshot))
}

// clearStats resets all recorded query statistics
func (s *AdvisorHTTPServer) clearStats(c *gin.Context) {
	s.engine.ClearStats()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Query statistics cleared"})
}

// generateReport runs a full advisory pass and returns the report
func (s *AdvisorHTTPServer) generateReport(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := s.engine.GenerateReport(ctx, "api")
	if err != nil {
		s.logger.Error("Failed to generate report", logging.Any("error", err))
		s.respondError(c, err, "Failed to generate report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// getLatestReport returns the most recent report
func (s *AdvisorHTTPServer) getLatestReport(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := s.engine.LatestReport(ctx)
	if err != nil {
		s.respondError(c, err, "No report available")
		return
	}

	c.JSON(http.StatusOK, report)
}

// listReports returns summaries of recent reports, newest first
func (s *AdvisorHTTPServer) listReports(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	reports, err := s.engine.ListReports(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list reports", logging.Any("error", err))
		s.respondError(c, err, "Failed to list reports")
		return
	}

	response := ReportListResponseDTO{
		Reports: make([]ReportSummaryDTO, 0, len(reports)),
		Count:   len(reports),
	}
	for _, report := range reports {
		response.Reports = append(response.Reports, s.convertReportToSummaryDTO(report))
	}

	c.JSON(http.StatusOK, response)
}

// getReport returns a single archived report by ID
func (s *AdvisorHTTPServer) getReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	ctx := c.Request.Context()
	report, err := s.engine.GetReport(ctx, reportID.String())
	if err != nil {
		s.respondError(c, err, "Report not found")
		return
	}

	c.JSON(http.StatusOK, report)
}

// autoOptimize runs report generation plus high priority index creation.
// An empty body runs with defaults.
func (s *AdvisorHTTPServer) autoOptimize(c *gin.Context) {
	var req OptimizeRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Error("Invalid optimize request", logging.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	opts := usecase.DefaultOptimizeOptions()
	if req.CreateIndexes != nil {
		opts.CreateIndexes = *req.CreateIndexes
	}
	opts.LogOnly = req.LogOnly

	ctx := c.Request.Context()
	outcome, err := s.engine.AutoOptimize(ctx, opts)
	if err != nil {
		s.logger.Error("Failed to run optimization", logging.Any("error", err))
		s.respondError(c, err, "Failed to run optimization")
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// respondError maps domain errors onto HTTP status codes
func (s *AdvisorHTTPServer) respondError(c *gin.Context, err error, message string) {
	if appErr := common.GetAppError(err); appErr != nil {
		c.JSON(appErr.StatusCode, gin.H{
			"error":   message,
			"code":    string(appErr.Code),
			"details": appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}

// Conversion methods

func (s *AdvisorHTTPServer) convertStatsToDTO(snapshot *entity.StatsSnapshot) StatsResponseDTO {
	dto := StatsResponseDTO{
		TotalQueries:   snapshot.TotalQueries(),
		TrackedQueries: len(snapshot.Stats),
		SlowQueries:    len(snapshot.SlowQueries),
		Queries:        make([]QueryStatsEntryDTO, 0, len(snapshot.Stats)),
		Slow:           snapshot.SlowQueries,
	}

	for _, stats := range snapshot.Stats {
		dto.Queries = append(dto.Queries, QueryStatsEntryDTO{
			Collection:  stats.Collection,
			Operation:   stats.Operation,
			Count:       stats.Count,
			TotalTimeMs: stats.TotalTimeMs,
			AvgTimeMs:   stats.AvgTimeMs,
			MaxTimeMs:   stats.MaxTimeMs,
			SampleCount: len(stats.RecentSamples),
		})
	}

	// Map iteration order is random, keep the payload stable
	sort.Slice(dto.Queries, func(i, j int) bool {
		if dto.Queries[i].Collection != dto.Queries[j].Collection {
			return dto.Queries[i].Collection < dto.Queries[j].Collection
		}
		return dto.Queries[i].Operation < dto.Queries[j].Operation
	})

	return dto
}

func (s *AdvisorHTTPServer) convertReportToSummaryDTO(report *entity.PerformanceReport) ReportSummaryDTO {
	return ReportSummaryDTO{
		ID:                  report.ID,
		GeneratedAt:         report.GeneratedAt.Format(time.RFC3339),
		Score:               report.Score,
		CriticalIssues:      report.CriticalIssues,
		RecommendationCount: report.RecommendationCount,
		MissingIndexes:      len(report.MissingIndexes),
		DuplicateIssues:     len(report.Duplicates.Issues),
		SlowQueries:         report.QueryPerformance.SlowQueryCount,
		Degraded:            report.Degraded,
	}
}

// Middleware

// corsMiddleware adds CORS headers
func (s *AdvisorHTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin,Content-Type,Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func (s *AdvisorHTTPServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Log after processing
		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		s.logger.Info("HTTP Request",
			logging.String("client_ip", clientIP),
			logging.String("method", method),
			logging.String("path", path),
			logging.Int("status_code", statusCode),
			logging.Duration("latency", latency),
		)
	}
}

// metricsMiddleware records request counts and latencies
func (s *AdvisorHTTPServer) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		s.metrics.RecordHTTPRequestInFlight(method, endpoint, 1)
		c.Next()
		s.metrics.RecordHTTPRequestInFlight(method, endpoint, -1)

		s.metrics.RecordHTTPRequest(method, endpoint, c.Writer.Status(), time.Since(start))
	}
}

// Server management methods

// Start starts the HTTP server and blocks until shutdown
func (s *AdvisorHTTPServer) Start() error {
	s.logger.Info("Starting advisor HTTP server", logging.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *AdvisorHTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down advisor HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetRouter returns the gin router for testing purposes
func (s *AdvisorHTTPServer) GetRouter() *gin.Engine {
	return s.router
}
