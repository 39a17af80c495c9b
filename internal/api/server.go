package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/middleware"
	"github.com/pharmaguard-engine/internal/service"
)

const shutdownTimeout = 30 * time.Second

// HealthCheck reports the state of a dependency such as the catalog database
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	analysis      *service.AnalysisService
	logger        *logrus.Logger
	checks        map[string]HealthCheck
	router        *gin.Engine
	server        *http.Server
}

// ServerOption customizes a Server
type ServerOption func(*Server)

// WithHealthCheck adds a named dependency check to /health
func WithHealthCheck(name string, check HealthCheck) ServerOption {
	return func(s *Server) { s.checks[name] = check }
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, analysis *service.AnalysisService, logger *logrus.Logger, opts ...ServerOption) *Server {
	cfg := configManager.GetConfig()

	// Tests pick their own mode
	if gin.Mode() != gin.TestMode {
		if configManager.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		} else {
			gin.SetMode(gin.DebugMode)
		}
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes(cfg.Server)

	router.Use(gin.CustomRecovery(recoveryHandler(logger)))
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.RateLimit(cfg.Server.RateLimit))
	router.Use(middleware.RequestTimeout(cfg.Analysis.Timeout))

	server := &Server{
		configManager: configManager,
		analysis:      analysis,
		logger:        logger,
		checks:        make(map[string]HealthCheck),
		router:        router,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/drugs", s.handleListDrugs)
		v1.GET("/genes", s.handleListGenes)
		v1.POST("/variants/parse", s.handleParseVariants)
		v1.POST("/profile", s.handleBuildProfile)
		v1.POST("/analyze", s.handleAnalyze)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func recoveryHandler(logger *logrus.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"correlation_id": c.GetString(middleware.CorrelationIDKey),
			"panic":          fmt.Sprint(recovered),
			"path":           c.Request.URL.Path,
		}).Error("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeInternalServer,
			"Internal server error",
			"",
			c.GetString(middleware.CorrelationIDKey),
		))
	}
}

func maxUploadBytes(cfg domain.ServerConfig) int64 {
	if cfg.MaxUploadBytes > 0 {
		return cfg.MaxUploadBytes
	}
	return service.DefaultMaxUploadBytes
}
