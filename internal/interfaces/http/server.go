// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/societyhub/internal/application/service"
	"github.com/garyjia/societyhub/internal/application/workflow"
	"github.com/garyjia/societyhub/internal/container"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthReporter reports the health of the backing components
type HealthReporter interface {
	Health(ctx context.Context) *container.HealthStatus
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
	AllowedOrigins  []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            5000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Mode:            gin.ReleaseMode,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}
}

// Dependencies are the application services the HTTP layer calls into
type Dependencies struct {
	Workflow   workflow.WorkflowEngine
	Auth       service.AuthService
	Onboarding service.OnboardingService
	Reports    service.ReportService
	Health     HealthReporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.CustomRecovery(s.recoverPanic))

	// Logging middleware
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(corsMiddleware(s.config.AllowedOrigins))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)

	api := s.router.Group("/api")
	{
		// Health
		api.GET("/ping", h.Ping)
		api.GET("/health", h.HealthCheck)

		// Public auth
		api.POST("/auth/login", h.Login)
		api.POST("/auth/register", h.Register)
	}

	protected := api.Group("", authMiddleware(s.deps.Auth, s.logger))
	{
		// Profile
		protected.GET("/auth/profile", h.GetProfile)
		protected.PUT("/auth/profile", h.UpdateProfile)
		protected.POST("/auth/change-password", h.ChangePassword)

		// Societies
		protected.GET("/societies", h.ListSocieties)
		protected.POST("/societies", h.CreateSociety)
		protected.POST("/societies/users", h.CreateSocietyUser)
		protected.GET("/societies/:id", h.GetSociety)
		protected.PUT("/societies/:id", h.UpdateSociety)
		protected.GET("/societies/:id/users", h.ListSocietyUsers)
		protected.PUT("/users/:userId/permissions", h.UpdateUserPermissions)

		// Transactions
		protected.GET("/transactions", h.ListTransactions)
		protected.POST("/transactions", h.CreateTransaction)
		protected.GET("/transactions/:id", h.GetTransaction)
		protected.PUT("/transactions/:id/status", h.UpdateTransactionStatus)
		protected.PUT("/transactions/:id/assign", h.AssignTransaction)
		protected.POST("/transactions/:id/remarks", h.AddRemark)
		protected.POST("/transactions/:id/attachments", h.UploadAttachment)

		// Dashboard and reports
		protected.GET("/dashboard/stats", h.DashboardStats)
		protected.GET("/reports", h.GetReport)
		protected.GET("/reports/export", h.ExportReport)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "route not found"})
	})
}

// recoverPanic turns a handler panic into a 500 envelope
func (s *Server) recoverPanic(c *gin.Context, recovered interface{}) {
	s.logger.Error("Panic while handling request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"panic", recovered,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "internal server error",
	})
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
