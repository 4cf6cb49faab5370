// Package http implements the REST API over the hours ledger, accolades,
// confirmation requests and rankings.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/servicehours/hours-hub/internal/application/command"
	"github.com/servicehours/hours-hub/internal/application/query"
	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
	"github.com/servicehours/hours-hub/internal/infrastructure/scheduler"
	"github.com/servicehours/hours-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string

	// Version is reported in response metadata and health checks.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
		AllowedOrigins: []string{"*"},
		Version:        "v1",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Command Handlers (CQRS Write Side)
	RegisterAccount     *command.RegisterAccountHandler
	LogHours            *command.LogHoursHandler
	ConfirmHours        *command.ConfirmHoursHandler
	RequestConfirmation *command.RequestConfirmationHandler

	// Queries (CQRS Read Side)
	Accounts *query.Accounts
	Rankings *query.Rankings

	// Published serves /v1/leaderboard/published when set.
	Published leaderboard.Reader

	// Jobs exposes the background scheduler when set.
	Jobs JobRunner

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// HealthChecker backs /healthz when set.
	HealthChecker handlers.HealthChecker

	// Logger
	Logger *slog.Logger
}

// JobRunner is implemented by *scheduler.Scheduler.
type JobRunner interface {
	ListJobs() []scheduler.JobInfo
	GetJobInfo(jobName string) (*scheduler.JobInfo, error)
	RunNow(ctx context.Context, jobName string) (*scheduler.JobResult, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger.With("component", "http"),
	}

	s.engine = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.engine,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(
		handlers.RequestID(),
		handlers.Recovery(s.logger),
		handlers.RequestLogger(s.logger, "/healthz", "/metrics"),
		handlers.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:  s.config.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", handlers.RequestIDHeader},
			ExposeHeaders: []string{handlers.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Metrics
	// ─────────────────────────────────────────────────────────────────────────
	r.GET("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// API v1
	// ─────────────────────────────────────────────────────────────────────────
	v1 := r.Group("/v1")
	{
		v1.POST("/students", s.handleCreateStudent)
		v1.GET("/students", s.handleListStudents)
		v1.GET("/students/:id", s.handleGetStudent)
		v1.GET("/students/by-username/:username", s.handleGetStudentByUsername)
		v1.GET("/students/:id/accolades", s.handleListAccolades)
		v1.GET("/students/:id/requests", s.handleListRequests)

		v1.POST("/staff", s.handleCreateStaff)
		v1.GET("/staff", s.handleListStaff)
		v1.GET("/staff/:id", s.handleGetStaff)

		v1.POST("/entries", s.handleLogHours)
		v1.GET("/entries/:id", s.handleGetEntry)
		v1.POST("/entries/:id/confirm", s.handleConfirmHours)
		v1.POST("/entries/:id/requests", s.handleRequestConfirmation)

		v1.GET("/leaderboard", s.handleLeaderboard)
		v1.POST("/leaderboard/generate", s.handleGenerateRankings)
		v1.GET("/leaderboard/published", s.handlePublishedLeaderboard)
		v1.GET("/leaderboard/published/:studentID", s.handlePublishedRank)

		v1.GET("/jobs", s.handleListJobs)
		v1.GET("/jobs/:name", s.handleGetJob)
		v1.POST("/jobs/:name/run", s.handleRunJob)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("http server starting", "address", s.config.Address())

	err := s.httpServer.ListenAndServe()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartAsync starts the server in a goroutine and returns a channel for errors.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	return s.config.Address()
}
