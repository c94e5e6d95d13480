// Package server exposes the funnel over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/config"
	"github.com/harrison/labourcheck/internal/funnel"
	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/models"
)

// Funnel is the part of *funnel.Service the API drives.
type Funnel interface {
	Start(ctx context.Context, identity models.Identity) (*funnel.Started, error)
	Answer(ctx context.Context, sessionID string, questionID int, text string) (*funnel.Step, error)
	Status(ctx context.Context, sessionID string) (*funnel.Status, error)
	Report(ctx context.Context, sessionID string) (*models.Report, error)
	Catalog() *catalog.Catalog
	Live() int
}

// FollowUps is the part of *delivery.Service the API drives.
type FollowUps interface {
	SubmitPhone(ctx context.Context, sessionID, phone string) (*models.Session, error)
	RecordFollowUp(ctx context.Context, token string) (*models.Session, error)
}

// Options configures a Server. Funnel and FollowUps are required.
type Options struct {
	Funnel    Funnel
	FollowUps FollowUps
	Config    config.ServerConfig

	// DocumentsDir is served under /documents when set (local document store).
	DocumentsDir string

	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is the HTTP API.
type Server struct {
	funnel     Funnel
	followUps  FollowUps
	cfg        config.ServerConfig
	log        logger.Logger
	metrics    *metrics.Metrics
	engine     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Funnel == nil {
		return nil, fmt.Errorf("server: funnel is required")
	}
	if opts.FollowUps == nil {
		return nil, fmt.Errorf("server: follow-up service is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	if !opts.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		funnel:    opts.Funnel,
		followUps: opts.FollowUps,
		cfg:       opts.Config,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		engine:    engine,
		startTime: time.Now(),
	}
	engine.Use(s.observe())

	if opts.Config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		engine.Use(cors.New(corsConfig))
	}

	s.setupRoutes(opts)

	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr(),
		Handler:      engine,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes(opts Options) {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	s.engine.GET("/t/:token", s.handleFollowUp)

	if opts.DocumentsDir != "" {
		s.engine.Static("/documents", opts.DocumentsDir)
	}

	api := s.engine.Group("/api")
	api.GET("/catalog", s.handleCatalog)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", s.handleStart)
		sessions.POST("/:id/answers", s.handleAnswer)
		sessions.GET("/:id/progress", s.handleProgress)
		sessions.GET("/:id/report", s.handleReport)
		sessions.POST("/:id/phone", s.handlePhone)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.LogInfo(fmt.Sprintf("labourcheck API listening on %s", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.LogInfo("stopping labourcheck API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return <-errCh
}

// observe records request metrics and logs each request at debug level.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		s.metrics.HTTPRequest(c.Request.Method, route, status, elapsed)
		s.metrics.SetLiveSessions(s.funnel.Live())
		s.log.LogDebug(fmt.Sprintf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed.Round(time.Millisecond)))
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAnswer),
		errors.Is(err, models.ErrInvalidPhone),
		errors.Is(err, funnel.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAlreadyComplete),
		errors.Is(err, models.ErrUnexpectedQuestion):
		return http.StatusConflict
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, funnel.ErrReportNotReady),
		errors.Is(err, models.ErrInvalidToken):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.LogError(fmt.Sprintf("%s %s: %v", c.Request.Method, c.FullPath(), err))
		msg = "internal error"
	}
	c.JSON(status, APIResponse{Success: false, Error: msg})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}
