// Package server wires the HTTP API: routing, middleware, storage
// selection, and graceful lifecycle for the Helios risk engine.
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/helioslend/helios/internal/analysis"
	"github.com/helioslend/helios/internal/budget"
	"github.com/helioslend/helios/internal/config"
	"github.com/helioslend/helios/internal/health"
	"github.com/helioslend/helios/internal/logging"
	"github.com/helioslend/helios/internal/metrics"
	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/ratelimit"
	"github.com/helioslend/helios/internal/security"
	"github.com/helioslend/helios/internal/traces"
	"github.com/helioslend/helios/internal/validation"
	"github.com/helioslend/helios/internal/waterfall"
)

// Server is the main HTTP server for the Helios API.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *sql.DB
	accountant  budget.Accountant
	store       analysis.Store
	providerSet *providers.Set
	pipeline    *waterfall.Service
	analyses    *analysis.Service

	healthReg   *health.Registry
	rateLimiter *ratelimit.Limiter
	router      *gin.Engine
	httpSrv     *http.Server

	tracesShutdown func(context.Context) error
	cancelRunCtx   context.CancelFunc

	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithProviders overrides the verification provider set. Used by tests
// to inject deterministic doubles.
func WithProviders(set providers.Set) Option {
	return func(s *Server) {
		s.providerSet = &set
	}
}

// New creates a fully wired server from configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Background context for long-lived goroutines, cancelled on Shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelRunCtx = cancel

	// Storage: Postgres if DATABASE_URL set, otherwise in-memory.
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.store = analysis.NewPostgresStore(db)
		s.accountant = budget.NewPostgresAccountant(db, cfg.DailyBudgetUSD)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		go metrics.StartDBStatsCollector(ctx, db, 15*time.Second)
	} else {
		s.store = analysis.NewMemoryStore()
		s.accountant = budget.NewMemoryAccountant(cfg.DailyBudgetUSD)
		s.logger.Info("using in-memory storage")
	}

	// Verification providers.
	set, err := s.buildProviderSet()
	if err != nil {
		return nil, err
	}

	// Waterfall pipeline.
	wcfg := waterfall.DefaultConfig()
	wcfg.PerAnalysisCap = cfg.PerAnalysisCapUSD
	s.pipeline = waterfall.NewService(wcfg, set, s.accountant, s.logger)
	s.analyses = analysis.NewService(s.store, s.pipeline, s.logger)

	// Tracing (no-op when OTLP endpoint is unset).
	shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.tracesShutdown = shutdown
	}

	// Health checks.
	s.healthReg = health.NewRegistry()
	if s.db != nil {
		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			st := health.Status{Name: "database", Healthy: true}
			if err := s.db.PingContext(ctx); err != nil {
				st.Healthy = false
				st.Detail = err.Error()
			}
			return st
		})
	}
	s.healthReg.Register("budget", func(ctx context.Context) health.Status {
		st := health.Status{Name: "budget", Healthy: true}
		if _, err := s.accountant.Usage(ctx); err != nil {
			st.Healthy = false
			st.Detail = err.Error()
		}
		return st
	})

	// Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

func (s *Server) buildProviderSet() (providers.Set, error) {
	if s.providerSet != nil {
		return *s.providerSet, nil
	}

	if s.cfg.ProviderMode == config.ProviderModeLive {
		// Guard against SSRF via misconfigured provider URLs.
		for name, raw := range map[string]string{
			"middesk":   s.cfg.MiddeskAPIURL,
			"isoftpull": s.cfg.ISoftpullAPIURL,
			"sos":       s.cfg.SOSAPIURL,
		} {
			if err := security.ValidateEndpointURL(raw); err != nil {
				return providers.Set{}, fmt.Errorf("invalid %s API URL: %w", name, err)
			}
		}
		s.logger.Info("using live verification providers")
		return providers.Set{
			Business:     providers.NewMiddeskClient(s.cfg.MiddeskAPIURL, s.cfg.MiddeskAPIKey),
			Credit:       providers.NewISoftpullClient(s.cfg.ISoftpullAPIURL, s.cfg.ISoftpullAPIKey),
			Registration: providers.NewSOSClient(s.cfg.SOSAPIURL, s.cfg.SOSAPIKey),
		}, nil
	}

	s.logger.Info("using stub verification providers")
	return providers.StubSet(), nil
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (statements can be large)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPS > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPS * 60
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthHandler)
	s.router.GET("/livez", s.livenessHandler)
	s.router.GET("/readyz", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	analysis.NewHandler(s.analyses).RegisterRoutes(v1)
	budget.NewHandler(s.accountant).RegisterRoutes(v1)
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"env", s.cfg.Env,
			"provider_mode", s.cfg.ProviderMode,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	if s.tracesShutdown != nil {
		if err := s.tracesShutdown(ctx); err != nil {
			s.logger.Error("traces shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
