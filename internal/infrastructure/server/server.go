package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	api "github.com/jo-oikawa/very-good-reads/backend/internal/api/http"
	"github.com/jo-oikawa/very-good-reads/backend/internal/api/middleware"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/desktop"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/config"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/logging"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/tracing"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/books"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/recommend"
	"github.com/jo-oikawa/very-good-reads/backend/internal/ws"
)

const streamPath = "/stream"

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	handler http.Handler
	store   record.Store
	books   *books.Client
	hub     *ws.Hub
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Very Good Reads server",
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("llm_configured", cfg.LLM.Enabled()),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("very-good-reads", logger.Component("tracing"))

	store, err := openStore(cfg.Store, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	desk := desktop.NewManager(logger.Component("desktop")).WithMetrics(metrics)
	hub := ws.NewHub(desk, logger.Component("ws")).
		WithMetrics(metrics).
		WithOrigins(cfg.Server.AllowedOrigins)
	desk.Subscribe(hub.DesktopChanged)

	records := record.NewService(store, logger.Component("records"), hub).WithMetrics(metrics)

	bookClient := books.New(books.Config{
		BaseURL:       cfg.Books.BaseURL,
		Spacing:       cfg.Books.Spacing,
		MaxConcurrent: cfg.Books.MaxConcurrent,
		MaxAttempts:   cfg.Books.MaxAttempts,
		Timeout:       cfg.Books.Timeout,
		BackoffBase:   cfg.Books.BackoffBase,
		RateLimitBase: cfg.Books.RateLimitBase,
		PreloadChunk:  cfg.Books.PreloadChunk,
		PreloadDelay:  cfg.Books.PreloadDelay,
		PreloadJitter: cfg.Books.PreloadJitter,
	}, logger.Component("books")).WithMetrics(metrics)

	llm := recommend.DefaultConfig()
	llm.Endpoint = cfg.LLM.Endpoint
	llm.APIKey = cfg.LLM.APIKey
	llm.Deployment = cfg.LLM.Deployment
	if cfg.LLM.APIVersion != "" {
		llm.APIVersion = cfg.LLM.APIVersion
	}
	if cfg.LLM.Timeout > 0 {
		llm.Timeout = cfg.LLM.Timeout
	}
	recommender := recommend.New(llm, logger.Component("recommend")).WithMetrics(metrics)
	if !recommender.Enabled() {
		logger.Warn("Azure OpenAI is not configured, recommendations use fallback lists")
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(middleware.CORS(corsConfig))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(records, bookClient, recommender, desk, metrics, logger.Component("api"))
	handlers.Register(router, api.RouteOptions{MaxBodyBytes: cfg.Server.MaxBodyBytes})

	router.GET(streamPath, hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: compress(router),
		store:   store,
		books:   bookClient,
		hub:     hub,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// openStore opens the configured store. A SQLite file that cannot be opened
// falls back to memory so the desktop stays usable.
func openStore(cfg config.StoreConfig, logger *logging.Logger) (record.Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("Using in-memory record store")
		return record.NewMemoryStore(), nil
	case "sqlite":
		store, err := record.NewSQLiteStore(cfg.Path)
		if err != nil {
			logger.Warn("Failed to open SQLite store, falling back to memory",
				zap.String("path", cfg.Path),
				zap.Error(err))
			return record.NewMemoryStore(), nil
		}
		logger.Info("Connected to SQLite store", zap.String("path", store.Path()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// compress gzips responses except on the WebSocket endpoint, whose upgrade
// needs the raw connection.
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == streamPath || strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close releases every component
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.hub.Close()
	s.books.Close()
	s.tracer.Close()

	var err error
	if cerr := s.store.Close(); cerr != nil {
		s.logger.Error("Failed to close record store", zap.Error(cerr))
		err = fmt.Errorf("failed to close record store: %w", cerr)
	} else {
		s.logger.Info("Closed record store")
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return err
}
