package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/api/middleware"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators behind the control API.
type Deps struct {
	DB      handlers.Pinger
	Starter handlers.SyncStarter
	Runs    handlers.RunLister
	Metrics *metrics.Metrics
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Deps) *Server {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; sync endpoints will reject every request")
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB)
	syncHandler := handlers.NewSyncHandler(deps.Starter, deps.Runs, logger)

	// Routes
	router.GET("/healthz", healthHandler.Check)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		sync := v1.Group("/sync")
		{
			sync.POST("", syncHandler.Trigger)
			sync.GET("/runs", syncHandler.ListRuns)
			sync.GET("/runs/:id", syncHandler.GetRun)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
