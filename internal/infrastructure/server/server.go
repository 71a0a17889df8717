package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/windowhub/engine/internal/api/http"
	"github.com/windowhub/engine/internal/api/middleware"
	"github.com/windowhub/engine/internal/api/ws"
	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/infrastructure/config"
	"github.com/windowhub/engine/internal/infrastructure/logging"
	"github.com/windowhub/engine/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	engine  *engine.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance around an already-running
// engine.
func NewServer(cfg *config.Config, eng *engine.Engine, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
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

	handlers := apihttp.NewHandlers(eng)
	wsHandler := ws.NewHandler(eng, logger.Logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Desktop and application discovery
	router.GET("/windows", handlers.ListWindows)
	router.GET("/apps", handlers.ListApps)

	// Session lifecycle
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions/:id", handlers.GetSession)
	router.POST("/sessions/:id/activate", handlers.ActivateSession)
	router.POST("/sessions/:id/close", handlers.CloseSession)
	router.DELETE("/sessions/:id", handlers.ReleaseSession)

	// Launch-and-capture
	router.POST("/launch", handlers.Launch)

	// Layout and tab order
	router.PATCH("/pane", handlers.SetBounds)
	router.POST("/pane/hide", handlers.HideActive)
	router.POST("/pane/show", handlers.ShowActive)
	router.GET("/foreground", handlers.Foreground)
	router.POST("/tabs/next", handlers.NextTab)
	router.POST("/tabs/prev", handlers.PrevTab)
	router.POST("/tabs/:index/activate", handlers.ActivateTab)

	// WebSocket event stream
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		engine:  eng,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close flushes buffered log entries.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.logger.Sync()
	return nil
}
