package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/shopops/revsync/docs"
	"github.com/shopops/revsync/internal/infrastructure/logger"
	"github.com/shopops/revsync/internal/interfaces/http/handler"
	"github.com/shopops/revsync/internal/interfaces/http/middleware"
)

// EngineConfig configures the middleware chain of the HTTP server
type EngineConfig struct {
	Mode            string
	ServiceName     string
	TracingEnabled  bool
	Meter           metric.Meter
	CORS            middleware.CORSConfig
	MaxBodyBytes    int64
	RateLimitBurst  int
	RateLimitWindow time.Duration
}

// NewEngine builds a gin engine with logging, recovery, tracing, metrics,
// CORS, body limit and per-client rate limiting.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	})...)

	metricsMW, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("router: http metrics: %w", err)
	}
	engine.Use(metricsMW)
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	if cfg.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}
	if cfg.RateLimitBurst > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitBurst, cfg.RateLimitWindow)))
	}

	return engine, nil
}

// RegisterRoutes mounts the system and sync endpoints
func RegisterRoutes(engine *gin.Engine, system *handler.SystemHandler, sync *handler.SyncHandler) {
	engine.GET("/health", system.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	systemGroup := NewDomainGroup("system", "/system").
		GET("/info", system.GetSystemInfo)

	syncGroup := NewDomainGroup("sync", "/sync").
		POST("/daily", sync.RunDaily).
		GET("/runs", sync.ListRuns).
		GET("/runs/:id", sync.GetRun)

	tablesGroup := NewDomainGroup("tables", "/tables").
		GET("/:table_id/columns", sync.ListColumns)

	NewRouter(engine).
		Register(systemGroup).
		Register(syncGroup).
		Register(tablesGroup).
		Setup()
}
