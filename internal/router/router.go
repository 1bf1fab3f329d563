package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/n-kyan/microsoft-auth/api/swagger"
	"github.com/n-kyan/microsoft-auth/internal/handler"
	"github.com/n-kyan/microsoft-auth/internal/middleware"
	"github.com/n-kyan/microsoft-auth/internal/service"
	"github.com/n-kyan/microsoft-auth/pkg/config"
	"github.com/n-kyan/microsoft-auth/pkg/logger"
	corsmiddleware "github.com/n-kyan/microsoft-auth/pkg/middleware/cors"
	reqidmiddleware "github.com/n-kyan/microsoft-auth/pkg/middleware/requestid"
)

// Dependencies are the services the HTTP surface routes to.
type Dependencies struct {
	Tokens   *service.TokenService
	Calendar *service.CalendarService
	Metrics  *service.MetricsService
	Logger   *zap.Logger
}

// New assembles the gin engine with middleware and routes.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	metrics := deps.Metrics
	if !cfg.Metrics.Enabled {
		metrics = nil
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	healthHandler := handler.NewHealthHandler(metrics, deps.Tokens)
	authHandler := handler.NewAuthHandler(deps.Tokens)
	calendarHandler := handler.NewCalendarHandler(deps.Tokens, deps.Calendar)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	if metrics != nil {
		r.GET("/metrics", healthHandler.Prometheus)
	}

	auth := r.Group("/auth")
	auth.GET("/initialize", authHandler.Initialize)
	auth.POST("/initialize", authHandler.Initialize)
	auth.POST("/complete", authHandler.Complete)
	auth.GET("/status", authHandler.Status)

	r.GET("/calendar/available-slots", calendarHandler.AvailableSlots)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
