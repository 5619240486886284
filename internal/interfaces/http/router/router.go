package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/infrastructure/config"
	"github.com/semdin/sellerx-backend/internal/infrastructure/logger"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/handler"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	System   *handler.SystemHandler
	Stores   *handler.StoreHandler
	Products *handler.ProductHandler
	Sync     *handler.SyncHandler
	Stats    *handler.StatsHandler
}

// New builds the gin engine with the full middleware chain and API routes
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)

	api := engine.Group("/api/v1")
	{
		stores := api.Group("/stores")
		{
			stores.POST("", h.Stores.Create)
			stores.GET("", h.Stores.List)
			stores.GET("/:id", h.Stores.Get)
			stores.PUT("/:id", h.Stores.Rename)
			stores.PUT("/:id/credentials", h.Stores.UpdateCredentials)
			stores.DELETE("/:id", h.Stores.Delete)

			stores.GET("/:id/products", h.Products.List)
			stores.GET("/:id/products/:barcode", h.Products.Get)
			stores.POST("/:id/products/:barcode/lots", h.Products.AddLot)
			stores.PUT("/:id/products/:barcode/lots/:date", h.Products.EditLot)
			stores.DELETE("/:id/products/:barcode/lots/:date", h.Products.DeleteLot)

			stores.POST("/:id/sync/orders", h.Sync.SyncOrders)
			stores.POST("/:id/sync/settlements", h.Sync.SyncSettlements)
			stores.POST("/:id/sync/products", h.Sync.SyncProducts)
			stores.POST("/:id/resync", h.Sync.Resync)
			stores.GET("/:id/sync/jobs", h.Sync.JobHistory)

			stores.GET("/:id/stats", h.Stats.Get)
		}
	}

	return engine
}
