package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcatalog "github.com/semdin/sellerx-backend/internal/application/catalog"
	apporders "github.com/semdin/sellerx-backend/internal/application/orders"
	"github.com/semdin/sellerx-backend/internal/application/report"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/infrastructure/cache"
	"github.com/semdin/sellerx-backend/internal/infrastructure/config"
	"github.com/semdin/sellerx-backend/internal/infrastructure/logger"
	"github.com/semdin/sellerx-backend/internal/infrastructure/marketplace"
	"github.com/semdin/sellerx-backend/internal/infrastructure/persistence"
	"github.com/semdin/sellerx-backend/internal/infrastructure/scheduler"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/handler"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SellerX Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	location, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Failed to load business timezone",
			zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Resync serialization prefers Redis so that multiple instances cannot
	// recompute the same ledger concurrently. Without Redis the process
	// falls back to an in-process lock, which is safe for a single node.
	var locker shared.EntityLocker
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, using in-process locks",
			zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
		locker = cache.NewInMemoryLocker()
	} else {
		locker = cache.NewRedisLocker(redisClient, "sellerx:lock:")
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}
	cancelPing()
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	storeRepo := persistence.NewGormStoreRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	gateway := marketplace.NewTrendyolGateway(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout, log)

	resyncService := apporders.NewResyncService(productRepo, orderRepo, locker, location, log)
	ingestService := apporders.NewIngestService(orderRepo, productRepo, storeRepo, gateway, locker, location, log)
	settlementService := apporders.NewSettlementService(orderRepo, storeRepo, gateway, location, log)
	productService := appcatalog.NewProductService(productRepo, storeRepo, gateway, resyncService, location, log)

	financialCfg, err := parseFinancialConfig(cfg.Financial)
	if err != nil {
		log.Fatal("Invalid financial configuration", zap.Error(err))
	}
	statsService := report.NewStatsService(orderRepo, financialCfg, location, log)

	executor := scheduler.NewServiceExecutor(ingestService, settlementService, productService)
	syncScheduler, err := scheduler.NewStoreSyncScheduler(scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        time.Minute,
		SyncInterval:      cfg.Scheduler.SyncInterval,
	}, executor, storeRepo, log)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("sync_interval", cfg.Scheduler.SyncInterval),
		)
	}

	engine := router.New(cfg, log, router.Handlers{
		System:   handler.NewSystemHandler(db),
		Stores:   handler.NewStoreHandler(storeRepo),
		Products: handler.NewProductHandler(productService),
		Sync:     handler.NewSyncHandler(ingestService, settlementService, resyncService, productService, syncScheduler),
		Stats:    handler.NewStatsHandler(statsService, location),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func parseFinancialConfig(cfg config.FinancialConfig) (report.FinancialConfig, error) {
	returnUnitCost, err := decimal.NewFromString(cfg.ReturnUnitCost)
	if err != nil {
		return report.FinancialConfig{}, err
	}
	stoppageRate, err := decimal.NewFromString(cfg.StoppageRate)
	if err != nil {
		return report.FinancialConfig{}, err
	}
	defaultVatRate, err := decimal.NewFromString(cfg.DefaultVatRate)
	if err != nil {
		return report.FinancialConfig{}, err
	}
	return report.FinancialConfig{
		ReturnUnitCost: returnUnitCost,
		StoppageRate:   stoppageRate,
		DefaultVatRate: defaultVatRate,
	}, nil
}
