package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	orderapp "github.com/citypaints/erp-sync/internal/application/order"
	syncapp "github.com/citypaints/erp-sync/internal/application/sync"
	erpdomain "github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/shared"
	"github.com/citypaints/erp-sync/internal/infrastructure/cache"
	"github.com/citypaints/erp-sync/internal/infrastructure/config"
	erpinfra "github.com/citypaints/erp-sync/internal/infrastructure/erp"
	"github.com/citypaints/erp-sync/internal/infrastructure/logger"
	"github.com/citypaints/erp-sync/internal/infrastructure/persistence"
	"github.com/citypaints/erp-sync/internal/infrastructure/storage"
	"github.com/citypaints/erp-sync/internal/interfaces/http/handler"
	"github.com/citypaints/erp-sync/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting ERP sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if !cfg.ERP.Configured() {
		log.Fatal("ERP credentials are not configured; set erp.base_url, erp.username, erp.password and erp.api_key")
	}

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the ERP token cache and the sync lock. Without it the
	// service still runs, but tokens and locks are process-local.
	var (
		tokenStore erpdomain.TokenStore
		syncLock   shared.SyncLock
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, using in-process token store and sync lock", zap.Error(err))
		_ = redisClient.Close()
		tokenStore = erpinfra.NewInMemoryTokenStore()
		syncLock = cache.NewInMemorySyncLock()
	} else {
		tokenStore = erpinfra.NewRedisTokenStore(redisClient, "citypaints:")
		syncLock = cache.NewRedisSyncLock(redisClient, "citypaints:sync:lock:")
		defer redisClient.Close()
	}
	cancelPing()

	// ERP API client
	erpClient, err := erpinfra.NewClient(&cfg.ERP, tokenStore, log)
	if err != nil {
		log.Fatal("Failed to create ERP client", zap.Error(err))
	}
	productAPI := erpinfra.NewProductAPI(erpClient)
	orderAPI := erpinfra.NewOrderAPI(erpClient)

	// Object storage for mirrored product images
	var objectStorage syncapp.ObjectStorage
	if cfg.Storage.Configured() {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Storage.EnsureBucket(bucketCtx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancelBucket()
		objectStorage = s3Storage
		log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		log.Warn("Object storage not configured, product images will not be mirrored")
		objectStorage = storage.NewStubObjectStorage()
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	metadataRepo := persistence.NewGormMetadataRepository(db.DB)
	attributeRepo := persistence.NewGormAttributeRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Application services
	mapper := syncapp.NewProductMapper(productAPI, cfg.Sync.Workers, log)
	attacher := syncapp.NewImageAttacher(attachmentRepo, objectStorage, nil, log)
	simpleHandler := syncapp.NewSimpleProductHandler(productRepo, metadataRepo, attacher, log)
	variableHandler := syncapp.NewVariableProductHandler(productRepo, metadataRepo, attributeRepo, attacher, log)
	syncManager := syncapp.NewSyncManager(mapper, productRepo, simpleHandler, variableHandler, syncLock, cfg.Sync.LockTTL, log)

	payloadBuilder := orderapp.NewPayloadBuilder(productRepo, metadataRepo, cfg.ERP.AccountCode, cfg.Sync.PricesIncludeTax, log)
	orderSync := orderapp.NewSyncService(orderRepo, payloadBuilder, orderAPI, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	router.New(engine).
		Register(
			handler.NewSystemHandler(),
			handler.NewSyncHandler(syncManager, log),
			handler.NewOrderHandler(orderSync, orderRepo, log),
		).
		Setup()

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

	// Graceful shutdown
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

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
