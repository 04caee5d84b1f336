// Package main provides the entry point of the trip-to-travel journal service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/trip-to-travel/app/handlers"
	"github.com/amirphl/trip-to-travel/app/router"
	"github.com/amirphl/trip-to-travel/app/services"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	log       *logger.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	appLog.Info("Starting trip-to-travel",
		"environment", cfg.Deployment.Environment,
		"version", cfg.Deployment.Version,
		"commit", cfg.Deployment.CommitHash,
	)

	app, err := initializeApplication(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize application", "error", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	<-sigChan
	appLog.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Error("Error during shutdown", "error", err)
	}

	// Collaborators close after in-flight requests are done
	for _, fn := range app.stopFuncs {
		fn()
	}

	appLog.Info("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, appLog *logger.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(log.New(os.Stdout, "", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Schema != "" {
		if err := db.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, cfg.Schema)).Error; err != nil {
			return nil, fmt.Errorf("failed to create schema %s: %w", cfg.Schema, err)
		}
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		appLog.Info("Database migrated", "schema", cfg.Schema)
	}

	appLog.Info("Database connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig, appLog *logger.Logger) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	appLog.Info("Redis connection established", "db", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, appLog *logger.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					appLog.Warn("Redis healthcheck failed", "error", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeBlobStore picks the blob store named by STORAGE_PROVIDER
func initializeBlobStore(ctx context.Context, cfg config.StorageConfig) (services.BlobStore, func(), error) {
	switch cfg.Provider {
	case "memory":
		return services.NewMemoryBlobStore(cfg.Bucket), func() {}, nil
	default:
		store, err := services.NewGCSBlobStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

func initializeAIClient(cfg *config.AIConfig) services.AIClient {
	if cfg.Provider == "mock" {
		return services.NewMockAIClient()
	}
	return services.NewHTTPAIClient(cfg)
}

func initializeGeocoder(cfg *config.ProductionConfig, rc *redis.Client, appLog *logger.Logger) services.Geocoder {
	if cfg.Geocoder.Provider == "mock" {
		return services.NewMockGeocoder()
	}

	var cache services.PlaceCache
	if rc != nil {
		cache = services.NewRedisPlaceCache(rc, cfg.Cache.RedisPrefix, cfg.Geocoder.CacheTTL)
	} else {
		cache = services.NewMemoryPlaceCache(cfg.Geocoder.CacheTTL)
	}
	return services.NewNominatimGeocoder(&cfg.Geocoder, cache, appLog.With("component", "geocoder"))
}

// initializeApplication wires repositories, collaborators, flows and handlers
func initializeApplication(cfg *config.ProductionConfig, appLog *logger.Logger) (*Application, error) {
	ctx := context.Background()
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, appLog)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })
	}

	rc, err := initializeCache(cfg.Cache, appLog)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopMonitor := startCacheHealthMonitor(ctx, rc, cfg.Cache.HealthCheckInterval, appLog)
		stopFuncs = append(stopFuncs, stopMonitor, func() { _ = rc.Close() })
	}

	// Repositories
	journalRepo := repository.NewJournalRepository(db)
	intentRepo := repository.NewJournalIntentRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	metadataRepo := repository.NewPhotoMetadataRepository(db)
	questionnaireRepo := repository.NewPhotoQuestionnaireRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	if err := categoryRepo.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	// Collaborators
	blobs, closeBlobs, err := initializeBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	stopFuncs = append(stopFuncs, closeBlobs)

	ai := initializeAIClient(&cfg.AI)
	geocoder := initializeGeocoder(cfg, rc, appLog)
	extractor := services.NewExifReader()
	renderer := services.NewFPDFRenderer(&cfg.Export)

	flowLog := appLog.With("component", "business_flow")

	// Business flows
	journalFlow := businessflow.NewJournalFlow(journalRepo, intentRepo, photoRepo, categoryRepo, db)
	photoFlow := businessflow.NewPhotoFlow(journalRepo, photoRepo, metadataRepo, blobs, cfg.Pipeline, cfg.Storage, db, flowLog)
	selectionFlow := businessflow.NewSelectionFlow(journalRepo, intentRepo, photoRepo, metadataRepo, blobs, ai, extractor, geocoder, cfg.Storage, db, flowLog)
	questionnaireFlow := businessflow.NewQuestionnaireFlow(photoRepo, questionnaireRepo, categoryRepo, db)
	draftFlow := businessflow.NewDraftFlow(journalRepo, intentRepo, photoRepo, metadataRepo, questionnaireRepo, categoryRepo, blobs, ai, cfg.Storage, db)
	exportFlow := businessflow.NewExportFlow(journalRepo, photoRepo, metadataRepo, blobs, renderer, cfg.Export)

	httpLog := appLog.With("component", "http")
	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Journal:   handlers.NewJournalHandler(journalFlow, httpLog),
		Photo:     handlers.NewPhotoHandler(photoFlow, questionnaireFlow, httpLog),
		Selection: handlers.NewSelectionHandler(selectionFlow, httpLog),
		Draft:     handlers.NewDraftHandler(draftFlow, httpLog),
		Export:    handlers.NewExportHandler(exportFlow, httpLog),
	}, httpLog)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		log:       appLog,
		stopFuncs: stopFuncs,
	}, nil
}
