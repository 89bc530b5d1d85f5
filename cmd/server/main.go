package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"leadhub.backend/internal/config"
	"leadhub.backend/internal/infrastructure/repositories"
	"leadhub.backend/internal/infrastructure/storage"
	"leadhub.backend/internal/interfaces/http/handlers"
	"leadhub.backend/internal/interfaces/http/middleware"
	"leadhub.backend/internal/usecases"
	"leadhub.backend/pkg/jwt"
	"leadhub.backend/pkg/logger"
	"leadhub.backend/pkg/redis"
)

// slowCheckoutThreshold is how long a pool checkout may take before the
// watchdog complains.
const slowCheckoutThreshold = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger.Init(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// The cache is an optimization; the dashboard falls back to direct
	// queries when redis is unreachable.
	if err := redis.Init(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Warn(context.Background(), "Redis unavailable, metrics caching disabled", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Redis initialized")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(context.Background(), "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Connected to PostgreSQL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchPoolCheckouts(ctx, sqlDB)

	store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsJSON, cfg.Storage.SignerEmail, cfg.Storage.SignerKey)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	defer store.Close()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	affiliateRepo := repositories.NewAffiliateRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	docRepo := repositories.NewDocumentRepository(db)

	// Usecases
	metricsUsecase := usecases.NewMetricsUsecase(leadRepo)
	authUsecase := usecases.NewAuthUsecase(userRepo, jwtService)
	leadUsecase := usecases.NewLeadUsecase(leadRepo, docRepo, affiliateRepo, store, metricsUsecase)
	bulkUsecase := usecases.NewBulkUsecase(leadRepo, affiliateRepo, metricsUsecase)
	docUsecase := usecases.NewDocumentUsecase(docRepo, leadRepo, store)

	// Handlers
	authHandler := handlers.NewAuthHandler(authUsecase)
	leadHandler := handlers.NewLeadHandler(leadUsecase, docUsecase, metricsUsecase)
	bulkHandler := handlers.NewBulkHandler(bulkUsecase)
	documentHandler := handlers.NewDocumentHandler(docUsecase)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(cfg.Server.Env))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	registerRoutes(r, routeDeps{
		authHandler:     authHandler,
		leadHandler:     leadHandler,
		bulkHandler:     bulkHandler,
		documentHandler: documentHandler,
		authMiddleware:  middleware.AuthMiddleware(jwtService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(context.Background(), "Forced shutdown", zap.Error(err))
		}
		cancel()
	}()

	logger.Info(context.Background(), "Server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// watchPoolCheckouts warns when connection checkouts start stalling. It only
// logs; the pool itself handles the backpressure.
func watchPoolCheckouts(ctx context.Context, sqlDB *sql.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var lastWait time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			if delta := stats.WaitDuration - lastWait; delta > slowCheckoutThreshold {
				logger.Warn(ctx, "Slow database connection checkouts",
					zap.Duration("wait_delta", delta),
					zap.Int64("wait_count", stats.WaitCount),
					zap.Int("in_use", stats.InUse),
				)
			}
			lastWait = stats.WaitDuration
		}
	}
}
