package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "book_story_service/docs"
	"book_story_service/internal/review/app"
	"book_story_service/internal/review/repository"
	"book_story_service/internal/review/router"
	"book_story_service/pkg/config"
	"book_story_service/pkg/database"
	"book_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ReviewService, config.EnvConfig.ReviewServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Review](config.EnvConfig.ReviewService, config.EnvConfig.ReviewServiceYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. postgreSQL (gorm)
	pg := cfg.PostgreSQL
	db, err := database.NewPGConnection(ctx, database.Connection{
		ConnectStr: database.PostgresDSN(pg.User, pg.Password, pg.Host, pg.Port, pg.Database),
		Retry:      database.RetrySeconds(pg.RetryCount, pg.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", pg.Host, pg.Port)),
			zap.Error(err),
		)
	}
	reviewRepo := repository.NewReviewRepo(db)
	if err := reviewRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("migrate reviews", zap.Error(err))
	}

	// 2. minIO 封面
	minioClient, err := database.NewMinIOConnection(ctx, database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,
		Retry:      database.Retry{Count: cfg.MinIO.RetryCount, Interval: cfg.MinIO.RetryInterval},
	})
	if err != nil {
		logger.Log.Fatal("connect minio", zap.Error(err))
	}

	// 3. use case
	usecase := app.NewReviewUseCase(
		reviewRepo,
		repository.NewAladinSearcher(cfg.Aladin.URL, cfg.Aladin.TTBKey),
		minioClient,
	)

	// 4. 啟動 Fiber
	r := fiber.New(fiber.Config{
		DisableStartupMessage: config.IsProduction(),
		BodyLimit:             8 << 20,
	})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ReviewServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, config.EnvConfig.ReviewService, app.NewReviewHandler(usecase))

	go func() {
		<-ctx.Done()
		_ = r.ShutdownWithTimeout(5 * time.Second)
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Review Service listening", zap.String("port", port))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}
