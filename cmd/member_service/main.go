package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"book_story_service/internal/member/app"
	"book_story_service/internal/member/domain"
	"book_story_service/internal/member/repository"
	"book_story_service/internal/member/router"
	"book_story_service/pkg/config"
	"book_story_service/pkg/database"
	"book_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MemberService, config.EnvConfig.MemberServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Member](config.EnvConfig.MemberService, config.EnvConfig.MemberServiceYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. postgreSQL
	pg := cfg.PostgreSQL
	pool, err := database.NewDatabaseConnection(ctx, database.Connection{
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
	defer pool.Close()
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Log.Fatal("create member table", zap.Error(err))
	}

	// 2. redis: sessions + pending sign-in links
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.RedisMember.Addr, cfg.RedisMember.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 3. rabbitMQ: sign-in mail jobs
	mq := cfg.RabbitMQ
	mqRetry := database.RetrySeconds(mq.RetryCount, 2)
	conn, err := database.ConnectRabbitMQWithRetry(ctx, database.Connection{
		ConnectStr: database.AMQPURL(mq.User, mq.Password, mq.IP, mq.Port),
		Retry:      mqRetry,
	})
	if err != nil {
		logger.Log.Fatal("connect rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	publishCh, err := database.GetRabbitMQChannelWithRetry(ctx, conn, mqRetry)
	if err != nil {
		logger.Log.Fatal("open rabbitmq channel", zap.Error(err))
	}
	defer publishCh.Close()
	if _, err := database.DeclareQueue(publishCh, mq.QueueName); err != nil {
		logger.Log.Fatal("declare mail queue", zap.Error(err))
	}

	consumeCh, err := database.GetRabbitMQChannelWithRetry(ctx, conn, mqRetry)
	if err != nil {
		logger.Log.Fatal("open rabbitmq channel", zap.Error(err))
	}
	defer consumeCh.Close()
	go app.RunMailer(ctx, consumeCh, mq.QueueName, app.LogDelivery)

	usecase := app.NewMemberUseCase(
		repository.NewMemberRepository(pool),
		cfg.SessionTTL,
		database.NewRedisRepository[domain.MemberSession](redisClient),
		database.NewRedisRepository[domain.LoginLink](redisClient),
		repository.NewRabbitMailQueue(database.NewRabbitRepository(publishCh), mq.QueueName),
		app.LinkSettings{TTL: cfg.LinkTTL, PublicURL: cfg.PublicURL},
	)

	// 4. 啟動 Fiber
	r := fiber.New(fiber.Config{DisableStartupMessage: config.IsProduction()})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MemberServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, config.EnvConfig.MemberService, app.NewMemberHandler(usecase))

	go func() {
		<-ctx.Done()
		_ = r.ShutdownWithTimeout(5 * time.Second)
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Member Service listening", zap.String("port", port))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}
