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
	"book_story_service/internal/chat/app"
	"book_story_service/internal/chat/repository"
	"book_story_service/internal/chat/router"
	"book_story_service/pkg/config"
	"book_story_service/pkg/database"
	"book_story_service/pkg/logger"
	testtool "book_story_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 訊息儲存
	msgRepo, closeStore := newMessageRepository(ctx, cfg)
	defer closeStore()

	// 2. change feed
	feed, closeFeed := newChangeFeed(ctx, cfg)
	defer closeFeed()

	// 3. hub + use case
	hub := app.NewHub(cfg.Room, cfg.PeerBuffer)
	go func() {
		if err := hub.Run(ctx, feed); err != nil {
			logger.Log.Fatal("hub stopped", zap.Error(err))
		}
	}()
	messageUC := app.NewMessageUseCase(cfg.Room, msgRepo, feed)

	// 4. 啟動 Fiber
	r := fiber.New(fiber.Config{DisableStartupMessage: config.IsProduction()})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(ctx, r, config.EnvConfig.ChatService, app.NewChatWebsocketHandler(hub), app.NewMessageHandler(messageUC))
	testtool.StartPprof("127.0.0.1:6062")

	go func() {
		<-ctx.Done()
		_ = r.ShutdownWithTimeout(5 * time.Second)
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Chat Service listening", zap.String("port", port), zap.String("room", cfg.Room))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}

func newMessageRepository(ctx context.Context, cfg config.Chat) (repository.MessageRepository, func()) {
	switch cfg.Store.Driver {
	case "badger":
		db, err := database.NewBadgerDB(cfg.Badger.Path, logger.Log.IsDebugMode())
		if err != nil {
			logger.Log.Fatal("open badger", zap.Error(err))
		}
		return repository.NewBadgerMessageRepository(db), func() { db.Close() }
	default:
		m := cfg.MongoSQL
		mongo, err := database.NewMongoDB(ctx,
			database.Connection{
				ConnectStr: database.MongoURI(m.User, m.Password, m.Host, m.Port),
				Retry:      database.RetrySeconds(m.RetryCount, m.RetryInterval),
			},
			m.Database)
		if err != nil {
			logger.Log.Fatal(
				"Unable to connect to mongoDB database after retries",
				zap.String("address", fmt.Sprintf("[%s:%d]", m.Host, m.Port)),
				zap.Error(err),
			)
		}
		if err := repository.EnsureIndexes(ctx, mongo); err != nil {
			logger.Log.Warn("create chat_messages index", zap.Error(err))
		}
		return repository.NewMongoChatMessageRepository(mongo.Database), func() { _ = mongo.Close(context.Background()) }
	}
}

func newChangeFeed(ctx context.Context, cfg config.Chat) (repository.ChangeFeed, func()) {
	switch cfg.Feed.Driver {
	case "memory":
		return repository.NewMemoryFeed(), func() {}
	case "kafka":
		conn := database.KafkaConnection{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Retry:   database.RetrySeconds(cfg.Kafka.RetryCount, cfg.Kafka.RetryInterval),
		}
		writer, err := database.NewKafkaWriterWithRetry(ctx, conn)
		if err != nil {
			logger.Log.Fatal("connect kafka", zap.Error(err))
		}
		feed := repository.NewKafkaFeed(writer, func() (*kafka.Reader, error) {
			return database.NewKafkaReader(conn, 0)
		}, conn.Retry.Interval)
		return feed, func() { _ = feed.Close() }
	default:
		masterName, sentinel := config.GetRedisSetting()
		redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.Addr, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
		}
		return repository.NewRedisPubSub(redisClient), func() { _ = redisClient.Close() }
	}
}
