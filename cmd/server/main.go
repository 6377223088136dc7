package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Phantawat/car-parking/internal/api/handlers"
	"github.com/Phantawat/car-parking/internal/config"
	"github.com/Phantawat/car-parking/internal/events"
	"github.com/Phantawat/car-parking/internal/inventory"
	"github.com/Phantawat/car-parking/internal/lock"
	"github.com/Phantawat/car-parking/internal/qr"
	"github.com/Phantawat/car-parking/internal/repository"
	"github.com/Phantawat/car-parking/internal/service"
	"github.com/Phantawat/car-parking/internal/store"
	"github.com/Phantawat/car-parking/pkg/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting car-parking", zap.String("port", cfg.ServerPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	st := db.Store()
	inv := inventory.New(st, logger)

	opts := []service.Option{}

	// Redis level lock
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, level lock fails open until it recovers", zap.Error(err))
		}
		opts = append(opts, service.WithLocker(lock.NewRedisLocker(redisClient, cfg.LevelLockTTL, cfg.LevelLockWait, logger)))
		logger.Info("Level lock enabled", zap.String("redis", cfg.RedisAddr))
	}

	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(levelSnapshot(st, cfg.StoreTimeout, logger))
	go wsHub.Run(ctx)

	// ticket events
	publishers := events.Multi{events.NewHubPublisher(wsHub)}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		topicCtx, topicCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := events.EnsureTopic(topicCtx, cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			logger.Warn("Failed to ensure kafka topic", zap.String("topic", cfg.KafkaTopic), zap.Error(err))
		}
		topicCancel()

		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publishers = append(publishers, kafkaPublisher)
		logger.Info("Kafka events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	opts = append(opts, service.WithPublisher(publishers))

	sessions := service.NewSessionService(cfg, logger, st, inv, opts...)

	qrGen, err := qr.NewGenerator(cfg.QRSecret)
	if err != nil {
		logger.Fatal("Failed to create qr generator", zap.Error(err))
	}

	handler := handlers.NewHandler(logger, st, sessions, inv, qrGen, wsHub)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(handlers.CORS())
	router.Use(handlers.StoreTimeout(cfg.StoreTimeout))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// stops the hub and disconnects websocket clients
	cancel()

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("Failed to close kafka writer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// levelSnapshot feeds new websocket clients the current level availability.
func levelSnapshot(st store.Store, timeout time.Duration, logger *zap.Logger) func() *ws.InitData {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func() *ws.InitData {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		levels, err := st.Levels().List(ctx, store.LevelFilter{})
		if err != nil {
			logger.Warn("Failed to load levels for websocket init", zap.Error(err))
			return nil
		}
		return &ws.InitData{Levels: levels}
	}
}
