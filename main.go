package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"

	"webhookd/internal/api"
	"webhookd/internal/config"
	"webhookd/internal/logger"
	"webhookd/internal/repository"
	"webhookd/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logg := logger.New(cfg.LogLevel)

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	repo, err := repository.NewSQLiteRepo(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()
	logg.Info("connected to sqlite store", "path", dbPath)

	var cache service.MessageCache
	if cfg.RedisAddr != "" {
		client := initRedis(cfg.RedisAddr, cfg.RedisPassword)
		cache = &RedisCache{client: client}
		logg.Info("connected to redis ingest cache", "addr", cfg.RedisAddr)
	}

	serv := service.NewMessageService(repo, cache, cfg.WebhookSecret, logg)

	r := gin.Default()
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler := api.NewAPIHandler(serv, logg)
	r.GET("/health/live", handler.HealthLive)
	r.GET("/health/ready", handler.HealthReady)
	r.POST("/webhook", handler.Webhook)
	r.GET("/messages", handler.ListMessages)
	r.GET("/stats", handler.Stats)

	logg.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// RedisCache records each ingested message id with its server timestamp.
// Entries are advisory; duplicate detection stays with the sqlite primary key.
type RedisCache struct {
	client *redis.Client
}

func (rc *RedisCache) StoreMessage(messageID string, createdAt time.Time) error {
	ctx := context.Background()
	return rc.client.Set(ctx, "msgid:"+messageID, createdAt.Format(time.RFC3339), 0).Err()
}

func initRedis(addr string, password string) *redis.Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	}
	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	return client
}
