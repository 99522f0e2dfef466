package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/cache"
	"github.com/Kebolder/e6aibot/internal/config"
	"github.com/Kebolder/e6aibot/internal/dmail"
	"github.com/Kebolder/e6aibot/internal/e6ai"
	"github.com/Kebolder/e6aibot/internal/httpserver"
	"github.com/Kebolder/e6aibot/internal/mq"
	"github.com/Kebolder/e6aibot/pkg/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting e6aibot...")

	if !cfg.E6AI.Configured() {
		log.Warn("e6AI credentials not configured, dmail polling will be a no-op")
	}

	// Optional redis-backed display-name cache
	var names *cache.UserNames
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		names = cache.NewUserNames(rdb, time.Hour)
		log.Info("Redis display-name cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		names = cache.NewUserNames(nil, 0)
		log.Info("Redis not configured, display-name cache disabled")
	}

	// Remote API client
	client := e6ai.NewClient(cfg.E6AI.BaseURL, e6ai.Credentials{
		Username: cfg.E6AI.Username,
		APIKey:   cfg.E6AI.APIKey,
	}, cfg.E6AI.UserAgent)

	replier := dmail.NewReplier(client, log)

	// Moderation bus
	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init moderation producer", zap.Error(err))
	}
	defer producer.Close()

	// Dmail command registry
	replacement := dmail.NewReplacementHandler(
		client, client, replier, producer, names,
		cfg.E6AI.BaseURL, cfg.Moderation.ChannelID, cfg.Owner.UserID, log,
	)
	fallback := dmail.NewFallbackHandler(client, replier, log)
	registry := dmail.NewRegistry(fallback, replacement)

	poller := dmail.NewPoller(client, registry, cfg.E6AI.BotUserID, cfg.E6AI.Configured(), time.Duration(cfg.Poll.Interval), log)

	// Moderator decision consumer
	decisions := dmail.NewDecisionHandler(replier, log)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, mq.RoutingKeyReplacementDecision, log)
	if err != nil {
		log.Fatal("Failed to init decision consumer", zap.Error(err))
	}
	consumer.SetHandler(decisions.HandleDecision)
	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Decision consumer failed", zap.Error(err))
		}
	}()
	defer consumer.Close()

	// Poll schedule
	cronRunner, err := poller.Run(context.Background())
	if err != nil {
		log.Fatal("Failed to start dmail poller", zap.Error(err))
	}
	defer cronRunner.Stop()

	// Ops HTTP server
	postAdmin := httpserver.NewPostAdmin(client, log)
	router := httpserver.NewRouter(poller, postAdmin, cfg.Admin, log)
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
