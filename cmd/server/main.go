package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/greyhelm/tablekeep/internal/clients/dnd5e"
	"github.com/greyhelm/tablekeep/internal/config"
	"github.com/greyhelm/tablekeep/internal/handlers/api"
	"github.com/greyhelm/tablekeep/internal/logger"
	"github.com/greyhelm/tablekeep/internal/repositories/campaigns"
	"github.com/greyhelm/tablekeep/internal/repositories/encounters"
	"github.com/greyhelm/tablekeep/internal/services/campaign"
	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.Setup(cfg)

	// Default to in-memory repositories; switch to Redis when a URL is set
	encounterRepo := encounters.NewInMemoryRepository()
	campaignRepo := campaigns.NewInMemoryRepository()

	// Keep Redis client for cleanup
	var redisClient *redis.Client

	if cfg.Redis.URL != "" {
		opts, parseErr := redis.ParseURL(cfg.Redis.URL)
		if parseErr != nil {
			slogger.Warn("failed to parse Redis URL, falling back to in-memory repositories", "error", parseErr)
		} else {
			redisClient = redis.NewClient(opts)

			// Test connection
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(ctx).Err()
			cancel()

			if pingErr != nil {
				slogger.Warn("failed to connect to Redis, falling back to in-memory repositories", "error", pingErr)
				redisClient = nil
			} else {
				slogger.Info("connected to Redis")
				encounterRepo = encounters.NewRedisRepository(&encounters.RedisRepoConfig{Client: redisClient})
				campaignRepo = campaigns.NewRedisRepository(redisClient)
			}
		}
	} else {
		slogger.Info("no REDIS_URL set, using in-memory repositories")
	}

	// Create SRD monster library client
	var monsterClient dnd5e.Client
	if cfg.Monsters.Enabled {
		monsterClient, err = dnd5e.New(&dnd5e.Config{
			HttpClient: &http.Client{
				Timeout: 30 * time.Second,
			},
		})
		if err != nil {
			log.Fatalf("Failed to create monster library client: %v", err)
		}
	}

	resolver := campaign.NewResolver(&campaign.ResolverConfig{
		Repository: campaignRepo,
	})

	membershipService := campaign.NewService(&campaign.ServiceConfig{
		Repository: campaignRepo,
	})

	encounterService := encounter.NewService(&encounter.ServiceConfig{
		Repository: encounterRepo,
		Resolver:   resolver,
		Monsters:   monsterClient,
	})

	handler := api.NewHandler(slogger, encounterService, membershipService)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slogger.Info("server listening", "addr", cfg.HTTP.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", serveErr)
		}
	}()

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	slogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("forced shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slogger.Error("error closing Redis connection", "error", err)
		}
	}
}
