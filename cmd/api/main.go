package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/adapters/generator"
	"reddit-growth-bot/internal/adapters/repo"
	"reddit-growth-bot/internal/domain"
	cacheadapter "reddit-growth-bot/internal/infra/cache"
	"reddit-growth-bot/internal/infra/config"
	"reddit-growth-bot/internal/infra/db"
	httpinfra "reddit-growth-bot/internal/infra/http"
	logpkg "reddit-growth-bot/internal/infra/log"
	"reddit-growth-bot/internal/infra/metrics"
	"reddit-growth-bot/internal/usecase/campaigns"
	"reddit-growth-bot/internal/usecase/master"
	"reddit-growth-bot/internal/usecase/wizard"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Warn().Err(err).Str("tz", cfg.TZ).Msg("api: неизвестный часовой пояс, используем UTC")
		loc = time.UTC
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		cache = cacheadapter.NewRedis(redisClient)
	}

	gen := buildGenerator(cfg, logger)

	masterService := master.NewService(repoAdapter, cache, logger.With().Str("component", "master").Logger())
	campaignService := campaigns.NewService(repoAdapter, repoAdapter, gen, logger.With().Str("component", "campaigns").Logger(), loc)
	registry := wizard.NewRegistry(cfg.Wizard.SessionTTL)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := registry.Sweep(); removed > 0 {
					logger.Debug().Int("removed", removed).Msg("api: вычищены простаивающие мастера")
				}
			}
		}
	}()

	application := &app{
		log:       logger,
		campaigns: campaignService,
		master:    masterService,
		registry:  registry,
	}

	srv := httpinfra.NewServer(logger)
	application.routes(srv.Router, cfg.APIToken)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildGenerator(cfg config.AppConfig, logger zerolog.Logger) domain.Generator {
	if cfg.Generator.Mode == "remote" && cfg.Generator.BaseURL != "" {
		client, err := generator.New(cfg.Generator.BaseURL,
			generator.WithAPIKey(cfg.Generator.APIKey),
			generator.WithTimeout(cfg.Generator.Timeout))
		if err != nil {
			logger.Fatal().Err(err).Msg("api: некорректный адрес сервиса генерации")
		}
		return client
	}
	logger.Info().Msg("api: используется встроенный генератор")
	return generator.NewSimple()
}
