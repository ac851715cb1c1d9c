package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/adapters/generator"
	"reddit-growth-bot/internal/adapters/notify"
	"reddit-growth-bot/internal/adapters/repo"
	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/config"
	"reddit-growth-bot/internal/infra/db"
	logpkg "reddit-growth-bot/internal/infra/log"
	"reddit-growth-bot/internal/infra/metrics"
	"reddit-growth-bot/internal/infra/queue"
	"reddit-growth-bot/internal/usecase/campaigns"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Warn().Err(err).Str("tz", cfg.TZ).Msg("worker: неизвестный часовой пояс, используем UTC")
		loc = time.UTC
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	jobs := buildQueue(cfg, logger)
	notifier := buildNotifier(cfg, logger)
	gen := buildGenerator(cfg, logger)
	service := campaigns.NewService(repoAdapter, repoAdapter, gen, logger.With().Str("component", "campaigns").Logger(), loc)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	logger.Info().Msg("worker: старт")

	for {
		job, ack, err := jobs.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error().Err(err).Msg("worker: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}

		campaign, err := repoAdapter.GetCampaign(ctx, job.CampaignID)
		if errors.Is(err, domain.ErrCampaignNotFound) {
			// Кампания удалена после постановки задачи: подтверждаем без повтора.
			logger.Warn().Int64("campaign_id", job.CampaignID).Msg("worker: кампания задачи не найдена")
			_ = ack(true)
			continue
		}
		if err != nil {
			logger.Error().Err(err).Int64("campaign_id", job.CampaignID).Msg("worker: получение кампании")
			_ = ack(false)
			continue
		}

		result, genErr := service.Generate(ctx, job.CampaignID)
		if genErr != nil {
			logger.Error().Err(genErr).
				Int64("campaign_id", job.CampaignID).
				Str("cause", string(job.Cause)).
				Msg("worker: генерация не удалась")
		} else {
			logger.Info().
				Int64("campaign_id", job.CampaignID).
				Int("posts", result.PostsCreated).
				Int("comments", result.CommentsCreated).
				Msg("worker: расписание сгенерировано")
		}

		if notifier != nil {
			if err := notifier.NotifyGeneration(ctx, campaign, result, genErr); err != nil {
				logger.Error().Err(err).Int64("campaign_id", job.CampaignID).Msg("worker: уведомление не отправлено")
			}
		}

		if err := ack(genErr == nil); err != nil {
			logger.Error().Err(err).Int64("campaign_id", job.CampaignID).Msg("worker: подтверждение задачи")
		}
	}

	logger.Info().Msg("worker: остановка")
}

func buildQueue(cfg config.AppConfig, logger zerolog.Logger) domain.GenerateQueue {
	if cfg.AMQPURL != "" {
		q, err := queue.NewRabbitGenerateQueue(cfg.AMQPURL, cfg.Queues.Generate)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: нет подключения к RabbitMQ")
		}
		return q
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return queue.NewRedisGenerateQueue(client, cfg.Queues.Generate)
	}
	logger.Fatal().Msg("worker: не задан ни AMQP_URL, ни REDIS_ADDR")
	return nil
}

func buildNotifier(cfg config.AppConfig, logger zerolog.Logger) domain.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.OperatorChatID == 0 {
		logger.Info().Msg("worker: телеграм-уведомления отключены")
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: нет подключения к Telegram")
	}
	return notify.NewTelegram(bot, cfg.Telegram.OperatorChatID, logger.With().Str("component", "notify").Logger())
}

func buildGenerator(cfg config.AppConfig, logger zerolog.Logger) domain.Generator {
	if cfg.Generator.Mode == "remote" && cfg.Generator.BaseURL != "" {
		client, err := generator.New(cfg.Generator.BaseURL,
			generator.WithAPIKey(cfg.Generator.APIKey),
			generator.WithTimeout(cfg.Generator.Timeout))
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: некорректный адрес сервиса генерации")
		}
		return client
	}
	logger.Info().Msg("worker: используется встроенный генератор")
	return generator.NewSimple()
}
