package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/adapters/repo"
	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/config"
	"reddit-growth-bot/internal/infra/db"
	logpkg "reddit-growth-bot/internal/infra/log"
	"reddit-growth-bot/internal/infra/metrics"
	"reddit-growth-bot/internal/infra/queue"
	"reddit-growth-bot/internal/usecase/calendar"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Warn().Err(err).Str("tz", cfg.TZ).Msg("scheduler: неизвестный часовой пояс, используем UTC")
		loc = time.UTC
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	jobs := buildQueue(cfg, logger)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	logger.Info().Msg("scheduler: старт")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановка")
			return
		case <-ticker.C:
			tick(ctx, logger, repoAdapter, jobs, loc)
		}
	}
}

// tick ставит задачи генерации на текущую неделю каждой активной кампании.
// Захват недели идемпотентен, поэтому повторные тики и параллельные
// экземпляры планировщика не создают дублей.
func tick(ctx context.Context, logger zerolog.Logger, campaigns domain.CampaignRepo, jobs domain.GenerateQueue, loc *time.Location) {
	now := time.Now().In(loc)
	active, err := campaigns.ListActiveCampaigns(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: выборка активных кампаний")
		return
	}
	for _, campaign := range active {
		weekStart := currentWeekStart(campaign.StartDate, now, loc)
		if campaign.StartDate != nil && now.Before(calendar.NormalizeDay(*campaign.StartDate, loc)) {
			continue
		}
		if campaign.EndDate != nil && weekStart.After(calendar.NormalizeDay(*campaign.EndDate, loc)) {
			continue
		}

		acquired, err := campaigns.AcquireGeneration(ctx, campaign.ID, weekStart)
		if err != nil {
			logger.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("scheduler: захват недели")
			continue
		}
		if !acquired {
			continue
		}

		job := domain.GenerateJob{
			ID:          uuid.NewString(),
			CampaignID:  campaign.ID,
			WeekStart:   weekStart,
			RequestedAt: now,
			Cause:       domain.GenerateCauseScheduled,
		}
		if err := jobs.Enqueue(ctx, job); err != nil {
			logger.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("scheduler: постановка задачи")
			continue
		}
		logger.Info().
			Int64("campaign_id", campaign.ID).
			Time("week_start", weekStart).
			Str("job_id", job.ID).
			Msg("scheduler: неделя поставлена в очередь")
	}
}

// currentWeekStart возвращает начало недельного окна, в которое попадает now.
// Окна отсчитываются от даты старта кампании семидневными шагами.
func currentWeekStart(startDate *time.Time, now time.Time, loc *time.Location) time.Time {
	weekStart := calendar.Anchor(startDate, now, loc)
	for {
		next := calendar.Navigate(weekStart, 1)
		if now.Before(next) {
			return weekStart
		}
		weekStart = next
	}
}

func buildQueue(cfg config.AppConfig, logger zerolog.Logger) domain.GenerateQueue {
	if cfg.AMQPURL != "" {
		q, err := queue.NewRabbitGenerateQueue(cfg.AMQPURL, cfg.Queues.Generate)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: нет подключения к RabbitMQ")
		}
		return q
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return queue.NewRedisGenerateQueue(client, cfg.Queues.Generate)
	}
	logger.Fatal().Msg("scheduler: не задан ни AMQP_URL, ни REDIS_ADDR")
	return nil
}
