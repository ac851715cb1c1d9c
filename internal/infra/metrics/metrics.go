package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CampaignsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campaigns_created_total",
		Help: "Количество созданных кампаний",
	})
	GenerateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generate_week_seconds",
		Help:    "Время генерации недельного расписания",
		Buckets: prometheus.DefBuckets,
	})
	GenerateErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generate_week_errors_total",
		Help: "Ошибки генерации недельного расписания",
	})
	PostsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_generated_total",
		Help: "Количество сгенерированных постов",
	})
	CommentsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comments_generated_total",
		Help: "Количество сгенерированных комментариев",
	})
	WizardSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wizard_sessions_active",
		Help: "Текущее количество активных сессий мастера",
	})
	WizardSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_submit_total",
		Help: "Запуски кампаний из мастера",
	}, []string{"status"})
	NotifyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_errors_total",
		Help: "Ошибки отправки уведомлений оператору",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CampaignsCreatedTotal,
		GenerateSeconds,
		GenerateErrors,
		PostsGeneratedTotal,
		CommentsGeneratedTotal,
		WizardSessionsActive,
		WizardSubmitTotal,
		NotifyErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncCampaignCreated увеличивает счётчик созданных кампаний.
func IncCampaignCreated() {
	CampaignsCreatedTotal.Inc()
}

// ObserveGenerate записывает длительность и статус генерации недели.
func ObserveGenerate(start time.Time, err error) {
	GenerateSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		GenerateErrors.Inc()
	}
}

// AddGeneratedContent увеличивает счётчики сгенерированного контента.
func AddGeneratedContent(posts, comments int) {
	if posts > 0 {
		PostsGeneratedTotal.Add(float64(posts))
	}
	if comments > 0 {
		CommentsGeneratedTotal.Add(float64(comments))
	}
}

// SetWizardSessions обновляет gauge активных сессий мастера.
func SetWizardSessions(count int) {
	WizardSessionsActive.Set(float64(count))
}

// IncWizardSubmit увеличивает счётчик запусков кампаний из мастера.
func IncWizardSubmit(status string) {
	WizardSubmitTotal.WithLabelValues(status).Inc()
}

// IncNotifyError увеличивает счётчик ошибок уведомлений.
func IncNotifyError() {
	NotifyErrors.Inc()
}
