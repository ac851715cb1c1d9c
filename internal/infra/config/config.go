package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"America/New_York"`
	Port   int    `envconfig:"PORT" default:"8080"`

	APIToken string `envconfig:"API_TOKEN"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Generator struct {
		Mode    string        `envconfig:"GENERATOR_MODE" default:"remote"`
		BaseURL string        `envconfig:"GENERATOR_BASE_URL"`
		APIKey  string        `envconfig:"GENERATOR_API_KEY"`
		Timeout time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"120s"`
	} `envconfig:""`

	Telegram struct {
		Token          string `envconfig:"TG_BOT_TOKEN"`
		OperatorChatID int64  `envconfig:"TG_OPERATOR_CHAT_ID"`
	} `envconfig:""`

	Wizard struct {
		SessionTTL time.Duration `envconfig:"WIZARD_SESSION_TTL" default:"30m"`
	} `envconfig:""`

	Queues struct {
		Generate string `envconfig:"GENERATE_QUEUE_KEY" default:"generate_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
