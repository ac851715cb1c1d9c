package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// TelegramNotifier отправляет оператору отчёты о фоновой генерации.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegram создаёт нотификатор.
func NewTelegram(bot *tgbotapi.BotAPI, chatID int64, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}
}

var _ domain.Notifier = (*TelegramNotifier)(nil)

// NotifyGeneration отправляет итог генерации недельного расписания.
func (n *TelegramNotifier) NotifyGeneration(ctx context.Context, campaign domain.Campaign, result domain.GenerateResult, genErr error) error {
	var text string
	if genErr != nil {
		text = fmt.Sprintf("⚠️ Генерация для кампании «%s» (id=%d) завершилась ошибкой:\n%v", campaign.Name, campaign.ID, genErr)
	} else {
		text = fmt.Sprintf("✅ Кампания «%s» (id=%d): запланировано постов — %d, комментариев — %d.",
			campaign.Name, campaign.ID, result.PostsCreated, result.CommentsCreated)
	}

	for _, part := range SplitMessage(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.chatID, part)
		start := time.Now()
		_, err := n.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram", "send_message", "operator", start, err)
		if err != nil {
			metrics.IncNotifyError()
			n.log.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("не удалось отправить уведомление оператору")
			return fmt.Errorf("отправка уведомления: %w", err)
		}
	}
	return nil
}
