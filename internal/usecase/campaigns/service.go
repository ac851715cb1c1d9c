package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
	"reddit-growth-bot/internal/usecase/calendar"
)

// Ошибки сервиса кампаний.
var (
	ErrBadReviewAction   = errors.New("действие модерации должно быть approve или reject")
	ErrBadSettingsJSON   = errors.New("advanced settings должны быть корректным JSON")
	ErrReviewItemMissing = errors.New("элемент очереди модерации не найден")
)

// Detail — кампания вместе с её расписанием.
type Detail struct {
	Campaign domain.Campaign
	Posts    []domain.Post
}

// Service реализует бизнес-логику кампаний: создание, генерацию расписаний,
// календарь и модерацию контента.
type Service struct {
	campaigns domain.CampaignRepo
	posts     domain.PostRepo
	generator domain.Generator
	log       zerolog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewService создаёт сервис кампаний.
func NewService(campaigns domain.CampaignRepo, posts domain.PostRepo, generator domain.Generator, log zerolog.Logger, loc *time.Location) *Service {
	return &Service{
		campaigns: campaigns,
		posts:     posts,
		generator: generator,
		log:       log,
		loc:       loc,
		now:       time.Now,
	}
}

// List возвращает список кампаний.
func (s *Service) List(ctx context.Context) ([]domain.CampaignSummary, error) {
	return s.campaigns.ListCampaigns(ctx)
}

// Get возвращает кампанию вместе с постами и комментариями.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("получение кампании: %w", err)
	}
	posts, err := s.posts.ListCampaignPosts(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("получение постов: %w", err)
	}
	return Detail{Campaign: campaign, Posts: posts}, nil
}

// Create проверяет нагрузку и создаёт кампанию. Персоны фиксируются копией:
// последующие правки мастер-справочника на кампанию не влияют.
func (s *Service) Create(ctx context.Context, payload domain.CampaignCreatePayload) (domain.Campaign, error) {
	if err := payload.Validate(); err != nil {
		return domain.Campaign{}, err
	}

	personas := make([]domain.CampaignPersona, 0, len(payload.Personas))
	for _, p := range payload.Personas {
		tone := p.ToneStyle
		if tone == "" {
			tone = domain.DefaultToneStyle
		}
		personas = append(personas, domain.CampaignPersona{
			Username:  p.Username,
			Backstory: p.Backstory,
			ToneStyle: tone,
		})
	}

	keywords := make([]domain.CampaignKeyword, 0, len(payload.Keywords))
	for _, k := range payload.Keywords {
		keywords = append(keywords, domain.CampaignKeyword{ID: k.ID, Keyword: k.Keyword})
	}

	start, end := payload.Dates()
	campaign := domain.Campaign{
		Name:   payload.CampaignName,
		Status: domain.CampaignStatusActive,
		Company: domain.CompanyInfo{
			Name:        payload.CompanyName,
			Site:        payload.CompanySite,
			Description: payload.CompanyDescription,
		},
		Keywords:   keywords,
		Subreddits: payload.Subreddits,
		Personas:   personas,
		Strategy: domain.StrategyParams{
			MaxPostsPerWeek:    payload.MaxPostsPerWeek,
			MaxCommentsPerPost: payload.MaxCommentsPerPost,
			CompanyMentionRate: payload.CompanyMentionRate,
			MentionInPosts:     payload.MentionInPosts,
			MentionInComments:  payload.MentionInComments,
		},
		StartDate: start,
		EndDate:   end,
	}

	created, err := s.campaigns.CreateCampaign(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("сохранение кампании: %w", err)
	}
	metrics.IncCampaignCreated()
	s.log.Info().Int64("campaign_id", created.ID).Str("name", created.Name).Msg("campaigns: кампания создана")
	return created, nil
}

// Generate строит очередную неделю расписания через внешний генератор
// и сохраняет результат.
func (s *Service) Generate(ctx context.Context, campaignID int64) (domain.GenerateResult, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("получение кампании: %w", err)
	}

	weekStart, err := s.NextWeekStart(ctx, campaign)
	if err != nil {
		return domain.GenerateResult{}, err
	}

	start := s.now()
	generated, err := s.generator.GenerateWeek(ctx, campaign, weekStart)
	metrics.ObserveGenerate(start, err)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("генерация недели: %w", err)
	}

	postsCreated, commentsCreated, err := s.posts.SavePosts(ctx, campaignID, generated)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("сохранение постов: %w", err)
	}
	metrics.AddGeneratedContent(postsCreated, commentsCreated)
	s.log.Info().
		Int64("campaign_id", campaignID).
		Time("week_start", weekStart).
		Int("posts", postsCreated).
		Int("comments", commentsCreated).
		Msg("campaigns: неделя сгенерирована")
	return domain.GenerateResult{PostsCreated: postsCreated, CommentsCreated: commentsCreated}, nil
}

// NextWeekStart выбирает понедельник генерации: день после последнего
// запланированного поста либо дата старта кампании, если постов ещё нет.
func (s *Service) NextWeekStart(ctx context.Context, campaign domain.Campaign) (time.Time, error) {
	last, err := s.posts.LastScheduledAt(ctx, campaign.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("последний пост кампании: %w", err)
	}
	if last.IsZero() {
		return calendar.Anchor(campaign.StartDate, s.now(), s.loc), nil
	}
	return calendar.NormalizeDay(last, s.loc).AddDate(0, 0, 1), nil
}

// Pause приостанавливает кампанию.
func (s *Service) Pause(ctx context.Context, id int64) error {
	if err := s.campaigns.UpdateCampaignStatus(ctx, id, domain.CampaignStatusPaused); err != nil {
		return fmt.Errorf("приостановка кампании: %w", err)
	}
	return nil
}

// Resume возобновляет кампанию.
func (s *Service) Resume(ctx context.Context, id int64) error {
	if err := s.campaigns.UpdateCampaignStatus(ctx, id, domain.CampaignStatusActive); err != nil {
		return fmt.Errorf("возобновление кампании: %w", err)
	}
	return nil
}

// Calendar возвращает семь дневных корзин, начиная с weekStart.
// Нулевой weekStart означает якорь по дате старта кампании.
func (s *Service) Calendar(ctx context.Context, campaignID int64, weekStart time.Time) ([]calendar.DayBucket, time.Time, error) {
	detail, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if weekStart.IsZero() {
		weekStart = calendar.Anchor(detail.Campaign.StartDate, s.now(), s.loc)
	} else {
		weekStart = calendar.NormalizeDay(weekStart, s.loc)
	}
	return calendar.Bucket(detail.Posts, weekStart), weekStart, nil
}

// AdvancedSettings возвращает непрозрачные настройки кампании как есть.
func (s *Service) AdvancedSettings(ctx context.Context, campaignID int64) (json.RawMessage, error) {
	return s.campaigns.GetAdvancedSettings(ctx, campaignID)
}

// UpdateAdvancedSettings сохраняет настройки без интерпретации содержимого.
func (s *Service) UpdateAdvancedSettings(ctx context.Context, campaignID int64, settings json.RawMessage) error {
	if !json.Valid(settings) {
		return ErrBadSettingsJSON
	}
	return s.campaigns.UpdateAdvancedSettings(ctx, campaignID, settings)
}

// ReviewQueue возвращает контент кампании, ожидающий модерации.
func (s *Service) ReviewQueue(ctx context.Context, campaignID int64) ([]domain.ReviewItem, error) {
	return s.posts.ListReviewQueue(ctx, campaignID)
}

// Review применяет решение модератора к посту или комментарию.
func (s *Service) Review(ctx context.Context, itemID int64, kind domain.ReviewItemKind, action, notes string) error {
	var status domain.ContentStatus
	switch action {
	case "approve":
		status = domain.ContentStatusApproved
	case "reject":
		status = domain.ContentStatusRejected
	default:
		return ErrBadReviewAction
	}
	switch kind {
	case domain.ReviewItemPost:
		return s.posts.SetPostStatus(ctx, itemID, status, notes)
	case domain.ReviewItemComment:
		return s.posts.SetCommentStatus(ctx, itemID, status, notes)
	default:
		return ErrReviewItemMissing
	}
}
