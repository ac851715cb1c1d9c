package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CampaignRepo управляет кампаниями.
type CampaignRepo interface {
	CreateCampaign(ctx context.Context, campaign Campaign) (Campaign, error)
	GetCampaign(ctx context.Context, id int64) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]CampaignSummary, error)
	UpdateCampaignStatus(ctx context.Context, id int64, status CampaignStatus) error
	GetAdvancedSettings(ctx context.Context, campaignID int64) (json.RawMessage, error)
	UpdateAdvancedSettings(ctx context.Context, campaignID int64, settings json.RawMessage) error
	// ListActiveCampaigns возвращает кампании, участвующие в плановой генерации.
	ListActiveCampaigns(ctx context.Context) ([]Campaign, error)
	// AcquireGeneration помечает генерацию недели за кампанией и возвращает true,
	// если запись была создана. При конфликте возвращает false без ошибки.
	AcquireGeneration(ctx context.Context, campaignID int64, weekStart time.Time) (bool, error)
}

// PostRepo управляет сгенерированными постами и комментариями.
type PostRepo interface {
	SavePosts(ctx context.Context, campaignID int64, posts []Post) (postsCreated, commentsCreated int, err error)
	ListCampaignPosts(ctx context.Context, campaignID int64) ([]Post, error)
	// LastScheduledAt возвращает время последнего запланированного поста кампании
	// или нулевое время, если постов ещё нет.
	LastScheduledAt(ctx context.Context, campaignID int64) (time.Time, error)
	ListReviewQueue(ctx context.Context, campaignID int64) ([]ReviewItem, error)
	SetPostStatus(ctx context.Context, postID int64, status ContentStatus, notes string) error
	SetCommentStatus(ctx context.Context, commentID int64, status ContentStatus, notes string) error
}

// MasterRepo управляет мастер-справочниками таргетинга.
type MasterRepo interface {
	ListKeywords(ctx context.Context) ([]MasterKeyword, error)
	CreateKeyword(ctx context.Context, keyword, description string) (MasterKeyword, error)
	UpdateKeyword(ctx context.Context, id int64, keyword, description *string, isActive *bool) (MasterKeyword, error)
	DeleteKeyword(ctx context.Context, id int64) error

	ListSubreddits(ctx context.Context) ([]MasterSubreddit, error)
	CreateSubreddit(ctx context.Context, name, description string) (MasterSubreddit, error)
	UpdateSubreddit(ctx context.Context, id int64, name, description *string, isActive *bool) (MasterSubreddit, error)
	DeleteSubreddit(ctx context.Context, id int64) error

	ListPersonas(ctx context.Context) ([]MasterPersona, error)
	CreatePersona(ctx context.Context, username, backstory, toneStyle string) (MasterPersona, error)
	UpdatePersona(ctx context.Context, id int64, username, backstory, toneStyle *string, isActive *bool) (MasterPersona, error)
	DeletePersona(ctx context.Context, id int64) error
}

// Generator строит недельное расписание постов и комментариев для кампании.
// Возвращаемые посты ещё не сохранены и не имеют идентификаторов.
type Generator interface {
	GenerateWeek(ctx context.Context, campaign Campaign, weekStart time.Time) ([]Post, error)
}

// Notifier уведомляет оператора о результатах фоновой генерации.
type Notifier interface {
	NotifyGeneration(ctx context.Context, campaign Campaign, result GenerateResult, genErr error) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Del(key string) error
}
