package domain

import "time"

// CampaignStatus описывает жизненный цикл кампании.
type CampaignStatus string

const (
	// CampaignStatusActive — кампания запущена и участвует в генерации.
	CampaignStatusActive CampaignStatus = "active"
	// CampaignStatusPaused — кампания приостановлена оператором.
	CampaignStatusPaused CampaignStatus = "paused"
)

// ContentStatus описывает состояние сгенерированного поста или комментария.
type ContentStatus string

const (
	ContentStatusPending  ContentStatus = "pending"
	ContentStatusApproved ContentStatus = "approved"
	ContentStatusRejected ContentStatus = "rejected"
)

// CompanyInfo содержит сведения о компании, от имени которой ведётся кампания.
type CompanyInfo struct {
	Name        string
	Site        string
	Description string
}

// StrategyParams задаёт объёмы публикаций и частоту упоминаний компании.
type StrategyParams struct {
	MaxPostsPerWeek    int
	MaxCommentsPerPost int
	CompanyMentionRate int
	MentionInPosts     bool
	MentionInComments  bool
}

// CampaignKeyword — ключевой запрос, зафиксированный в кампании.
type CampaignKeyword struct {
	ID      string
	Keyword string
}

// CampaignPersona — копия мастер-персоны на момент запуска кампании.
// Дальнейшие правки мастер-персоны на запущенную кампанию не влияют.
type CampaignPersona struct {
	Username  string
	Backstory string
	ToneStyle string
}

// Campaign представляет запущенную кампанию.
type Campaign struct {
	ID         int64
	Name       string
	Status     CampaignStatus
	Company    CompanyInfo
	Keywords   []CampaignKeyword
	Subreddits []string
	Personas   []CampaignPersona
	Strategy   StrategyParams
	StartDate  *time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CampaignSummary — строка списка кампаний.
type CampaignSummary struct {
	ID        int64
	Name      string
	Status    CampaignStatus
	CreatedAt time.Time
}

// MasterKeyword — элемент мастер-справочника ключевых запросов.
type MasterKeyword struct {
	ID          int64
	Keyword     string
	Description string
	IsActive    bool
}

// MasterSubreddit — элемент мастер-справочника сабреддитов.
type MasterSubreddit struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
}

// MasterPersona — элемент мастер-справочника персон.
type MasterPersona struct {
	ID        int64
	Username  string
	Backstory string
	ToneStyle string
	IsActive  bool
}

// DefaultToneStyle подставляется, если у персоны не задан стиль.
const DefaultToneStyle = "Professional"

// Post — запланированный пост кампании.
type Post struct {
	ID             int64
	CampaignID     int64
	Subreddit      string
	Title          string
	Body           string
	AuthorUsername string
	KeywordIDs     []string
	ScheduledAt    time.Time
	Status         ContentStatus
	Comments       []Comment
	CreatedAt      time.Time
}

// Comment — запланированный комментарий к посту.
type Comment struct {
	ID              int64
	PostID          int64
	ParentCommentID *int64
	Content         string
	AuthorUsername  string
	ScheduledAt     time.Time
	Status          ContentStatus
	CreatedAt       time.Time
}

// GenerateResult — итог генерации недельного расписания.
type GenerateResult struct {
	PostsCreated    int `json:"posts_created"`
	CommentsCreated int `json:"comments_created"`
}

// ReviewItemKind различает посты и комментарии в очереди модерации.
type ReviewItemKind string

const (
	ReviewItemPost    ReviewItemKind = "post"
	ReviewItemComment ReviewItemKind = "comment"
)

// ReviewItem — элемент очереди модерации сгенерированного контента.
type ReviewItem struct {
	ID             int64
	Kind           ReviewItemKind
	PostID         int64
	Subreddit      string
	Title          string
	Content        string
	AuthorUsername string
	ScheduledAt    time.Time
	Status         ContentStatus
	Notes          string
}
