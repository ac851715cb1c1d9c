package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout — формат дат в нагрузках API.
const DateLayout = "2006-01-02"

// PayloadPersona — персона в нагрузке создания кампании.
type PayloadPersona struct {
	Username  string `json:"username"`
	Backstory string `json:"backstory"`
	ToneStyle string `json:"tone_style"`
}

// PayloadKeyword — ключевой запрос в нагрузке создания кампании.
type PayloadKeyword struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

// CampaignCreatePayload — явная схема нагрузки создания кампании.
// Поля проверяются на границе, произвольные объекты не принимаются.
type CampaignCreatePayload struct {
	CampaignName       string           `json:"campaign_name"`
	CompanyName        string           `json:"company_name"`
	CompanySite        string           `json:"company_site"`
	CompanyDescription string           `json:"company_description"`
	Personas           []PayloadPersona `json:"personas"`
	Subreddits         []string         `json:"subreddits"`
	Keywords           []PayloadKeyword `json:"keywords"`
	MaxPostsPerWeek    int              `json:"max_posts_per_week"`
	MaxCommentsPerPost int              `json:"max_comments_per_post"`
	CompanyMentionRate int              `json:"company_mention_rate"`
	MentionInPosts     bool             `json:"mention_in_posts"`
	MentionInComments  bool             `json:"mention_in_comments"`
	StartDate          *string          `json:"start_date"`
	EndDate            *string          `json:"end_date"`
}

// Ошибки валидации нагрузки создания кампании.
var (
	ErrPayloadCampaignName = errors.New("campaign_name обязателен")
	ErrPayloadCompany      = errors.New("company_name и company_description обязательны")
	ErrPayloadTargeting    = errors.New("нужен хотя бы один keyword и один subreddit")
	ErrPayloadPersonas     = errors.New("нужно минимум две персоны")
	ErrPayloadStrategy     = errors.New("параметры стратегии вне допустимых границ")
	ErrPayloadDate         = errors.New("даты должны быть в формате YYYY-MM-DD")
)

// ErrCampaignNotFound возвращается репозиторием, если кампании не существует.
var ErrCampaignNotFound = errors.New("кампания не найдена")

// Validate проверяет нагрузку до обращения к хранилищу.
func (p CampaignCreatePayload) Validate() error {
	if strings.TrimSpace(p.CampaignName) == "" {
		return ErrPayloadCampaignName
	}
	if strings.TrimSpace(p.CompanyName) == "" || strings.TrimSpace(p.CompanyDescription) == "" {
		return ErrPayloadCompany
	}
	if len(p.Keywords) == 0 || len(p.Subreddits) == 0 {
		return ErrPayloadTargeting
	}
	if len(p.Personas) < 2 {
		return ErrPayloadPersonas
	}
	if p.MaxPostsPerWeek < 1 || p.MaxPostsPerWeek > 15 {
		return ErrPayloadStrategy
	}
	if p.MaxCommentsPerPost < 0 || p.MaxCommentsPerPost > 20 {
		return ErrPayloadStrategy
	}
	if p.CompanyMentionRate < 0 || p.CompanyMentionRate > 100 {
		return ErrPayloadStrategy
	}
	if _, err := parseDatePtr(p.StartDate); err != nil {
		return fmt.Errorf("start_date: %w", ErrPayloadDate)
	}
	if _, err := parseDatePtr(p.EndDate); err != nil {
		return fmt.Errorf("end_date: %w", ErrPayloadDate)
	}
	return nil
}

// Dates возвращает разобранные даты начала и конца кампании.
// Validate должен быть вызван до обращения к Dates.
func (p CampaignCreatePayload) Dates() (start, end *time.Time) {
	start, _ = parseDatePtr(p.StartDate)
	end, _ = parseDatePtr(p.EndDate)
	return start, end
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
