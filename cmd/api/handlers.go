package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
	httpinfra "reddit-growth-bot/internal/infra/http"
	"reddit-growth-bot/internal/usecase/campaigns"
	"reddit-growth-bot/internal/usecase/master"
	"reddit-growth-bot/internal/usecase/wizard"
)

type app struct {
	log       zerolog.Logger
	campaigns *campaigns.Service
	master    *master.Service
	registry  *wizard.Registry
}

func (a *app) routes(r chi.Router, apiToken string) {
	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.BearerAuthMiddleware(apiToken))

		protected.Route("/api/v1/campaigns", func(r chi.Router) {
			r.Get("/", a.listCampaigns)
			r.Post("/", a.createCampaign)
			r.Get("/{id}", a.getCampaign)
			r.Post("/{id}/generate", a.generateWeek)
			r.Post("/{id}/pause", a.pauseCampaign)
			r.Post("/{id}/resume", a.resumeCampaign)
			r.Get("/{id}/calendar", a.calendarWeek)
			r.Get("/{id}/advanced-settings", a.getAdvancedSettings)
			r.Put("/{id}/advanced-settings", a.putAdvancedSettings)
			r.Get("/{id}/review-queue", a.reviewQueue)
			r.Post("/{id}/review/{itemID}", a.review)
		})

		protected.Route("/api/v1/master", func(r chi.Router) {
			r.Get("/keywords", a.listMasterKeywords)
			r.Post("/keywords", a.createMasterKeyword)
			r.Put("/keywords/{id}", a.updateMasterKeyword)
			r.Delete("/keywords/{id}", a.deleteMasterKeyword)

			r.Get("/subreddits", a.listMasterSubreddits)
			r.Post("/subreddits", a.createMasterSubreddit)
			r.Put("/subreddits/{id}", a.updateMasterSubreddit)
			r.Delete("/subreddits/{id}", a.deleteMasterSubreddit)

			r.Get("/personas", a.listMasterPersonas)
			r.Post("/personas", a.createMasterPersona)
			r.Put("/personas/{id}", a.updateMasterPersona)
			r.Delete("/personas/{id}", a.deleteMasterPersona)
		})

		protected.Route("/api/v1/wizard", func(r chi.Router) {
			r.Post("/", a.wizardCreate)
			r.Get("/{sid}", a.wizardState)
			r.Delete("/{sid}", a.wizardDelete)
			r.Patch("/{sid}/draft", a.wizardPatchDraft)
			r.Get("/{sid}/suggestions", a.wizardSuggestions)
			r.Post("/{sid}/advance", a.wizardAdvance)
			r.Post("/{sid}/retreat", a.wizardRetreat)
			r.Post("/{sid}/submit", a.wizardSubmit)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, httpinfra.ErrorResponse{Error: msg})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

type campaignSummaryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type companyResponse struct {
	Name        string `json:"name"`
	Site        string `json:"site"`
	Description string `json:"description"`
}

type strategyResponse struct {
	MaxPostsPerWeek    int  `json:"max_posts_per_week"`
	MaxCommentsPerPost int  `json:"max_comments_per_post"`
	CompanyMentionRate int  `json:"company_mention_rate"`
	MentionInPosts     bool `json:"mention_in_posts"`
	MentionInComments  bool `json:"mention_in_comments"`
}

type keywordResponse struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

type personaResponse struct {
	Username  string `json:"username"`
	Backstory string `json:"backstory"`
	ToneStyle string `json:"tone_style"`
}

type commentResponse struct {
	ID              int64     `json:"id"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty"`
	Content         string    `json:"content"`
	AuthorUsername  string    `json:"author_username"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	Status          string    `json:"status"`
}

type postResponse struct {
	ID             int64             `json:"id"`
	Subreddit      string            `json:"subreddit"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	AuthorUsername string            `json:"author_username"`
	KeywordIDs     []string          `json:"keyword_ids"`
	ScheduledAt    time.Time         `json:"scheduled_at"`
	Status         string            `json:"status"`
	Comments       []commentResponse `json:"comments"`
}

type campaignResponse struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Company    companyResponse   `json:"company"`
	Keywords   []keywordResponse `json:"keywords"`
	Subreddits []string          `json:"subreddits"`
	Personas   []personaResponse `json:"personas"`
	Strategy   strategyResponse  `json:"strategy"`
	StartDate  *string           `json:"start_date"`
	EndDate    *string           `json:"end_date"`
	CreatedAt  time.Time         `json:"created_at"`
	Posts      []postResponse    `json:"posts,omitempty"`
}

func renderCampaign(c domain.Campaign, posts []domain.Post) campaignResponse {
	resp := campaignResponse{
		ID:     c.ID,
		Name:   c.Name,
		Status: string(c.Status),
		Company: companyResponse{
			Name:        c.Company.Name,
			Site:        c.Company.Site,
			Description: c.Company.Description,
		},
		Subreddits: c.Subreddits,
		Strategy: strategyResponse{
			MaxPostsPerWeek:    c.Strategy.MaxPostsPerWeek,
			MaxCommentsPerPost: c.Strategy.MaxCommentsPerPost,
			CompanyMentionRate: c.Strategy.CompanyMentionRate,
			MentionInPosts:     c.Strategy.MentionInPosts,
			MentionInComments:  c.Strategy.MentionInComments,
		},
		CreatedAt: c.CreatedAt,
	}
	for _, k := range c.Keywords {
		resp.Keywords = append(resp.Keywords, keywordResponse{ID: k.ID, Keyword: k.Keyword})
	}
	for _, p := range c.Personas {
		resp.Personas = append(resp.Personas, personaResponse{Username: p.Username, Backstory: p.Backstory, ToneStyle: p.ToneStyle})
	}
	if c.StartDate != nil {
		formatted := c.StartDate.Format(domain.DateLayout)
		resp.StartDate = &formatted
	}
	if c.EndDate != nil {
		formatted := c.EndDate.Format(domain.DateLayout)
		resp.EndDate = &formatted
	}
	for _, post := range posts {
		rendered := postResponse{
			ID:             post.ID,
			Subreddit:      post.Subreddit,
			Title:          post.Title,
			Body:           post.Body,
			AuthorUsername: post.AuthorUsername,
			KeywordIDs:     post.KeywordIDs,
			ScheduledAt:    post.ScheduledAt,
			Status:         string(post.Status),
		}
		for _, comment := range post.Comments {
			rendered.Comments = append(rendered.Comments, commentResponse{
				ID:              comment.ID,
				ParentCommentID: comment.ParentCommentID,
				Content:         comment.Content,
				AuthorUsername:  comment.AuthorUsername,
				ScheduledAt:     comment.ScheduledAt,
				Status:          string(comment.Status),
			})
		}
		resp.Posts = append(resp.Posts, rendered)
	}
	return resp
}

func (a *app) listCampaigns(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.campaigns.List(r.Context())
	if err != nil {
		a.log.Error().Err(err).Msg("api: список кампаний")
		writeError(w, http.StatusInternalServerError, "не удалось получить список кампаний")
		return
	}
	out := make([]campaignSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, campaignSummaryResponse{ID: s.ID, Name: s.Name, Status: string(s.Status), CreatedAt: s.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *app) createCampaign(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload domain.CampaignCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	created, err := a.campaigns.Create(r.Context(), payload)
	if err != nil {
		if isPayloadError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Error().Err(err).Msg("api: создание кампании")
		writeError(w, http.StatusInternalServerError, "не удалось создать кампанию")
		return
	}
	writeJSON(w, http.StatusCreated, renderCampaign(created, nil))
}

func isPayloadError(err error) bool {
	return errors.Is(err, domain.ErrPayloadCampaignName) ||
		errors.Is(err, domain.ErrPayloadCompany) ||
		errors.Is(err, domain.ErrPayloadTargeting) ||
		errors.Is(err, domain.ErrPayloadPersonas) ||
		errors.Is(err, domain.ErrPayloadStrategy) ||
		errors.Is(err, domain.ErrPayloadDate) ||
		errors.Is(err, wizard.ErrBadDate)
}

func (a *app) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	detail, err := a.campaigns.Get(r.Context(), id)
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: получение кампании")
		writeError(w, http.StatusInternalServerError, "не удалось получить кампанию")
		return
	}
	writeJSON(w, http.StatusOK, renderCampaign(detail.Campaign, detail.Posts))
}

func (a *app) generateWeek(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	result, err := a.campaigns.Generate(r.Context(), id)
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: генерация недели")
		writeError(w, http.StatusBadGateway, "не удалось сгенерировать расписание")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *app) pauseCampaign(w http.ResponseWriter, r *http.Request) {
	a.updateStatus(w, r, a.campaigns.Pause)
}

func (a *app) resumeCampaign(w http.ResponseWriter, r *http.Request) {
	a.updateStatus(w, r, a.campaigns.Resume)
}

func (a *app) updateStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64) error) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	err := apply(r.Context(), id)
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: смена статуса")
		writeError(w, http.StatusInternalServerError, "не удалось изменить статус")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) calendarWeek(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	var weekStart time.Time
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		parsed, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "week_start должен быть в формате YYYY-MM-DD")
			return
		}
		weekStart = parsed
	}
	buckets, anchored, err := a.campaigns.Calendar(r.Context(), id, weekStart)
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: календарь")
		writeError(w, http.StatusInternalServerError, "не удалось построить календарь")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"week_start": anchored.Format(domain.DateLayout),
		"days":       buckets,
	})
}

func (a *app) getAdvancedSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	settings, err := a.campaigns.AdvancedSettings(r.Context(), id)
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: чтение настроек")
		writeError(w, http.StatusInternalServerError, "не удалось получить настройки")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(settings)
}

func (a *app) putAdvancedSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "не удалось прочитать тело запроса")
		return
	}
	err = a.campaigns.UpdateAdvancedSettings(r.Context(), id, body)
	if errors.Is(err, campaigns.ErrBadSettingsJSON) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, domain.ErrCampaignNotFound) {
		writeError(w, http.StatusNotFound, "кампания не найдена")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: сохранение настроек")
		writeError(w, http.StatusInternalServerError, "не удалось сохранить настройки")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reviewItemResponse struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	PostID         int64     `json:"post_id"`
	Subreddit      string    `json:"subreddit"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	AuthorUsername string    `json:"author_username"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
}

func (a *app) reviewQueue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор кампании")
		return
	}
	items, err := a.campaigns.ReviewQueue(r.Context(), id)
	if err != nil {
		a.log.Error().Err(err).Int64("campaign_id", id).Msg("api: очередь модерации")
		writeError(w, http.StatusInternalServerError, "не удалось получить очередь модерации")
		return
	}
	out := make([]reviewItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, reviewItemResponse{
			ID:             item.ID,
			Kind:           string(item.Kind),
			PostID:         item.PostID,
			Subreddit:      item.Subreddit,
			Title:          item.Title,
			Content:        item.Content,
			AuthorUsername: item.AuthorUsername,
			ScheduledAt:    item.ScheduledAt,
			Status:         string(item.Status),
			Notes:          item.Notes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type reviewRequest struct {
	Kind   string `json:"kind"`
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

func (a *app) review(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор элемента")
		return
	}
	defer r.Body.Close()
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	err := a.campaigns.Review(r.Context(), itemID, domain.ReviewItemKind(req.Kind), req.Action, req.Notes)
	switch {
	case errors.Is(err, campaigns.ErrBadReviewAction), errors.Is(err, campaigns.ErrReviewItemMissing):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		a.log.Error().Err(err).Int64("item_id", itemID).Msg("api: модерация")
		writeError(w, http.StatusInternalServerError, "не удалось применить решение")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
