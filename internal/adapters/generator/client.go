package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// Client ходит во внешний сервис генерации контента по HTTP.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// New создаёт клиент генерации.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ domain.Generator = (*Client)(nil)

type generateRequest struct {
	CampaignID int64            `json:"campaign_id"`
	WeekStart  string           `json:"week_start"`
	Company    companyPayload   `json:"company"`
	Strategy   strategyPayload  `json:"strategy"`
	Keywords   []keywordPayload `json:"keywords"`
	Subreddits []string         `json:"subreddits"`
	Personas   []personaPayload `json:"personas"`
}

type companyPayload struct {
	Name        string `json:"name"`
	Site        string `json:"site"`
	Description string `json:"description"`
}

type strategyPayload struct {
	MaxPostsPerWeek    int  `json:"max_posts_per_week"`
	MaxCommentsPerPost int  `json:"max_comments_per_post"`
	CompanyMentionRate int  `json:"company_mention_rate"`
	MentionInPosts     bool `json:"mention_in_posts"`
	MentionInComments  bool `json:"mention_in_comments"`
}

type keywordPayload struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

type personaPayload struct {
	Username  string `json:"username"`
	Backstory string `json:"backstory"`
	ToneStyle string `json:"tone_style"`
}

type generateResponse struct {
	Posts []postPayload `json:"posts"`
}

type postPayload struct {
	Subreddit      string           `json:"subreddit"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	AuthorUsername string           `json:"author_username"`
	KeywordIDs     []string         `json:"keyword_ids"`
	ScheduledAt    time.Time        `json:"scheduled_at"`
	Comments       []commentPayload `json:"comments"`
}

type commentPayload struct {
	Content        string    `json:"content"`
	AuthorUsername string    `json:"author_username"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	// ParentOrdinal — номер (с единицы) более раннего комментария того же поста.
	ParentOrdinal *int64 `json:"parent_ordinal,omitempty"`
}

// GenerateWeek запрашивает недельное расписание у внешнего сервиса.
func (c *Client) GenerateWeek(ctx context.Context, campaign domain.Campaign, weekStart time.Time) ([]domain.Post, error) {
	req := generateRequest{
		CampaignID: campaign.ID,
		WeekStart:  weekStart.Format(domain.DateLayout),
		Company: companyPayload{
			Name:        campaign.Company.Name,
			Site:        campaign.Company.Site,
			Description: campaign.Company.Description,
		},
		Strategy: strategyPayload{
			MaxPostsPerWeek:    campaign.Strategy.MaxPostsPerWeek,
			MaxCommentsPerPost: campaign.Strategy.MaxCommentsPerPost,
			CompanyMentionRate: campaign.Strategy.CompanyMentionRate,
			MentionInPosts:     campaign.Strategy.MentionInPosts,
			MentionInComments:  campaign.Strategy.MentionInComments,
		},
		Subreddits: campaign.Subreddits,
	}
	for _, k := range campaign.Keywords {
		req.Keywords = append(req.Keywords, keywordPayload{ID: k.ID, Keyword: k.Keyword})
	}
	for _, persona := range campaign.Personas {
		req.Personas = append(req.Personas, personaPayload{Username: persona.Username, Backstory: persona.Backstory, ToneStyle: persona.ToneStyle})
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/v1/generate", req, &resp); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(resp.Posts))
	for _, raw := range resp.Posts {
		post := domain.Post{
			CampaignID:     campaign.ID,
			Subreddit:      raw.Subreddit,
			Title:          raw.Title,
			Body:           raw.Body,
			AuthorUsername: raw.AuthorUsername,
			KeywordIDs:     raw.KeywordIDs,
			ScheduledAt:    raw.ScheduledAt,
			Status:         domain.ContentStatusPending,
		}
		for _, rawComment := range raw.Comments {
			post.Comments = append(post.Comments, domain.Comment{
				ParentCommentID: rawComment.ParentOrdinal,
				Content:         rawComment.Content,
				AuthorUsername:  rawComment.AuthorUsername,
				ScheduledAt:     rawComment.ScheduledAt,
				Status:          domain.ContentStatusPending,
			})
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("generator", strings.ToLower(req.Method), req.URL.Path, start, err)
	if err != nil {
		return fmt.Errorf("generator api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		if apiErr.Code != "" {
			return fmt.Errorf("generator api error [%s]: %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("generator api error: status=%d message=%s", resp.StatusCode, apiErr.Error)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
