package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.CampaignRepo = (*Postgres)(nil)
	_ domain.PostRepo     = (*Postgres)(nil)
	_ domain.MasterRepo   = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

type storedCompany struct {
	Name        string `json:"name"`
	Site        string `json:"site"`
	Description string `json:"description"`
}

type storedStrategy struct {
	MaxPostsPerWeek    int  `json:"max_posts_per_week"`
	MaxCommentsPerPost int  `json:"max_comments_per_post"`
	CompanyMentionRate int  `json:"company_mention_rate"`
	MentionInPosts     bool `json:"mention_in_posts"`
	MentionInComments  bool `json:"mention_in_comments"`
}

type storedKeyword struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

type storedPersona struct {
	Username  string `json:"username"`
	Backstory string `json:"backstory"`
	ToneStyle string `json:"tone_style"`
}

func marshalCampaignPayload(c domain.Campaign) (company, strategy, keywords, subreddits, personas []byte, err error) {
	company, err = json.Marshal(storedCompany{Name: c.Company.Name, Site: c.Company.Site, Description: c.Company.Description})
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("кодирование company: %w", err)
	}
	strategy, err = json.Marshal(storedStrategy{
		MaxPostsPerWeek:    c.Strategy.MaxPostsPerWeek,
		MaxCommentsPerPost: c.Strategy.MaxCommentsPerPost,
		CompanyMentionRate: c.Strategy.CompanyMentionRate,
		MentionInPosts:     c.Strategy.MentionInPosts,
		MentionInComments:  c.Strategy.MentionInComments,
	})
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("кодирование strategy: %w", err)
	}
	kw := make([]storedKeyword, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		kw = append(kw, storedKeyword{ID: k.ID, Keyword: k.Keyword})
	}
	keywords, err = json.Marshal(kw)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("кодирование keywords: %w", err)
	}
	subs := c.Subreddits
	if subs == nil {
		subs = []string{}
	}
	subreddits, err = json.Marshal(subs)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("кодирование subreddits: %w", err)
	}
	ps := make([]storedPersona, 0, len(c.Personas))
	for _, persona := range c.Personas {
		ps = append(ps, storedPersona{Username: persona.Username, Backstory: persona.Backstory, ToneStyle: persona.ToneStyle})
	}
	personas, err = json.Marshal(ps)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("кодирование personas: %w", err)
	}
	return company, strategy, keywords, subreddits, personas, nil
}

func unmarshalCampaignPayload(c *domain.Campaign, company, strategy, keywords, subreddits, personas []byte) error {
	var comp storedCompany
	if err := json.Unmarshal(company, &comp); err != nil {
		return fmt.Errorf("декодирование company: %w", err)
	}
	c.Company = domain.CompanyInfo{Name: comp.Name, Site: comp.Site, Description: comp.Description}

	var strat storedStrategy
	if err := json.Unmarshal(strategy, &strat); err != nil {
		return fmt.Errorf("декодирование strategy: %w", err)
	}
	c.Strategy = domain.StrategyParams{
		MaxPostsPerWeek:    strat.MaxPostsPerWeek,
		MaxCommentsPerPost: strat.MaxCommentsPerPost,
		CompanyMentionRate: strat.CompanyMentionRate,
		MentionInPosts:     strat.MentionInPosts,
		MentionInComments:  strat.MentionInComments,
	}

	var kw []storedKeyword
	if err := json.Unmarshal(keywords, &kw); err != nil {
		return fmt.Errorf("декодирование keywords: %w", err)
	}
	c.Keywords = make([]domain.CampaignKeyword, 0, len(kw))
	for _, k := range kw {
		c.Keywords = append(c.Keywords, domain.CampaignKeyword{ID: k.ID, Keyword: k.Keyword})
	}

	if err := json.Unmarshal(subreddits, &c.Subreddits); err != nil {
		return fmt.Errorf("декодирование subreddits: %w", err)
	}

	var ps []storedPersona
	if err := json.Unmarshal(personas, &ps); err != nil {
		return fmt.Errorf("декодирование personas: %w", err)
	}
	c.Personas = make([]domain.CampaignPersona, 0, len(ps))
	for _, persona := range ps {
		c.Personas = append(c.Personas, domain.CampaignPersona{Username: persona.Username, Backstory: persona.Backstory, ToneStyle: persona.ToneStyle})
	}
	return nil
}

// CreateCampaign сохраняет кампанию и возвращает её с идентификатором.
func (p *Postgres) CreateCampaign(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	company, strategy, keywords, subreddits, personas, err := marshalCampaignPayload(campaign)
	if err != nil {
		return domain.Campaign{}, err
	}

	var startDate, endDate any
	if campaign.StartDate != nil {
		startDate = *campaign.StartDate
	}
	if campaign.EndDate != nil {
		endDate = *campaign.EndDate
	}

	start := time.Now()
	err = p.pool.QueryRow(ctx, `
INSERT INTO campaigns (name, status, company, strategy, keywords, subreddits, personas, start_date, end_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at, updated_at
`, campaign.Name, campaign.Status, company, strategy, keywords, subreddits, personas, startDate, endDate).
		Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "campaigns_insert", "campaigns", start, err)
	if err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

// GetCampaign возвращает кампанию по идентификатору.
func (p *Postgres) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		campaign   domain.Campaign
		company    []byte
		strategy   []byte
		keywords   []byte
		subreddits []byte
		personas   []byte
		startDate  sql.NullTime
		endDate    sql.NullTime
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name, status, company, strategy, keywords, subreddits, personas, start_date, end_date, created_at, updated_at
FROM campaigns WHERE id=$1
`, id).Scan(&campaign.ID, &campaign.Name, &campaign.Status, &company, &strategy, &keywords, &subreddits, &personas, &startDate, &endDate, &campaign.CreatedAt, &campaign.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "campaigns_get", "campaigns", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Campaign{}, domain.ErrCampaignNotFound
	}
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := unmarshalCampaignPayload(&campaign, company, strategy, keywords, subreddits, personas); err != nil {
		return domain.Campaign{}, err
	}
	if startDate.Valid {
		ts := startDate.Time
		campaign.StartDate = &ts
	}
	if endDate.Valid {
		ts := endDate.Time
		campaign.EndDate = &ts
	}
	return campaign, nil
}

// ListCampaigns возвращает список кампаний без тяжёлых полей.
func (p *Postgres) ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, status, created_at
FROM campaigns
ORDER BY created_at DESC
`)
	metrics.ObserveNetworkRequest("postgres", "campaigns_list", "campaigns", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []domain.CampaignSummary
	for rows.Next() {
		var s domain.CampaignSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdateCampaignStatus переключает статус кампании.
func (p *Postgres) UpdateCampaignStatus(ctx context.Context, id int64, status domain.CampaignStatus) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE campaigns SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	metrics.ObserveNetworkRequest("postgres", "campaigns_update_status", "campaigns", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

// GetAdvancedSettings возвращает JSON расширенных настроек кампании.
func (p *Postgres) GetAdvancedSettings(ctx context.Context, campaignID int64) (json.RawMessage, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var settings []byte
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COALESCE(advanced_settings, '{}'::jsonb) FROM campaigns WHERE id=$1`, campaignID).Scan(&settings)
	metrics.ObserveNetworkRequest("postgres", "campaigns_get_settings", "campaigns", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateAdvancedSettings заменяет JSON расширенных настроек кампании.
func (p *Postgres) UpdateAdvancedSettings(ctx context.Context, campaignID int64, settings json.RawMessage) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE campaigns SET advanced_settings=$2, updated_at=now() WHERE id=$1`, campaignID, []byte(settings))
	metrics.ObserveNetworkRequest("postgres", "campaigns_update_settings", "campaigns", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

// ListActiveCampaigns возвращает кампании со статусом active.
func (p *Postgres) ListActiveCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, status, company, strategy, keywords, subreddits, personas, start_date, end_date, created_at, updated_at
FROM campaigns
WHERE status=$1
ORDER BY id
`, domain.CampaignStatusActive)
	metrics.ObserveNetworkRequest("postgres", "campaigns_list_active", "campaigns", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var campaigns []domain.Campaign
	for rows.Next() {
		var (
			campaign   domain.Campaign
			company    []byte
			strategy   []byte
			keywords   []byte
			subreddits []byte
			personas   []byte
			startDate  sql.NullTime
			endDate    sql.NullTime
		)
		if err := rows.Scan(&campaign.ID, &campaign.Name, &campaign.Status, &company, &strategy, &keywords, &subreddits, &personas, &startDate, &endDate, &campaign.CreatedAt, &campaign.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalCampaignPayload(&campaign, company, strategy, keywords, subreddits, personas); err != nil {
			return nil, err
		}
		if startDate.Valid {
			ts := startDate.Time
			campaign.StartDate = &ts
		}
		if endDate.Valid {
			ts := endDate.Time
			campaign.EndDate = &ts
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

// AcquireGeneration вставляет запись о генерации недели и возвращает true, если удалось.
func (p *Postgres) AcquireGeneration(ctx context.Context, campaignID int64, weekStart time.Time) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
INSERT INTO generation_runs (campaign_id, week_start)
VALUES ($1, $2)
ON CONFLICT (campaign_id, week_start) DO NOTHING
`, campaignID, weekStart)
	metrics.ObserveNetworkRequest("postgres", "generation_runs_acquire", "generation_runs", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// SavePosts сохраняет посты и их комментарии одной транзакцией.
// Ненулевой ParentCommentID несохранённого комментария трактуется как
// порядковый номер (с единицы) более раннего комментария того же поста.
func (p *Postgres) SavePosts(ctx context.Context, campaignID int64, posts []domain.Post) (int, int, error) {
	if len(posts) == 0 {
		return 0, 0, nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "posts", start, err)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	var postsCreated, commentsCreated int
	for _, post := range posts {
		keywordIDs, err := json.Marshal(post.KeywordIDs)
		if err != nil {
			return 0, 0, fmt.Errorf("кодирование keyword_ids: %w", err)
		}
		status := post.Status
		if status == "" {
			status = domain.ContentStatusPending
		}

		var postID int64
		start = time.Now()
		err = tx.QueryRow(ctx, `
INSERT INTO posts (campaign_id, subreddit, title, body, author_username, keyword_ids, scheduled_at, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`, campaignID, post.Subreddit, post.Title, post.Body, post.AuthorUsername, keywordIDs, post.ScheduledAt, status).Scan(&postID)
		metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
		if err != nil {
			return 0, 0, err
		}
		postsCreated++

		savedIDs := make([]int64, 0, len(post.Comments))
		for _, comment := range post.Comments {
			var parentID any
			if comment.ParentCommentID != nil {
				ordinal := int(*comment.ParentCommentID)
				if ordinal < 1 || ordinal > len(savedIDs) {
					return 0, 0, fmt.Errorf("комментарий ссылается на несуществующего родителя %d", ordinal)
				}
				parentID = savedIDs[ordinal-1]
			}
			commentStatus := comment.Status
			if commentStatus == "" {
				commentStatus = domain.ContentStatusPending
			}

			var commentID int64
			start = time.Now()
			err = tx.QueryRow(ctx, `
INSERT INTO comments (post_id, parent_comment_id, content, author_username, scheduled_at, status)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`, postID, parentID, comment.Content, comment.AuthorUsername, comment.ScheduledAt, commentStatus).Scan(&commentID)
			metrics.ObserveNetworkRequest("postgres", "comments_insert", "comments", start, err)
			if err != nil {
				return 0, 0, err
			}
			savedIDs = append(savedIDs, commentID)
			commentsCreated++
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "posts", start, err)
	if err != nil {
		return 0, 0, err
	}
	return postsCreated, commentsCreated, nil
}

// ListCampaignPosts возвращает посты кампании с комментариями.
func (p *Postgres) ListCampaignPosts(ctx context.Context, campaignID int64) ([]domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, campaign_id, subreddit, title, body, author_username, keyword_ids, scheduled_at, status, created_at
FROM posts WHERE campaign_id=$1
ORDER BY scheduled_at
`, campaignID)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			post       domain.Post
			keywordIDs []byte
		)
		if err := rows.Scan(&post.ID, &post.CampaignID, &post.Subreddit, &post.Title, &post.Body, &post.AuthorUsername, &keywordIDs, &post.ScheduledAt, &post.Status, &post.CreatedAt); err != nil {
			return nil, err
		}
		if len(keywordIDs) > 0 {
			if err := json.Unmarshal(keywordIDs, &post.KeywordIDs); err != nil {
				return nil, fmt.Errorf("декодирование keyword_ids: %w", err)
			}
		}
		byID[post.ID] = len(posts)
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	start = time.Now()
	commentRows, err := p.pool.Query(ctx, `
SELECT id, post_id, parent_comment_id, content, author_username, scheduled_at, status, created_at
FROM comments WHERE post_id = ANY($1)
ORDER BY scheduled_at
`, postIDs)
	metrics.ObserveNetworkRequest("postgres", "comments_list", "comments", start, err)
	if err != nil {
		return nil, err
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var (
			comment  domain.Comment
			parentID sql.NullInt64
		)
		if err := commentRows.Scan(&comment.ID, &comment.PostID, &parentID, &comment.Content, &comment.AuthorUsername, &comment.ScheduledAt, &comment.Status, &comment.CreatedAt); err != nil {
			return nil, err
		}
		if parentID.Valid {
			id := parentID.Int64
			comment.ParentCommentID = &id
		}
		if idx, ok := byID[comment.PostID]; ok {
			posts[idx].Comments = append(posts[idx].Comments, comment)
		}
	}
	return posts, commentRows.Err()
}

// LastScheduledAt возвращает время последнего запланированного поста кампании.
func (p *Postgres) LastScheduledAt(ctx context.Context, campaignID int64) (time.Time, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var last sql.NullTime
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT MAX(scheduled_at) FROM posts WHERE campaign_id=$1`, campaignID).Scan(&last)
	metrics.ObserveNetworkRequest("postgres", "posts_last_scheduled", "posts", start, err)
	if err != nil {
		return time.Time{}, err
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

// ListReviewQueue возвращает посты и комментарии кампании в статусе pending.
func (p *Postgres) ListReviewQueue(ctx context.Context, campaignID int64) ([]domain.ReviewItem, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, 'post', id, subreddit, title, body, author_username, scheduled_at, status, COALESCE(notes,'')
FROM posts WHERE campaign_id=$1 AND status=$2
UNION ALL
SELECT c.id, 'comment', c.post_id, p.subreddit, p.title, c.content, c.author_username, c.scheduled_at, c.status, COALESCE(c.notes,'')
FROM comments c JOIN posts p ON p.id = c.post_id
WHERE p.campaign_id=$1 AND c.status=$2
ORDER BY 8
`, campaignID, domain.ContentStatusPending)
	metrics.ObserveNetworkRequest("postgres", "review_queue_list", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ReviewItem
	for rows.Next() {
		var item domain.ReviewItem
		if err := rows.Scan(&item.ID, &item.Kind, &item.PostID, &item.Subreddit, &item.Title, &item.Content, &item.AuthorUsername, &item.ScheduledAt, &item.Status, &item.Notes); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetPostStatus меняет статус поста и заметку модератора.
func (p *Postgres) SetPostStatus(ctx context.Context, postID int64, status domain.ContentStatus, notes string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var notesArg any
	if strings.TrimSpace(notes) != "" {
		notesArg = notes
	}

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE posts SET status=$2, notes=$3 WHERE id=$1`, postID, status, notesArg)
	metrics.ObserveNetworkRequest("postgres", "posts_set_status", "posts", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetCommentStatus меняет статус комментария и заметку модератора.
func (p *Postgres) SetCommentStatus(ctx context.Context, commentID int64, status domain.ContentStatus, notes string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var notesArg any
	if strings.TrimSpace(notes) != "" {
		notesArg = notes
	}

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE comments SET status=$2, notes=$3 WHERE id=$1`, commentID, status, notesArg)
	metrics.ObserveNetworkRequest("postgres", "comments_set_status", "comments", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
