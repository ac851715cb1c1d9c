package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// ErrMasterItemNotFound возвращается при обновлении или удалении
// отсутствующего элемента справочника.
var ErrMasterItemNotFound = errors.New("элемент справочника не найден")

// ListKeywords возвращает мастер-справочник ключевых запросов.
func (p *Postgres) ListKeywords(ctx context.Context) ([]domain.MasterKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, keyword, description, is_active
FROM master_keywords
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "master_keywords_list", "master_keywords", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keywords []domain.MasterKeyword
	for rows.Next() {
		var k domain.MasterKeyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.Description, &k.IsActive); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// CreateKeyword добавляет ключевой запрос в справочник.
func (p *Postgres) CreateKeyword(ctx context.Context, keyword, description string) (domain.MasterKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	item := domain.MasterKeyword{Keyword: keyword, Description: description, IsActive: true}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO master_keywords (keyword, description, is_active)
VALUES ($1,$2,true)
RETURNING id
`, keyword, description).Scan(&item.ID)
	metrics.ObserveNetworkRequest("postgres", "master_keywords_insert", "master_keywords", start, err)
	if err != nil {
		return domain.MasterKeyword{}, err
	}
	return item, nil
}

// UpdateKeyword частично обновляет элемент справочника: nil-поля не трогаются.
func (p *Postgres) UpdateKeyword(ctx context.Context, id int64, keyword, description *string, isActive *bool) (domain.MasterKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var item domain.MasterKeyword
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE master_keywords
SET keyword = COALESCE($2, keyword),
    description = COALESCE($3, description),
    is_active = COALESCE($4, is_active)
WHERE id=$1
RETURNING id, keyword, description, is_active
`, id, keyword, description, isActive).Scan(&item.ID, &item.Keyword, &item.Description, &item.IsActive)
	metrics.ObserveNetworkRequest("postgres", "master_keywords_update", "master_keywords", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MasterKeyword{}, ErrMasterItemNotFound
	}
	if err != nil {
		return domain.MasterKeyword{}, err
	}
	return item, nil
}

// DeleteKeyword удаляет ключевой запрос из справочника.
func (p *Postgres) DeleteKeyword(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM master_keywords WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "master_keywords_delete", "master_keywords", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrMasterItemNotFound
	}
	return nil
}

// ListSubreddits возвращает мастер-справочник сабреддитов.
func (p *Postgres) ListSubreddits(ctx context.Context) ([]domain.MasterSubreddit, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, description, is_active
FROM master_subreddits
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "master_subreddits_list", "master_subreddits", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subreddits []domain.MasterSubreddit
	for rows.Next() {
		var s domain.MasterSubreddit
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.IsActive); err != nil {
			return nil, err
		}
		subreddits = append(subreddits, s)
	}
	return subreddits, rows.Err()
}

// CreateSubreddit добавляет сабреддит в справочник.
func (p *Postgres) CreateSubreddit(ctx context.Context, name, description string) (domain.MasterSubreddit, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	item := domain.MasterSubreddit{Name: name, Description: description, IsActive: true}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO master_subreddits (name, description, is_active)
VALUES ($1,$2,true)
RETURNING id
`, name, description).Scan(&item.ID)
	metrics.ObserveNetworkRequest("postgres", "master_subreddits_insert", "master_subreddits", start, err)
	if err != nil {
		return domain.MasterSubreddit{}, err
	}
	return item, nil
}

// UpdateSubreddit частично обновляет элемент справочника.
func (p *Postgres) UpdateSubreddit(ctx context.Context, id int64, name, description *string, isActive *bool) (domain.MasterSubreddit, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var item domain.MasterSubreddit
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE master_subreddits
SET name = COALESCE($2, name),
    description = COALESCE($3, description),
    is_active = COALESCE($4, is_active)
WHERE id=$1
RETURNING id, name, description, is_active
`, id, name, description, isActive).Scan(&item.ID, &item.Name, &item.Description, &item.IsActive)
	metrics.ObserveNetworkRequest("postgres", "master_subreddits_update", "master_subreddits", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MasterSubreddit{}, ErrMasterItemNotFound
	}
	if err != nil {
		return domain.MasterSubreddit{}, err
	}
	return item, nil
}

// DeleteSubreddit удаляет сабреддит из справочника.
func (p *Postgres) DeleteSubreddit(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM master_subreddits WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "master_subreddits_delete", "master_subreddits", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrMasterItemNotFound
	}
	return nil
}

// ListPersonas возвращает мастер-справочник персон.
func (p *Postgres) ListPersonas(ctx context.Context) ([]domain.MasterPersona, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, username, backstory, tone_style, is_active
FROM master_personas
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "master_personas_list", "master_personas", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var personas []domain.MasterPersona
	for rows.Next() {
		var persona domain.MasterPersona
		if err := rows.Scan(&persona.ID, &persona.Username, &persona.Backstory, &persona.ToneStyle, &persona.IsActive); err != nil {
			return nil, err
		}
		personas = append(personas, persona)
	}
	return personas, rows.Err()
}

// CreatePersona добавляет персону в справочник.
func (p *Postgres) CreatePersona(ctx context.Context, username, backstory, toneStyle string) (domain.MasterPersona, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if toneStyle == "" {
		toneStyle = domain.DefaultToneStyle
	}
	item := domain.MasterPersona{Username: username, Backstory: backstory, ToneStyle: toneStyle, IsActive: true}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO master_personas (username, backstory, tone_style, is_active)
VALUES ($1,$2,$3,true)
RETURNING id
`, username, backstory, toneStyle).Scan(&item.ID)
	metrics.ObserveNetworkRequest("postgres", "master_personas_insert", "master_personas", start, err)
	if err != nil {
		return domain.MasterPersona{}, err
	}
	return item, nil
}

// UpdatePersona частично обновляет элемент справочника.
func (p *Postgres) UpdatePersona(ctx context.Context, id int64, username, backstory, toneStyle *string, isActive *bool) (domain.MasterPersona, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var item domain.MasterPersona
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE master_personas
SET username = COALESCE($2, username),
    backstory = COALESCE($3, backstory),
    tone_style = COALESCE($4, tone_style),
    is_active = COALESCE($5, is_active)
WHERE id=$1
RETURNING id, username, backstory, tone_style, is_active
`, id, username, backstory, toneStyle, isActive).Scan(&item.ID, &item.Username, &item.Backstory, &item.ToneStyle, &item.IsActive)
	metrics.ObserveNetworkRequest("postgres", "master_personas_update", "master_personas", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MasterPersona{}, ErrMasterItemNotFound
	}
	if err != nil {
		return domain.MasterPersona{}, err
	}
	return item, nil
}

// DeletePersona удаляет персону из справочника.
func (p *Postgres) DeletePersona(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM master_personas WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "master_personas_delete", "master_personas", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrMasterItemNotFound
	}
	return nil
}
