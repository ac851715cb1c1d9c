package master

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
)

// Ошибки мастер-справочников.
var (
	ErrEmptyKeyword   = errors.New("ключевой запрос не может быть пустым")
	ErrEmptySubreddit = errors.New("имя сабреддита не может быть пустым")
	ErrEmptyPersona   = errors.New("у персоны должны быть username и backstory")
)

const (
	cacheKeyKeywords   = "master:keywords"
	cacheKeySubreddits = "master:subreddits"
	cacheKeyPersonas   = "master:personas"
	cacheTTL           = 5 * time.Minute
)

// Catalogs — все три мастер-справочника одним значением.
type Catalogs struct {
	Keywords   []domain.MasterKeyword
	Subreddits []domain.MasterSubreddit
	Personas   []domain.MasterPersona
}

// Service управляет мастер-справочниками таргетинга с кэшированием списков.
type Service struct {
	repo  domain.MasterRepo
	cache domain.Cache
	log   zerolog.Logger
}

// NewService создаёт сервис справочников. Кэш может быть nil.
func NewService(repo domain.MasterRepo, cache domain.Cache, log zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// ListKeywords возвращает справочник ключевых запросов, по возможности из кэша.
func (s *Service) ListKeywords(ctx context.Context) ([]domain.MasterKeyword, error) {
	var out []domain.MasterKeyword
	if err := s.cached(cacheKeyKeywords, &out, func() (any, error) {
		return s.repo.ListKeywords(ctx)
	}); err != nil {
		return nil, fmt.Errorf("справочник ключевых запросов: %w", err)
	}
	return out, nil
}

// ListSubreddits возвращает справочник сабреддитов, по возможности из кэша.
func (s *Service) ListSubreddits(ctx context.Context) ([]domain.MasterSubreddit, error) {
	var out []domain.MasterSubreddit
	if err := s.cached(cacheKeySubreddits, &out, func() (any, error) {
		return s.repo.ListSubreddits(ctx)
	}); err != nil {
		return nil, fmt.Errorf("справочник сабреддитов: %w", err)
	}
	return out, nil
}

// ListPersonas возвращает справочник персон, по возможности из кэша.
func (s *Service) ListPersonas(ctx context.Context) ([]domain.MasterPersona, error) {
	var out []domain.MasterPersona
	if err := s.cached(cacheKeyPersonas, &out, func() (any, error) {
		return s.repo.ListPersonas(ctx)
	}); err != nil {
		return nil, fmt.Errorf("справочник персон: %w", err)
	}
	return out, nil
}

// LoadCatalogs загружает три справочника параллельно. Мастер кампании
// открывается только после того, как готовы все три.
func (s *Service) LoadCatalogs(ctx context.Context) (Catalogs, error) {
	var (
		wg       sync.WaitGroup
		catalogs Catalogs
		kwErr    error
		subErr   error
		persErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		catalogs.Keywords, kwErr = s.ListKeywords(ctx)
	}()
	go func() {
		defer wg.Done()
		catalogs.Subreddits, subErr = s.ListSubreddits(ctx)
	}()
	go func() {
		defer wg.Done()
		catalogs.Personas, persErr = s.ListPersonas(ctx)
	}()
	wg.Wait()
	for _, err := range []error{kwErr, subErr, persErr} {
		if err != nil {
			return Catalogs{}, err
		}
	}
	return catalogs, nil
}

// CreateKeyword добавляет ключевой запрос в справочник.
func (s *Service) CreateKeyword(ctx context.Context, keyword, description string) (domain.MasterKeyword, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return domain.MasterKeyword{}, ErrEmptyKeyword
	}
	created, err := s.repo.CreateKeyword(ctx, keyword, strings.TrimSpace(description))
	if err != nil {
		return domain.MasterKeyword{}, fmt.Errorf("создание ключевого запроса: %w", err)
	}
	s.invalidate(cacheKeyKeywords)
	return created, nil
}

// UpdateKeyword изменяет ключевой запрос; nil-поля не трогаются.
func (s *Service) UpdateKeyword(ctx context.Context, id int64, keyword, description *string, isActive *bool) (domain.MasterKeyword, error) {
	if keyword != nil && strings.TrimSpace(*keyword) == "" {
		return domain.MasterKeyword{}, ErrEmptyKeyword
	}
	updated, err := s.repo.UpdateKeyword(ctx, id, keyword, description, isActive)
	if err != nil {
		return domain.MasterKeyword{}, fmt.Errorf("обновление ключевого запроса: %w", err)
	}
	s.invalidate(cacheKeyKeywords)
	return updated, nil
}

// DeleteKeyword удаляет ключевой запрос из справочника.
func (s *Service) DeleteKeyword(ctx context.Context, id int64) error {
	if err := s.repo.DeleteKeyword(ctx, id); err != nil {
		return fmt.Errorf("удаление ключевого запроса: %w", err)
	}
	s.invalidate(cacheKeyKeywords)
	return nil
}

// CreateSubreddit добавляет сабреддит в справочник.
func (s *Service) CreateSubreddit(ctx context.Context, name, description string) (domain.MasterSubreddit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.MasterSubreddit{}, ErrEmptySubreddit
	}
	created, err := s.repo.CreateSubreddit(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return domain.MasterSubreddit{}, fmt.Errorf("создание сабреддита: %w", err)
	}
	s.invalidate(cacheKeySubreddits)
	return created, nil
}

// UpdateSubreddit изменяет сабреддит; nil-поля не трогаются.
func (s *Service) UpdateSubreddit(ctx context.Context, id int64, name, description *string, isActive *bool) (domain.MasterSubreddit, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return domain.MasterSubreddit{}, ErrEmptySubreddit
	}
	updated, err := s.repo.UpdateSubreddit(ctx, id, name, description, isActive)
	if err != nil {
		return domain.MasterSubreddit{}, fmt.Errorf("обновление сабреддита: %w", err)
	}
	s.invalidate(cacheKeySubreddits)
	return updated, nil
}

// DeleteSubreddit удаляет сабреддит из справочника.
func (s *Service) DeleteSubreddit(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSubreddit(ctx, id); err != nil {
		return fmt.Errorf("удаление сабреддита: %w", err)
	}
	s.invalidate(cacheKeySubreddits)
	return nil
}

// CreatePersona добавляет персону в справочник.
func (s *Service) CreatePersona(ctx context.Context, username, backstory, toneStyle string) (domain.MasterPersona, error) {
	username = strings.TrimSpace(username)
	backstory = strings.TrimSpace(backstory)
	if username == "" || backstory == "" {
		return domain.MasterPersona{}, ErrEmptyPersona
	}
	if strings.TrimSpace(toneStyle) == "" {
		toneStyle = domain.DefaultToneStyle
	}
	created, err := s.repo.CreatePersona(ctx, username, backstory, toneStyle)
	if err != nil {
		return domain.MasterPersona{}, fmt.Errorf("создание персоны: %w", err)
	}
	s.invalidate(cacheKeyPersonas)
	return created, nil
}

// UpdatePersona изменяет персону; nil-поля не трогаются.
func (s *Service) UpdatePersona(ctx context.Context, id int64, username, backstory, toneStyle *string, isActive *bool) (domain.MasterPersona, error) {
	if username != nil && strings.TrimSpace(*username) == "" {
		return domain.MasterPersona{}, ErrEmptyPersona
	}
	updated, err := s.repo.UpdatePersona(ctx, id, username, backstory, toneStyle, isActive)
	if err != nil {
		return domain.MasterPersona{}, fmt.Errorf("обновление персоны: %w", err)
	}
	s.invalidate(cacheKeyPersonas)
	return updated, nil
}

// DeletePersona удаляет персону из справочника.
func (s *Service) DeletePersona(ctx context.Context, id int64) error {
	if err := s.repo.DeletePersona(ctx, id); err != nil {
		return fmt.Errorf("удаление персоны: %w", err)
	}
	s.invalidate(cacheKeyPersonas)
	return nil
}

// cached читает значение из кэша или загружает его через load и кэширует.
func (s *Service) cached(key string, out any, load func() (any, error)) error {
	if s.cache != nil {
		if raw, err := s.cache.Get(key); err == nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err == nil {
				return nil
			}
		}
	}
	value, err := load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(key, raw, cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("master: кэш недоступен")
		}
	}
	return json.Unmarshal(raw, out)
}

func (s *Service) invalidate(key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("master: не удалось сбросить кэш")
	}
}
