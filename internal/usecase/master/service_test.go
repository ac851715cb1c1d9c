package master

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
)

type stubMasterRepo struct {
	mu sync.Mutex

	keywords   []domain.MasterKeyword
	subreddits []domain.MasterSubreddit
	personas   []domain.MasterPersona

	listKeywordCalls int
	listSubCalls     int
	listPersonaCalls int

	listSubErr error

	createdPersona domain.MasterPersona
	deletedIDs     []int64
}

func (s *stubMasterRepo) ListKeywords(context.Context) ([]domain.MasterKeyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listKeywordCalls++
	return s.keywords, nil
}

func (s *stubMasterRepo) CreateKeyword(_ context.Context, keyword, description string) (domain.MasterKeyword, error) {
	return domain.MasterKeyword{ID: 1, Keyword: keyword, Description: description, IsActive: true}, nil
}

func (s *stubMasterRepo) UpdateKeyword(_ context.Context, id int64, keyword, description *string, isActive *bool) (domain.MasterKeyword, error) {
	out := domain.MasterKeyword{ID: id, IsActive: true}
	if keyword != nil {
		out.Keyword = *keyword
	}
	if isActive != nil {
		out.IsActive = *isActive
	}
	return out, nil
}

func (s *stubMasterRepo) DeleteKeyword(_ context.Context, id int64) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubMasterRepo) ListSubreddits(context.Context) ([]domain.MasterSubreddit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSubCalls++
	if s.listSubErr != nil {
		return nil, s.listSubErr
	}
	return s.subreddits, nil
}

func (s *stubMasterRepo) CreateSubreddit(_ context.Context, name, description string) (domain.MasterSubreddit, error) {
	return domain.MasterSubreddit{ID: 1, Name: name, Description: description, IsActive: true}, nil
}

func (s *stubMasterRepo) UpdateSubreddit(_ context.Context, id int64, name, description *string, isActive *bool) (domain.MasterSubreddit, error) {
	return domain.MasterSubreddit{ID: id, IsActive: true}, nil
}

func (s *stubMasterRepo) DeleteSubreddit(_ context.Context, id int64) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubMasterRepo) ListPersonas(context.Context) ([]domain.MasterPersona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listPersonaCalls++
	return s.personas, nil
}

func (s *stubMasterRepo) CreatePersona(_ context.Context, username, backstory, toneStyle string) (domain.MasterPersona, error) {
	s.createdPersona = domain.MasterPersona{ID: 1, Username: username, Backstory: backstory, ToneStyle: toneStyle, IsActive: true}
	return s.createdPersona, nil
}

func (s *stubMasterRepo) UpdatePersona(_ context.Context, id int64, username, backstory, toneStyle *string, isActive *bool) (domain.MasterPersona, error) {
	return domain.MasterPersona{ID: id, IsActive: true}, nil
}

func (s *stubMasterRepo) DeletePersona(_ context.Context, id int64) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

// fakeCache — потокобезопасный кэш в памяти без учёта TTL.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return nil, errors.New("промах кэша")
	}
	return raw, nil
}

func (c *fakeCache) Del(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func TestListKeywordsCachesSecondCall(t *testing.T) {
	repo := &stubMasterRepo{keywords: []domain.MasterKeyword{{ID: 1, Keyword: "automation", IsActive: true}}}
	svc := NewService(repo, newFakeCache(), zerolog.Nop())

	for i := 0; i < 2; i++ {
		got, err := svc.ListKeywords(context.Background())
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if len(got) != 1 || got[0].Keyword != "automation" {
			t.Fatalf("неожиданный справочник: %v", got)
		}
	}
	if repo.listKeywordCalls != 1 {
		t.Fatalf("второй вызов должен идти из кэша, репозиторий вызван %d раз", repo.listKeywordCalls)
	}
}

func TestListWorksWithoutCache(t *testing.T) {
	repo := &stubMasterRepo{personas: []domain.MasterPersona{{ID: 1, Username: "maker_anna"}}}
	svc := NewService(repo, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := svc.ListPersonas(context.Background()); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	if repo.listPersonaCalls != 2 {
		t.Fatalf("без кэша каждый вызов идёт в репозиторий, получили %d", repo.listPersonaCalls)
	}
}

func TestCreateKeywordInvalidatesCache(t *testing.T) {
	repo := &stubMasterRepo{keywords: []domain.MasterKeyword{{ID: 1, Keyword: "automation"}}}
	svc := NewService(repo, newFakeCache(), zerolog.Nop())

	if _, err := svc.ListKeywords(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.CreateKeyword(context.Background(), "  saas tools  ", "ниша"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.ListKeywords(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if repo.listKeywordCalls != 2 {
		t.Fatalf("создание должно сбрасывать кэш списка, репозиторий вызван %d раз", repo.listKeywordCalls)
	}
}

func TestCreateValidatesEmptiness(t *testing.T) {
	svc := NewService(&stubMasterRepo{}, nil, zerolog.Nop())

	if _, err := svc.CreateKeyword(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyKeyword) {
		t.Fatalf("ожидали ErrEmptyKeyword, получили %v", err)
	}
	if _, err := svc.CreateSubreddit(context.Background(), "", ""); !errors.Is(err, ErrEmptySubreddit) {
		t.Fatalf("ожидали ErrEmptySubreddit, получили %v", err)
	}
	if _, err := svc.CreatePersona(context.Background(), "maker_anna", "  ", ""); !errors.Is(err, ErrEmptyPersona) {
		t.Fatalf("ожидали ErrEmptyPersona, получили %v", err)
	}
	empty := "  "
	if _, err := svc.UpdateKeyword(context.Background(), 1, &empty, nil, nil); !errors.Is(err, ErrEmptyKeyword) {
		t.Fatalf("обновление пустым значением должно отклоняться, получили %v", err)
	}
}

func TestCreatePersonaDefaultsTone(t *testing.T) {
	repo := &stubMasterRepo{}
	svc := NewService(repo, nil, zerolog.Nop())

	created, err := svc.CreatePersona(context.Background(), "dev_oleg", "бэкендер", "  ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created.ToneStyle != domain.DefaultToneStyle {
		t.Fatalf("пустой стиль должен заменяться на %s, получили %s", domain.DefaultToneStyle, created.ToneStyle)
	}
}

func TestLoadCatalogs(t *testing.T) {
	repo := &stubMasterRepo{
		keywords:   []domain.MasterKeyword{{ID: 1, Keyword: "automation"}},
		subreddits: []domain.MasterSubreddit{{ID: 1, Name: "r/startups"}, {ID: 2, Name: "r/productivity"}},
		personas:   []domain.MasterPersona{{ID: 1, Username: "maker_anna"}},
	}
	svc := NewService(repo, newFakeCache(), zerolog.Nop())

	catalogs, err := svc.LoadCatalogs(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(catalogs.Keywords) != 1 || len(catalogs.Subreddits) != 2 || len(catalogs.Personas) != 1 {
		t.Fatalf("каталоги загружены не полностью: %+v", catalogs)
	}
}

func TestLoadCatalogsPropagatesError(t *testing.T) {
	repo := &stubMasterRepo{listSubErr: errors.New("база недоступна")}
	svc := NewService(repo, nil, zerolog.Nop())

	if _, err := svc.LoadCatalogs(context.Background()); err == nil {
		t.Fatalf("ошибка одного справочника должна валить загрузку целиком")
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	repo := &stubMasterRepo{subreddits: []domain.MasterSubreddit{{ID: 5, Name: "r/startups"}}}
	svc := NewService(repo, newFakeCache(), zerolog.Nop())

	if _, err := svc.ListSubreddits(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := svc.DeleteSubreddit(context.Background(), 5); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.ListSubreddits(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if repo.listSubCalls != 2 {
		t.Fatalf("удаление должно сбрасывать кэш списка, репозиторий вызван %d раз", repo.listSubCalls)
	}
}
