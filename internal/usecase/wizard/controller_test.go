package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
)

type stubCreator struct {
	mu       sync.Mutex
	payloads []domain.CampaignCreatePayload
	nextID   int64
	err      error
	block    chan struct{}
}

func (s *stubCreator) Create(ctx context.Context, payload domain.CampaignCreatePayload) (domain.Campaign, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Campaign{}, s.err
	}
	s.payloads = append(s.payloads, payload)
	s.nextID++
	return domain.Campaign{ID: s.nextID, Name: payload.CampaignName}, nil
}

type stubStarter struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (s *stubStarter) Generate(ctx context.Context, campaignID int64) (domain.GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, campaignID)
	if s.err != nil {
		return domain.GenerateResult{}, s.err
	}
	return domain.GenerateResult{PostsCreated: 5, CommentsCreated: 10}, nil
}

func testCatalogs() Catalogs {
	return Catalogs{
		Keywords: []domain.MasterKeyword{
			{ID: 1, Keyword: "automation", IsActive: true},
			{ID: 2, Keyword: "productivity", IsActive: true},
			{ID: 3, Keyword: "legacy tools", IsActive: false},
		},
		Subreddits: []domain.MasterSubreddit{
			{ID: 1, Name: "r/startups", IsActive: true},
			{ID: 2, Name: "r/SaaS", IsActive: true},
		},
		Personas: []domain.MasterPersona{
			{ID: 1, Username: "maker_anna", Backstory: "Основатель стартапа", ToneStyle: "Professional", IsActive: true},
			{ID: 2, Username: "dev_oleg", Backstory: "Бэкенд-разработчик", IsActive: true},
			{ID: 3, Username: "pm_kate", Backstory: "Продакт-менеджер", ToneStyle: "Casual", IsActive: true},
		},
	}
}

func newTestController(creator Creator, starter ScheduleStarter) *Controller {
	return NewController(zerolog.Nop(), creator, starter, testCatalogs())
}

func fillValidDraft(t *testing.T, c *Controller) {
	t.Helper()
	c.SetCompany("Acme", "https://acme.io", "Инструменты автоматизации")
	if !c.Advance() {
		t.Fatalf("не удалось пройти шаг компании")
	}
	if err := c.SetBasics("Запуск продукта", "Product Launch", "2024-06-03", ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !c.Advance() {
		t.Fatalf("не удалось пройти шаг основных сведений")
	}
	c.AddKeyword("automation")
	c.AddKeyword("productivity")
	c.AddSubreddit("r/startups")
	if !c.Advance() {
		t.Fatalf("не удалось пройти шаг стратегии")
	}
	if err := c.TogglePersona(1); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := c.TogglePersona(2); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}

func TestControllerDefaults(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	if c.Step() != StepCompany {
		t.Fatalf("мастер должен начинаться с первого шага")
	}
	draft := c.Draft()
	if draft.CampaignType != "Brand Awareness" {
		t.Fatalf("ожидали тип по умолчанию Brand Awareness, получили %q", draft.CampaignType)
	}
	want := domain.StrategyParams{MaxPostsPerWeek: 5, MaxCommentsPerPost: 3, CompanyMentionRate: 30, MentionInPosts: false, MentionInComments: true}
	if draft.Strategy != want {
		t.Fatalf("ожидали стратегию по умолчанию %+v, получили %+v", want, draft.Strategy)
	}
}

func TestControllerStepGates(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})

	if c.Advance() {
		t.Fatalf("пустой шаг компании не должен пропускать дальше")
	}
	c.SetCompany("Acme", "", "")
	if c.Advance() {
		t.Fatalf("без описания компании продвижение запрещено")
	}
	c.SetCompany("Acme", "", "Описание")
	if !c.Advance() {
		t.Fatalf("заполненный шаг компании должен пропускать")
	}

	if c.Advance() {
		t.Fatalf("без названия кампании и даты старта продвижение запрещено")
	}
	if err := c.SetBasics("Кампания", "", "2024-06-03", ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !c.Advance() {
		t.Fatalf("заполненный второй шаг должен пропускать")
	}

	c.AddKeyword("automation")
	if c.Advance() {
		t.Fatalf("без сабреддитов продвижение запрещено")
	}
	c.AddSubreddit("r/startups")
	if !c.Advance() {
		t.Fatalf("оба набора чипов непусты, продвижение должно пройти")
	}

	if c.Advance() {
		t.Fatalf("с последнего шага продвижения нет")
	}
}

func TestControllerRetreat(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	if exited := c.Retreat(); !exited {
		t.Fatalf("отступ с первого шага должен означать выход")
	}
	c.SetCompany("Acme", "", "Описание")
	c.Advance()
	if exited := c.Retreat(); exited {
		t.Fatalf("отступ со второго шага не должен выходить из мастера")
	}
	if c.Step() != StepCompany {
		t.Fatalf("ожидали возврат на первый шаг")
	}
}

func TestControllerBasicsValidation(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	if err := c.SetBasics("Имя", "Carpet Bombing", "", ""); !errors.Is(err, ErrBadCampaignType) {
		t.Fatalf("ожидали ErrBadCampaignType, получили %v", err)
	}
	if err := c.SetBasics("Имя", "", "06/03/2024", ""); !errors.Is(err, ErrBadDate) {
		t.Fatalf("ожидали ErrBadDate, получили %v", err)
	}
}

func TestControllerStrategyClamp(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	c.SetStrategy(domain.StrategyParams{MaxPostsPerWeek: 100, MaxCommentsPerPost: -5, CompanyMentionRate: 150})
	got := c.Strategy()
	if got.MaxPostsPerWeek != 15 || got.MaxCommentsPerPost != 0 || got.CompanyMentionRate != 100 {
		t.Fatalf("ожидали приведение к границам, получили %+v", got)
	}
}

func TestControllerSuggestionsSkipInactive(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	got := c.KeywordSuggestions("tools")
	if len(got) != 0 {
		t.Fatalf("неактивные элементы справочника не должны попадать в подсказки: %v", got)
	}
}

func TestControllerTogglePersona(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	if err := c.TogglePersona(99); !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("ожидали ErrUnknownPersona, получили %v", err)
	}
	if err := c.TogglePersona(1); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := c.SelectedPersonaIDs(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("ожидали выбранную персону 1, получили %v", got)
	}
	if err := c.TogglePersona(1); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := c.SelectedPersonaIDs(); len(got) != 0 {
		t.Fatalf("повторное переключение должно снимать выбор, получили %v", got)
	}
}

func TestControllerPayload(t *testing.T) {
	creator := &stubCreator{}
	c := newTestController(creator, &stubStarter{})
	fillValidDraft(t, c)

	payload := c.Payload()
	if len(payload.Keywords) != 2 {
		t.Fatalf("ожидали два ключевых запроса, получили %d", len(payload.Keywords))
	}
	if payload.Keywords[0].ID != "K1" || payload.Keywords[1].ID != "K2" {
		t.Fatalf("идентификаторы должны идти в порядке чипов: %+v", payload.Keywords)
	}
	if payload.StartDate == nil || *payload.StartDate != "2024-06-03" {
		t.Fatalf("ожидали дату старта 2024-06-03, получили %v", payload.StartDate)
	}
	if payload.EndDate != nil {
		t.Fatalf("пустая дата окончания должна давать nil")
	}
	if len(payload.Personas) != 2 {
		t.Fatalf("ожидали две персоны, получили %d", len(payload.Personas))
	}
	if payload.Personas[1].ToneStyle != domain.DefaultToneStyle {
		t.Fatalf("пустой стиль персоны должен заменяться на %q, получили %q", domain.DefaultToneStyle, payload.Personas[1].ToneStyle)
	}
}

func TestControllerSubmit(t *testing.T) {
	creator := &stubCreator{}
	starter := &stubStarter{}
	c := newTestController(creator, starter)
	fillValidDraft(t, c)

	id, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if id != 1 {
		t.Fatalf("ожидали идентификатор 1, получили %d", id)
	}
	if len(starter.calls) != 1 || starter.calls[0] != 1 {
		t.Fatalf("ожидали запуск генерации для кампании 1, получили %v", starter.calls)
	}
	if c.SubmittedID() != 1 {
		t.Fatalf("мастер должен запомнить созданную кампанию")
	}

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("повторный запуск должен давать ErrAlreadySubmitted, получили %v", err)
	}
}

func TestControllerSubmitNotReady(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("ожидали ErrNotReady, получили %v", err)
	}
}

func TestControllerSubmitRequiresTwoPersonas(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	fillValidDraft(t, c)
	if err := c.TogglePersona(2); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if c.CanSubmit() {
		t.Fatalf("одна персона не должна проходить гейт запуска")
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("ожидали ErrNotReady, получили %v", err)
	}
}

func TestControllerSubmitBusy(t *testing.T) {
	creator := &stubCreator{block: make(chan struct{})}
	c := newTestController(creator, &stubStarter{})
	fillValidDraft(t, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Submit(context.Background()); err != nil {
			t.Errorf("первый запуск не должен падать: %v", err)
		}
	}()

	deadline := time.After(time.Second)
	for {
		_, err := c.Submit(context.Background())
		if errors.Is(err, ErrSubmitBusy) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("не дождались ErrSubmitBusy, последняя ошибка: %v", err)
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(creator.block)
	<-done
}

func TestControllerSubmitGenerationFailureNonFatal(t *testing.T) {
	creator := &stubCreator{}
	starter := &stubStarter{err: errors.New("generator down")}
	c := newTestController(creator, starter)
	fillValidDraft(t, c)

	id, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("сбой генерации не должен откатывать создание: %v", err)
	}
	if id != 1 {
		t.Fatalf("ожидали идентификатор 1, получили %d", id)
	}
	if c.SubmittedID() != 1 {
		t.Fatalf("кампания должна считаться запущенной")
	}
}

func TestControllerSubmitCreateError(t *testing.T) {
	creator := &stubCreator{err: errors.New("db down")}
	c := newTestController(creator, &stubStarter{})
	fillValidDraft(t, c)

	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку создания")
	}
	if c.SubmittedID() != 0 {
		t.Fatalf("при ошибке создания кампания не должна запоминаться")
	}

	creator.err = nil
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("повтор после ошибки должен проходить: %v", err)
	}
}

func TestControllerConcurrentDraftAccess(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	c.SetCompany("Acme", "", "Описание")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.AddKeyword("automation")
			c.RemoveKeyword("automation")
			c.AddSubreddit("r/startups")
			c.RemoveSubreddit("r/startups")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = c.Draft()
			c.ToggleExpanded(1)
			_ = c.Expanded(1)
			_ = c.KeywordSuggestions("auto")
			_ = c.CanAdvance()
		}
	}()
	wg.Wait()

	draft := c.Draft()
	if draft.Keywords.Len() > 1 || draft.Subreddits.Len() > 1 {
		t.Fatalf("наборы чипов разошлись: %d ключевых, %d сабреддитов", draft.Keywords.Len(), draft.Subreddits.Len())
	}
}

func TestControllerWarnings(t *testing.T) {
	c := newTestController(&stubCreator{}, &stubStarter{})
	c.SetStrategy(domain.StrategyParams{MaxPostsPerWeek: 5, MentionInPosts: false, MentionInComments: false})
	if len(c.Warnings()) != 1 {
		t.Fatalf("ожидали предупреждение об отключённых упоминаниях")
	}
	c.SetStrategy(domain.StrategyParams{MaxPostsPerWeek: 5, MentionInComments: true})
	if len(c.Warnings()) != 0 {
		t.Fatalf("предупреждений быть не должно")
	}
}
