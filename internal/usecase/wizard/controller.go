package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// Step — шаг мастера настройки кампании.
type Step int

const (
	StepCompany Step = iota + 1
	StepBasics
	StepStrategy
	StepPersonas
)

// Ошибки мастера.
var (
	ErrSubmitBusy       = errors.New("запуск кампании уже выполняется")
	ErrNotReady         = errors.New("мастер не готов к запуску кампании")
	ErrAlreadySubmitted = errors.New("кампания уже запущена из этого мастера")
	ErrUnknownPersona   = errors.New("персона отсутствует в мастер-справочнике")
	ErrBadCampaignType  = errors.New("неизвестный тип кампании")
	ErrBadDate          = errors.New("дата должна быть в формате YYYY-MM-DD")
)

// CampaignTypes — допустимые типы кампании в порядке показа.
var CampaignTypes = []string{"Brand Awareness", "Product Launch", "Lead Generation", "Community Building"}

// Catalogs — мастер-справочники, загруженные до открытия мастера.
type Catalogs struct {
	Keywords   []domain.MasterKeyword
	Subreddits []domain.MasterSubreddit
	Personas   []domain.MasterPersona
}

// Draft — черновик кампании. Живёт только в памяти мастера и
// уничтожается вместе с ним.
type Draft struct {
	CompanyName        string
	CompanyWebsite     string
	CompanyDescription string
	CampaignName       string
	CampaignType       string
	StartDate          string
	EndDate            string
	Keywords           SelectionSet
	Subreddits         SelectionSet
	Strategy           domain.StrategyParams
	Personas           []domain.MasterPersona
	Expanded           Expanded
}

// Creator создаёт кампанию из собранной нагрузки.
type Creator interface {
	Create(ctx context.Context, payload domain.CampaignCreatePayload) (domain.Campaign, error)
}

// ScheduleStarter запускает генерацию первой недели для созданной кампании.
type ScheduleStarter interface {
	Generate(ctx context.Context, campaignID int64) (domain.GenerateResult, error)
}

// Controller — линейный четырёхшаговый мастер с валидацией переходов.
// Один контроллер делят все обработчики его сессии, поэтому каждый доступ
// к шагу и черновику сериализуется мьютексом.
type Controller struct {
	log       zerolog.Logger
	creator   Creator
	generator ScheduleStarter
	catalogs  Catalogs

	mu          sync.Mutex
	step        Step
	draft       Draft
	busy        bool
	submittedID int64
}

// NewController создаёт мастер с черновиком по умолчанию.
func NewController(log zerolog.Logger, creator Creator, generator ScheduleStarter, catalogs Catalogs) *Controller {
	return &Controller{
		log:       log,
		creator:   creator,
		generator: generator,
		catalogs:  catalogs,
		step:      StepCompany,
		draft: Draft{
			CampaignType: CampaignTypes[0],
			Strategy: domain.StrategyParams{
				MaxPostsPerWeek:    5,
				MaxCommentsPerPost: 3,
				CompanyMentionRate: 30,
				MentionInPosts:     false,
				MentionInComments:  true,
			},
			Expanded: Expanded{},
		},
	}
}

// Step возвращает текущий шаг.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// SubmittedID возвращает идентификатор созданной кампании (0 до запуска).
func (c *Controller) SubmittedID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submittedID
}

// SetCompany обновляет сведения о компании.
func (c *Controller) SetCompany(name, website, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CompanyName = name
	c.draft.CompanyWebsite = website
	c.draft.CompanyDescription = description
}

// SetBasics обновляет название, тип и даты кампании.
func (c *Controller) SetBasics(name, campaignType, startDate, endDate string) error {
	if campaignType != "" && !containsString(CampaignTypes, campaignType) {
		return ErrBadCampaignType
	}
	if err := checkDate(startDate); err != nil {
		return err
	}
	if err := checkDate(endDate); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CampaignName = name
	if campaignType != "" {
		c.draft.CampaignType = campaignType
	}
	c.draft.StartDate = startDate
	c.draft.EndDate = endDate
	return nil
}

// SetStrategy обновляет параметры стратегии с приведением к допустимым границам.
func (c *Controller) SetStrategy(params domain.StrategyParams) {
	params.MaxPostsPerWeek = clamp(params.MaxPostsPerWeek, 1, 15)
	params.MaxCommentsPerPost = clamp(params.MaxCommentsPerPost, 0, 20)
	params.CompanyMentionRate = clamp(params.CompanyMentionRate, 0, 100)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Strategy = params
}

// ApplyPreset применяет именованный пресет стратегии.
func (c *Controller) ApplyPreset(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ApplyPreset(name, &c.draft.Strategy)
}

// Strategy возвращает текущие параметры стратегии.
func (c *Controller) Strategy() domain.StrategyParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Strategy
}

// AddKeyword добавляет чип ключевого запроса.
func (c *Controller) AddKeyword(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Keywords.Add(value)
}

// RemoveKeyword удаляет чип ключевого запроса.
func (c *Controller) RemoveKeyword(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Keywords.Remove(value)
}

// AddSubreddit добавляет чип сабреддита.
func (c *Controller) AddSubreddit(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Subreddits.Add(value)
}

// RemoveSubreddit удаляет чип сабреддита.
func (c *Controller) RemoveSubreddit(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Subreddits.Remove(value)
}

// KeywordSuggestions возвращает подсказки по мастер-списку ключевых запросов.
func (c *Controller) KeywordSuggestions(query string) []Suggestion {
	master := make([]Suggestion, 0, len(c.catalogs.Keywords))
	for _, k := range c.catalogs.Keywords {
		if !k.IsActive {
			continue
		}
		master = append(master, Suggestion{Value: k.Keyword, Description: k.Description})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Keywords.Suggestions(query, master)
}

// SubredditSuggestions возвращает подсказки по мастер-списку сабреддитов.
func (c *Controller) SubredditSuggestions(query string) []Suggestion {
	master := make([]Suggestion, 0, len(c.catalogs.Subreddits))
	for _, s := range c.catalogs.Subreddits {
		if !s.IsActive {
			continue
		}
		master = append(master, Suggestion{Value: s.Name, Description: s.Description})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Subreddits.Suggestions(query, master)
}

// TogglePersona переключает выбор персоны из мастер-справочника.
func (c *Controller) TogglePersona(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.draft.Personas {
		if p.ID == id {
			c.draft.Personas = append(c.draft.Personas[:i], c.draft.Personas[i+1:]...)
			return nil
		}
	}
	for _, p := range c.catalogs.Personas {
		if p.ID == id {
			c.draft.Personas = append(c.draft.Personas, p)
			return nil
		}
	}
	return ErrUnknownPersona
}

// ToggleExpanded инвертирует раскрытие панели бэкстори персоны.
func (c *Controller) ToggleExpanded(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Expanded = c.draft.Expanded.Toggle(id)
}

// Expanded сообщает, раскрыта ли панель персоны.
func (c *Controller) Expanded(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Expanded.Has(id)
}

// CanAdvance проверяет гейт текущего шага.
func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAdvance()
}

// canAdvance вызывается под мьютексом.
func (c *Controller) canAdvance() bool {
	switch c.step {
	case StepCompany:
		return strings.TrimSpace(c.draft.CompanyName) != "" && strings.TrimSpace(c.draft.CompanyDescription) != ""
	case StepBasics:
		return strings.TrimSpace(c.draft.CampaignName) != "" && c.draft.StartDate != ""
	case StepStrategy:
		return c.draft.Keywords.Len() > 0 && c.draft.Subreddits.Len() > 0
	default:
		return false
	}
}

// Advance переходит на следующий шаг, если гейт текущего пройден.
// С последнего шага продвижения нет: там доступен только Submit.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step >= StepPersonas || !c.canAdvance() {
		return false
	}
	c.step++
	return true
}

// Retreat всегда успешен; true означает выход из мастера с первого шага.
func (c *Controller) Retreat() (exited bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == StepCompany {
		return true
	}
	c.step--
	return false
}

// CanSubmit проверяет гейт запуска кампании.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit()
}

// canSubmit вызывается под мьютексом.
func (c *Controller) canSubmit() bool {
	return c.step == StepPersonas && len(c.draft.Personas) >= 2
}

// Warnings возвращает неблокирующие предупреждения по черновику.
func (c *Controller) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warnings()
}

// warnings вызывается под мьютексом.
func (c *Controller) warnings() []string {
	var out []string
	if !c.draft.Strategy.MentionInPosts && !c.draft.Strategy.MentionInComments {
		out = append(out, "упоминания компании отключены и в постах, и в комментариях")
	}
	return out
}

// Submit создаёт кампанию и сразу запускает генерацию первой недели.
// Создание не идемпотентно, поэтому повторный вызов до завершения первого
// отклоняется. Сбой генерации после успешного создания логируется и не
// откатывает создание: кампания существует и без первой недели.
// Нагрузка снимается с черновика под мьютексом, сами вызовы создателя и
// генератора идут без него.
func (c *Controller) Submit(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return 0, ErrSubmitBusy
	}
	if c.submittedID != 0 {
		c.mu.Unlock()
		return 0, ErrAlreadySubmitted
	}
	if !c.canSubmit() {
		c.mu.Unlock()
		return 0, ErrNotReady
	}
	c.busy = true
	warnings := c.warnings()
	payload := c.payload()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	for _, warning := range warnings {
		c.log.Warn().Str("warning", warning).Msg("wizard: запуск с предупреждением")
	}

	campaign, err := c.creator.Create(ctx, payload)
	if err != nil {
		metrics.IncWizardSubmit("error")
		return 0, fmt.Errorf("создание кампании: %w", err)
	}

	if _, err := c.generator.Generate(ctx, campaign.ID); err != nil {
		// Кампания уже создана; первую неделю можно сгенерировать позже вручную.
		c.log.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("wizard: генерация первой недели не удалась")
	}

	c.mu.Lock()
	c.submittedID = campaign.ID
	c.mu.Unlock()
	metrics.IncWizardSubmit("success")
	return campaign.ID, nil
}

// Payload собирает нагрузку создания кампании из черновика.
func (c *Controller) Payload() domain.CampaignCreatePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload()
}

// payload вызывается под мьютексом. Ключевым запросам присваиваются
// идентификаторы K1..Kn в порядке чипов, персоны снимаются копией
// с подстановкой стиля по умолчанию.
func (c *Controller) payload() domain.CampaignCreatePayload {
	keywords := c.draft.Keywords.Values()
	payloadKeywords := make([]domain.PayloadKeyword, 0, len(keywords))
	for i, keyword := range keywords {
		payloadKeywords = append(payloadKeywords, domain.PayloadKeyword{
			ID:      fmt.Sprintf("K%d", i+1),
			Keyword: keyword,
		})
	}

	personas := make([]domain.PayloadPersona, 0, len(c.draft.Personas))
	for _, p := range c.draft.Personas {
		tone := p.ToneStyle
		if tone == "" {
			tone = domain.DefaultToneStyle
		}
		personas = append(personas, domain.PayloadPersona{
			Username:  p.Username,
			Backstory: p.Backstory,
			ToneStyle: tone,
		})
	}

	return domain.CampaignCreatePayload{
		CampaignName:       c.draft.CampaignName,
		CompanyName:        c.draft.CompanyName,
		CompanySite:        c.draft.CompanyWebsite,
		CompanyDescription: c.draft.CompanyDescription,
		Personas:           personas,
		Subreddits:         c.draft.Subreddits.Values(),
		Keywords:           payloadKeywords,
		MaxPostsPerWeek:    c.draft.Strategy.MaxPostsPerWeek,
		MaxCommentsPerPost: c.draft.Strategy.MaxCommentsPerPost,
		CompanyMentionRate: c.draft.Strategy.CompanyMentionRate,
		MentionInPosts:     c.draft.Strategy.MentionInPosts,
		MentionInComments:  c.draft.Strategy.MentionInComments,
		StartDate:          optionalDate(c.draft.StartDate),
		EndDate:            optionalDate(c.draft.EndDate),
	}
}

// SelectedPersonaIDs возвращает идентификаторы выбранных персон в порядке выбора.
func (c *Controller) SelectedPersonaIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, 0, len(c.draft.Personas))
	for _, p := range c.draft.Personas {
		out = append(out, p.ID)
	}
	return out
}

// Draft возвращает копию черновика для отображения.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.Keywords = SelectionSet{values: c.draft.Keywords.Values()}
	d.Subreddits = SelectionSet{values: c.draft.Subreddits.Values()}
	d.Personas = append([]domain.MasterPersona(nil), c.draft.Personas...)
	expanded := make(Expanded, len(c.draft.Expanded))
	for id := range c.draft.Expanded {
		expanded[id] = struct{}{}
	}
	d.Expanded = expanded
	return d
}

func optionalDate(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	value := raw
	return &value
}

func checkDate(raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, raw); err != nil {
		return ErrBadDate
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
