package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"reddit-growth-bot/internal/infra/metrics"
)

// ErrSessionNotFound возвращается для неизвестного или истёкшего мастера.
var ErrSessionNotFound = errors.New("сессия мастера не найдена")

// Registry хранит активные мастера в памяти. Черновик не переживает
// перезагрузку: простаивающие сессии вычищаются по TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

type session struct {
	ctrl      *Controller
	touchedAt time.Time
}

// NewRegistry создаёт реестр с указанным TTL простоя.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create регистрирует мастер и возвращает идентификатор сессии.
func (r *Registry) Create(ctrl *Controller) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, touchedAt: r.now()}
	metrics.SetWizardSessions(len(r.sessions))
	r.mu.Unlock()
	return id
}

// Get возвращает мастер по идентификатору и продлевает его TTL.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touchedAt = r.now()
	return s.ctrl, nil
}

// Delete удаляет сессию (уход из мастера или успешный запуск).
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	metrics.SetWizardSessions(len(r.sessions))
	r.mu.Unlock()
}

// Sweep удаляет простаивающие сессии и возвращает их количество.
func (r *Registry) Sweep() int {
	deadline := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int
	for id, s := range r.sessions {
		if s.touchedAt.Before(deadline) {
			delete(r.sessions, id)
			removed++
		}
	}
	metrics.SetWizardSessions(len(r.sessions))
	return removed
}
