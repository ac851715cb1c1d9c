package wizard

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryCreateGetDelete(t *testing.T) {
	r := NewRegistry(time.Minute)
	ctrl := newTestController(&stubCreator{}, &stubStarter{})

	id := r.Create(ctrl)
	if id == "" {
		t.Fatalf("ожидали непустой идентификатор сессии")
	}
	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got != ctrl {
		t.Fatalf("вернулся чужой контроллер")
	}

	r.Delete(id)
	if _, err := r.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("ожидали ErrSessionNotFound, получили %v", err)
	}
}

func TestRegistrySweepEvictsIdle(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(30 * time.Minute)
	r.now = func() time.Time { return now }

	idle := r.Create(newTestController(&stubCreator{}, &stubStarter{}))
	fresh := r.Create(newTestController(&stubCreator{}, &stubStarter{}))

	now = now.Add(20 * time.Minute)
	if _, err := r.Get(fresh); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	now = now.Add(15 * time.Minute)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("ожидали одну вычищенную сессию, получили %d", removed)
	}
	if _, err := r.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("простаивающая сессия должна быть удалена")
	}
	if _, err := r.Get(fresh); err != nil {
		t.Fatalf("продлённая сессия должна пережить чистку: %v", err)
	}
}

func TestRegistryGetTouches(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	id := r.Create(newTestController(&stubCreator{}, &stubStarter{}))
	for i := 0; i < 5; i++ {
		now = now.Add(8 * time.Minute)
		if _, err := r.Get(id); err != nil {
			t.Fatalf("активная сессия не должна истекать: %v", err)
		}
		if removed := r.Sweep(); removed != 0 {
			t.Fatalf("чистка не должна удалять активную сессию")
		}
	}
}
