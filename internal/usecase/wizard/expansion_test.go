package wizard

import "testing"

func TestExpandedToggle(t *testing.T) {
	e := Expanded{}
	e2 := e.Toggle(10)
	if !e2.Has(10) {
		t.Fatalf("ожидали раскрытую панель после первого переключения")
	}
	e3 := e2.Toggle(10)
	if e3.Has(10) {
		t.Fatalf("ожидали скрытую панель после второго переключения")
	}
}

func TestExpandedToggleDoesNotMutate(t *testing.T) {
	e := Expanded{}.Toggle(1).Toggle(2)
	_ = e.Toggle(3)
	if e.Has(3) {
		t.Fatalf("Toggle не должен изменять исходный набор")
	}
	if !e.Has(1) || !e.Has(2) {
		t.Fatalf("исходный набор потерял элементы")
	}
}

func TestExpandedIndependentToggles(t *testing.T) {
	base := Expanded{}
	a := base.Toggle(1)
	b := base.Toggle(2)
	if a.Has(2) || b.Has(1) {
		t.Fatalf("переключения по разным id не должны пересекаться")
	}
}
