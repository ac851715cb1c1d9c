package wizard

import (
	"reflect"
	"testing"
)

func TestSelectionSetAddDedup(t *testing.T) {
	var s SelectionSet
	if !s.Add("automation") {
		t.Fatalf("ожидали успешное добавление")
	}
	if s.Add("automation") {
		t.Fatalf("дубликат не должен добавляться")
	}
	if s.Add("   ") {
		t.Fatalf("пустое значение не должно добавляться")
	}
	if !s.Add("  marketing  ") {
		t.Fatalf("ожидали добавление с обрезкой пробелов")
	}
	want := []string{"automation", "marketing"}
	if !reflect.DeepEqual(s.Values(), want) {
		t.Fatalf("ожидали %v, получили %v", want, s.Values())
	}
}

func TestSelectionSetRemoveKeepsOrder(t *testing.T) {
	var s SelectionSet
	s.Add("a")
	s.Add("b")
	s.Add("c")
	if !s.Remove("b") {
		t.Fatalf("ожидали удаление существующего значения")
	}
	if s.Remove("b") {
		t.Fatalf("повторное удаление должно быть no-op")
	}
	want := []string{"a", "c"}
	if !reflect.DeepEqual(s.Values(), want) {
		t.Fatalf("ожидали %v, получили %v", want, s.Values())
	}
}

func TestSelectionSetValuesIsCopy(t *testing.T) {
	var s SelectionSet
	s.Add("a")
	values := s.Values()
	values[0] = "mutated"
	if s.Values()[0] != "a" {
		t.Fatalf("Values должен возвращать копию")
	}
}

func TestSuggestionsFilter(t *testing.T) {
	master := []Suggestion{
		{Value: "SaaS tools"},
		{Value: "automation"},
		{Value: "Marketing Automation"},
	}
	var s SelectionSet
	s.Add("automation")

	if got := s.Suggestions("", master); got != nil {
		t.Fatalf("пустой запрос не должен давать подсказок, получили %v", got)
	}

	got := s.Suggestions("AUTO", master)
	if len(got) != 1 || got[0].Value != "Marketing Automation" {
		t.Fatalf("ожидали одну подсказку Marketing Automation, получили %v", got)
	}
}

func TestSuggestionsPreserveMasterOrder(t *testing.T) {
	master := []Suggestion{
		{Value: "growth hacking"},
		{Value: "organic growth"},
		{Value: "growth loops"},
	}
	var s SelectionSet
	got := s.Suggestions("growth", master)
	if len(got) != 3 {
		t.Fatalf("ожидали три подсказки, получили %d", len(got))
	}
	for i, item := range master {
		if got[i].Value != item.Value {
			t.Fatalf("порядок мастер-списка нарушен: %v", got)
		}
	}
}
