package wizard

import "strings"

// SelectionSet — упорядоченный набор уникальных значений-чипов.
// Порядок вставки сохраняется, сравнение значений точное.
type SelectionSet struct {
	values []string
}

// Suggestion — кандидат из мастер-справочника для подсказки.
type Suggestion struct {
	Value       string
	Description string
}

// Add добавляет значение в конец набора. Пустые строки и дубликаты игнорируются.
func (s *SelectionSet) Add(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if s.Contains(trimmed) {
		return false
	}
	s.values = append(s.values, trimmed)
	return true
}

// Remove удаляет значение из набора. Отсутствующее значение — no-op.
func (s *SelectionSet) Remove(value string) bool {
	for i, v := range s.values {
		if v == value {
			s.values = append(s.values[:i], s.values[i+1:]...)
			return true
		}
	}
	return false
}

// Contains проверяет точное вхождение значения.
func (s *SelectionSet) Contains(value string) bool {
	for _, v := range s.values {
		if v == value {
			return true
		}
	}
	return false
}

// Len возвращает количество выбранных значений.
func (s *SelectionSet) Len() int { return len(s.values) }

// Values возвращает копию значений в порядке вставки.
func (s *SelectionSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Suggestions возвращает элементы мастер-списка, содержащие query как подстроку
// без учёта регистра и ещё не выбранные. Порядок мастер-списка сохраняется.
// Пустой запрос не даёт подсказок: они показываются только после ввода.
func (s *SelectionSet) Suggestions(query string, master []Suggestion) []Suggestion {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)
	var out []Suggestion
	for _, item := range master {
		if !strings.Contains(strings.ToLower(item.Value), needle) {
			continue
		}
		if s.Contains(item.Value) {
			continue
		}
		out = append(out, item)
	}
	return out
}
