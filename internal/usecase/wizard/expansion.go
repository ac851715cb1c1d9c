package wizard

// Expanded — набор идентификаторов раскрытых панелей (бэкстори персон и т.п.).
// Обновляется только чистым преобразованием текущего значения: быстрые
// последовательные переключения по разным id не должны терять друг друга.
type Expanded map[int64]struct{}

// Toggle возвращает новый набор с инвертированным членством id.
// Исходный набор не изменяется.
func (e Expanded) Toggle(id int64) Expanded {
	out := make(Expanded, len(e)+1)
	for k := range e {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// Has сообщает, раскрыта ли панель id.
func (e Expanded) Has(id int64) bool {
	_, ok := e[id]
	return ok
}
