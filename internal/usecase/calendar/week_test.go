package calendar

import (
	"testing"
	"time"

	"reddit-growth-bot/internal/domain"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("не удалось загрузить локацию %s: %v", name, err)
	}
	return loc
}

func TestBucketSevenDaysInOrder(t *testing.T) {
	weekStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	buckets := Bucket(nil, weekStart)
	if len(buckets) != 7 {
		t.Fatalf("ожидали 7 корзин, получили %d", len(buckets))
	}
	for i, bucket := range buckets {
		want := weekStart.AddDate(0, 0, i)
		if !bucket.Day.Equal(want) {
			t.Fatalf("корзина %d: ожидали день %v, получили %v", i, want, bucket.Day)
		}
		if bucket.Posts != nil && len(bucket.Posts) != 0 {
			t.Fatalf("корзина %d должна быть пустой", i)
		}
	}
}

func TestBucketLabels(t *testing.T) {
	weekStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	buckets := Bucket(nil, weekStart)
	if buckets[0].Name != "Mon" || buckets[0].Date != "Jun 3" {
		t.Fatalf("ожидали Mon / Jun 3, получили %s / %s", buckets[0].Name, buckets[0].Date)
	}
	if buckets[6].Name != "Sun" || buckets[6].Date != "Jun 9" {
		t.Fatalf("ожидали Sun / Jun 9, получили %s / %s", buckets[6].Name, buckets[6].Date)
	}
}

func TestBucketPartition(t *testing.T) {
	weekStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	posts := []domain.Post{
		{ID: 1, Title: "a", ScheduledAt: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "b", ScheduledAt: time.Date(2024, 6, 3, 23, 50, 0, 0, time.UTC)},
		{ID: 3, Title: "c", ScheduledAt: time.Date(2024, 6, 4, 0, 5, 0, 0, time.UTC)},
		{ID: 4, Title: "d", ScheduledAt: time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)},
		{ID: 5, Title: "вне окна", ScheduledAt: time.Date(2024, 6, 10, 0, 1, 0, 0, time.UTC)},
	}
	buckets := Bucket(posts, weekStart)

	if len(buckets[0].Posts) != 2 {
		t.Fatalf("понедельник: ожидали 2 поста, получили %d", len(buckets[0].Posts))
	}
	if len(buckets[1].Posts) != 1 || buckets[1].Posts[0].ID != 3 {
		t.Fatalf("вторник: ожидали пост 3, получили %v", buckets[1].Posts)
	}
	if len(buckets[6].Posts) != 1 || buckets[6].Posts[0].ID != 4 {
		t.Fatalf("воскресенье: ожидали пост 4, получили %v", buckets[6].Posts)
	}

	var total int
	for _, bucket := range buckets {
		total += len(bucket.Posts)
	}
	if total != 4 {
		t.Fatalf("пост вне окна не должен попадать в корзины, всего %d", total)
	}
}

func TestBucketTimeFormat(t *testing.T) {
	weekStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	posts := []domain.Post{
		{ID: 1, ScheduledAt: time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC), Comments: []domain.Comment{{}, {}}},
	}
	buckets := Bucket(posts, weekStart)
	card := buckets[0].Posts[0]
	if card.Time != "02:30 PM" {
		t.Fatalf("ожидали 02:30 PM, получили %q", card.Time)
	}
	if card.CommentCount != 2 {
		t.Fatalf("ожидали счётчик комментариев 2, получили %d", card.CommentCount)
	}
}

func TestNavigateRoundTrip(t *testing.T) {
	weekStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if got := Navigate(Navigate(weekStart, 1), -1); !got.Equal(weekStart) {
		t.Fatalf("навигация вперёд-назад должна возвращать исходный якорь, получили %v", got)
	}
}

func TestNavigateAcrossDST(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	// Неделя перед переходом на летнее время 10 марта 2024.
	weekStart := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	next := Navigate(weekStart, 1)
	if next.Hour() != 0 {
		t.Fatalf("якорь после перехода на летнее время должен оставаться полуночью, получили %v", next)
	}
	if next.Day() != 11 {
		t.Fatalf("ожидали 11 марта, получили %v", next)
	}
	if got := Navigate(next, -1); !got.Equal(weekStart) {
		t.Fatalf("обратная навигация через перевод часов должна быть точной, получили %v", got)
	}
}

func TestAnchor(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 5, 15, 30, 0, 0, loc)
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, loc)

	if got := Anchor(&start, now, loc); !got.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, loc)) {
		t.Fatalf("якорь по дате старта должен быть полуночью 3 июня, получили %v", got)
	}
	if got := Anchor(nil, now, loc); !got.Equal(time.Date(2024, 6, 5, 0, 0, 0, 0, loc)) {
		t.Fatalf("без даты старта якорь — текущий день, получили %v", got)
	}
}

func TestSameDayCalendarEquality(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if !SameDay(time.Date(2024, 6, 3, 23, 59, 0, 0, time.UTC), day) {
		t.Fatalf("23:59 того же дня должен совпадать")
	}
	if SameDay(time.Date(2024, 6, 4, 0, 1, 0, 0, time.UTC), day) {
		t.Fatalf("00:01 следующего дня не должен совпадать")
	}
}

func TestViewReseedOnce(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, loc)
	v := NewView(nil, now, loc)
	if !v.WeekStart().Equal(time.Date(2024, 6, 5, 0, 0, 0, 0, loc)) {
		t.Fatalf("якорь без даты старта — текущий день, получили %v", v.WeekStart())
	}

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, loc)
	if !v.SeedStartDate(start) {
		t.Fatalf("первый перепосев должен сработать")
	}
	if !v.WeekStart().Equal(start) {
		t.Fatalf("якорь должен переместиться на дату старта, получили %v", v.WeekStart())
	}

	v.Navigate(1)
	if v.SeedStartDate(start) {
		t.Fatalf("повторный перепосев той же датой должен быть no-op")
	}
	if !v.WeekStart().Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("навигация не должна откатываться повторным посевом, получили %v", v.WeekStart())
	}
}

func TestViewSeededAtCreation(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, loc)
	v := NewView(&start, time.Date(2024, 6, 20, 0, 0, 0, 0, loc), loc)
	if v.SeedStartDate(start) {
		t.Fatalf("дата, известная при создании, не должна перепосеивать")
	}
	if !v.WeekStart().Equal(start) {
		t.Fatalf("якорь должен быть датой старта, получили %v", v.WeekStart())
	}
}
