package calendar

import (
	"time"

	"reddit-growth-bot/internal/domain"
)

// PostCard — облегчённая проекция поста для ячейки календаря.
type PostCard struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Subreddit    string `json:"subreddit"`
	Time         string `json:"time"`
	CommentCount int    `json:"comment_count"`
}

// DayBucket — один день недельного окна с попавшими в него постами.
type DayBucket struct {
	Name  string     `json:"name"`
	Date  string     `json:"date"`
	Day   time.Time  `json:"day"`
	Posts []PostCard `json:"posts"`
}

// NormalizeDay приводит момент к полуночи его календарного дня в локации loc.
func NormalizeDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Anchor выбирает начальный якорь окна: дата старта кампании, если известна,
// иначе текущий день. Обе нормализуются к полуночи.
func Anchor(startDate *time.Time, now time.Time, loc *time.Location) time.Time {
	if startDate != nil {
		return NormalizeDay(*startDate, loc)
	}
	return NormalizeDay(now, loc)
}

// Navigate сдвигает якорь на direction недель. Сдвиг идёт календарными
// днями, а не фиксированными 24 часами, поэтому переживает переходы на
// летнее время и границы месяцев.
func Navigate(weekStart time.Time, direction int) time.Time {
	return weekStart.AddDate(0, 0, 7*direction)
}

// WeekEnd возвращает последний день окна (якорь + 6 дней).
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

// SameDay сравнивает календарные дни двух моментов в локации дня day.
// Именно равенство дней, а не полуинтервал [start, start+24h): пост в 23:59
// и пост в 00:01 одной даты попадают в один и тот же день.
func SameDay(t, day time.Time) bool {
	local := t.In(day.Location())
	return local.Year() == day.Year() && local.Month() == day.Month() && local.Day() == day.Day()
}

// Bucket раскладывает посты по семи дням, начиная с weekStart.
// Порядок корзин — weekStart..weekStart+6; в корзину попадает каждый пост,
// чей scheduled-момент приходится на календарный день корзины.
func Bucket(posts []domain.Post, weekStart time.Time) []DayBucket {
	buckets := make([]DayBucket, 0, 7)
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		bucket := DayBucket{
			Name: day.Format("Mon"),
			Date: day.Format("Jan 2"),
			Day:  day,
		}
		for _, post := range posts {
			if !SameDay(post.ScheduledAt, day) {
				continue
			}
			bucket.Posts = append(bucket.Posts, project(post, day.Location()))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func project(post domain.Post, loc *time.Location) PostCard {
	return PostCard{
		ID:           post.ID,
		Title:        post.Title,
		Subreddit:    post.Subreddit,
		Time:         post.ScheduledAt.In(loc).Format("03:04 PM"),
		CommentCount: len(post.Comments),
	}
}

// View хранит якорь недельного окна между перерисовками. Якорь меняется
// только явной навигацией или однократным перепосевом, когда дата старта
// кампании приходит уже после создания окна.
type View struct {
	weekStart time.Time
	loc       *time.Location
	seededAt  *time.Time
}

// NewView создаёт окно с якорем по Anchor.
func NewView(startDate *time.Time, now time.Time, loc *time.Location) *View {
	v := &View{
		weekStart: Anchor(startDate, now, loc),
		loc:       loc,
	}
	if startDate != nil {
		seed := *startDate
		v.seededAt = &seed
	}
	return v
}

// WeekStart возвращает текущий якорь окна.
func (v *View) WeekStart() time.Time { return v.weekStart }

// Navigate сдвигает окно на direction недель.
func (v *View) Navigate(direction int) {
	v.weekStart = Navigate(v.weekStart, direction)
}

// SeedStartDate перепосевает якорь пришедшей датой старта. Повторный вызов
// с той же датой — no-op: это однократный перепосев, а не постоянная привязка.
func (v *View) SeedStartDate(startDate time.Time) bool {
	if v.seededAt != nil && v.seededAt.Equal(startDate) {
		return false
	}
	seed := startDate
	v.seededAt = &seed
	v.weekStart = NormalizeDay(startDate, v.loc)
	return true
}

// Buckets раскладывает посты по текущему окну.
func (v *View) Buckets(posts []domain.Post) []DayBucket {
	return Bucket(posts, v.weekStart)
}
