package queue

import (
	"testing"
	"time"

	"reddit-growth-bot/internal/domain"
)

func TestRetryJobRequeuesOnce(t *testing.T) {
	job := domain.GenerateJob{
		ID:         "job-1",
		CampaignID: 7,
		WeekStart:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Cause:      domain.GenerateCauseScheduled,
	}

	retry, ok := retryJob(job)
	if !ok {
		t.Fatalf("первая неудача должна возвращать задачу в очередь")
	}
	if retry.Attempts != 1 {
		t.Fatalf("ожидали счётчик попыток 1, получили %d", retry.Attempts)
	}
	if retry.CampaignID != job.CampaignID || !retry.WeekStart.Equal(job.WeekStart) {
		t.Fatalf("повтор должен сохранять задачу: %+v", retry)
	}

	if _, ok := retryJob(retry); ok {
		t.Fatalf("повторная неудача должна отбрасывать задачу")
	}
}
