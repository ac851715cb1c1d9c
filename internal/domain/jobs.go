package domain

import (
	"context"
	"time"
)

// GenerateJobCause описывает источник запроса на генерацию.
type GenerateJobCause string

const (
	// GenerateCauseManual — оператор запросил генерацию вручную.
	GenerateCauseManual GenerateJobCause = "manual"
	// GenerateCauseScheduled — генерация запланирована по недельному расписанию.
	GenerateCauseScheduled GenerateJobCause = "scheduled"
)

// GenerateJob содержит информацию о задаче генерации недельного расписания.
type GenerateJob struct {
	ID          string           `json:"job_id,omitempty"`
	CampaignID  int64            `json:"campaign_id"`
	WeekStart   time.Time        `json:"week_start"`
	RequestedAt time.Time        `json:"requested_at"`
	Cause       GenerateJobCause `json:"cause"`
	// Attempts — сколько раз задача уже отдавалась обработчику.
	// После первой повторной доставки задача отбрасывается.
	Attempts int `json:"attempts,omitempty"`
}

// GenerateAckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type GenerateAckFunc func(success bool) error

// GenerateQueue описывает очередь задач на генерацию расписаний.
type GenerateQueue interface {
	Enqueue(ctx context.Context, job GenerateJob) error
	Receive(ctx context.Context) (GenerateJob, GenerateAckFunc, error)
}
