// Package queue 定义缩略图任务队列。任务被取走后在可见性超时内对其他 worker 不可见；
// worker 崩溃未确认时，超时后任务重新可见并被再次投递。
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmpty 表示当前没有可领取的任务。
	ErrEmpty = errors.New("queue: no job available")
	// ErrNotFound 表示任务不存在。
	ErrNotFound = errors.New("queue: job not found")
	// ErrStale 表示任务已超时并被重新投递，当前 worker 不再持有它。
	ErrStale = errors.New("queue: job lease lost")
)

// Status 描述任务状态。
type Status string

const (
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Job 是一条缩略图任务。Attempts 为包含本次在内的领取次数。
type Job struct {
	ID       int64  `json:"id"`
	FileID   string `json:"fileId"`
	OwnerID  string `json:"ownerId"`
	Attempts int    `json:"attempts"`
}

// Enqueuer 是上传路径唯一需要的能力。
type Enqueuer interface {
	Enqueue(ctx context.Context, fileID, ownerID string) error
}

// Queue 是 worker 使用的完整队列接口。
type Queue interface {
	Enqueuer
	// Dequeue 领取一条可见任务，并在 visibility 时长内隐藏它。
	Dequeue(ctx context.Context, visibility time.Duration) (Job, error)
	// Ack 标记任务完成。
	// Ack、Retry、Fail 只作用于 Dequeue 返回的那次投递（按 Attempts 区分），
	// 任务已被其他 worker 重新领取时返回 ErrStale。
	Ack(ctx context.Context, job Job) error
	// Retry 在 delay 后让任务重新可见。
	Retry(ctx context.Context, job Job, delay time.Duration, reason string) error
	// Fail 将任务标记为终态失败。
	Fail(ctx context.Context, job Job, reason string) error
}
