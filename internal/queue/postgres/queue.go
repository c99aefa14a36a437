package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filesmanager/internal/queue"
)

// Queue 在 thumbnail_jobs 表上实现 queue.Queue。
// 领取使用 FOR UPDATE SKIP LOCKED，多个 worker 进程可以并发消费。
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Queue {
	return &Queue{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue 插入一条立即可见的任务。
func (q *Queue) Enqueue(ctx context.Context, fileID, ownerID string) error {
	now := q.now()
	_, err := q.db.ExecContext(ctx, `INSERT INTO thumbnail_jobs (file_id, owner_id, status, attempts, visible_at, created_at, updated_at)
	VALUES ($1, $2, $3, 0, $4, $4, $4)`, fileID, ownerID, string(queue.StatusEnqueued), now)
	if err != nil {
		return fmt.Errorf("enqueue thumbnail job: %w", err)
	}
	return nil
}

// Dequeue 领取最早的可见任务。处于 processing 但可见时间已过的任务视为 worker 崩溃，会被重新领取。
func (q *Queue) Dequeue(ctx context.Context, visibility time.Duration) (queue.Job, error) {
	now := q.now()
	row := q.db.QueryRowContext(ctx, `UPDATE thumbnail_jobs
	SET status = $1, attempts = attempts + 1, visible_at = $2, updated_at = $3
	WHERE id = (
		SELECT id FROM thumbnail_jobs
		WHERE status IN ($4, $1) AND visible_at <= $3
		ORDER BY visible_at, id
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	)
	RETURNING id, file_id, owner_id, attempts`,
		string(queue.StatusProcessing), now.Add(visibility), now, string(queue.StatusEnqueued))

	var job queue.Job
	if err := row.Scan(&job.ID, &job.FileID, &job.OwnerID, &job.Attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.Job{}, queue.ErrEmpty
		}
		return queue.Job{}, fmt.Errorf("dequeue thumbnail job: %w", err)
	}
	return job, nil
}

func (q *Queue) Ack(ctx context.Context, job queue.Job) error {
	return q.transition(ctx, job, queue.StatusDone, q.now(), sql.NullString{})
}

func (q *Queue) Retry(ctx context.Context, job queue.Job, delay time.Duration, reason string) error {
	return q.transition(ctx, job, queue.StatusEnqueued, q.now().Add(delay), sql.NullString{String: reason, Valid: true})
}

func (q *Queue) Fail(ctx context.Context, job queue.Job, reason string) error {
	return q.transition(ctx, job, queue.StatusFailed, q.now(), sql.NullString{String: reason, Valid: true})
}

// transition 只更新仍处于 processing 且 attempts 与本次投递一致的行。
// 未命中时再查一次，区分任务不存在与已被重新投递。
func (q *Queue) transition(ctx context.Context, job queue.Job, status queue.Status, visibleAt time.Time, reason sql.NullString) error {
	res, err := q.db.ExecContext(ctx, `UPDATE thumbnail_jobs
	SET status = $1, visible_at = $2, last_error = COALESCE($3, last_error), updated_at = $4
	WHERE id = $5 AND attempts = $6 AND status = $7`,
		string(status), visibleAt, reason, q.now(), job.ID, job.Attempts, string(queue.StatusProcessing))
	if err != nil {
		return fmt.Errorf("update thumbnail job %d: %w", job.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := q.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM thumbnail_jobs WHERE id = $1)`, job.ID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup thumbnail job %d: %w", job.ID, err)
	}
	if !exists {
		return queue.ErrNotFound
	}
	return queue.ErrStale
}
