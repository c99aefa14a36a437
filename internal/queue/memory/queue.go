// Package memory 是 queue.Queue 的进程内实现，语义与 Postgres 版本一致（含可见性超时）。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"filesmanager/internal/queue"
)

type entry struct {
	job       queue.Job
	status    queue.Status
	visibleAt time.Time
	lastError string
}

type Queue struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*entry
	// Now 可在测试中替换以推进时间。
	Now func() time.Time
	// EnqueueErr 非空时 Enqueue 返回该错误。
	EnqueueErr error
}

func New() *Queue {
	return &Queue{jobs: make(map[int64]*entry), Now: time.Now}
}

func (q *Queue) Enqueue(ctx context.Context, fileID, ownerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.EnqueueErr != nil {
		return q.EnqueueErr
	}
	q.nextID++
	q.jobs[q.nextID] = &entry{
		job:       queue.Job{ID: q.nextID, FileID: fileID, OwnerID: ownerID},
		status:    queue.StatusEnqueued,
		visibleAt: q.Now(),
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, visibility time.Duration) (queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.Now()
	ids := make([]int64, 0, len(q.jobs))
	for id, e := range q.jobs {
		if (e.status == queue.StatusEnqueued || e.status == queue.StatusProcessing) && !e.visibleAt.After(now) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return queue.Job{}, queue.ErrEmpty
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	e := q.jobs[ids[0]]
	e.status = queue.StatusProcessing
	e.job.Attempts++
	e.visibleAt = now.Add(visibility)
	return e.job, nil
}

func (q *Queue) Ack(ctx context.Context, job queue.Job) error {
	return q.transition(job, queue.StatusDone, 0, "")
}

func (q *Queue) Retry(ctx context.Context, job queue.Job, delay time.Duration, reason string) error {
	return q.transition(job, queue.StatusEnqueued, delay, reason)
}

func (q *Queue) Fail(ctx context.Context, job queue.Job, reason string) error {
	return q.transition(job, queue.StatusFailed, 0, reason)
}

func (q *Queue) transition(job queue.Job, status queue.Status, delay time.Duration, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.jobs[job.ID]
	if !ok {
		return queue.ErrNotFound
	}
	if e.status != queue.StatusProcessing || e.job.Attempts != job.Attempts {
		return queue.ErrStale
	}
	e.status = status
	e.visibleAt = q.Now().Add(delay)
	if reason != "" {
		e.lastError = reason
	}
	return nil
}

// Status 返回任务当前状态与最近一次错误。
func (q *Queue) Status(id int64) (queue.Status, string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.jobs[id]
	if !ok {
		return "", "", false
	}
	return e.status, e.lastError, true
}

// Jobs 返回全部任务的快照，按 id 排序。
func (q *Queue) Jobs() []queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]queue.Job, 0, len(q.jobs))
	for _, e := range q.jobs {
		out = append(out, e.job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
