package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filesmanager/internal/queue"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Handler 处理单个任务。
type Handler interface {
	Process(ctx context.Context, job queue.Job) error
}

// Discarder 由能够清理任务残留产物的 Handler 实现。
// 任务未经 Process 就被判定失败时（worker 反复崩溃），Pool 会先调用 Discard。
type Discarder interface {
	Discard(ctx context.Context, job queue.Job) error
}

// Options 控制 worker 池的并发与重试策略。
type Options struct {
	Concurrency       int
	MaxAttempts       int
	RetryBackoff      time.Duration
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	return o
}

// Pool 从队列领取任务并交给 Handler 处理。
type Pool struct {
	jobs    queue.Queue
	handler Handler
	opts    Options
	logger  zerolog.Logger
}

func NewPool(jobs queue.Queue, handler Handler, opts Options, logger zerolog.Logger) *Pool {
	return &Pool{
		jobs:    jobs,
		handler: handler,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("component", "thumbnail_pool").Logger(),
	}
}

// Run 启动 Concurrency 个 worker，直到 ctx 取消。
// 取消后不再领取新任务，但会等待正在处理的任务结束。
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			return p.loop(ctx, worker)
		})
	}
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, worker int) error {
	logger := p.logger.With().Int("worker", worker).Logger()
	logger.Debug().Msg("worker started")

	for {
		if ctx.Err() != nil {
			logger.Debug().Msg("worker stopped")
			return nil
		}

		handled, err := p.RunOnce(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("queue error")
		}
		if handled && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(p.opts.PollInterval):
		}
	}
}

// RunOnce 领取并处理至多一个任务。没有可领取的任务时返回 false。
func (p *Pool) RunOnce(ctx context.Context) (bool, error) {
	job, err := p.jobs.Dequeue(ctx, p.opts.VisibilityTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrEmpty) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, fmt.Errorf("dequeue: %w", err)
	}

	// 缩放一旦开始就不随关闭而取消
	err = p.handle(context.WithoutCancel(ctx), job)
	if errors.Is(err, queue.ErrStale) {
		p.logger.Warn().Int64("job_id", job.ID).Int("attempt", job.Attempts).Msg("job redelivered to another worker, result dropped")
		return true, nil
	}
	return true, err
}

func (p *Pool) handle(ctx context.Context, job queue.Job) error {
	logger := p.logger.With().
		Int64("job_id", job.ID).
		Str("file_id", job.FileID).
		Int("attempt", job.Attempts).
		Logger()

	if job.Attempts > p.opts.MaxAttempts {
		jobsTotal.WithLabelValues(outcomeExhausted).Inc()
		logger.Error().Msg("thumbnail job exceeded max attempts")
		if d, ok := p.handler.(Discarder); ok {
			if err := d.Discard(ctx, job); err != nil {
				logger.Warn().Err(err).Msg("discard partial thumbnails")
			}
		}
		return p.jobs.Fail(ctx, job, "max attempts exceeded")
	}

	busyWorkers.Inc()
	start := time.Now()
	err := p.handler.Process(ctx, job)
	jobDuration.Observe(time.Since(start).Seconds())
	busyWorkers.Dec()

	switch {
	case err == nil:
		jobsTotal.WithLabelValues(outcomeDone).Inc()
		logger.Info().Msg("thumbnails generated")
		return p.jobs.Ack(ctx, job)

	case IsTerminal(err):
		jobsTotal.WithLabelValues(outcomeFailed).Inc()
		logger.Error().Err(err).Msg("thumbnail job failed")
		return p.jobs.Fail(ctx, job, err.Error())

	case job.Attempts >= p.opts.MaxAttempts:
		jobsTotal.WithLabelValues(outcomeExhausted).Inc()
		logger.Error().Err(err).Msg("thumbnail job failed after last attempt")
		return p.jobs.Fail(ctx, job, err.Error())

	default:
		delay := time.Duration(job.Attempts) * p.opts.RetryBackoff
		jobsTotal.WithLabelValues(outcomeRetried).Inc()
		logger.Warn().Err(err).Dur("retry_in", delay).Msg("thumbnail job will be retried")
		return p.jobs.Retry(ctx, job, delay, err.Error())
	}
}
