package thumbnail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务处理结果
const (
	outcomeDone      = "done"
	outcomeRetried   = "retried"
	outcomeFailed    = "failed"
	outcomeExhausted = "exhausted"
)

var (
	// jobsTotal 按结果统计处理过的任务
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnail_jobs_total",
			Help: "Total number of thumbnail jobs handled, by outcome",
		},
		[]string{"outcome"},
	)

	// jobDuration 记录单个任务的处理耗时
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thumbnail_job_duration_seconds",
		Help:    "Thumbnail job processing duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// busyWorkers 当前正在处理任务的 worker 数
	busyWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thumbnail_workers_busy",
		Help: "Number of workers currently processing a job",
	})
)
