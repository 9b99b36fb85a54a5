package scheduler

import (
	"context"
	"time"

	config "github.com/NordCoder/Barberus/internal/config/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_appointments_marked_past_total", Help: "Appointments moved to Past",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_errors_total", Help: "Errors in scheduler loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "scheduler_loop_duration_seconds", Help: "Scheduler tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

type ticker interface {
	Tick(ctx context.Context, limit int) (int, error)
}

type Runner struct {
	Log *zap.Logger
	UC  ticker
	Cfg *config.SchedCfg
}

func New(log *zap.Logger, uc ticker, cfg *config.SchedCfg) *Runner {
	return &Runner{Log: log, UC: uc, Cfg: cfg}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	marked, err := r.UC.Tick(ctx, r.Cfg.BatchLimit)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	if marked > 0 {
		mMarked.Add(float64(marked))
		r.Log.Info("appointments marked past", zap.Int("count", marked))
	}
	mLoopDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	t := time.NewTicker(r.Cfg.Tick)
	defer t.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.tick(ctx)
		}
	}
}
