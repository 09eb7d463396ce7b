package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/logging"
	"github.com/Spok95/omr-grader/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *logging.Log
}

func New(ctx context.Context, log *logging.Log) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает fn раз в interval до отмены контекста раннера.
// Паника в задаче не роняет цикл: она фиксируется как ошибка.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	ctx := ctxutil.WithOp(r.ctx, "job:"+name)
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic in job %s: %v", name, p)
			}
		}()
		return fn(ctx)
	}()
	if err != nil && ctx.Err() == nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.For(ctx).Warn("job failed", zap.Error(err))
		observability.CaptureErrCtx(ctx, err)
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
