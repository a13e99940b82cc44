package scheduler

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/vjovkovs/narrate/internal/model"
)

// Work executes one job and must always return an outcome.
type Work func(ctx context.Context, job model.SynthesisJob) model.Outcome

// Future is the pending outcome of a submitted job.
type Future struct {
	done chan struct{}
	out  model.Outcome
}

// Done is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Outcome blocks until the job settles.
func (f *Future) Outcome() model.Outcome {
	<-f.done
	return f.out
}

// Pool runs submitted jobs on at most n goroutines.
type Pool struct {
	ctx  context.Context
	work Work
	p    *pool.ResultPool[model.Outcome]
}

func NewPool(ctx context.Context, workers int, work Work) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		ctx:  ctx,
		work: work,
		p:    pool.NewWithResults[model.Outcome]().WithMaxGoroutines(workers),
	}
}

// Submit schedules the job. It blocks while every worker is busy.
func (p *Pool) Submit(job model.SynthesisJob) *Future {
	f := &Future{done: make(chan struct{})}
	p.p.Go(func() model.Outcome {
		defer close(f.done)
		f.out = p.work(p.ctx, job)
		return f.out
	})
	return f
}

// Wait is the join barrier: it returns once every submitted job has settled.
func (p *Pool) Wait() []model.Outcome {
	return p.p.Wait()
}
