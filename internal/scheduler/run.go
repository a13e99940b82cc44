package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/vjovkovs/narrate/internal/model"
	"github.com/vjovkovs/narrate/internal/tts"
)

// Scheduler runs a Plan against a synthesizer.
type Scheduler struct {
	Synth      tts.Synthesizer
	Workers    int           // defaults to runtime.NumCPU()
	JobTimeout time.Duration // 0 = no per-job limit
	Logger     *slog.Logger
}

// Report holds one outcome per planned chapter, sorted by index.
type Report struct {
	Outcomes []model.Outcome
	Elapsed  time.Duration
}

func (r Report) count(s model.JobStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r Report) Completed() int { return r.count(model.StatusCompleted) }
func (r Report) Skipped() int   { return r.count(model.StatusSkipped) }
func (r Report) Failed() int    { return r.count(model.StatusFailed) }

// Failures returns the failed outcomes in index order.
func (r Report) Failures() []model.Outcome {
	var out []model.Outcome
	for _, o := range r.Outcomes {
		if o.Status == model.StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Run submits every job and blocks until all of them settle. Individual job
// failures are reported as outcomes; the returned error is the context error
// when the run was cancelled.
func (s *Scheduler) Run(ctx context.Context, plan *Plan) (Report, error) {
	log := s.logger()
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	log.Info("starting synthesis", "jobs", len(plan.Jobs), "skipped", len(plan.Skipped), "workers", workers)

	p := NewPool(ctx, workers, s.execute)
	for _, job := range plan.Jobs {
		p.Submit(job)
	}
	outcomes := append(p.Wait(), plan.Skipped...)
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	rep := Report{Outcomes: outcomes, Elapsed: time.Since(start)}
	log.Info("synthesis finished",
		"completed", rep.Completed(), "skipped", rep.Skipped(), "failed", rep.Failed(),
		"elapsed", rep.Elapsed.Round(time.Millisecond))
	return rep, ctx.Err()
}

func (s *Scheduler) execute(ctx context.Context, job model.SynthesisJob) (out model.Outcome) {
	log := s.logger().With("index", job.Index)
	out = model.Outcome{Index: job.Index, Path: job.Dest, Chars: utf8.RuneCountInString(job.Text)}
	fail := func(err error) model.Outcome {
		out.Status = model.StatusFailed
		out.Err = err
		log.Error("chapter failed", "error", err)
		return out
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = fail(fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if s.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.JobTimeout)
		defer cancel()
	}

	log.Info("synthesizing chapter", "chars", out.Chars)
	start := time.Now()
	buf, err := s.Synth.Synthesize(ctx, tts.Request{
		Text:     job.Text,
		Voice:    job.Voice,
		Language: job.Language,
		Speed:    job.Speed,
	})
	if err != nil {
		return fail(fmt.Errorf("synthesize chapter %d: %w", job.Index, err))
	}
	if err := tts.WriteWAV(job.Dest, buf); err != nil {
		return fail(fmt.Errorf("write chapter %d: %w", job.Index, err))
	}
	out.Duration = time.Since(start)
	out.CharsPerSec = Throughput(out.Chars, out.Duration)
	out.Status = model.StatusCompleted
	log.Info("chapter done", "path", job.Dest,
		"duration", out.Duration.Round(time.Millisecond),
		"chars_per_sec", fmt.Sprintf("%.2f", out.CharsPerSec))
	return out
}

// Throughput is characters per second, 0 for durations under a millisecond.
func Throughput(chars int, d time.Duration) float64 {
	if d < time.Millisecond {
		return 0
	}
	return float64(chars) / d.Seconds()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
