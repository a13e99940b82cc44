package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjovkovs/narrate/internal/model"
	"github.com/vjovkovs/narrate/internal/storage"
	"github.com/vjovkovs/narrate/internal/tts"
)

type fakeSynth struct {
	calls atomic.Int32
	mu    sync.Mutex
	texts map[string]bool
	fn    func(req tts.Request) error
}

func (f *fakeSynth) Synthesize(ctx context.Context, req tts.Request) (*audio.IntBuffer, error) {
	f.calls.Add(1)
	f.mu.Lock()
	if f.texts == nil {
		f.texts = map[string]bool{}
	}
	f.texts[req.Text] = true
	f.mu.Unlock()
	if f.fn != nil {
		if err := f.fn(req); err != nil {
			return nil, err
		}
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 800),
		SourceBitDepth: 16,
	}, nil
}

func texts(bodies ...string) []model.ChapterText {
	out := make([]model.ChapterText, len(bodies))
	for i, b := range bodies {
		out[i] = model.ChapterText{
			Index:   i + 1,
			Chapter: model.Chapter{DocumentItem: model.DocumentItem{Name: fmt.Sprintf("ch%d.xhtml", i+1)}},
			Text:    b,
		}
	}
	return out
}

func layout(t *testing.T) *storage.Layout {
	t.Helper()
	l, err := storage.NewLayout(t.TempDir(), "book.epub")
	require.NoError(t, err)
	return l
}

func opts(l *storage.Layout) PlanOptions {
	return PlanOptions{Layout: l, Intro: "Dune by Frank Herbert", Voice: "af_sky", Language: "en-gb", Speed: 1}
}

func TestEndToEndSkipsEmptyChapter(t *testing.T) {
	l := layout(t)
	plan := NewPlan(texts("First chapter.\n", "  \n", "Third chapter.\n"), opts(l))
	assert.Equal(t, []int{2}, plan.Empty)
	assert.Equal(t, 3, plan.Total())
	require.Len(t, plan.Jobs, 2)

	synth := &fakeSynth{}
	rep, err := (&Scheduler{Synth: synth, Workers: 2}).Run(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, rep.Outcomes, 2)
	assert.Equal(t, 1, rep.Outcomes[0].Index)
	assert.Equal(t, 3, rep.Outcomes[1].Index)
	assert.Equal(t, 2, rep.Completed())

	assert.FileExists(t, l.ChapterPath(1))
	assert.NoFileExists(t, l.ChapterPath(2))
	assert.FileExists(t, l.ChapterPath(3))
}

func TestIntroAppliedOnceToFirstNonEmpty(t *testing.T) {
	l := layout(t)
	plan := NewPlan(texts("", "Alpha.\n", "Beta.\n"), opts(l))
	assert.Equal(t, 2, plan.IntroIndex)
	require.Len(t, plan.Jobs, 2)
	assert.Equal(t, "Dune by Frank Herbert.\n\nAlpha.\n", plan.Jobs[0].Text)
	assert.Equal(t, "Beta.\n", plan.Jobs[1].Text)
}

func TestIntroNotMovedWhenFirstChapterExists(t *testing.T) {
	l := layout(t)
	require.NoError(t, os.WriteFile(l.ChapterPath(1), []byte("x"), 0o644))

	plan := NewPlan(texts("Alpha.\n", "Beta.\n"), opts(l))
	assert.Equal(t, 1, plan.IntroIndex)
	require.Len(t, plan.Skipped, 1)
	require.Len(t, plan.Jobs, 1)
	assert.Equal(t, "Beta.\n", plan.Jobs[0].Text)
}

func TestSecondRunIsIdempotent(t *testing.T) {
	l := layout(t)
	in := texts("One.\n", "Two.\n", "Three.\n")

	first := &fakeSynth{}
	_, err := (&Scheduler{Synth: first}).Run(context.Background(), NewPlan(in, opts(l)))
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.calls.Load())

	second := &fakeSynth{}
	plan := NewPlan(in, opts(l))
	assert.Empty(t, plan.Jobs)
	rep, err := (&Scheduler{Synth: second}).Run(context.Background(), plan)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.calls.Load())
	assert.Equal(t, 3, rep.Skipped())
	for _, o := range rep.Outcomes {
		assert.Equal(t, model.StatusSkipped, o.Status)
		assert.True(t, o.OK())
	}
}

func TestFailureIsolation(t *testing.T) {
	l := layout(t)
	synth := &fakeSynth{fn: func(req tts.Request) error {
		switch req.Text {
		case "Two.\n":
			return errors.New("engine exploded")
		case "Three.\n":
			panic("boom")
		}
		return nil
	}}
	plan := NewPlan(texts("One.\n", "Two.\n", "Three.\n", "Four.\n"), PlanOptions{Layout: l})
	rep, err := (&Scheduler{Synth: synth, Workers: 4}).Run(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, rep.Outcomes, 4)

	assert.Equal(t, model.StatusCompleted, rep.Outcomes[0].Status)
	assert.Equal(t, model.StatusFailed, rep.Outcomes[1].Status)
	assert.ErrorContains(t, rep.Outcomes[1].Err, "engine exploded")
	assert.Equal(t, model.StatusFailed, rep.Outcomes[2].Status)
	assert.ErrorContains(t, rep.Outcomes[2].Err, "panic: boom")
	assert.Equal(t, model.StatusCompleted, rep.Outcomes[3].Status)

	assert.Len(t, rep.Failures(), 2)
	assert.NoFileExists(t, l.ChapterPath(2))
	assert.NoFileExists(t, l.ChapterPath(3))
}

func TestReportSortedRegardlessOfCompletionOrder(t *testing.T) {
	l := layout(t)
	var bodies []string
	for i := 0; i < 12; i++ {
		bodies = append(bodies, string(rune('a'+i))+".\n")
	}
	synth := &fakeSynth{fn: func(tts.Request) error {
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return nil
	}}
	rep, err := (&Scheduler{Synth: synth, Workers: 6}).Run(context.Background(), NewPlan(texts(bodies...), PlanOptions{Layout: l}))
	require.NoError(t, err)
	require.Len(t, rep.Outcomes, 12)
	for i, o := range rep.Outcomes {
		assert.Equal(t, i+1, o.Index)
		assert.Equal(t, model.StatusCompleted, o.Status)
	}
}

func TestCancelledRunFailsQueuedJobs(t *testing.T) {
	l := layout(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{}
	rep, err := (&Scheduler{Synth: synth, Workers: 1}).Run(ctx, NewPlan(texts("One.\n", "Two.\n"), PlanOptions{Layout: l}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, synth.calls.Load())
	assert.Equal(t, 2, rep.Failed())
	for _, o := range rep.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestJobTimeout(t *testing.T) {
	l := layout(t)
	synth := tts.SynthesizerFunc(func(ctx context.Context, _ tts.Request) (*audio.IntBuffer, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	rep, err := (&Scheduler{Synth: synth, JobTimeout: 20 * time.Millisecond}).Run(context.Background(), NewPlan(texts("Slow.\n"), PlanOptions{Layout: l}))
	require.NoError(t, err)
	require.Len(t, rep.Outcomes, 1)
	assert.ErrorIs(t, rep.Outcomes[0].Err, context.DeadlineExceeded)
}

func TestThroughput(t *testing.T) {
	assert.Zero(t, Throughput(1000, 0))
	assert.Zero(t, Throughput(1000, 999*time.Microsecond))
	assert.InDelta(t, 500.0, Throughput(1000, 2*time.Second), 1e-9)
}

func TestFutureOutcome(t *testing.T) {
	p := NewPool(context.Background(), 2, func(_ context.Context, job model.SynthesisJob) model.Outcome {
		return model.Outcome{Index: job.Index, Status: model.StatusCompleted}
	})
	f := p.Submit(model.SynthesisJob{Index: 7})
	<-f.Done()
	assert.Equal(t, 7, f.Outcome().Index)
	assert.Len(t, p.Wait(), 1)
}
