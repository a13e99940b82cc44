package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vjovkovs/narrate/internal/assemble"
	"github.com/vjovkovs/narrate/internal/chapters"
	"github.com/vjovkovs/narrate/internal/ebook"
	"github.com/vjovkovs/narrate/internal/model"
	"github.com/vjovkovs/narrate/internal/parse"
	"github.com/vjovkovs/narrate/internal/scheduler"
	"github.com/vjovkovs/narrate/internal/storage"
	"github.com/vjovkovs/narrate/internal/tts"
	"github.com/vjovkovs/narrate/internal/writer"
)

// ErrChapterFailures is returned when FailOnError is set and a chapter failed.
var ErrChapterFailures = errors.New("some chapters failed to synthesize")

// Options controls one conversion.
type Options struct {
	Language    string
	Voice       string
	Speed       float32
	Pick        bool // choose chapters interactively
	Workers     int
	JobTimeout  time.Duration
	OutputDir   string
	Transcripts []string // txt, epub, pdf
	FailOnError bool

	Assemble assemble.Options // FFmpeg, Codec, Bitrate, Runner, LookPath
}

// Result is returned by Runner.Run.
type Result struct {
	RunID     string
	Book      *model.Book
	Dir       string
	Texts     []model.ChapterText
	Report    scheduler.Report
	Audiobook assemble.Result
	Chars     int
	Words     int
	Started   time.Time
	Elapsed   time.Duration
}

// Runner orchestrates open → select → extract → synthesize → assemble.
type Runner struct {
	synth  tts.Synthesizer
	picker chapters.Picker
	opt    Options
	log    *slog.Logger
}

// NewRunner constructs a Runner. picker may be nil when Pick is off.
func NewRunner(synth tts.Synthesizer, picker chapters.Picker, opt Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opt.OutputDir == "" {
		opt.OutputDir = "."
	}
	return &Runner{synth: synth, picker: picker, opt: opt, log: logger}
}

// Run converts the book at bookPath. Failed chapters do not make Run fail
// unless FailOnError is set.
func (r *Runner) Run(ctx context.Context, bookPath string) (Result, error) {
	res := Result{RunID: uuid.NewString(), Started: time.Now()}
	log := r.log.With("run", res.RunID[:8])

	book, err := ebook.Open(bookPath)
	if err != nil {
		return res, err
	}
	res.Book = book
	log.Info("opened book", "title", book.Title, "author", book.Author, "items", len(book.Items))

	selected, err := chapters.Select(ctx, book.Items, chapters.Options{
		Manual: r.opt.Pick,
		Picker: r.picker,
		Logger: log,
	})
	if err != nil {
		return res, err
	}
	log.Info("found chapters", "count", len(selected))

	texts, err := parse.ExtractAll(selected)
	if err != nil {
		return res, err
	}
	res.Texts = texts
	res.Chars, res.Words = Count(texts)
	log.Info("book text", "chars", res.Chars, "words", res.Words)

	layout, err := storage.NewLayout(r.opt.OutputDir, bookPath)
	if err != nil {
		return res, err
	}
	res.Dir = layout.Dir()

	plan := scheduler.NewPlan(texts, scheduler.PlanOptions{
		Layout:   layout,
		Intro:    book.Intro(),
		Voice:    r.opt.Voice,
		Language: r.opt.Language,
		Speed:    r.opt.Speed,
		Logger:   log,
	})
	sched := &scheduler.Scheduler{
		Synth:      r.synth,
		Workers:    r.opt.Workers,
		JobTimeout: r.opt.JobTimeout,
		Logger:     log,
	}
	rep, err := sched.Run(ctx, plan)
	res.Report = rep
	if err != nil {
		return res, fmt.Errorf("synthesis interrupted: %w", err)
	}
	for _, f := range rep.Failures() {
		log.Warn("chapter not narrated", "index", f.Index, "error", f.Err)
	}

	transcript := writer.Transcript{Title: book.Title, Author: book.Author, Chapters: texts}
	for _, format := range r.opt.Transcripts {
		out := layout.TranscriptPath(strings.ToLower(format))
		if err := writer.Write(transcript, format, out); err != nil {
			log.Warn("transcript not written", "format", format, "error", err)
			continue
		}
		log.Info("transcript written", "path", out)
	}

	aopt := r.opt.Assemble
	aopt.Title, aopt.Author, aopt.Logger = book.Title, book.Author, log
	titles := make(map[int]string, len(texts))
	for _, ct := range texts {
		titles[ct.Index] = ct.Title()
	}
	ab, err := assemble.New(layout, aopt).Assemble(ctx, plan.Total(), titles)
	if err != nil {
		return res, err
	}
	res.Audiobook = ab
	res.Elapsed = time.Since(res.Started)

	if err := layout.SaveMeta(meta(res, r.opt)); err != nil {
		log.Warn("could not write run metadata", "error", err)
	}
	log.Info("done", "elapsed", FormatElapsed(res.Elapsed),
		"completed", rep.Completed(), "skipped", rep.Skipped(), "failed", rep.Failed())

	if r.opt.FailOnError && rep.Failed() > 0 {
		return res, fmt.Errorf("%w: %d of %d", ErrChapterFailures, rep.Failed(), len(rep.Outcomes))
	}
	return res, nil
}

func meta(res Result, opt Options) storage.Meta {
	m := storage.Meta{
		RunID:     res.RunID,
		Title:     res.Book.Title,
		Author:    res.Book.Author,
		Voice:     opt.Voice,
		Language:  opt.Language,
		Started:   res.Started,
		Audiobook: res.Audiobook.Path,
	}
	outcomes := make(map[int]model.Outcome, len(res.Report.Outcomes))
	for _, o := range res.Report.Outcomes {
		outcomes[o.Index] = o
	}
	for _, ct := range res.Texts {
		cm := storage.ChapterMeta{
			Index: ct.Index,
			Name:  ct.Chapter.Name,
			Title: ct.Title(),
			Chars: utf8.RuneCountInString(ct.Text),
		}
		if o, ok := outcomes[ct.Index]; ok {
			cm.Status = string(o.Status)
			if o.OK() {
				cm.Audio = o.Path
			}
			if o.Err != nil {
				cm.Error = o.Err.Error()
			}
		} else {
			cm.Status = "empty"
		}
		m.Chapters = append(m.Chapters, cm)
	}
	return m
}

// Count returns the total characters and words of the texts.
func Count(texts []model.ChapterText) (chars, words int) {
	for _, t := range texts {
		chars += utf8.RuneCountInString(t.Text)
		words += len(strings.Fields(t.Text))
	}
	return chars, words
}

// FormatElapsed renders d as "00d 00h 00m 00s".
func FormatElapsed(d time.Duration) string {
	s := int64(d.Round(time.Second) / time.Second)
	days, s := s/86400, s%86400
	hours, s := s/3600, s%3600
	mins, s := s/60, s%60
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", days, hours, mins, s)
}
