// Package scheduler turns chapter texts into synthesis jobs and runs them on a
// bounded worker pool. Chapters whose audio already exists are skipped, so an
// interrupted conversion resumes where it stopped.
package scheduler

import (
	"log/slog"
	"unicode/utf8"

	"github.com/vjovkovs/narrate/internal/model"
	"github.com/vjovkovs/narrate/internal/storage"
)

const introSuffix = ".\n\n"

// Layout resolves the artifact path of a chapter index.
type Layout interface {
	ChapterPath(index int) string
}

type PlanOptions struct {
	Layout   Layout
	Intro    string // "<title> by <author>"; empty disables it
	Voice    string
	Language string
	Speed    float32
	Logger   *slog.Logger
}

// Plan is the static job list of one run.
type Plan struct {
	Jobs    []model.SynthesisJob
	Skipped []model.Outcome // artifacts already on disk
	Empty   []int           // indices with no narratable text

	// IntroIndex is the chapter that carries the intro, 0 when none.
	IntroIndex int
}

// Total is the number of chapter indices the plan covers.
func (p *Plan) Total() int {
	return len(p.Jobs) + len(p.Skipped) + len(p.Empty)
}

// NewPlan walks the texts in index order. The intro goes to the first
// non-empty chapter even when that chapter is skipped.
func NewPlan(texts []model.ChapterText, opt PlanOptions) *Plan {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	p := &Plan{}
	for _, ct := range texts {
		if ct.Empty() {
			p.Empty = append(p.Empty, ct.Index)
			log.Debug("chapter has no text, skipping", "index", ct.Index, "name", ct.Chapter.Name)
			continue
		}
		text := ct.Text
		if p.IntroIndex == 0 {
			p.IntroIndex = ct.Index
			if opt.Intro != "" {
				text = opt.Intro + introSuffix + text
			}
		}

		dest := opt.Layout.ChapterPath(ct.Index)
		if storage.Exists(dest) {
			log.Info("file already exists, skipping", "index", ct.Index, "path", dest)
			p.Skipped = append(p.Skipped, model.Outcome{
				Index:  ct.Index,
				Path:   dest,
				Status: model.StatusSkipped,
				Chars:  utf8.RuneCountInString(text),
			})
			continue
		}
		p.Jobs = append(p.Jobs, model.SynthesisJob{
			Index:    ct.Index,
			Text:     text,
			Voice:    opt.Voice,
			Language: opt.Language,
			Speed:    opt.Speed,
			Dest:     dest,
		})
	}
	return p
}
