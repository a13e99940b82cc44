package chapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vjovkovs/narrate/internal/model"
)

var (
	ErrNoSelection   = errors.New("at least one chapter must be selected")
	ErrDuplicateName = errors.New("duplicate document name")
	ErrNoPicker      = errors.New("manual selection requires a picker")
)

// Picker lets a user choose chapters from the ordered document names.
// The returned order is not significant.
type Picker interface {
	Pick(ctx context.Context, title string, names []string) ([]string, error)
}

// Options controls Select.
type Options struct {
	Manual bool
	Picker Picker
	Logger *slog.Logger
}

const pickTitle = "Select which chapters to read in the audiobook"

// Select returns the chapters to narrate, in book order.
func Select(ctx context.Context, items []model.DocumentItem, opt Options) ([]model.Chapter, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	docs := documents(items)
	if opt.Manual {
		return manual(ctx, docs, opt.Picker)
	}
	return automatic(docs, logger), nil
}

func automatic(docs []model.DocumentItem, logger *slog.Logger) []model.Chapter {
	var out []model.Chapter
	for _, d := range docs {
		if IsChapter(d.Name) {
			out = append(out, model.Chapter{DocumentItem: d})
		}
	}
	if len(out) > 0 {
		return out
	}
	logger.Warn("no obvious chapters found, using all documents", "documents", len(docs))
	for _, d := range docs {
		out = append(out, model.Chapter{DocumentItem: d})
	}
	return out
}

func manual(ctx context.Context, docs []model.DocumentItem, p Picker) ([]model.Chapter, error) {
	if p == nil {
		return nil, ErrNoPicker
	}
	names := make([]string, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = true
		names = append(names, d.Name)
	}

	picked, err := p.Pick(ctx, pickTitle, names)
	if err != nil {
		return nil, fmt.Errorf("pick chapters: %w", err)
	}
	want := make(map[string]bool, len(picked))
	for _, n := range picked {
		want[n] = true
	}

	var out []model.Chapter
	for _, d := range docs {
		if want[d.Name] {
			out = append(out, model.Chapter{DocumentItem: d})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSelection
	}
	return out, nil
}

// documents filters document-type items and orders them by ordinal.
func documents(items []model.DocumentItem) []model.DocumentItem {
	b := model.Book{Items: items}
	return b.Documents()
}
