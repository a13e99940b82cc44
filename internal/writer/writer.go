// Package writer exports the narrated text of a book as txt, epub or pdf.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vjovkovs/narrate/internal/model"
)

// Transcript is the text that was sent to the synthesizer, per chapter.
type Transcript struct {
	Title    string
	Author   string
	Chapters []model.ChapterText
}

type writeFunc func(t Transcript, outPath string) error

var formats = map[string]writeFunc{
	"txt":  WriteTXT,
	"epub": WriteEPUB,
	"pdf":  WritePDF,
}

// Formats lists the supported format names.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Write renders the transcript in the named format.
func Write(t Transcript, format, outPath string) error {
	fn, ok := formats[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unknown transcript format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return fn(t, outPath)
}

// narrated drops chapters without text.
func (t Transcript) narrated() []model.ChapterText {
	var out []model.ChapterText
	for _, ct := range t.Chapters {
		if !ct.Empty() {
			out = append(out, ct)
		}
	}
	return out
}

// paragraphs splits extracted text into its non-blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
