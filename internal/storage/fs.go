// Package storage owns the on-disk layout of a conversion run.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Layout maps a book onto <out>/<book>/.
type Layout struct {
	dir  string
	book string
}

// BookName is the e-book filename without directory and extension.
func BookName(bookPath string) string {
	base := filepath.Base(bookPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NewLayout creates the output directory for the book.
func NewLayout(outDir, bookPath string) (*Layout, error) {
	book := BookName(bookPath)
	if book == "" || book == "." {
		return nil, fmt.Errorf("invalid book path %q", bookPath)
	}
	dir := filepath.Join(outDir, book)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Layout{dir: abs, book: book}, nil
}

func (l *Layout) Dir() string  { return l.dir }
func (l *Layout) Book() string { return l.book }

// ChapterPath is the artifact path for a 1-based chapter index.
func (l *Layout) ChapterPath(index int) string {
	return l.path(fmt.Sprintf("%s_chapter_%d.wav", l.book, index))
}

func (l *Layout) ListPath() string     { return l.path("wav_list.txt") }
func (l *Layout) ChaptersPath() string { return l.path("chapters.txt") }
func (l *Layout) TempPath() string     { return l.path(l.book + ".tmp.m4a") }
func (l *Layout) FinalPath() string    { return l.path(l.book + ".m4b") }
func (l *Layout) PartPath() string     { return l.FinalPath() + ".part" }
func (l *Layout) MetaPath() string     { return l.path("meta.json") }

// TranscriptPath is <book>.<ext> next to the audio.
func (l *Layout) TranscriptPath(ext string) string {
	return l.path(l.book + "." + strings.TrimPrefix(ext, "."))
}

func (l *Layout) path(name string) string { return filepath.Join(l.dir, name) }

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// ChapterMeta describes one chapter of the run.
type ChapterMeta struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Chars  int    `json:"chars"`
	Audio  string `json:"audio,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Meta is the run summary persisted next to the artifacts.
type Meta struct {
	RunID     string        `json:"run_id"`
	Title     string        `json:"title"`
	Author    string        `json:"author"`
	Voice     string        `json:"voice"`
	Language  string        `json:"language"`
	Started   time.Time     `json:"started"`
	Chapters  []ChapterMeta `json:"chapters"`
	Audiobook string        `json:"audiobook,omitempty"`
}

// SaveMeta writes meta.json.
func (l *Layout) SaveMeta(m Meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.MetaPath(), b, 0o644)
}
