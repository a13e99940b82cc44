// Package assemble muxes per-chapter WAV artifacts into one chaptered .m4b
// through ffmpeg.
package assemble

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vjovkovs/narrate/internal/storage"
	"github.com/vjovkovs/narrate/internal/tts"
)

var ErrNoArtifacts = errors.New("no chapter audio to assemble")

const (
	defaultFFmpeg  = "ffmpeg"
	defaultCodec   = "aac"
	defaultBitrate = "64k"
)

type Options struct {
	FFmpeg  string // binary name or path
	Codec   string
	Bitrate string
	Title   string
	Author  string
	Runner  Runner
	Logger  *slog.Logger

	LookPath func(string) (string, error) // defaults to exec.LookPath
}

// Entry is one artifact in the concat manifest.
type Entry struct {
	Index int
	Path  string
}

// Marker is a chapter mark in the final container, in milliseconds.
type Marker struct {
	Index int
	Title string
	Start int64
	End   int64
}

type Result struct {
	Skipped  bool // ffmpeg unavailable; the WAV files are the deliverable
	Path     string
	Manifest []Entry
	Markers  []Marker
}

type Assembler struct {
	layout *storage.Layout
	opt    Options
}

func New(layout *storage.Layout, opt Options) *Assembler {
	if opt.FFmpeg == "" {
		opt.FFmpeg = defaultFFmpeg
	}
	if opt.Codec == "" {
		opt.Codec = defaultCodec
	}
	if opt.Bitrate == "" {
		opt.Bitrate = defaultBitrate
	}
	if opt.Runner == nil {
		opt.Runner = ExecRunner{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.LookPath == nil {
		opt.LookPath = exec.LookPath
	}
	return &Assembler{layout: layout, opt: opt}
}

// Manifest lists the artifacts present for indices 1..total in ascending order.
func Manifest(layout *storage.Layout, total int) []Entry {
	var out []Entry
	for i := 1; i <= total; i++ {
		if p := layout.ChapterPath(i); storage.Exists(p) {
			out = append(out, Entry{Index: i, Path: p})
		}
	}
	return out
}

// Assemble builds <book>.m4b from the chapter artifacts. titles maps a chapter
// index to its marker title; missing titles become "Chapter <i>".
func (a *Assembler) Assemble(ctx context.Context, total int, titles map[int]string) (Result, error) {
	log := a.opt.Logger
	exe, err := a.opt.LookPath(a.opt.FFmpeg)
	if err != nil {
		log.Info("ffmpeg not found, skipping audiobook assembly; chapter WAV files are the output",
			"ffmpeg", a.opt.FFmpeg, "dir", a.layout.Dir())
		return Result{Skipped: true}, nil
	}

	manifest := Manifest(a.layout, total)
	if len(manifest) == 0 {
		return Result{}, ErrNoArtifacts
	}
	markers, err := buildMarkers(manifest, titles)
	if err != nil {
		return Result{}, err
	}

	if err := writeList(a.layout.ListPath(), manifest); err != nil {
		return Result{}, fmt.Errorf("write list file: %w", err)
	}
	if err := writeMetadata(a.layout.ChaptersPath(), a.opt.Title, a.opt.Author, markers); err != nil {
		return Result{}, fmt.Errorf("write chapter metadata: %w", err)
	}

	tmp, part, final := a.layout.TempPath(), a.layout.PartPath(), a.layout.FinalPath()
	log.Info("concatenating chapters", "chapters", len(manifest), "codec", a.opt.Codec, "bitrate", a.opt.Bitrate)
	if err := a.opt.Runner.Run(ctx, exe, concatArgs(a.layout.ListPath(), a.opt.Codec, a.opt.Bitrate, tmp)...); err != nil {
		os.Remove(tmp)
		return Result{}, fmt.Errorf("concat: %w", err)
	}
	log.Info("writing chapter markers", "output", final)
	if err := a.opt.Runner.Run(ctx, exe, muxArgs(tmp, a.layout.ChaptersPath(), part)...); err != nil {
		os.Remove(part)
		return Result{}, fmt.Errorf("mux: %w", err)
	}
	if err := os.Rename(part, final); err != nil {
		return Result{}, err
	}

	for _, p := range []string{a.layout.ListPath(), a.layout.ChaptersPath(), tmp} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("cleanup failed", "path", p, "error", err)
		}
	}
	log.Info("audiobook created", "path", final)
	return Result{Path: final, Manifest: manifest, Markers: markers}, nil
}

func buildMarkers(manifest []Entry, titles map[int]string) ([]Marker, error) {
	markers := make([]Marker, 0, len(manifest))
	var start int64
	for _, e := range manifest {
		d, err := tts.Duration(e.Path)
		if err != nil {
			return nil, fmt.Errorf("duration of chapter %d: %w", e.Index, err)
		}
		title := strings.TrimSpace(titles[e.Index])
		if title == "" {
			title = fmt.Sprintf("Chapter %d", e.Index)
		}
		end := start + d.Round(time.Millisecond).Milliseconds()
		markers = append(markers, Marker{Index: e.Index, Title: title, Start: start, End: end})
		start = end
	}
	return markers, nil
}

// writeList writes the ffmpeg concat demuxer input.
func writeList(path string, manifest []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range manifest {
		fmt.Fprintf(w, "file '%s'\n", quoteConcat(e.Path))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// quoteConcat closes the quote, emits an escaped quote and reopens it.
func quoteConcat(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func writeMetadata(path, title, author string, markers []Marker) error {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	if title != "" {
		fmt.Fprintf(&b, "title=%s\n", escapeMeta(title))
		fmt.Fprintf(&b, "album=%s\n", escapeMeta(title))
	}
	if author != "" {
		fmt.Fprintf(&b, "artist=%s\n", escapeMeta(author))
	}
	b.WriteString("genre=Audiobook\n")
	for _, m := range markers {
		b.WriteString("\n[CHAPTER]\nTIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\nEND=%d\ntitle=%s\n", m.Start, m.End, escapeMeta(m.Title))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

var metaEscaper = strings.NewReplacer(`\`, `\\`, "=", `\=`, ";", `\;`, "#", `\#`, "\n", `\`+"\n")

func escapeMeta(s string) string {
	return metaEscaper.Replace(s)
}
