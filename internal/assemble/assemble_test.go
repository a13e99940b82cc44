package assemble

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjovkovs/narrate/internal/storage"
	"github.com/vjovkovs/narrate/internal/tts"
)

type call struct {
	exe  string
	args []string
}

type fakeRunner struct {
	calls  []call
	failAt int // 1-based call number that fails; 0 never
}

func (f *fakeRunner) Run(_ context.Context, exe string, args ...string) error {
	f.calls = append(f.calls, call{exe, args})
	if f.failAt == len(f.calls) {
		return errors.New("ffmpeg failed: exit status 1\nOutput: bad input")
	}
	return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
}

func found(string) (string, error) { return "/usr/bin/ffmpeg", nil }

func writeChapter(t *testing.T, l *storage.Layout, index, samples int) {
	t.Helper()
	require.NoError(t, tts.WriteWAV(l.ChapterPath(index), &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 1000},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}))
}

func newLayout(t *testing.T) *storage.Layout {
	t.Helper()
	l, err := storage.NewLayout(t.TempDir(), "It's a Book.epub")
	require.NoError(t, err)
	return l
}

func TestAssemble(t *testing.T) {
	l := newLayout(t)
	writeChapter(t, l, 3, 2000)
	writeChapter(t, l, 1, 1500)

	r := &fakeRunner{}
	var list, meta string
	cr := &captureRunner{fakeRunner: r, onFirst: func() {
		b, _ := os.ReadFile(l.ListPath())
		list = string(b)
		b, _ = os.ReadFile(l.ChaptersPath())
		meta = string(b)
	}}
	a := New(l, Options{Title: "A=B", Author: "Ann", Runner: cr, LookPath: found})

	res, err := a.Assemble(context.Background(), 3, map[int]string{1: "Prologue"})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, l.FinalPath(), res.Path)
	require.Len(t, res.Manifest, 2)
	assert.Equal(t, 1, res.Manifest[0].Index)
	assert.Equal(t, 3, res.Manifest[1].Index)

	require.Len(t, res.Markers, 2)
	assert.Equal(t, Marker{Index: 1, Title: "Prologue", Start: 0, End: 1500}, res.Markers[0])
	assert.Equal(t, Marker{Index: 3, Title: "Chapter 3", Start: 1500, End: 3500}, res.Markers[1])

	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "file '"+strings.ReplaceAll(l.ChapterPath(1), "'", `'\''`)+"'", lines[0])
	assert.Contains(t, lines[1], "_chapter_3.wav")
	assert.Contains(t, list, `It'\''s a Book`)

	assert.True(t, strings.HasPrefix(meta, ";FFMETADATA1\n"))
	assert.Contains(t, meta, `title=A\=B`)
	assert.Contains(t, meta, "artist=Ann")
	assert.Contains(t, meta, "START=1500\nEND=3500\ntitle=Chapter 3")

	require.Len(t, r.calls, 2)
	assert.Equal(t, "/usr/bin/ffmpeg", r.calls[0].exe)
	assert.Equal(t, concatArgs(l.ListPath(), "aac", "64k", l.TempPath()), r.calls[0].args)
	assert.Equal(t, muxArgs(l.TempPath(), l.ChaptersPath(), l.PartPath()), r.calls[1].args)

	assert.FileExists(t, l.FinalPath())
	assert.NoFileExists(t, l.PartPath())
	assert.NoFileExists(t, l.ListPath())
	assert.NoFileExists(t, l.ChaptersPath())
	assert.NoFileExists(t, l.TempPath())
}

type captureRunner struct {
	*fakeRunner
	onFirst func()
}

func (c *captureRunner) Run(ctx context.Context, exe string, args ...string) error {
	if len(c.calls) == 0 {
		c.onFirst()
	}
	return c.fakeRunner.Run(ctx, exe, args...)
}

func TestAssembleWithoutFFmpeg(t *testing.T) {
	l := newLayout(t)
	writeChapter(t, l, 1, 100)
	r := &fakeRunner{}
	a := New(l, Options{Runner: r, LookPath: func(string) (string, error) { return "", exec.ErrNotFound }})

	res, err := a.Assemble(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, r.calls)
}

func TestAssembleNoArtifacts(t *testing.T) {
	a := New(newLayout(t), Options{Runner: &fakeRunner{}, LookPath: found})
	_, err := a.Assemble(context.Background(), 4, nil)
	assert.ErrorIs(t, err, ErrNoArtifacts)
}

func TestAssembleMuxFailureLeavesNoFinal(t *testing.T) {
	l := newLayout(t)
	writeChapter(t, l, 1, 100)
	a := New(l, Options{Runner: &fakeRunner{failAt: 2}, LookPath: found})

	_, err := a.Assemble(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Output: bad input")
	assert.NoFileExists(t, l.FinalPath())
	assert.NoFileExists(t, l.PartPath())
}

func TestManifestAscending(t *testing.T) {
	l := newLayout(t)
	for _, i := range []int{5, 2, 4} {
		writeChapter(t, l, i, 10)
	}
	var idx []int
	for _, e := range Manifest(l, 5) {
		idx = append(idx, e.Index)
	}
	assert.Equal(t, []int{2, 4, 5}, idx)
}

func TestEscapeMeta(t *testing.T) {
	assert.Equal(t, `a\=b\;c\#d\\e`, escapeMeta(`a=b;c#d\e`))
}
