package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	out := t.TempDir()
	l, err := NewLayout(out, "/books/My Book.epub")
	require.NoError(t, err)

	dir := filepath.Join(out, "My Book")
	assert.DirExists(t, dir)
	assert.Equal(t, "My Book", l.Book())
	assert.Equal(t, filepath.Join(dir, "My Book_chapter_3.wav"), l.ChapterPath(3))
	assert.Equal(t, filepath.Join(dir, "wav_list.txt"), l.ListPath())
	assert.Equal(t, filepath.Join(dir, "My Book.tmp.m4a"), l.TempPath())
	assert.Equal(t, filepath.Join(dir, "My Book.m4b"), l.FinalPath())
	assert.Equal(t, filepath.Join(dir, "My Book.m4b.part"), l.PartPath())
	assert.Equal(t, filepath.Join(dir, "My Book.pdf"), l.TranscriptPath(".pdf"))
	assert.True(t, filepath.IsAbs(l.Dir()))
}

func TestNewLayoutRejectsEmptyName(t *testing.T) {
	_, err := NewLayout(t.TempDir(), "")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.wav")
	assert.False(t, Exists(f))
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	assert.True(t, Exists(f))
	assert.False(t, Exists(dir), "directories are not artifacts")
}

func TestSaveMeta(t *testing.T) {
	l, err := NewLayout(t.TempDir(), "book.epub")
	require.NoError(t, err)
	require.NoError(t, l.SaveMeta(Meta{
		RunID: "r1", Title: "T",
		Chapters: []ChapterMeta{{Index: 1, Name: "ch1.xhtml", Status: "completed"}},
	}))

	b, err := os.ReadFile(l.MetaPath())
	require.NoError(t, err)
	var m Meta
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "r1", m.RunID)
	require.Len(t, m.Chapters, 1)
	assert.Equal(t, "ch1.xhtml", m.Chapters[0].Name)
}
