package model

import (
	"fmt"
	"sort"
	"strings"
)

// ItemType distinguishes narratable markup documents from other book resources.
type ItemType int

const (
	ItemOther ItemType = iota
	ItemDocument
)

func (t ItemType) String() string {
	if t == ItemDocument {
		return "document"
	}
	return "other"
}

const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown Author"
)

// DocumentItem is one named content unit of the book, in manifest order.
type DocumentItem struct {
	Name    string   `json:"name"`
	Ordinal int      `json:"ordinal"`
	Body    string   `json:"-"`
	Type    ItemType `json:"type"`
}

// Chapter is a DocumentItem selected for narration.
type Chapter struct {
	DocumentItem
}

// ChapterText is the extracted narration text of a chapter.
// Index is 1-based and follows the selected chapter order.
type ChapterText struct {
	Index   int
	Chapter Chapter
	Text    string
}

// Empty reports whether there is nothing to narrate.
func (t ChapterText) Empty() bool {
	return strings.TrimSpace(t.Text) == ""
}

// Title returns the first non-empty line of the text, used for chapter markers.
func (t ChapterText) Title() string {
	for _, line := range strings.Split(t.Text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			if r := []rune(s); len(r) > 80 {
				s = string(r[:80])
			}
			return s
		}
	}
	return fmt.Sprintf("Chapter %d", t.Index)
}

// Book is the parsed e-book with its metadata and items.
type Book struct {
	Path   string
	Title  string
	Author string
	Items  []DocumentItem
}

// Documents returns the document-type items in ordinal order.
func (b *Book) Documents() []DocumentItem {
	var out []DocumentItem
	for _, it := range b.Items {
		if it.Type == ItemDocument {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// Intro is spoken before the first narrated chapter.
func (b *Book) Intro() string {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		title = DefaultTitle
	}
	author := strings.TrimSpace(b.Author)
	if author == "" {
		author = DefaultAuthor
	}
	return title + " by " + author
}
