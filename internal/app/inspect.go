package app

import (
	"unicode/utf8"

	"github.com/vjovkovs/narrate/internal/chapters"
	"github.com/vjovkovs/narrate/internal/ebook"
	"github.com/vjovkovs/narrate/internal/model"
	"github.com/vjovkovs/narrate/internal/parse"
)

// ItemInfo describes one manifest item for listing.
type ItemInfo struct {
	Ordinal int
	Name    string
	Type    model.ItemType
	Chapter bool // matched by the chapter classifier
	Chars   int  // narratable characters
}

// Inspect opens the book and classifies every item without synthesizing.
func Inspect(bookPath string) (*model.Book, []ItemInfo, error) {
	book, err := ebook.Open(bookPath)
	if err != nil {
		return nil, nil, err
	}
	infos := make([]ItemInfo, 0, len(book.Items))
	for _, it := range book.Items {
		info := ItemInfo{Ordinal: it.Ordinal, Name: it.Name, Type: it.Type}
		if it.Type == model.ItemDocument {
			info.Chapter = chapters.IsChapter(it.Name)
			text, err := parse.ExtractText(it.Body)
			if err != nil {
				return nil, nil, err
			}
			info.Chars = utf8.RuneCountInString(text)
		}
		infos = append(infos, info)
	}
	return book, infos, nil
}
