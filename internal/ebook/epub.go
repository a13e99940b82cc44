// Package ebook loads EPUB files into the book model.
package ebook

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/vjovkovs/narrate/internal/model"
)

var ErrNoRootfile = errors.New("no rootfiles found in epub")

var documentTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
}

// Open reads the book metadata and every manifest item in manifest order.
func Open(path string) (*model.Book, error) {
	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, ErrNoRootfile
	}
	root := rc.Rootfiles[0]

	book := &model.Book{
		Path:   path,
		Title:  fallback(root.Title, model.DefaultTitle),
		Author: fallback(root.Creator, model.DefaultAuthor),
	}
	for i := range root.Manifest.Items {
		item := &root.Manifest.Items[i]
		di := model.DocumentItem{
			Name:    item.HREF,
			Ordinal: i,
			Type:    itemType(item.MediaType),
		}
		if di.Type == model.ItemDocument {
			body, err := readItem(item)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", item.HREF, err)
			}
			di.Body = body
		}
		book.Items = append(book.Items, di)
	}
	return book, nil
}

func readItem(item *epub.Item) (string, error) {
	r, err := item.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func itemType(mediaType string) model.ItemType {
	if documentTypes[strings.ToLower(strings.TrimSpace(mediaType))] {
		return model.ItemDocument
	}
	return model.ItemOther
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
