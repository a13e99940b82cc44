package parse

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vjovkovs/narrate/internal/model"
)

// narratable lists the block tags whose text gets spoken.
var narratable = map[string]bool{
	"title": true,
	"p":     true,
	"h1":    true,
	"h2":    true,
	"h3":    true,
	"h4":    true,
}

// Extract returns the narration text of a chapter.
func Extract(index int, ch model.Chapter) (model.ChapterText, error) {
	text, err := ExtractText(ch.Body)
	if err != nil {
		return model.ChapterText{}, fmt.Errorf("extract %s: %w", ch.Name, err)
	}
	return model.ChapterText{Index: index, Chapter: ch, Text: text}, nil
}

// ExtractAll extracts every chapter; indices start at 1 and follow the slice order.
func ExtractAll(chs []model.Chapter) ([]model.ChapterText, error) {
	out := make([]model.ChapterText, 0, len(chs))
	for i, ch := range chs {
		t, err := Extract(i+1, ch)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ExtractText walks the markup depth first and emits one line per narratable
// element with non-empty trimmed text. A matched element is not descended into,
// so nested matches are never counted twice.
func ExtractText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	for _, root := range doc.Nodes {
		walk(root, func(n *html.Node) bool {
			if n.Type != html.ElementNode || !narratable[strings.ToLower(n.Data)] {
				return true
			}
			if t := strings.TrimSpace(goquery.NewDocumentFromNode(n).Text()); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
			return false
		})
	}
	return b.String(), nil
}

// walk visits descendants of n in document order; f returns false to skip a subtree.
func walk(n *html.Node, f func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f(c) {
			walk(c, f)
		}
	}
}
