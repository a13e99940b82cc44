package writer

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/bmaupin/go-epub"
	"github.com/google/uuid"

	"github.com/vjovkovs/narrate/internal/util"
)

const epubCSS = `
html, body { margin:0; padding:0; }
body { line-height:1.45; }
h1, h2 { margin:0 0 0.8em 0; }
p { margin:0 0 1em 0; }
`

func WriteEPUB(t Transcript, outPath string) error {
	chs := t.narrated()
	if len(chs) == 0 {
		return fmt.Errorf("WriteEPUB: no chapters provided")
	}

	book := epub.NewEpub(t.Title)
	book.SetAuthor(t.Author)
	book.SetIdentifier("urn:uuid:" + uuid.NewString())

	css, err := os.CreateTemp("", "narrate-*.css")
	if err != nil {
		return err
	}
	defer os.Remove(css.Name())
	if _, err := css.WriteString(epubCSS); err != nil {
		css.Close()
		return err
	}
	if err := css.Close(); err != nil {
		return err
	}
	cssRef, err := book.AddCSS(css.Name(), "style.css")
	if err != nil {
		return err
	}

	for _, ch := range chs {
		var body strings.Builder
		fmt.Fprintf(&body, "<h2>%s</h2>", html.EscapeString(ch.Title()))
		for _, p := range paragraphs(ch.Text) {
			fmt.Fprintf(&body, "<p>%s</p>", html.EscapeString(p))
		}
		fn := util.ChapterSlug(ch.Index, ch.Title()) + ".xhtml"
		if _, err := book.AddSection(body.String(), ch.Title(), fn, cssRef); err != nil {
			return fmt.Errorf("add chapter %d: %w", ch.Index, err)
		}
	}
	return book.Write(outPath)
}
