package util

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlug = 64

// Slugify turns "My Book: Äß • Vol. 1" into "my-book-a-vol-1".
func Slugify(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(decomposed))
	prevHyphen := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	return slug
}

// ChapterSlug is a stable, sortable file stem for a chapter: ch_007_the-storm.
func ChapterSlug(index int, title string) string {
	s := Slugify(title)
	if s == "" {
		return fmt.Sprintf("ch_%03d", index)
	}
	return fmt.Sprintf("ch_%03d_%s", index, s)
}
