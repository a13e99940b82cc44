// Package chapters decides which document items of a book get narrated.
package chapters

import (
	"regexp"
	"strings"
)

var (
	partRe = regexp.MustCompile(`part\d{1,3}`)
	chRe   = regexp.MustCompile(`ch\d{1,3}`)
)

// IsChapter reports whether an item name looks like narratable chapter content.
func IsChapter(name string) bool {
	n := strings.ToLower(name)
	return partRe.MatchString(n) || chRe.MatchString(n) || strings.Contains(n, "chapter")
}
