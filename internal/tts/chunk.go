package tts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-audio/audio"
)

const defaultMaxChars = 1800

var (
	wsRun    = regexp.MustCompile(`[ \t\f\v]+`)
	sentence = regexp.MustCompile(`(?s).+?(?:[\.!\?]+["')\]]*\s+|[。！？]+[」』）"']*\s*|\n{2,}|$)`)
)

// splitSmart breaks text into chunks of at most maxChars bytes, preferring
// sentence boundaries and falling back to whitespace.
func splitSmart(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = wsRun.ReplaceAllString(s, " ")

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			chunks = append(chunks, t)
		}
		cur.Reset()
	}
	for _, sen := range sentence.FindAllString(s, -1) {
		if cur.Len()+len(sen) > maxChars && cur.Len() > 0 {
			flush()
		}
		if len(sen) <= maxChars {
			cur.WriteString(sen)
			continue
		}
		for _, part := range hardWrap(sen, maxChars) {
			if cur.Len()+len(part) > maxChars && cur.Len() > 0 {
				flush()
			}
			cur.WriteString(part)
		}
	}
	flush()
	return chunks
}

func hardWrap(s string, maxChars int) []string {
	var parts []string
	for len(s) > maxChars {
		cut := lastSpaceBefore(s, maxChars)
		parts = append(parts, strings.TrimSpace(s[:cut])+"\n")
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

// lastSpaceBefore returns the cut point for a chunk of at most idx bytes: the
// last whitespace, else the last rune boundary.
func lastSpaceBefore(s string, idx int) int {
	if idx >= len(s) {
		return len(s)
	}
	for i := idx; i > 0; i-- {
		if s[i] == ' ' || s[i] == '\n' || s[i] == '\t' {
			return i
		}
	}
	cut := idx
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

// appendPCM concatenates buffers that share sample rate and channel count.
func appendPCM(dst, src *audio.IntBuffer) (*audio.IntBuffer, error) {
	if dst == nil {
		return src, nil
	}
	if !sameFormat(dst.Format, src.Format) {
		return nil, fmt.Errorf("format mismatch (expected %d Hz, %d ch; got %d Hz, %d ch)",
			dst.Format.SampleRate, dst.Format.NumChannels, src.Format.SampleRate, src.Format.NumChannels)
	}
	dst.Data = append(dst.Data, src.Data...)
	return dst, nil
}

func sameFormat(a, b *audio.Format) bool {
	return a != nil && b != nil &&
		a.SampleRate == b.SampleRate &&
		a.NumChannels == b.NumChannels
}

// synthChunks renders each chunk with one and joins the samples in order.
func synthChunks(text string, maxChars int, one func(chunk string) (*audio.IntBuffer, error)) (*audio.IntBuffer, error) {
	var out *audio.IntBuffer
	for i, chunk := range splitSmart(text, maxChars) {
		buf, err := one(chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		if out, err = appendPCM(out, buf); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
	}
	if out == nil {
		return nil, fmt.Errorf("no speakable text")
	}
	return out, nil
}
