package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-audio/audio"
)

const defaultWPM = 170

// EspeakEngine wraps the espeak-ng CLI.
type EspeakEngine struct {
	ExePath  string // optional; auto-detected when empty
	WPM      int    // words per minute at speed 1.0
	MaxChars int    // max bytes per espeak-ng call
}

// NewEspeak returns an engine with sensible defaults.
func NewEspeak(exe string, wpm int) *EspeakEngine {
	if wpm <= 0 {
		wpm = defaultWPM
	}
	return &EspeakEngine{ExePath: exe, WPM: wpm, MaxChars: defaultMaxChars}
}

func (e *EspeakEngine) exe() (string, error) {
	if e.ExePath != "" {
		return e.ExePath, nil
	}
	if p := Which("espeak-ng"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("espeak-ng not found in PATH (ensure it's installed)")
}

// Synthesize renders the text chunk by chunk. The voice falls back to the
// language code, which espeak-ng accepts as a voice name.
func (e *EspeakEngine) Synthesize(ctx context.Context, req Request) (*audio.IntBuffer, error) {
	exe, err := e.exe()
	if err != nil {
		return nil, err
	}
	voice := req.Voice
	if voice == "" {
		voice = req.Language
	}
	wpm := e.WPM
	if req.Speed > 0 {
		wpm = int(float32(wpm) * req.Speed)
	}
	return synthChunks(req.Text, e.MaxChars, func(chunk string) (*audio.IntBuffer, error) {
		return synthViaFile(ctx, chunk, func(txtPath, wavPath string) error {
			args := []string{"-w", wavPath, "-s", fmt.Sprintf("%d", wpm), "-f", txtPath}
			if voice != "" {
				args = append(args, "-v", voice)
			}
			return runCmd(ctx, exe, args...)
		})
	})
}

// Voices lists the language codes espeak-ng reports in `--voices`.
func (e *EspeakEngine) Voices(ctx context.Context) ([]string, error) {
	exe, err := e.exe()
	if err != nil {
		return nil, err
	}
	out, err := exec.CommandContext(ctx, exe, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("%s --voices: %w", exe, err)
	}
	return parseEspeakVoices(string(out)), nil
}

// parseEspeakVoices reads the Language column of the voices table.
func parseEspeakVoices(table string) []string {
	var voices []string
	seen := map[string]bool{}
	for i, line := range strings.Split(table, "\n") {
		fields := strings.Fields(line)
		if i == 0 || len(fields) < 2 || seen[fields[1]] {
			continue
		}
		seen[fields[1]] = true
		voices = append(voices, fields[1])
	}
	return voices
}
