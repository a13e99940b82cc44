package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-audio/audio"
)

// Request is one synthesis call.
type Request struct {
	Text     string
	Voice    string
	Language string
	Speed    float32 // 1.0 = normal
}

// Synthesizer turns text into PCM samples. Implementations must be safe for
// concurrent use; every call is independent.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*audio.IntBuffer, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, req Request) (*audio.IntBuffer, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, req Request) (*audio.IntBuffer, error) {
	return f(ctx, req)
}

// synthViaFile runs an external engine that reads text from a file and writes a
// WAV file, then loads the samples.
func synthViaFile(ctx context.Context, text string, run func(txtPath, wavPath string) error) (*audio.IntBuffer, error) {
	txt, err := os.CreateTemp("", "narrate-*.txt")
	if err != nil {
		return nil, err
	}
	txtPath := txt.Name()
	defer os.Remove(txtPath)
	if _, err := txt.WriteString(text); err != nil {
		txt.Close()
		return nil, err
	}
	if err := txt.Close(); err != nil {
		return nil, err
	}

	wavPath := strings.TrimSuffix(txtPath, ".txt") + ".wav"
	defer os.Remove(wavPath)
	if err := run(txtPath, wavPath); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadWAV(wavPath)
}

func runCmd(ctx context.Context, exe string, args ...string) error {
	cmd := exec.CommandContext(ctx, exe, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", exe, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Which returns the absolute path of an executable on PATH, or "".
func Which(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		if p, _ := exec.LookPath(name + ".exe"); p != "" {
			return p
		}
	}
	if p, _ := exec.LookPath(name); p != "" {
		return p
	}
	return ""
}
