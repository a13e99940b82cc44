package tts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-audio/audio"
)

// KokoroOptions configures the local Kokoro engine.
type KokoroOptions struct {
	Bin    string // kokoro-tts executable; looked up on PATH when empty
	Model  string // kokoro-v0_19.onnx
	Voices string // voices.json
}

// KokoroEngine runs the kokoro-tts CLI, one process per request.
type KokoroEngine struct {
	opt KokoroOptions
}

func NewKokoro(opt KokoroOptions) *KokoroEngine {
	return &KokoroEngine{opt: opt}
}

func (e *KokoroEngine) bin() (string, error) {
	if e.opt.Bin != "" {
		return e.opt.Bin, nil
	}
	if p := Which("kokoro-tts"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("kokoro-tts not found in PATH")
}

func (e *KokoroEngine) Synthesize(ctx context.Context, req Request) (*audio.IntBuffer, error) {
	exe, err := e.bin()
	if err != nil {
		return nil, err
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}
	return synthViaFile(ctx, req.Text, func(txtPath, wavPath string) error {
		args := []string{
			txtPath, wavPath,
			"--model", e.opt.Model,
			"--voices", e.opt.Voices,
			"--speed", strconv.FormatFloat(float64(speed), 'f', -1, 32),
		}
		if req.Voice != "" {
			args = append(args, "--voice", req.Voice)
		}
		if req.Language != "" {
			args = append(args, "--lang", req.Language)
		}
		return runCmd(ctx, exe, args...)
	})
}
