// Package engine builds the configured speech backend.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/vjovkovs/narrate/internal/config"
	"github.com/vjovkovs/narrate/internal/tts"
)

// Engine is a synthesizer plus the catalog of voices it accepts.
type Engine struct {
	tts.Synthesizer
	io.Closer

	Name   string
	voices func(ctx context.Context) ([]string, error)
}

// Voices lists the voices available to the backend.
func (e *Engine) Voices(ctx context.Context) ([]string, error) {
	return e.voices(ctx)
}

// DefaultVoice resolves the voice to use when none is configured.
func (e *Engine) DefaultVoice(ctx context.Context, requested string) (string, error) {
	if requested != "" || e.Name == config.BackendEspeak {
		return requested, nil
	}
	voices, err := e.Voices(ctx)
	if err != nil {
		return "", fmt.Errorf("list voices: %w", err)
	}
	return tts.PickVoice(requested, voices), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the backend named by cfg.Backend. The kokoro backend fails with
// an error wrapping tts.ErrMissingResources when its files are absent.
func New(cfg *config.Config) (*Engine, error) {
	switch cfg.Backend {
	case config.BackendKokoro:
		if err := tts.CheckResources(tts.KokoroResources(cfg.Kokoro.Model, cfg.Kokoro.Voices)); err != nil {
			return nil, err
		}
		k := tts.NewKokoro(tts.KokoroOptions{
			Bin:    cfg.Kokoro.Bin,
			Model:  cfg.Kokoro.Model,
			Voices: cfg.Kokoro.Voices,
		})
		return &Engine{
			Synthesizer: k,
			Closer:      nopCloser{},
			Name:        cfg.Backend,
			voices: func(context.Context) ([]string, error) {
				return tts.LoadVoices(cfg.Kokoro.Voices)
			},
		}, nil

	case config.BackendEspeak:
		e := tts.NewEspeak(cfg.Espeak.Bin, cfg.Espeak.WPM)
		return &Engine{Synthesizer: e, Closer: nopCloser{}, Name: cfg.Backend, voices: e.Voices}, nil

	case config.BackendRemote:
		r, err := tts.NewRemote(tts.RemoteOptions{
			Addr:     cfg.Remote.Addr,
			Insecure: cfg.Remote.Insecure,
			Rate:     cfg.Remote.Rate,
			Retries:  cfg.Remote.Retries,
		})
		if err != nil {
			return nil, err
		}
		return &Engine{Synthesizer: r, Closer: r, Name: cfg.Backend, voices: r.Voices}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
