package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjovkovs/narrate/internal/config"
	"github.com/vjovkovs/narrate/internal/tts"
)

func TestKokoroRequiresResources(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Kokoro.Model = filepath.Join(dir, "kokoro-v0_19.onnx")
	cfg.Kokoro.Voices = filepath.Join(dir, "voices.json")

	_, err := New(&cfg)
	assert.ErrorIs(t, err, tts.ErrMissingResources)

	require.NoError(t, os.WriteFile(cfg.Kokoro.Model, []byte("onnx"), 0o644))
	require.NoError(t, os.WriteFile(cfg.Kokoro.Voices, []byte(`{"am_adam":[],"af_sky":[]}`), 0o644))
	e, err := New(&cfg)
	require.NoError(t, err)
	defer e.Close()

	voice, err := e.DefaultVoice(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "af_sky", voice)

	voice, err = e.DefaultVoice(context.Background(), "am_adam")
	require.NoError(t, err)
	assert.Equal(t, "am_adam", voice)
}

func TestEspeakKeepsEmptyVoice(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendEspeak
	e, err := New(&cfg)
	require.NoError(t, err)
	voice, err := e.DefaultVoice(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, voice)
}

func TestRemote(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendRemote
	e, err := New(&cfg)
	require.NoError(t, err)
	assert.NoError(t, e.Close())
}

func TestUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "festival"
	_, err := New(&cfg)
	assert.Error(t, err)
}
