package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working directory and home.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "en-gb", cfg.Lang)
	assert.Equal(t, BackendKokoro, cfg.Backend)
	assert.Equal(t, "64k", cfg.FFmpeg.Bitrate)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "narrate.yaml"), []byte(`
lang: fr-fr
voice: ff_siwis
workers: 2
job_timeout: 90s
transcript: [txt, pdf]
remote:
  addr: tts.internal:50051
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NARRATE_ESPEAK_WPM=200\n"), 0o644))
	// godotenv writes the process env; register a restore, then clear it
	t.Setenv("NARRATE_ESPEAK_WPM", "")
	require.NoError(t, os.Unsetenv("NARRATE_ESPEAK_WPM"))
	t.Setenv("NARRATE_VOICE", "af_bella")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("lang", "l", "en-gb", "")
	fs.Int("workers", 0, "")
	fs.String("output-dir", ".", "")
	require.NoError(t, fs.Parse([]string{"-l", "it", "--output-dir", "/tmp/books"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "it", cfg.Lang, "flag beats file")
	assert.Equal(t, "af_bella", cfg.Voice, "env beats file")
	assert.Equal(t, 2, cfg.Workers, "unset flag keeps file value")
	assert.Equal(t, "/tmp/books", cfg.OutputDir)
	assert.Equal(t, 90*time.Second, cfg.JobTimeout)
	assert.Equal(t, []string{"txt", "pdf"}, cfg.Transcript)
	assert.Equal(t, "tts.internal:50051", cfg.Remote.Addr)
	assert.Equal(t, 200, cfg.Espeak.WPM)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: espeak\n"), 0o644))
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, BackendEspeak, cfg.Backend)

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad lang", func(c *Config) { c.Lang = "not a language" }, "invalid lang"},
		{"zero speed", func(c *Config) { c.Speed = 0 }, "speed"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"unknown backend", func(c *Config) { c.Backend = "festival" }, "unknown backend"},
		{"unknown transcript", func(c *Config) { c.Transcript = []string{"docx"} }, "transcript format"},
		{"remote without addr", func(c *Config) { c.Backend = BackendRemote; c.Remote.Addr = "" }, "remote.addr"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}
	d := Default()
	assert.NoError(t, d.Validate())
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "narrate.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "remote-addr", FlagName("remote.addr"))
	assert.Equal(t, "output-dir", FlagName("output_dir"))
	assert.Equal(t, "lang", FlagName("lang"))
}
