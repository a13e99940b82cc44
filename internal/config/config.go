// Package config loads narrate settings from defaults, narrate.yaml, .env,
// NARRATE_* environment variables and command-line flags, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vjovkovs/narrate/internal/writer"
)

const (
	EnvPrefix = "NARRATE"
	FileName  = "narrate"

	BackendKokoro = "kokoro"
	BackendEspeak = "espeak"
	BackendRemote = "remote"
)

var backends = []string{BackendKokoro, BackendEspeak, BackendRemote}

type KokoroConfig struct {
	Bin    string `mapstructure:"bin" yaml:"bin"`
	Model  string `mapstructure:"model" yaml:"model"`
	Voices string `mapstructure:"voices" yaml:"voices"`
}

type EspeakConfig struct {
	Bin string `mapstructure:"bin" yaml:"bin"`
	WPM int    `mapstructure:"wpm" yaml:"wpm"`
}

type RemoteConfig struct {
	Addr     string  `mapstructure:"addr" yaml:"addr"`
	Insecure bool    `mapstructure:"insecure" yaml:"insecure"`
	Rate     float64 `mapstructure:"rate" yaml:"rate"` // requests per second, 0 = unlimited
	Retries  uint    `mapstructure:"retries" yaml:"retries"`
}

type FFmpegConfig struct {
	Bin     string `mapstructure:"bin" yaml:"bin"`
	Codec   string `mapstructure:"codec" yaml:"codec"`
	Bitrate string `mapstructure:"bitrate" yaml:"bitrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text, json or logfmt
}

type Config struct {
	Lang        string        `mapstructure:"lang" yaml:"lang"`
	Voice       string        `mapstructure:"voice" yaml:"voice"`
	Speed       float64       `mapstructure:"speed" yaml:"speed"`
	Pick        bool          `mapstructure:"pick" yaml:"pick"`
	Workers     int           `mapstructure:"workers" yaml:"workers"` // 0 = one per CPU
	Backend     string        `mapstructure:"backend" yaml:"backend"`
	OutputDir   string        `mapstructure:"output_dir" yaml:"output_dir"`
	JobTimeout  time.Duration `mapstructure:"job_timeout" yaml:"job_timeout"`
	FailOnError bool          `mapstructure:"fail_on_error" yaml:"fail_on_error"`
	Transcript  []string      `mapstructure:"transcript" yaml:"transcript"`

	Kokoro KokoroConfig `mapstructure:"kokoro" yaml:"kokoro"`
	Espeak EspeakConfig `mapstructure:"espeak" yaml:"espeak"`
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`
	FFmpeg FFmpegConfig `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Lang:       "en-gb",
		Speed:      1.0,
		Backend:    BackendKokoro,
		OutputDir:  ".",
		Transcript: []string{},
		Kokoro: KokoroConfig{
			Bin:    "kokoro-tts",
			Model:  "kokoro-v0_19.onnx",
			Voices: "voices.json",
		},
		Espeak: EspeakConfig{Bin: "espeak-ng", WPM: 170},
		Remote: RemoteConfig{Addr: "localhost:50051", Insecure: true, Retries: 3},
		FFmpeg: FFmpegConfig{Bin: "ffmpeg", Codec: "aac", Bitrate: "64k"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("lang", d.Lang)
	v.SetDefault("voice", d.Voice)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("pick", d.Pick)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("job_timeout", d.JobTimeout)
	v.SetDefault("fail_on_error", d.FailOnError)
	v.SetDefault("transcript", d.Transcript)
	v.SetDefault("kokoro.bin", d.Kokoro.Bin)
	v.SetDefault("kokoro.model", d.Kokoro.Model)
	v.SetDefault("kokoro.voices", d.Kokoro.Voices)
	v.SetDefault("espeak.bin", d.Espeak.Bin)
	v.SetDefault("espeak.wpm", d.Espeak.WPM)
	v.SetDefault("remote.addr", d.Remote.Addr)
	v.SetDefault("remote.insecure", d.Remote.Insecure)
	v.SetDefault("remote.rate", d.Remote.Rate)
	v.SetDefault("remote.retries", d.Remote.Retries)
	v.SetDefault("ffmpeg.bin", d.FFmpeg.Bin)
	v.SetDefault("ffmpeg.codec", d.FFmpeg.Codec)
	v.SetDefault("ffmpeg.bitrate", d.FFmpeg.Bitrate)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// FlagName maps a config key to its command-line flag: "remote.addr" -> "remote-addr".
func FlagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// Load reads the configuration. cfgFile may be empty, in which case
// narrate.yaml is looked up in the working directory and $HOME/.config/narrate.
// Every flag in fs whose name matches FlagName(key) overrides that key when set.
func Load(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if fs != nil {
		for _, key := range v.AllKeys() {
			if f := fs.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if _, err := language.Parse(c.Lang); err != nil {
		errs = append(errs, fmt.Errorf("invalid lang %q: %w", c.Lang, err))
	}
	if c.Speed <= 0 || c.Speed > 4 {
		errs = append(errs, fmt.Errorf("speed must be in (0, 4], got %g", c.Speed))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if !slices.Contains(backends, c.Backend) {
		errs = append(errs, fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(backends, ", ")))
	}
	if c.JobTimeout < 0 {
		errs = append(errs, fmt.Errorf("job_timeout must not be negative"))
	}
	for _, t := range c.Transcript {
		if !slices.Contains(writer.Formats(), strings.ToLower(t)) {
			errs = append(errs, fmt.Errorf("unknown transcript format %q", t))
		}
	}
	if c.Backend == BackendRemote && c.Remote.Addr == "" {
		errs = append(errs, fmt.Errorf("remote.addr is required for the remote backend"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format %q (want text, json or logfmt)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// WriteDefault writes the default configuration as YAML. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
