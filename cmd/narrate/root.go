package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vjovkovs/narrate/internal/app"
	"github.com/vjovkovs/narrate/internal/assemble"
	"github.com/vjovkovs/narrate/internal/config"
	"github.com/vjovkovs/narrate/internal/engine"
	"github.com/vjovkovs/narrate/internal/logging"
	"github.com/vjovkovs/narrate/internal/picker"
	"github.com/vjovkovs/narrate/internal/tts"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "narrate <book.epub>",
	Short: "Convert an EPUB e-book into a chaptered .m4b audiobook",
	Long: `narrate splits an EPUB into chapters, synthesizes speech for each chapter
with a text-to-speech engine and muxes the chapter audio into one .m4b file.

Chapters whose audio already exists are skipped, so an interrupted run can be
resumed by running the same command again.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
	RunE:          runConvert,
}

func init() {
	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./narrate.yaml or ~/.config/narrate/narrate.yaml)")
	pf.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	pf.String("log-format", d.Log.Format, "log format: text, json or logfmt")
	pf.String("backend", d.Backend, "speech backend: kokoro, espeak or remote")
	pf.String("kokoro-model", d.Kokoro.Model, "Kokoro model file")
	pf.String("kokoro-voices", d.Kokoro.Voices, "Kokoro voices file")
	pf.String("remote-addr", d.Remote.Addr, "narrate TTS server address (host:port)")

	f := rootCmd.Flags()
	f.StringP("lang", "l", d.Lang, "language code")
	f.StringP("voice", "v", d.Voice, "voice name (default af_sky when available)")
	f.BoolP("pick", "p", d.Pick, "choose chapters interactively")
	f.Float64("speed", d.Speed, "speaking rate, 1.0 = normal")
	f.Int("workers", d.Workers, "parallel synthesis jobs (0 = one per CPU)")
	f.StringP("output-dir", "o", d.OutputDir, "directory that receives <book>/")
	f.Duration("job-timeout", d.JobTimeout, "limit per chapter (0 = none)")
	f.Bool("fail-on-error", d.FailOnError, "exit non-zero when any chapter fails")
	f.StringSlice("transcript", d.Transcript, "also write the narrated text: txt, epub, pdf")
	f.String("ffmpeg-bin", d.FFmpeg.Bin, "ffmpeg executable")

	rootCmd.PersistentPreRunE = setup
	rootCmd.SetVersionTemplate("narrate {{.Version}}\n")
	rootCmd.AddCommand(chaptersCmd, voicesCmd, configCmd, versionCmd)
}

// setup loads configuration and the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	l, err := logging.New(os.Stderr, c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	slog.SetDefault(l)
	return nil
}

// openEngine builds the configured backend, printing download instructions
// when Kokoro resources are missing.
func openEngine() (*engine.Engine, error) {
	e, err := engine.New(cfg)
	if err != nil {
		var missing *tts.MissingResourcesError
		if errors.As(err, &missing) {
			fmt.Fprint(os.Stderr, missing.Remediation())
		}
		return nil, err
	}
	return e, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, err := openEngine()
	if err != nil {
		return reportErr(err)
	}
	defer eng.Close()

	voice, err := eng.DefaultVoice(ctx, cfg.Voice)
	if err != nil {
		return reportErr(err)
	}

	opt := app.Options{
		Language:    cfg.Lang,
		Voice:       voice,
		Speed:       float32(cfg.Speed),
		Pick:        cfg.Pick,
		Workers:     cfg.Workers,
		JobTimeout:  cfg.JobTimeout,
		OutputDir:   cfg.OutputDir,
		Transcripts: cfg.Transcript,
		FailOnError: cfg.FailOnError,
		Assemble: assemble.Options{
			FFmpeg:  cfg.FFmpeg.Bin,
			Codec:   cfg.FFmpeg.Codec,
			Bitrate: cfg.FFmpeg.Bitrate,
		},
	}
	logger.Info("starting", "book", args[0], "backend", eng.Name, "voice", voice, "lang", cfg.Lang, "speed", cfg.Speed)

	res, err := app.NewRunner(eng, picker.Terminal{}, opt, logger).Run(ctx, args[0])
	if res.Book != nil {
		printSummary(cmd, res)
	}
	if err != nil {
		return reportErr(err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, res app.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s by %s\n", res.Book.Title, res.Book.Author)
	fmt.Fprintf(out, "Total characters: %d\n", res.Chars)
	fmt.Fprintf(out, "Total words: %d\n", res.Words)
	fmt.Fprintf(out, "Chapters: %d completed, %d skipped, %d failed\n",
		res.Report.Completed(), res.Report.Skipped(), res.Report.Failed())
	switch {
	case res.Audiobook.Path != "":
		fmt.Fprintf(out, "Audiobook: %s\n", res.Audiobook.Path)
	case res.Audiobook.Skipped:
		fmt.Fprintf(out, "ffmpeg not found; chapter audio is in %s\n", res.Dir)
	}
	fmt.Fprintf(out, "Started: %s\n", res.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Elapsed: %s\n", app.FormatElapsed(res.Elapsed))
}

func reportErr(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
