// Command kokoro-server serves a local speech backend over the
// narrate.tts.v1 gRPC API so several narrate clients can share one engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	ttsv1 "github.com/vjovkovs/narrate/api/tts/v1"
	"github.com/vjovkovs/narrate/internal/config"
	"github.com/vjovkovs/narrate/internal/engine"
	"github.com/vjovkovs/narrate/internal/logging"
	"github.com/vjovkovs/narrate/internal/tts"
)

var (
	cfgFile string
	listen  string
)

var rootCmd = &cobra.Command{
	Use:           "kokoro-server",
	Short:         "Serve a local TTS engine over gRPC",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

func init() {
	d := config.Default()
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file")
	f.StringVar(&listen, "listen", "localhost:50051", "gRPC listen address (host:port)")
	f.String("backend", d.Backend, "local backend: kokoro or espeak")
	f.StringP("voice", "v", d.Voice, "default voice when a request has none")
	f.String("kokoro-model", d.Kokoro.Model, "Kokoro model file")
	f.String("kokoro-voices", d.Kokoro.Voices, "Kokoro voices file")
	f.String("log-level", d.Log.Level, "log level")
	f.String("log-format", d.Log.Format, "log format: text, json or logfmt")
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Backend == config.BackendRemote {
		return fmt.Errorf("kokoro-server needs a local backend, not %q", cfg.Backend)
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		var missing *tts.MissingResourcesError
		if errors.As(err, &missing) {
			fmt.Fprint(os.Stderr, missing.Remediation())
		}
		return err
	}
	defer eng.Close()

	ctx := cmd.Context()
	voices, err := eng.Voices(ctx)
	if err != nil {
		logger.Warn("could not list voices", "error", err)
	}
	voice := cfg.Voice
	if eng.Name != config.BackendEspeak {
		voice = tts.PickVoice(voice, voices)
	}

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	gs := grpc.NewServer()
	ttsv1.RegisterTTSServer(gs, &tts.Server{Synth: eng, Voices: voices, Voice: voice, Logger: logger})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
	}()

	logger.Info("TTS gRPC server listening", "addr", lis.Addr().String(), "backend", eng.Name, "voice", voice, "voices", len(voices))
	return gs.Serve(lis)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
