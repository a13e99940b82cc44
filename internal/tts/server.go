package tts

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ttsv1 "github.com/vjovkovs/narrate/api/tts/v1"
)

const streamChunk = 32 * 1024

// Server exposes a Synthesizer over narrate.tts.v1.
type Server struct {
	ttsv1.UnimplementedTTSServer

	Synth  Synthesizer
	Voices []string
	Voice  string // default when the request has none
	Logger *slog.Logger
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) ListVoices(context.Context) ([]string, error) {
	return s.Voices, nil
}

// Synthesize renders the request to a temp WAV and streams the file.
func (s *Server) Synthesize(req *ttsv1.SynthesizeRequest, stream ttsv1.AudioSender) error {
	ctx := stream.Context()
	voice := req.Voice
	if voice == "" {
		voice = s.Voice
	}
	buf, err := s.Synth.Synthesize(ctx, Request{
		Text:     req.Text,
		Voice:    voice,
		Language: req.Language,
		Speed:    req.Speed,
	})
	if err != nil {
		s.log().Error("synthesis failed", "voice", voice, "chars", len(req.Text), "error", err)
		return status.Errorf(codes.Internal, "synthesize: %v", err)
	}

	out := filepath.Join(os.TempDir(), "narrate-srv-"+uuid.NewString()+".wav")
	if err := WriteWAV(out, buf); err != nil {
		return status.Errorf(codes.Internal, "encode: %v", err)
	}
	defer os.Remove(out)

	f, err := os.Open(out)
	if err != nil {
		return err
	}
	defer f.Close()

	chunk := make([]byte, streamChunk)
	for {
		n, rerr := f.Read(chunk)
		if n > 0 {
			if err := stream.Send(chunk[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	s.log().Debug("synthesized", "voice", voice, "chars", len(req.Text))
	return nil
}
