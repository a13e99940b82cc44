package tts

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-audio/audio"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	ttsv1 "github.com/vjovkovs/narrate/api/tts/v1"
)

// RemoteOptions configures the gRPC engine.
type RemoteOptions struct {
	Addr     string  // "host:port"
	Insecure bool    // plaintext; TLS otherwise
	Rate     float64 // requests per second across all workers; 0 = unlimited
	Retries  uint    // attempts per chunk, at least 1
	MaxChars int     // chunk size per request
}

// RemoteEngine streams WAV audio from a narrate.tts.v1 server.
type RemoteEngine struct {
	opt    RemoteOptions
	conn   *grpc.ClientConn
	client ttsv1.TTSClient
	lim    *rate.Limiter
}

// NewRemote creates the client connection. Extra dial options are appended
// after the transport credentials.
func NewRemote(opt RemoteOptions, extra ...grpc.DialOption) (*RemoteEngine, error) {
	if strings.TrimSpace(opt.Addr) == "" {
		return nil, fmt.Errorf("remote addr is required")
	}
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if opt.Insecure {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, extra...)
	conn, err := grpc.NewClient(opt.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opt.Addr, err)
	}
	limit := rate.Inf
	if opt.Rate > 0 {
		limit = rate.Limit(opt.Rate)
	}
	if opt.Retries == 0 {
		opt.Retries = 1
	}
	return &RemoteEngine{
		opt:    opt,
		conn:   conn,
		client: ttsv1.NewTTSClient(conn),
		lim:    rate.NewLimiter(limit, 1),
	}, nil
}

func (e *RemoteEngine) Close() error {
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

// Voices asks the server for its catalog.
func (e *RemoteEngine) Voices(ctx context.Context) ([]string, error) {
	return e.client.ListVoices(ctx)
}

func (e *RemoteEngine) Synthesize(ctx context.Context, req Request) (*audio.IntBuffer, error) {
	return synthChunks(req.Text, e.opt.MaxChars, func(chunk string) (*audio.IntBuffer, error) {
		var buf *audio.IntBuffer
		err := retry.Do(
			func() error {
				if err := e.lim.Wait(ctx); err != nil {
					return retry.Unrecoverable(err)
				}
				b, err := e.synthesizeOne(ctx, chunk, req)
				if err != nil {
					return err
				}
				buf = b
				return nil
			},
			retry.Context(ctx),
			retry.Attempts(e.opt.Retries),
			retry.Delay(500*time.Millisecond),
			retry.RetryIf(retryable),
			retry.LastErrorOnly(true),
		)
		return buf, err
	})
}

// synthesizeOne requests a single stream and decodes the WAV it carries.
func (e *RemoteEngine) synthesizeOne(ctx context.Context, text string, req Request) (*audio.IntBuffer, error) {
	stream, err := e.client.Synthesize(ctx, &ttsv1.SynthesizeRequest{
		Text:     text,
		Voice:    req.Voice,
		Language: req.Language,
		Speed:    req.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("remote synth: %w", err)
	}
	var wavBytes bytes.Buffer
	for {
		chunk, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			return nil, fmt.Errorf("stream recv: %w", recvErr)
		}
		wavBytes.Write(chunk)
	}
	return DecodeWAV(bytes.NewReader(wavBytes.Bytes()))
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// errors without a status come from local encoding or WAV decoding
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.Unimplemented, codes.PermissionDenied, codes.Unauthenticated:
		return false
	}
	return true
}
