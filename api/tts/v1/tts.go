// Package ttsv1 defines the narrate.tts.v1.TTS gRPC service. Messages travel as
// protobuf well-known types: the request is a Struct, audio is streamed as
// BytesValue frames holding a WAV file, and the voice list is a ListValue.
package ttsv1

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName      = "narrate.tts.v1.TTS"
	SynthesizeMethod = "/" + ServiceName + "/Synthesize"
	ListVoicesMethod = "/" + ServiceName + "/ListVoices"
)

// SynthesizeRequest asks for one text to be rendered.
type SynthesizeRequest struct {
	Text     string
	Voice    string
	Language string
	Speed    float32
}

func (r *SynthesizeRequest) toProto() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"text":     r.Text,
		"voice":    r.Voice,
		"language": r.Language,
		"speed":    float64(r.Speed),
	})
}

func requestFromProto(s *structpb.Struct) (*SynthesizeRequest, error) {
	f := s.GetFields()
	text := f["text"].GetStringValue()
	if text == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	return &SynthesizeRequest{
		Text:     text,
		Voice:    f["voice"].GetStringValue(),
		Language: f["language"].GetStringValue(),
		Speed:    float32(f["speed"].GetNumberValue()),
	}, nil
}

// ---- client ----

// AudioStream yields WAV bytes until io.EOF.
type AudioStream interface {
	Recv() ([]byte, error)
}

type TTSClient interface {
	Synthesize(ctx context.Context, req *SynthesizeRequest, opts ...grpc.CallOption) (AudioStream, error)
	ListVoices(ctx context.Context, opts ...grpc.CallOption) ([]string, error)
}

type ttsClient struct {
	cc grpc.ClientConnInterface
}

func NewTTSClient(cc grpc.ClientConnInterface) TTSClient {
	return &ttsClient{cc: cc}
}

func (c *ttsClient) Synthesize(ctx context.Context, req *SynthesizeRequest, opts ...grpc.CallOption) (AudioStream, error) {
	msg, err := req.toProto()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], SynthesizeMethod, opts...)
	if err != nil {
		return nil, err
	}
	// io.EOF means the stream ended; Recv reports the status.
	if err := stream.SendMsg(msg); err != nil && err != io.EOF {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &audioStream{stream}, nil
}

func (c *ttsClient) ListVoices(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListVoicesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	voices := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		voices = append(voices, v.GetStringValue())
	}
	return voices, nil
}

type audioStream struct {
	grpc.ClientStream
}

func (s *audioStream) Recv() ([]byte, error) {
	m := new(wrapperspb.BytesValue)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m.GetValue(), nil
}

// ---- server ----

// AudioSender is the server side of a Synthesize stream.
type AudioSender interface {
	Send(chunk []byte) error
	Context() context.Context
}

type TTSServer interface {
	Synthesize(req *SynthesizeRequest, stream AudioSender) error
	ListVoices(ctx context.Context) ([]string, error)
}

// UnimplementedTTSServer can be embedded for forward compatibility.
type UnimplementedTTSServer struct{}

func (UnimplementedTTSServer) Synthesize(*SynthesizeRequest, AudioSender) error {
	return status.Error(codes.Unimplemented, "method Synthesize not implemented")
}

func (UnimplementedTTSServer) ListVoices(context.Context) ([]string, error) {
	return nil, status.Error(codes.Unimplemented, "method ListVoices not implemented")
}

func RegisterTTSServer(s grpc.ServiceRegistrar, srv TTSServer) {
	s.RegisterService(&serviceDesc, srv)
}

type audioSender struct {
	grpc.ServerStream
}

func (s *audioSender) Send(chunk []byte) error {
	return s.ServerStream.SendMsg(wrapperspb.Bytes(chunk))
}

func synthesizeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	req, err := requestFromProto(in)
	if err != nil {
		return err
	}
	return srv.(TTSServer).Synthesize(req, &audioSender{stream})
}

func listVoicesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, _ any) (any, error) {
		voices, err := srv.(TTSServer).ListVoices(ctx)
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(voices))
		for i, v := range voices {
			vals[i] = v
		}
		return structpb.NewList(vals)
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListVoicesMethod}
	return interceptor(ctx, in, info, call)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TTSServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListVoices", Handler: listVoicesHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Synthesize", Handler: synthesizeHandler, ServerStreams: true},
	},
	Metadata: "narrate/tts/v1/tts.proto",
}
