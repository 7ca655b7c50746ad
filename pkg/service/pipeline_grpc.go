package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// PipelineServiceName is the fully qualified gRPC service name.
const PipelineServiceName = "lingosense.v1.PipelineService"

// Full method names.
const (
	PipelineService_Run_FullMethodName           = "/lingosense.v1.PipelineService/Run"
	PipelineService_Transliterate_FullMethodName = "/lingosense.v1.PipelineService/Transliterate"
	PipelineService_Normalize_FullMethodName     = "/lingosense.v1.PipelineService/Normalize"
	PipelineService_DetectCodeMix_FullMethodName = "/lingosense.v1.PipelineService/DetectCodeMix"
	PipelineService_ListLanguages_FullMethodName = "/lingosense.v1.PipelineService/ListLanguages"
)

// PipelineServiceServer is the server API for the pipeline service. Requests
// and responses are google.protobuf.Struct documents; see PipelineService for
// the field names.
type PipelineServiceServer interface {
	Run(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transliterate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Normalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DetectCodeMix(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLanguages(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedPipelineServiceServer can be embedded for forward compatibility.
type UnimplementedPipelineServiceServer struct{}

func (UnimplementedPipelineServiceServer) Run(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Run not implemented")
}
func (UnimplementedPipelineServiceServer) Transliterate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Transliterate not implemented")
}
func (UnimplementedPipelineServiceServer) Normalize(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Normalize not implemented")
}
func (UnimplementedPipelineServiceServer) DetectCodeMix(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method DetectCodeMix not implemented")
}
func (UnimplementedPipelineServiceServer) ListLanguages(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLanguages not implemented")
}

// RegisterPipelineServiceServer registers srv with s.
func RegisterPipelineServiceServer(s grpc.ServiceRegistrar, srv PipelineServiceServer) {
	s.RegisterService(&PipelineService_ServiceDesc, srv)
}

// methodHandler matches grpc.MethodDesc.Handler.
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

// unaryHandler builds the handler for one Struct-to-Struct method.
func unaryHandler(fullMethod string, call func(PipelineServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PipelineServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PipelineServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PipelineService_ServiceDesc is the grpc.ServiceDesc for the pipeline service.
var PipelineService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PipelineServiceName,
	HandlerType: (*PipelineServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Run",
			Handler:    unaryHandler(PipelineService_Run_FullMethodName, PipelineServiceServer.Run),
		},
		{
			MethodName: "Transliterate",
			Handler:    unaryHandler(PipelineService_Transliterate_FullMethodName, PipelineServiceServer.Transliterate),
		},
		{
			MethodName: "Normalize",
			Handler:    unaryHandler(PipelineService_Normalize_FullMethodName, PipelineServiceServer.Normalize),
		},
		{
			MethodName: "DetectCodeMix",
			Handler:    unaryHandler(PipelineService_DetectCodeMix_FullMethodName, PipelineServiceServer.DetectCodeMix),
		},
		{
			MethodName: "ListLanguages",
			Handler:    unaryHandler(PipelineService_ListLanguages_FullMethodName, PipelineServiceServer.ListLanguages),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lingosense/v1/pipeline.proto",
}

// PipelineServiceClient is the client API for the pipeline service.
type PipelineServiceClient interface {
	Run(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Transliterate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Normalize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DetectCodeMix(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListLanguages(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type pipelineServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPipelineServiceClient returns a client bound to cc.
func NewPipelineServiceClient(cc grpc.ClientConnInterface) PipelineServiceClient {
	return &pipelineServiceClient{cc}
}

func (c *pipelineServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pipelineServiceClient) Run(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PipelineService_Run_FullMethodName, in, opts)
}

func (c *pipelineServiceClient) Transliterate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PipelineService_Transliterate_FullMethodName, in, opts)
}

func (c *pipelineServiceClient) Normalize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PipelineService_Normalize_FullMethodName, in, opts)
}

func (c *pipelineServiceClient) DetectCodeMix(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PipelineService_DetectCodeMix_FullMethodName, in, opts)
}

func (c *pipelineServiceClient) ListLanguages(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PipelineService_ListLanguages_FullMethodName, in, opts)
}
