package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "dispatch.monitor.v1.MonitorService"

// RPC method names.
const (
	MethodPushPointFrame = "PushPointFrame"
	MethodPushGroupFrame = "PushGroupFrame"
	MethodSetLinkState   = "SetLinkState"
	MethodSetPolling     = "SetPolling"
	MethodGetAlarms      = "GetAlarms"
	MethodGetGroup       = "GetGroup"
	MethodResolveAddress = "ResolveAddress"
	MethodReportTarget   = "ReportTarget"
	MethodGetTarget      = "GetTarget"
	MethodResolveVolume  = "ResolveVolume"
	MethodReload         = "Reload"
)

// FullMethod returns the invocation path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// MonitorServer is the server API of the MonitorService.
type MonitorServer interface {
	PushPointFrame(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
	PushGroupFrame(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
	SetLinkState(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error)
	SetPolling(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error)
	GetAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetGroup(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.Struct, error)
	ResolveAddress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReportTarget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTarget(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ResolveVolume(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Reload(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// unary builds the method descriptor of a unary RPC.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](name string, call func(MonitorServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}

			server, ok := srv.(MonitorServer)
			if !ok {
				return nil, status.Errorf(codes.Internal, "%s: unexpected server type %T", name, srv)
			}

			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(PReq)
				if !ok {
					return nil, status.Errorf(codes.Internal, "%s: unexpected request type %T", name, req)
				}

				return call(server, ctx, typed)
			})
		},
	}
}

// serviceDesc describes the MonitorService for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPushPointFrame, MonitorServer.PushPointFrame),
		unary(MethodPushGroupFrame, MonitorServer.PushGroupFrame),
		unary(MethodSetLinkState, MonitorServer.SetLinkState),
		unary(MethodSetPolling, MonitorServer.SetPolling),
		unary(MethodGetAlarms, MonitorServer.GetAlarms),
		unary(MethodGetGroup, MonitorServer.GetGroup),
		unary(MethodResolveAddress, MonitorServer.ResolveAddress),
		unary(MethodReportTarget, MonitorServer.ReportTarget),
		unary(MethodGetTarget, MonitorServer.GetTarget),
		unary(MethodResolveVolume, MonitorServer.ResolveVolume),
		unary(MethodReload, MonitorServer.Reload),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dispatch/monitor/v1/monitor.proto",
}

// Register attaches the MonitorService implementation to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, server MonitorServer) {
	registrar.RegisterService(&serviceDesc, server)
}
