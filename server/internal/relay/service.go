package relay

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tableside.relay.v1.Relay"

// NotifyMethod is the full method path of Relay.Notify.
const NotifyMethod = "/" + ServiceName + "/Notify"

// RelayServer is the server API for the Relay service.
type RelayServer interface {
	Notify(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Relay service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Notify", Handler: notifyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tableside/relay/v1/relay.proto",
}

func notifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServer).Notify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: NotifyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RelayServer).Notify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Register installs srv and a health service reporting it as serving.
// The returned health server lets the caller flip the status on shutdown.
func Register(s *grpc.Server, srv RelayServer) *health.Server {
	s.RegisterService(&ServiceDesc, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}
