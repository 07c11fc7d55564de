package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarm.controller.v1.AlarmController"

// Full method names, as passed to grpc.ClientConn.Invoke.
const (
	MethodGetState           = "/" + ServiceName + "/GetState"
	MethodListSensors        = "/" + ServiceName + "/ListSensors"
	MethodGetSensor          = "/" + ServiceName + "/GetSensor"
	MethodGetValidOperations = "/" + ServiceName + "/GetValidOperations"
	MethodPostOperation      = "/" + ServiceName + "/PostOperation"
	MethodUpdateSensor       = "/" + ServiceName + "/UpdateSensor"
	MethodListEvents         = "/" + ServiceName + "/ListEvents"
)

// AlarmControllerServer is the server side of the operator API.
// Messages are protobuf well-known types; see the Encode and Decode helpers
// for their layout.
type AlarmControllerServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListSensors(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetSensor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetValidOperations(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	PostOperation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListEvents(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterAlarmControllerServer registers srv on s.
func RegisterAlarmControllerServer(s grpc.ServiceRegistrar, srv AlarmControllerServer) {
	s.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmControllerServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod[emptypb.Empty]("GetState", AlarmControllerServer.GetState),
		unaryMethod[emptypb.Empty]("ListSensors", AlarmControllerServer.ListSensors),
		unaryMethod[wrapperspb.StringValue]("GetSensor", AlarmControllerServer.GetSensor),
		unaryMethod[emptypb.Empty]("GetValidOperations", AlarmControllerServer.GetValidOperations),
		unaryMethod[structpb.Struct]("PostOperation", AlarmControllerServer.PostOperation),
		unaryMethod[structpb.Struct]("UpdateSensor", AlarmControllerServer.UpdateSensor),
		unaryMethod[emptypb.Empty]("ListEvents", AlarmControllerServer.ListEvents),
	},
	Streams: []grpc.StreamDesc{},
}

// unaryMethod builds the descriptor of one unary method, including the interceptor hook.
func unaryMethod[Req any, PReq interface {
	*Req
	proto.Message
}](
	name string,
	call func(AlarmControllerServer, context.Context, PReq) (*structpb.Struct, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(AlarmControllerServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(PReq)

				return call(server, ctx, typed)
			})
		},
	}
}
