package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name, also used for health checks.
const ServiceName = "urbanscore.v1.Rankings"

// RankingsServer is the presentation API. Requests and responses are
// google.protobuf.Struct messages.
type RankingsServer interface {
	ListRankings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetNeighborhood(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBoroughs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	OpenSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CloseSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(RankingsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RankingsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RankingsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var RankingsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RankingsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRankings", Handler: unaryHandler("ListRankings", RankingsServer.ListRankings)},
		{MethodName: "GetNeighborhood", Handler: unaryHandler("GetNeighborhood", RankingsServer.GetNeighborhood)},
		{MethodName: "ListBoroughs", Handler: unaryHandler("ListBoroughs", RankingsServer.ListBoroughs)},
		{MethodName: "OpenSession", Handler: unaryHandler("OpenSession", RankingsServer.OpenSession)},
		{MethodName: "UpdateSession", Handler: unaryHandler("UpdateSession", RankingsServer.UpdateSession)},
		{MethodName: "GetSession", Handler: unaryHandler("GetSession", RankingsServer.GetSession)},
		{MethodName: "CloseSession", Handler: unaryHandler("CloseSession", RankingsServer.CloseSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "urbanscore/v1/rankings.proto",
}

func RegisterRankingsServer(s grpc.ServiceRegistrar, srv RankingsServer) {
	s.RegisterService(&RankingsServiceDesc, srv)
}

// RankingsClient calls a RankingsServer over a client connection.
type RankingsClient struct {
	cc grpc.ClientConnInterface
}

func NewRankingsClient(cc grpc.ClientConnInterface) *RankingsClient {
	return &RankingsClient{cc: cc}
}

func (c *RankingsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RankingsClient) ListRankings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRankings", in, opts...)
}

func (c *RankingsClient) GetNeighborhood(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetNeighborhood", in, opts...)
}

func (c *RankingsClient) ListBoroughs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListBoroughs", in, opts...)
}

func (c *RankingsClient) OpenSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "OpenSession", in, opts...)
}

func (c *RankingsClient) UpdateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdateSession", in, opts...)
}

func (c *RankingsClient) GetSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSession", in, opts...)
}

func (c *RankingsClient) CloseSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CloseSession", in, opts...)
}
