package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The auth service is described by hand instead of generated code: every
// message is a google.protobuf.Struct carrying the same fields as the HTTP
// JSON bodies.
const (
	ServiceName = "parametrik.v1.AuthService"

	FullMethodCreateUser      = "/" + ServiceName + "/CreateUser"
	FullMethodCreateUserToken = "/" + ServiceName + "/CreateUserToken"
	FullMethodWhoAmI          = "/" + ServiceName + "/WhoAmI"
)

// AuthServiceServer is implemented by GRPCServer.
type AuthServiceServer interface {
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateUserToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateUser",
			Handler:    unaryHandler(FullMethodCreateUser, AuthServiceServer.CreateUser),
		},
		{
			MethodName: "CreateUserToken",
			Handler:    unaryHandler(FullMethodCreateUserToken, AuthServiceServer.CreateUserToken),
		},
		{
			MethodName: "WhoAmI",
			Handler:    unaryHandler(FullMethodWhoAmI, AuthServiceServer.WhoAmI),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "parametrik/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}
