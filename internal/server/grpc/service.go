package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the session service.
const ServiceName = "livedesk.v1.SessionService"

const (
	methodRegister  = "/" + ServiceName + "/Register"
	methodLogin     = "/" + ServiceName + "/Login"
	methodRefresh   = "/" + ServiceName + "/Refresh"
	methodLogout    = "/" + ServiceName + "/Logout"
	methodLogoutAll = "/" + ServiceName + "/LogoutAll"
)

// SessionServiceServer is the server API of livedesk.v1.SessionService.
// Requests and responses are google.protobuf.Struct values.
type SessionServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LogoutAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(SessionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(methodRegister, SessionServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(methodLogin, SessionServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(methodRefresh, SessionServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(methodLogout, SessionServiceServer.Logout)},
		{MethodName: "LogoutAll", Handler: unaryHandler(methodLogoutAll, SessionServiceServer.LogoutAll)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "livedesk/v1/session.proto",
}

// SessionServiceClient calls livedesk.v1.SessionService.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRegister, in, opts...)
}

func (c *SessionServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodLogin, in, opts...)
}

func (c *SessionServiceClient) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRefresh, in, opts...)
}

func (c *SessionServiceClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodLogout, in, opts...)
}

func (c *SessionServiceClient) LogoutAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodLogoutAll, in, opts...)
}
