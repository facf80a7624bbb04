package grpcserver

import (
	"context"
	"errors"
	"math"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbac-center/auth"
	"rbac-center/controllers"
	"rbac-center/services"
)

const (
	ServiceName           = "rbac.AuthorizationService"
	CheckPermissionMethod = "/" + ServiceName + "/CheckPermission"
	CheckRoleMethod       = "/" + ServiceName + "/CheckRole"
)

// AuthorizationServer answers permission and role questions about users.
// Requests are structpb.Struct values with a "permission" or "role" string
// and an optional numeric "user_id"; without user_id the caller is checked.
type AuthorizationServer interface {
	CheckPermission(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
	CheckRole(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
}

// AuthorizationServiceDesc describes the service for grpc.Server.RegisterService.
var AuthorizationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckPermission", Handler: checkPermissionHandler},
		{MethodName: "CheckRole", Handler: checkRoleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbac/authorization",
}

func checkPermissionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).CheckPermission(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckPermissionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).CheckPermission(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func checkRoleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).CheckRole(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckRoleMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).CheckRole(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type authorizationServer struct {
	userService services.UserService
	logger      *zap.Logger
}

func NewAuthorizationServer(us services.UserService, logger *zap.Logger) AuthorizationServer {
	return &authorizationServer{userService: us, logger: logger.Named("authz")}
}

func (s *authorizationServer) CheckPermission(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	perm := req.GetFields()["permission"].GetStringValue()
	if perm == "" {
		return nil, status.Error(codes.InvalidArgument, "permission is required")
	}
	userID, err := subject(ctx, req)
	if err != nil {
		return nil, err
	}

	granted, err := s.userService.HasPermission(ctx, userID, perm)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.Bool(granted), nil
}

func (s *authorizationServer) CheckRole(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	role := req.GetFields()["role"].GetStringValue()
	if role == "" {
		return nil, status.Error(codes.InvalidArgument, "role is required")
	}
	userID, err := subject(ctx, req)
	if err != nil {
		return nil, err
	}

	held, err := s.userService.HasRole(ctx, userID, role)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.Bool(held), nil
}

// subject picks the user a check is about. Asking about anyone but yourself
// needs the users.view permission.
func subject(ctx context.Context, req *structpb.Struct) (uint, error) {
	caller := auth.FromContext(ctx)
	if !caller.IsAuthenticated() {
		return 0, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}
	callerID, err := strconv.ParseUint(caller.GetID(), 10, strconv.IntSize)
	if err != nil {
		return 0, status.Error(codes.Internal, "caller has no numeric id")
	}

	v, ok := req.GetFields()["user_id"]
	if !ok {
		return uint(callerID), nil
	}
	n := v.GetNumberValue()
	// Numbers travel as float64; beyond 2^53 they are no longer exact.
	if n < 1 || n > 1<<53 || n != math.Trunc(n) {
		return 0, status.Error(codes.InvalidArgument, "user_id must be a positive integer")
	}
	if uint64(n) != callerID && !caller.HasPermission(controllers.PermUsersView) {
		return 0, status.Errorf(codes.PermissionDenied, "missing permission %s", controllers.PermUsersView)
	}
	return uint(n), nil
}

func (s *authorizationServer) toStatus(err error) error {
	if errors.Is(err, services.ErrUserNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	s.logger.Error("authorization check failed", zap.Error(err))
	return status.Error(codes.Internal, "error checking authorization")
}
