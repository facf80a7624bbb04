package grpcserver

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbac-center/auth"
	"rbac-center/interceptors"
)

// NewServer builds a gRPC server exposing the authorization service and the
// standard health service. The returned health server reports SERVING for
// ServiceName until the caller changes it.
func NewServer(authz AuthorizationServer, tokens *auth.TokenIssuer, loader auth.SessionLoader, logger *zap.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.AuthInterceptor(tokens, loader),
		interceptors.ZapLoggingInterceptor(logger.Named("grpc")),
	))
	s.RegisterService(&AuthorizationServiceDesc, authz)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

// AuthorizationClient calls AuthorizationService. A userID of 0 asks about
// the caller identified by the token in the outgoing metadata.
type AuthorizationClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthorizationClient(cc grpc.ClientConnInterface) *AuthorizationClient {
	return &AuthorizationClient{cc: cc}
}

func (c *AuthorizationClient) CheckPermission(ctx context.Context, userID uint, perm string, opts ...grpc.CallOption) (bool, error) {
	return c.check(ctx, CheckPermissionMethod, userID, "permission", perm, opts)
}

func (c *AuthorizationClient) CheckRole(ctx context.Context, userID uint, role string, opts ...grpc.CallOption) (bool, error) {
	return c.check(ctx, CheckRoleMethod, userID, "role", role, opts)
}

func (c *AuthorizationClient) check(ctx context.Context, method string, userID uint, key, value string, opts []grpc.CallOption) (bool, error) {
	fields := map[string]interface{}{key: value}
	if userID != 0 {
		fields["user_id"] = float64(userID)
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
