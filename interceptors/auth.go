package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"rbac-center/auth"
)

// publicMethods bypass token resolution entirely.
var publicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// AuthInterceptor returns a new unary server interceptor that resolves the
// bearer token in the "authorization" metadata into a principal. Calls
// without a token run as auth.AnonymousUser; handlers decide what anonymous
// callers may do.
func AuthInterceptor(tokens *auth.TokenIssuer, loader auth.SessionLoader) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		principal, err := auth.Resolve(ctx, header, tokens, loader)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		return handler(auth.NewContext(ctx, principal), req)
	}
}
