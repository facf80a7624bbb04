package interceptors

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"rbac-center/auth"
)

// InterceptorLogger adapts zap logger to interceptor logger.
// This adapts zap logger to the logging middleware's expected interface.
func InterceptorLogger(l *zap.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		// Convert logging fields to zap fields
		zapFields := make([]zap.Field, 0, len(fields)/2)
		// A trailing key without a value is dropped.
		for i := 0; i+1 < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				// Skip if key is not a string
				continue
			}
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}

		// Log based on level
		switch lvl {
		case logging.LevelDebug:
			l.Debug(msg, zapFields...)
		case logging.LevelInfo:
			l.Info(msg, zapFields...)
		case logging.LevelWarn:
			l.Warn(msg, zapFields...)
		case logging.LevelError:
			l.Error(msg, zapFields...)
		default:
			l.Error("Unknown log level in interceptor", zap.String("original_msg", msg), zap.Any("level", lvl))
		}
	})
}

// ZapLoggingInterceptor returns a new unary server interceptor that logs
// finished calls, tagged with the caller's session id when there is one.
// It must run after AuthInterceptor for the tag to be present.
func ZapLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	// Configure the logging middleware options
	opts := []logging.Option{
		logging.WithLogOnEvents(logging.FinishCall),
		logging.WithLevels(logging.DefaultServerCodeToLevel), // Default gRPC code to log level mapping
		logging.WithFieldsFromContext(principalFields),
	}

	// Return the interceptor using the adapted logger and options
	return logging.UnaryServerInterceptor(InterceptorLogger(logger), opts...)
}

// principalFields tags the log line with the authenticated user's id.
func principalFields(ctx context.Context) logging.Fields {
	p := auth.FromContext(ctx)
	if p.IsAnonymous() {
		return nil
	}
	return logging.Fields{"user_id", p.GetID()}
}
