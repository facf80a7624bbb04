package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"rbac-center/auth"
	"rbac-center/controllers"
	grpcserver "rbac-center/grpc_server"
	"rbac-center/registry"
)

func serveCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgFile, func(cmd *cobra.Command, _ []string, a *app) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		}),
	}
}

func (a *app) serve(ctx context.Context) error {
	if _, err := a.seed(ctx, a.cfg.AutoPermissions); err != nil {
		return err
	}

	if a.cfg.InsecureSecret() {
		a.logger.Warn("jwt_secret is the built-in default; set RBAC_JWT_SECRET")
	}
	tokens := auth.NewTokenIssuer([]byte(a.cfg.JwtSecret), a.cfg.TokenTTL, a.cfg.ServiceName)

	container := controllers.NewContainer(controllers.Services{
		Users:       a.users,
		Roles:       a.roles,
		Permissions: a.perms,
		Projects:    a.projects,
	}, tokens, a.logger.Named("http"))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := grpcserver.NewServer(grpcserver.NewAuthorizationServer(a.users, a.logger), tokens, a.users, a.logger)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		a.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	deregister, err := a.register()
	if err != nil {
		a.logger.Error("Consul registration failed; continuing without it", zap.Error(err))
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case serveErr = <-errCh:
		a.logger.Error("server failed", zap.Error(serveErr))
	}

	healthServer.Shutdown()
	if deregister != nil {
		deregister()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown", zap.Error(err))
	}
	return serveErr
}

// register announces the gRPC endpoint to Consul when enabled and returns
// the matching deregistration.
func (a *app) register() (func(), error) {
	if !a.cfg.Consul.Enabled {
		return nil, nil
	}
	reg, err := registry.NewConsulRegistry(a.cfg.Consul.Address, a.logger)
	if err != nil {
		return nil, err
	}

	host, _ := os.Hostname()
	inst := registry.Instance{
		ID:      registry.InstanceID(a.cfg.ServiceName, host, a.cfg.GRPCPort),
		Name:    a.cfg.ServiceName,
		Address: a.cfg.Consul.ServiceAddress,
		Port:    a.cfg.GRPCPort,
		Tags:    []string{"grpc", "rbac"},
		Meta:    map[string]string{"protocol": "grpc", "http_port": fmt.Sprint(a.cfg.HTTPPort)},
	}
	if err := reg.Register(inst, 10*time.Second); err != nil {
		return nil, err
	}
	return func() {
		if err := reg.Deregister(inst.ID); err != nil {
			a.logger.Warn("Consul deregistration failed", zap.Error(err))
		}
	}, nil
}
