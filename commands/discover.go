package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rbac-center/config"
	"rbac-center/registry"
)

// discoverCmd lists healthy instances registered in Consul. It needs only
// the configuration, not the database.
func discoverCmd(cfgFile *string) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "discover [service]",
		Short: "List healthy gRPC endpoints registered in Consul",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitConfig(*cfgFile); err != nil {
				return err
			}
			cfg := config.AppConfig
			logger := newLogger(cfg.LogLevel)
			defer func() { _ = logger.Sync() }()

			name := cfg.ServiceName
			if len(args) == 1 {
				name = args[0]
			}
			reg, err := registry.NewConsulRegistry(cfg.Consul.Address, logger)
			if err != nil {
				return err
			}
			addrs, err := reg.Discover(name, tag)
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "grpc", "only instances carrying this tag")
	return cmd
}
