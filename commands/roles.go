package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func rolesCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles",
	}
	cmd.AddCommand(rolesListCmd(cfgFile), rolesCreateCmd(cfgFile), rolesGrantCmd(cfgFile))
	return cmd
}

func rolesListCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles and their permissions",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgFile, func(cmd *cobra.Command, _ []string, a *app) error {
			roles, err := a.roles.List(cmd.Context())
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
			_, _ = fmt.Fprintln(writer, "NAME\tDISPLAY NAME\tPERMISSIONS")
			for _, r := range roles {
				_, _ = fmt.Fprintf(writer, "%s\t%s\t%s\n", r.Name, r.DisplayName, strings.Join(r.PermissionNames(), ","))
			}
			return writer.Flush()
		}),
	}
}

func rolesCreateCmd(cfgFile *string) *cobra.Command {
	var (
		displayName string
		perms       []string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a role, optionally with an initial permission set",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			role, err := a.roles.NewRole(cmd.Context(), args[0], displayName, perms...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created role %s with %d permission(s)\n", role.Name, len(role.Permissions))
			return nil
		}),
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "human readable role name")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permission to grant; unknown names are skipped")
	return cmd
}

func rolesGrantCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <role> <permission>...",
		Short: "Grant permissions to an existing role",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.roles.GrantPermissions(cmd.Context(), args[0], args[1:]...); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", strings.Join(args[1:], ","), args[0])
			return nil
		}),
	}
}
