package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func permsCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Inspect and synchronise the permission catalog",
	}
	cmd.AddCommand(permsListCmd(cfgFile), permsSyncCmd(cfgFile), permsDescribeCmd(cfgFile))
	return cmd
}

func permsListCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored permission",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgFile, func(cmd *cobra.Command, _ []string, a *app) error {
			perms, err := a.perms.List(cmd.Context())
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
			_, _ = fmt.Fprintln(writer, "NAME\tDESCRIPTION")
			for _, p := range perms {
				_, _ = fmt.Fprintf(writer, "%s\t%s\n", p.Name, p.Description)
			}
			return writer.Flush()
		}),
	}
}

func permsSyncCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Store declared permissions and bootstrap the default roles",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgFile, func(cmd *cobra.Command, _ []string, a *app) error {
			// An explicit sync flushes whatever auto_permissions says.
			created, err := a.seed(cmd.Context(), true)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d permission(s)\n", created)
			return nil
		}),
	}
}

func permsDescribeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name> <description>",
		Short: "Replace the description of a stored permission",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			perm, err := a.perms.UpdateDescription(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", perm.Name, perm.Description)
			return nil
		}),
	}
}
