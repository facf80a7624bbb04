package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rbac-center/services"
)

func usersCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(usersCreateCmd(cfgFile), usersSetRoleCmd(cfgFile), usersClearRolesCmd(cfgFile), usersCheckCmd(cfgFile))
	return cmd
}

func usersCreateCmd(cfgFile *string) *cobra.Command {
	var (
		pass        string
		profileName string
		role        string
	)
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			user, err := a.users.CreateUser(cmd.Context(), &services.CreateUserInput{
				Username:    args[0],
				ProfileName: profileName,
				Password:    pass,
			})
			if err != nil {
				return err
			}
			if role != "" {
				if err := a.users.SetRole(cmd.Context(), user.ID, role); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&pass, "password", "", "initial password")
	cmd.Flags().StringVar(&profileName, "profile-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "role to assign after creation")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func usersSetRoleCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.users.SetRole(cmd.Context(), user.ID, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s now has role %s\n", user.Username, args[1])
			return nil
		}),
	}
}

func usersClearRolesCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-roles <username>",
		Short: "Remove every role from a user",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.users.ClearRoles(cmd.Context(), user.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s has no roles\n", user.Username)
			return nil
		}),
	}
}

func usersCheckCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <username> <permission>",
		Short: "Report whether a user holds a permission through any role",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(cfgFile, func(cmd *cobra.Command, args []string, a *app) error {
			user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := a.users.HasPermission(cmd.Context(), user.ID, args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			if !ok {
				return errDenied
			}
			return nil
		}),
	}
}

// errDenied gives "users check" a non-zero exit status for scripts.
var errDenied = errors.New("permission denied")
