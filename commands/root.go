// Package commands is the rbac-center command line.
package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/config"
	"rbac-center/controllers"
	"rbac-center/database"
	"rbac-center/password"
	"rbac-center/permsmanager"
	"rbac-center/repositories"
	"rbac-center/services"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:          "rbac-center",
		Short:        "Role-based access control service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml or ./config/config.yaml)")

	root.AddCommand(
		serveCmd(&cfgFile),
		permsCmd(&cfgFile),
		rolesCmd(&cfgFile),
		usersCmd(&cfgFile),
		discoverCmd(&cfgFile),
	)
	return root
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *gorm.DB
	store   *repositories.Store
	manager *permsmanager.Manager

	perms    services.PermissionService
	roles    services.RoleService
	users    services.UserService
	projects services.ProjectService
}

// newApp loads configuration, connects and migrates the database and stages
// every permission the HTTP API declares. Nothing is written to the
// permission catalog yet.
func newApp(cfgFile string) (*app, error) {
	if err := config.InitConfig(cfgFile); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	logger := newLogger(cfg.LogLevel)

	hasher, err := password.New(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	store := repositories.NewStore(db)
	manager := permsmanager.New()
	for _, decls := range controllers.Declarations() {
		if err := manager.Register(decls); err != nil {
			return nil, err
		}
	}
	manager.Init(store)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store,
		manager:  manager,
		perms:    services.NewPermissionService(store, cfg.DefaultRole, logger),
		roles:    services.NewRoleService(store, logger),
		users:    services.NewUserService(store, hasher, logger),
		projects: services.NewProjectService(store),
	}, nil
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	switch level {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (a *app) Close() {
	_ = a.logger.Sync() // Make sure the buffer is flushed before the program exits
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// seed runs the role and admin bootstrap. With flush set, staged
// permissions are written first and the default ones are granted to the
// default role; without it nothing staged reaches the store. It returns the
// number of permissions the flush created.
func (a *app) seed(ctx context.Context, flush bool) (int, error) {
	var (
		specs   []services.PermissionSpec
		created int
	)
	if flush {
		var err error
		created, err = a.manager.CreateAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("create staged permissions: %w", err)
		}
		a.logger.Info("permissions synchronised", zap.Int("created", created))
		specs = a.defaultSpecs()
	}

	return created, database.Seed(ctx, database.SeedOptions{
		DefaultRole:        a.cfg.DefaultRole,
		AdminRole:          a.cfg.AdminRole,
		DefaultPermissions: specs,
		AdminUsername:      a.cfg.Admin.Username,
		AdminPassword:      a.cfg.Admin.Password,
	}, a.perms, a.roles, a.users, a.logger)
}

// defaultSpecs lists the staged declarations flagged Default, sorted by name.
func (a *app) defaultSpecs() []services.PermissionSpec {
	defaults := a.manager.Defaults()
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	specs := make([]services.PermissionSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, services.PermissionSpec{Name: name, Description: defaults[name]})
	}
	return specs
}

// withApp runs fn against a freshly bootstrapped app and closes it after.
func withApp(cfgFile *string, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(*cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
