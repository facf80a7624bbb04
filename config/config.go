package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql, postgres or sqlite
	URL    string `mapstructure:"url"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	// ServiceAddress is the host Consul health-checks the gRPC port on.
	ServiceAddress string `mapstructure:"service_address"`
}

type Config struct {
	HTTPPort    int            `mapstructure:"http_port"`
	GRPCPort    int            `mapstructure:"grpc_port"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	Database    DatabaseConfig `mapstructure:"database"`

	JwtSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// AutoPermissions flushes staged permission declarations at startup.
	AutoPermissions bool   `mapstructure:"auto_permissions"`
	PasswordHasher  string `mapstructure:"password_hasher"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	DefaultRole     string `mapstructure:"default_role"`
	AdminRole       string `mapstructure:"admin_role"`

	Admin  AdminConfig  `mapstructure:"admin"`
	Consul ConsulConfig `mapstructure:"consul"`
}

const insecureSecret = "default-very-insecure-secret-key"

var AppConfig Config

// InitConfig loads path, or config.yaml from the working directory (or
// ./config) when path is empty, into AppConfig.
func InitConfig(path string) error {
	cfg, err := Load(viper.New(), path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load resolves configuration from file, environment and defaults. An empty
// path searches the default locations; a missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable overrides, e.g. RBAC_DATABASE_URL
	v.SetEnvPrefix("RBAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "rbac-center")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "rbac.db")
	v.SetDefault("jwt_secret", insecureSecret) // CHANGE THIS IN PRODUCTION
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("auto_permissions", true)
	v.SetDefault("password_hasher", "sha256")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("default_role", "user")
	v.SetDefault("admin_role", "admin")
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("consul.service_address", "127.0.0.1")
}

// InsecureSecret reports whether the JWT secret is still the built-in default.
func (c Config) InsecureSecret() bool {
	return c.JwtSecret == insecureSecret
}
