package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "sha256", cfg.PasswordHasher)
	assert.Equal(t, "user", cfg.DefaultRole)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AutoPermissions)
	assert.True(t, cfg.InsecureSecret())
	assert.False(t, cfg.Consul.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http_port: 9090
auto_permissions: false
database:
  driver: mysql
  url: "user:pass@tcp(localhost:3306)/rbac"
admin:
  username: root
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("RBAC_DEFAULT_ROLE", "member")
	t.Setenv("RBAC_JWT_SECRET", "s3cret")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.False(t, cfg.AutoPermissions)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "root", cfg.Admin.Username)
	assert.Equal(t, "member", cfg.DefaultRole)
	assert.False(t, cfg.InsecureSecret())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: [oops"), 0o600))

	_, err := Load(viper.New(), path)
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: authz-test\n"), 0o600))

	require.NoError(t, InitConfig(path))
	assert.Equal(t, "authz-test", AppConfig.ServiceName)
	assert.Equal(t, "127.0.0.1", AppConfig.Consul.ServiceAddress)
}
