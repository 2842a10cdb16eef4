package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray .env or config.yaml is read.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	t.Setenv("POS_JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 12*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, "latest", cfg.Inventory.CostingMethod)
	assert.Equal(t, "current", cfg.Inventory.ProfitCostBasis)
	assert.Equal(t, "record_only", cfg.Inventory.AdjustPolicy)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := inTempDir(t)
	file := filepath.Join(dir, "shop.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
app:
  port: "9000"
  timezone: Asia/Almaty
database:
  name: doors
inventory:
  costing_method: FIFO
jwt:
  secret: from-file
`), 0o600))
	t.Setenv("POS_APP_PORT", "9100")
	t.Setenv("POS_INVENTORY_PROFIT_COST_BASIS", "snapshot")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "doors", cfg.Database.Name)
	assert.Equal(t, "fifo", cfg.Inventory.CostingMethod)
	assert.Equal(t, "snapshot", cfg.Inventory.ProfitCostBasis)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "Asia/Almaty", cfg.Location().String())
	assert.Equal(t, "postgres://postgres:@localhost:5432/doors?sslmode=disable", cfg.Database.URL())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("POS_JWT_SECRET", "secret")

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Timezone: "UTC"},
			Database:  DatabaseConfig{Port: 5432},
			JWT:       JWTConfig{Secret: "s", AccessTTL: time.Hour},
			Inventory: InventoryConfig{CostingMethod: "latest", ProfitCostBasis: "current", AdjustPolicy: "record_only"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"no secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"bad zone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }, "app.timezone"},
		{"bad costing", func(c *Config) { c.Inventory.CostingMethod = "lifo" }, "costing_method"},
		{"bad basis", func(c *Config) { c.Inventory.ProfitCostBasis = "average" }, "profit_cost_basis"},
		{"apply adjust", func(c *Config) { c.Inventory.AdjustPolicy = "set_absolute" }, "adjust_policy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}
