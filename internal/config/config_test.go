package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinhvd77/Tax/internal/calculator"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFileMissingUsesDefaults(t *testing.T) {
	cfg, info, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, info.FileFound)
	assert.False(t, info.PortSpecified)
	assert.Equal(t, DefaultConfig(), cfg)

	p := cfg.Policy()
	assert.Equal(t, float64(calculator.DefaultPersonalDeduction), p.PersonalDeduction)
	assert.True(t, p.NoContractRate.Equal(calculator.NoContractRate))
	assert.Equal(t, excel.DefaultThresholds(), cfg.Thresholds())
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[tax]
personal_deduction = 15500000
dependent_deduction = 6200000

[classifier]
payroll_min_rows = 3

[report]
sheet_name = "PIT"
`)

	cfg, info, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.True(t, info.FileFound)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "PIT", cfg.Report.SheetName)
	assert.Equal(t, "data", cfg.Data.DataDir)

	p := cfg.Policy()
	assert.Equal(t, 15500000.0, p.PersonalDeduction)
	assert.Equal(t, 6200000.0, p.DependentDeduction)
	assert.True(t, p.NoContractRate.Equal(decimal.NewFromFloat(0.1)))

	th := cfg.Thresholds()
	assert.Equal(t, 3, th.PayrollMinRows)
	assert.Equal(t, excel.RetroShapeMinRows, th.RetroMinRows)
}

func TestLoadConfigFileEnvOverrides(t *testing.T) {
	t.Setenv("PIT_PORT", "9000")
	t.Setenv("PIT_NO_CONTRACT_RATE", "0.2")
	t.Setenv("PIT_DATA_DIR", "/var/lib/pit")

	cfg, info, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/var/lib/pit", cfg.Data.DataDir)
	assert.True(t, cfg.Policy().NoContractRate.Equal(decimal.RequireFromString("0.2")))
	assert.Equal(t, filepath.Join("/var/lib/pit", "pit.db"), GetDataPath(cfg, "pit.db"))
}

func TestLoadConfigFileInvalid(t *testing.T) {
	_, _, err := LoadConfigFile(writeConfig(t, "[server\nport = "))
	assert.Error(t, err)

	t.Setenv("PIT_PORT", "abc")
	_, _, err = LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnsureDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	dir, err := EnsureDataDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Data.DataDir, dir)
	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}
