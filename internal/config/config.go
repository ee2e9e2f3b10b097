package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/thinhvd77/Tax/internal/calculator"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

// AppConfig application configuration, read from config.toml
type AppConfig struct {
	Server     ServerConfig     `toml:"server"`
	Data       DataConfig       `toml:"data"`
	Tax        TaxConfig        `toml:"tax"`
	Classifier ClassifierConfig `toml:"classifier"`
	Report     ReportConfig     `toml:"report"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig where the run history database lives
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// TaxConfig deduction amounts (VND per month) and the flat no-contract rate
type TaxConfig struct {
	PersonalDeduction  float64 `toml:"personal_deduction"`
	DependentDeduction float64 `toml:"dependent_deduction"`
	NoContractRate     float64 `toml:"no_contract_rate"`
}

// ClassifierConfig minimum matching rows for content-based detection
type ClassifierConfig struct {
	RetroMinRows   int `toml:"retro_min_rows"`
	PayrollMinRows int `toml:"payroll_min_rows"`
}

// ReportConfig output workbook
type ReportConfig struct {
	SheetName string `toml:"sheet_name"`
}

// LoadConfigInfo metadata about how the configuration was loaded
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig built-in defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Tax: TaxConfig{
			PersonalDeduction:  calculator.DefaultPersonalDeduction,
			DependentDeduction: calculator.DefaultDependentDeduction,
			NoContractRate:     calculator.NoContractRate.InexactFloat64(),
		},
		Classifier: ClassifierConfig{
			RetroMinRows:   excel.RetroShapeMinRows,
			PayrollMinRows: excel.PayrollShapeMinRows,
		},
		Report: ReportConfig{
			SheetName: excel.DefaultSheetName,
		},
	}
}

// Policy tax policy for the engine
func (c *AppConfig) Policy() calculator.Policy {
	p := calculator.DefaultPolicy()
	if c.Tax.PersonalDeduction > 0 {
		p.PersonalDeduction = c.Tax.PersonalDeduction
	}
	if c.Tax.DependentDeduction > 0 {
		p.DependentDeduction = c.Tax.DependentDeduction
	}
	if c.Tax.NoContractRate > 0 {
		p.NoContractRate = decimal.NewFromFloat(c.Tax.NoContractRate)
	}
	return p
}

// Thresholds classifier thresholds for the engine
func (c *AppConfig) Thresholds() excel.Thresholds {
	return excel.Thresholds{
		RetroMinRows:   c.Classifier.RetroMinRows,
		PayrollMinRows: c.Classifier.PayrollMinRows,
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir directory of the running executable
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo loads config.toml next to the executable, then applies PIT_* env overrides.
// A missing file yields the defaults.
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return LoadConfigFile(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFile loads the configuration from path
func LoadConfigFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv environment overrides, e.g. from a .env file loaded at startup
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv("PIT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PIT_PORT %q: %w", v, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv("PIT_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"PIT_PERSONAL_DEDUCTION", &config.Tax.PersonalDeduction},
		{"PIT_DEPENDENT_DEDUCTION", &config.Tax.DependentDeduction},
		{"PIT_NO_CONTRACT_RATE", &config.Tax.NoContractRate},
	}
	for _, f := range floats {
		v := os.Getenv(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, v, err)
		}
		*f.dst = n
	}
	if v := os.Getenv("PIT_SHEET_NAME"); v != "" {
		config.Report.SheetName = v
	}
	return nil
}

// LoadConfig loads config.toml next to the executable
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// EnsureDataDir creates the data directory and returns its path.
// A relative data_dir is resolved against the executable directory.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDataPath path of filename inside the data directory
func GetDataPath(config *AppConfig, filename string) string {
	return filepath.Join(resolveDataDir(config), filename)
}

func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, _ := GetExeDir()
	if exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}
