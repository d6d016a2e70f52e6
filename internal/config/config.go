// Package config loads and validates the rewire configuration.
// A Config is an immutable value handed to every component constructor;
// nothing reads ambient global state after startup.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete rewire configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RootPath string `json:"rootPath" mapstructure:"rootPath"`

	Scan       ScanConfig       `json:"scan" mapstructure:"scan"`
	Resolve    ResolveConfig    `json:"resolve" mapstructure:"resolve"`
	Risk       RiskConfig       `json:"risk" mapstructure:"risk"`
	Activation ActivationConfig `json:"activation" mapstructure:"activation"`
	Cache      CacheConfig      `json:"cache" mapstructure:"cache"`
	Report     ReportConfig     `json:"report" mapstructure:"report"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls the file scanning phase
type ScanConfig struct {
	IncludeExtensions []string `json:"includeExtensions" mapstructure:"includeExtensions"`
	ExcludeGlobs      []string `json:"excludeGlobs" mapstructure:"excludeGlobs"`
	MaxFileSizeBytes  int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Workers           int      `json:"workers" mapstructure:"workers"`
	PythonEnabled     bool     `json:"pythonEnabled" mapstructure:"pythonEnabled"`
}

// ResolveConfig controls import specifier resolution
type ResolveConfig struct {
	ExtensionCandidates []string `json:"extensionCandidates" mapstructure:"extensionCandidates"`
}

// RiskConfig holds line-count thresholds for risk tiers
type RiskConfig struct {
	MediumLineThreshold int `json:"mediumLineThreshold" mapstructure:"mediumLineThreshold"`
	LargeLineThreshold  int `json:"largeLineThreshold" mapstructure:"largeLineThreshold"`
}

// ActivationConfig controls the patch engine
type ActivationConfig struct {
	// BarrelRoots lists namespaces under which a missing index file may be
	// synthesized. Outside these, candidates without a barrel are skipped.
	BarrelRoots []string `json:"barrelRoots" mapstructure:"barrelRoots"`

	IncludeMediumRisk bool `json:"includeMediumRisk" mapstructure:"includeMediumRisk"`
	ArchiveBackups    bool `json:"archiveBackups" mapstructure:"archiveBackups"`
}

// CacheConfig controls the incremental scan cache
type CacheConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// ReportConfig controls report output
type ReportConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMb" mapstructure:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RootPath: ".",
		Scan: ScanConfig{
			IncludeExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
			ExcludeGlobs: []string{
				"node_modules/**",
				"dist/**",
				"build/**",
				"coverage/**",
				".git/**",
				"**/__pycache__/**",
				".rewire/**",
			},
			MaxFileSizeBytes: 1000000,
			Workers:          0, // 0 means runtime.NumCPU
			PythonEnabled:    false,
		},
		Resolve: ResolveConfig{
			ExtensionCandidates: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
		},
		Risk: RiskConfig{
			MediumLineThreshold: 300,
			LargeLineThreshold:  800,
		},
		Activation: ActivationConfig{
			BarrelRoots:       []string{"src"},
			IncludeMediumRisk: false,
			ArchiveBackups:    false,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Report: ReportConfig{
			OutputDir: ".rewire/runs",
		},
		Logging: LoggingConfig{
			Format:    "human",
			Level:     "info",
			MaxSizeMB: 20,
		},
	}
}

// Load reads configuration from <root>/.rewire/config.json.
// A missing config file falls back to DefaultConfig.
func Load(root string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".rewire"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.RootPath = root
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.RootPath = root

	return cfg, nil
}

// Save writes the configuration to <root>/.rewire/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ".rewire")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Path returns the config file location for a project root.
func Path(root string) string {
	return filepath.Join(root, ".rewire", "config.json")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be positive"}
	}
	if c.Risk.MediumLineThreshold <= 0 || c.Risk.LargeLineThreshold <= c.Risk.MediumLineThreshold {
		return &ConfigError{Field: "risk", Message: "thresholds must satisfy 0 < medium < large"}
	}
	if len(c.Scan.IncludeExtensions) == 0 {
		return &ConfigError{Field: "scan.includeExtensions", Message: "at least one extension required"}
	}
	return nil
}

// RiskMetadata is an optional per-file risk annotation map loaded from
// <root>/.rewire/risk.json (path -> LOW|MEDIUM|HIGH|CRITICAL). Files absent
// from the map carry no metadata and are tiered by line count alone.
type RiskMetadata map[string]string

// LoadRiskMetadata reads the optional risk annotation file.
// A missing file yields an empty map.
func LoadRiskMetadata(root string) (RiskMetadata, error) {
	data, err := os.ReadFile(filepath.Join(root, ".rewire", "risk.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RiskMetadata{}, nil
		}
		return nil, err
	}

	var meta RiskMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
