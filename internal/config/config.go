package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigDir is the per-project directory holding config.json
const ConfigDir = ".cinterop"

// CurrentVersion is the config schema version this build understands
const CurrentVersion = 1

// Config represents the complete cinterop configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Resolve ResolveConfig `json:"resolve" mapstructure:"resolve"`
	Exports ExportsConfig `json:"exports" mapstructure:"exports"`
	Parse   ParseConfig   `json:"parse" mapstructure:"parse"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ResolveConfig controls symbol resolution
type ResolveConfig struct {
	// MaxIterations caps the resolve loop; 0 derives the cap from the
	// relationship count.
	MaxIterations int `json:"maxIterations" mapstructure:"maxIterations"`

	// ChainDatabases are symbol database directories consulted, in order,
	// for names a header does not define.
	ChainDatabases []string `json:"chainDatabases" mapstructure:"chainDatabases"`

	CollapseNamedTypes bool `json:"collapseNamedTypes" mapstructure:"collapseNamedTypes"`
	CollapseTypedefs   bool `json:"collapseTypedefs" mapstructure:"collapseTypedefs"`
}

// ExportsConfig lists the sources used to fill in procedure libraries
type ExportsConfig struct {
	Manifests []string `json:"manifests" mapstructure:"manifests"`
	Libraries []string `json:"libraries" mapstructure:"libraries"`
}

// ParseConfig contains header parsing settings
type ParseConfig struct {
	MacroTable string `json:"macroTable" mapstructure:"macroTable"`
}

// StorageConfig contains symbol database settings
type StorageConfig struct {
	Directory string `json:"directory" mapstructure:"directory"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Resolve: ResolveConfig{
			MaxIterations:      0,
			ChainDatabases:     []string{},
			CollapseNamedTypes: true,
			CollapseTypedefs:   false,
		},
		Exports: ExportsConfig{
			Manifests: []string{},
			Libraries: []string{},
		},
		Storage: StorageConfig{
			Directory: filepath.Join(ConfigDir, "db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .cinterop/config.json under root.
// Keys missing from the file keep their defaults, and CINTEROP_* environment
// variables (CINTEROP_LOGGING_LEVEL, ...) override both.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("resolve.maxIterations", defaults.Resolve.MaxIterations)
	v.SetDefault("resolve.chainDatabases", defaults.Resolve.ChainDatabases)
	v.SetDefault("resolve.collapseNamedTypes", defaults.Resolve.CollapseNamedTypes)
	v.SetDefault("resolve.collapseTypedefs", defaults.Resolve.CollapseTypedefs)
	v.SetDefault("exports.manifests", defaults.Exports.Manifests)
	v.SetDefault("exports.libraries", defaults.Exports.Libraries)
	v.SetDefault("parse.macroTable", defaults.Parse.MacroTable)
	v.SetDefault("storage.directory", defaults.Storage.Directory)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetEnvPrefix("CINTEROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to .cinterop/config.json under root
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Resolve.MaxIterations < 0 {
		return &ConfigError{Field: "resolve.maxIterations", Message: "must not be negative"}
	}
	if c.Storage.Directory == "" {
		return &ConfigError{Field: "storage.directory", Message: "must not be empty"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "unknown level " + c.Logging.Level}
	}
	return nil
}

// Path resolves a configured path against root. Absolute paths are kept.
func Path(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
