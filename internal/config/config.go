// Package config handles calldesk configuration.
//
// Values come from, in increasing precedence: built-in defaults, the YAML
// file at ~/.config/calldesk/config.yml, environment variables (optionally
// seeded from a .env file), and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/calldesk/config.yml.
type Config struct {
	DataFile  string `yaml:"data_file,omitempty"`  // Backing text file for call records
	IndexFile string `yaml:"index_file,omitempty"` // SQLite search index (derived)
	LogLevel  string `yaml:"log_level,omitempty"`  // debug, info, warn, error
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "calldesk"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultDataFile is used when nothing else names a data file.
	DefaultDataFile = "calls.txt"
	// DefaultLogLevel keeps the console quiet unless something goes wrong.
	DefaultLogLevel = "warn"
	// IndexSuffix is appended to the data file path to derive the index path.
	IndexSuffix = ".db"
)

// Environment variables that override the config file.
const (
	EnvDataFile  = "CALLDESK_DATA_FILE"
	EnvIndexFile = "CALLDESK_INDEX_FILE"
	EnvLogLevel  = "CALLDESK_LOG_LEVEL"
)

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Keys lists the settable config keys in display order.
var Keys = []string{"data-file", "index-file", "log-level"}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/calldesk/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// LoadFile reads the config file at path.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		return fmt.Errorf("no config path (home directory unknown)")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads the config file, loads .env from the working directory without
// overriding variables already set, and applies environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from CALLDESK_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv(EnvIndexFile); v != "" {
		c.IndexFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// DataPath returns the resolved data file path. A non-empty override
// (typically a flag) wins over the config.
func (c *Config) DataPath(override string) string {
	switch {
	case override != "":
		return ExpandPath(override)
	case c.DataFile != "":
		return ExpandPath(c.DataFile)
	default:
		return DefaultDataFile
	}
}

// IndexPath returns the resolved index path for the given data file.
func (c *Config) IndexPath(dataPath string) string {
	if c.IndexFile != "" {
		return ExpandPath(c.IndexFile)
	}
	return dataPath + IndexSuffix
}

// Level returns the configured log level, or DefaultLogLevel.
func (c *Config) Level() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return strings.ToLower(c.LogLevel)
}

// Get returns the value for a key as shown by `calldesk config`.
func (c *Config) Get(key string) (string, error) {
	switch NormalizeKey(key) {
	case "data-file":
		return c.DataFile, nil
	case "index-file":
		return c.IndexFile, nil
	case "log-level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
}

// Set validates and stores a value for a key.
func (c *Config) Set(key, value string) error {
	switch NormalizeKey(key) {
	case "data-file":
		c.DataFile = value
	case "index-file":
		c.IndexFile = value
	case "log-level":
		if err := ValidateLogLevel(value); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// NormalizeKey accepts both data_file and data-file spellings.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// ValidateLogLevel checks that level is one of ValidLogLevels.
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil // Empty defaults to warn
	}
	for _, valid := range ValidLogLevels {
		if strings.EqualFold(level, valid) {
			return nil
		}
	}
	return fmt.Errorf("invalid log_level: %s (valid: %v)", level, ValidLogLevels)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
