package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/tvscan/internal/filelock"
	"github.com/harrison/tvscan/internal/fileutil"
	"github.com/harrison/tvscan/internal/fingerprint"
)

// HomeDirName is the per-directory state folder holding config, logs and history.
const HomeDirName = ".tvscan"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records each completed scan in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents tvscan configuration options
type Config struct {
	// Extensions are the file name suffixes treated as test vectors
	Extensions []string `yaml:"extensions"`

	// Manifest is the path of the manifest file
	Manifest string `yaml:"manifest"`

	// ExcludeDirs are directory names never descended into
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// MaxDepth limits how deep the walk descends below the root (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// Workers is the number of files hashed concurrently
	Workers int `yaml:"workers"`

	// ChunkSize is the read block size used when hashing
	ChunkSize int `yaml:"chunk_size"`

	// HashAlgorithm is the content hash (md5, sha256)
	HashAlgorithm string `yaml:"hash_algorithm"`

	// StrictManifest fails a run on the first malformed manifest line
	StrictManifest bool `yaml:"strict_manifest"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Extensions:     []string{".fil"},
		Manifest:       "",
		ExcludeDirs:    []string{},
		MaxDepth:       0,
		Workers:        1,
		ChunkSize:      fingerprint.DefaultChunkSize,
		HashAlgorithm:  string(fingerprint.MD5),
		StrictManifest: false,
		LogLevel:       "info",
		LogDir:         filepath.Join(HomeDirName, "logs"),
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(HomeDirName, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Booleans cannot be told apart from their zero value after Unmarshal, so
	// presence is checked on a raw map.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, exists := rawMap["extensions"]; exists {
		cfg.Extensions = fileCfg.Extensions
	}
	if fileCfg.Manifest != "" {
		cfg.Manifest = fileCfg.Manifest
	}
	if _, exists := rawMap["exclude_dirs"]; exists {
		cfg.ExcludeDirs = fileCfg.ExcludeDirs
	}
	if fileCfg.MaxDepth != 0 {
		cfg.MaxDepth = fileCfg.MaxDepth
	}
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.ChunkSize != 0 {
		cfg.ChunkSize = fileCfg.ChunkSize
	}
	if fileCfg.HashAlgorithm != "" {
		cfg.HashAlgorithm = fileCfg.HashAlgorithm
	}
	if _, exists := rawMap["strict_manifest"]; exists {
		cfg.StrictManifest = fileCfg.StrictManifest
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}

	if historySection, exists := rawMap["history"]; exists && historySection != nil {
		historyMap, _ := historySection.(map[string]interface{})
		if _, exists := historyMap["enabled"]; exists {
			cfg.History.Enabled = fileCfg.History.Enabled
		}
		if _, exists := historyMap["db_path"]; exists {
			cfg.History.DBPath = fileCfg.History.DBPath
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .tvscan/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, HomeDirName, "config.yaml"))
}

// Flags carries CLI overrides. Nil fields leave the configured value alone.
type Flags struct {
	Extensions     []string
	Manifest       *string
	ExcludeDirs    []string
	MaxDepth       *int
	Workers        *int
	ChunkSize      *int
	HashAlgorithm  *string
	StrictManifest *bool
	LogLevel       *string
	LogDir         *string
	HistoryEnabled *bool
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(f Flags) {
	if len(f.Extensions) > 0 {
		c.Extensions = f.Extensions
	}
	if f.Manifest != nil {
		c.Manifest = *f.Manifest
	}
	if len(f.ExcludeDirs) > 0 {
		c.ExcludeDirs = f.ExcludeDirs
	}
	if f.MaxDepth != nil {
		c.MaxDepth = *f.MaxDepth
	}
	if f.Workers != nil {
		c.Workers = *f.Workers
	}
	if f.ChunkSize != nil {
		c.ChunkSize = *f.ChunkSize
	}
	if f.HashAlgorithm != nil {
		c.HashAlgorithm = *f.HashAlgorithm
	}
	if f.StrictManifest != nil {
		c.StrictManifest = *f.StrictManifest
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.HistoryEnabled != nil {
		c.History.Enabled = *f.HistoryEnabled
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if len(fileutil.NormalizeExtensions(c.Extensions)) == 0 {
		return fmt.Errorf("extensions must list at least one suffix")
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0, got %d", c.ChunkSize)
	}

	if _, err := fingerprint.ParseAlgorithm(c.HashAlgorithm); err != nil {
		return fmt.Errorf("invalid hash_algorithm: %w", err)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}

// WriteDefault renders the default configuration to path atomically.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
