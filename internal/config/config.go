// Package config loads and validates khoj's YAML configuration, layering
// hardcoded defaults, the user config file, a project-local config file, and
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kaipakiran/khoj/internal/walker"
)

// Config is the complete khoj configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Privacy PrivacyConfig `yaml:"privacy" json:"privacy"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StorageConfig configures where the index lives on disk.
type StorageConfig struct {
	IndexPath string `yaml:"index_path" json:"index_path"`
	Encrypt   bool   `yaml:"encrypt" json:"encrypt"`
}

// SearchConfig configures hybrid-search defaults.
type SearchConfig struct {
	// DefaultLimit is the result count returned when a query doesn't specify one.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// KeywordWeight is the BM25 share of the RRF fusion weight (0.0-1.0);
	// the vector share is 1-KeywordWeight.
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// RRFConstant is the reciprocal rank fusion smoothing constant (k).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
}

// PrivacyConfig governs what the walker is allowed to read.
type PrivacyConfig struct {
	ExcludePatterns    []string `yaml:"exclude_patterns" json:"exclude_patterns"`
	RespectIgnoreFiles []string `yaml:"respect_ignore_files" json:"respect_ignore_files"`
	MaxFileSize        int64    `yaml:"max_file_size" json:"max_file_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// LoggingConfig configures the rotating debug log file written under
// --debug, independent of Server.LogLevel (which governs stderr verbosity
// for `khoj serve`).
type LoggingConfig struct {
	MaxSizeMB     int  `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int  `yaml:"max_files" json:"max_files"`
	WriteToStderr bool `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// ToWalkerProfile adapts the privacy configuration into a walker.Profile.
func (p PrivacyConfig) ToWalkerProfile() walker.Profile {
	return walker.Profile{
		ExcludePatterns:    p.ExcludePatterns,
		RespectIgnoreFiles: len(p.RespectIgnoreFiles) > 0,
		MaxFileSize:        p.MaxFileSize,
	}
}

// defaultExcludePatterns mirrors the privacy defaults every khoj index
// applies regardless of what the user configures on top.
var defaultExcludePatterns = []string{
	"**/.git",
	"**/.ssh",
	"**/passwords",
	"**/.gnupg",
	"**/node_modules",
	"**/target",
	"**/*.key",
	"**/*.pem",
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			IndexPath: defaultIndexPath(),
			Encrypt:   false,
		},
		Search: SearchConfig{
			DefaultLimit:  20,
			KeywordWeight: 0.5,
			RRFConstant:   60,
		},
		Privacy: PrivacyConfig{
			ExcludePatterns:    defaultExcludePatterns,
			RespectIgnoreFiles: []string{".gitignore", ".searchignore"},
			MaxFileSize:        100 * 1024 * 1024,
		},
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8765,
			LogLevel: "info",
		},
		Logging: LoggingConfig{
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

func defaultIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".khoj", "index")
	}
	return filepath.Join(home, ".khoj", "index")
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "khoj", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "khoj", "config.yaml")
	}
	return filepath.Join(home, ".config", "khoj", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user/global configuration file. It returns a nil
// config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration in order of increasing precedence: hardcoded
// defaults, user config (~/.config/khoj/config.yaml), project config
// (.khoj.yaml in dir), then KHOJ_* environment variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".khoj.yaml", ".khoj.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Storage.IndexPath != "" {
		c.Storage.IndexPath = other.Storage.IndexPath
	}
	if other.Storage.Encrypt {
		c.Storage.Encrypt = other.Storage.Encrypt
	}

	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.KeywordWeight != 0 {
		c.Search.KeywordWeight = other.Search.KeywordWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}

	if len(other.Privacy.ExcludePatterns) > 0 {
		c.Privacy.ExcludePatterns = append(c.Privacy.ExcludePatterns, other.Privacy.ExcludePatterns...)
	}
	if len(other.Privacy.RespectIgnoreFiles) > 0 {
		c.Privacy.RespectIgnoreFiles = other.Privacy.RespectIgnoreFiles
	}
	if other.Privacy.MaxFileSize != 0 {
		c.Privacy.MaxFileSize = other.Privacy.MaxFileSize
	}

	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
	if other.Logging.WriteToStderr {
		c.Logging.WriteToStderr = other.Logging.WriteToStderr
	}
}

// applyEnvOverrides applies KHOJ_* environment variable overrides, highest
// precedence in the load chain.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KHOJ_KEYWORD_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.KeywordWeight = w
		}
	}
	if v := os.Getenv("KHOJ_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("KHOJ_INDEX_PATH"); v != "" {
		c.Storage.IndexPath = v
	}
	if v := os.Getenv("KHOJ_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("KHOJ_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("KHOJ_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("KHOJ_LOG_MAX_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Logging.MaxSizeMB = n
		}
	}
}

// Validate checks invariants the rest of the system assumes hold.
func (c *Config) Validate() error {
	if c.Search.KeywordWeight < 0 || c.Search.KeywordWeight > 1 {
		return fmt.Errorf("search.keyword_weight must be between 0 and 1, got %f", c.Search.KeywordWeight)
	}
	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit must be non-negative, got %d", c.Search.DefaultLimit)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Privacy.MaxFileSize < 0 {
		return fmt.Errorf("privacy.max_file_size must be non-negative, got %d", c.Privacy.MaxFileSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("logging.max_size_mb must be positive, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles <= 0 {
		return fmt.Errorf("logging.max_files must be positive, got %d", c.Logging.MaxFiles)
	}

	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
