// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/localgpt/internal/cloud"
	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/storage"
	"github.com/jeranaias/localgpt/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete localgpt configuration. Credentials are not
// part of it; they come from the environment only.
type Config struct {
	Local   LocalConfig   `toml:"local"`
	Cloud   CloudConfig   `toml:"cloud"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// LocalConfig configures the local Ollama service.
type LocalConfig struct {
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url"`
	// Model is the default local model
	Model string `toml:"model"`
	// ProbeTimeoutSecs bounds the reachability check
	ProbeTimeoutSecs int `toml:"probe_timeout_secs"`
	// GenerateTimeoutSecs bounds one generation
	GenerateTimeoutSecs int `toml:"generate_timeout_secs"`
}

// CloudConfig configures the chat-completions vendors.
type CloudConfig struct {
	// Priority lists vendor names tried first, in order. Vendors not listed
	// follow in their default order.
	Priority []string `toml:"priority"`

	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float64 `toml:"temperature"`
	ProbeTimeoutSecs    int     `toml:"probe_timeout_secs"`
	GenerateTimeoutSecs int     `toml:"generate_timeout_secs"`

	// Models overrides the default model per vendor, e.g. groq = "llama3-70b-8192".
	Models map[string]string `toml:"models"`
}

// StorageConfig selects where conversations are kept.
type StorageConfig struct {
	// Backend is "file" or "sqlite"
	Backend string `toml:"backend"`
	// DataDir holds the state file or database
	DataDir string `toml:"data_dir"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File, when set, receives logs instead of stderr (rotated)
	File string `toml:"file"`
}

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Default returns the built-in configuration.
func Default() *Config {
	dataDir, err := ConfigDir()
	if err != nil {
		dataDir = ".localgpt"
	}
	return &Config{
		Local: LocalConfig{
			OllamaURL:           ollama.DefaultBaseURL,
			Model:               ollama.DefaultModel,
			ProbeTimeoutSecs:    5,
			GenerateTimeoutSecs: 30,
		},
		Cloud: CloudConfig{
			Priority:            cloud.Names(),
			MaxTokens:           cloud.DefaultMaxTokens,
			Temperature:         cloud.DefaultTemperature,
			ProbeTimeoutSecs:    5,
			GenerateTimeoutSecs: 30,
			Models:              map[string]string{},
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: FormatConsole,
		},
	}
}

// ProbeTimeout returns the local probe timeout as a duration.
func (l LocalConfig) ProbeTimeout() time.Duration {
	return time.Duration(l.ProbeTimeoutSecs) * time.Second
}

// GenerateTimeout returns the local generation timeout as a duration.
func (l LocalConfig) GenerateTimeout() time.Duration {
	return time.Duration(l.GenerateTimeoutSecs) * time.Second
}

// ProbeTimeout returns the cloud probe timeout as a duration.
func (c CloudConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSecs) * time.Second
}

// GenerateTimeout returns the cloud generation timeout as a duration.
func (c CloudConfig) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the localgpt configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".localgpt"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.localgpt/config.toml when it exists, then applies
// environment overrides and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, cfg.Validate()
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file, applies
// environment overrides and validates. A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadFile reads only the file over the defaults, without environment
// overrides or validation. Use it to edit and re-save the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(cfg, path); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat config %s", path)
	}

	fillDefaults(cfg)
	return cfg, nil
}

// decodeFile decodes path over cfg, so keys absent from the file keep the
// values already in cfg.
func decodeFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to decode TOML file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults replaces values that were set to empty.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Local.OllamaURL == "" {
		cfg.Local.OllamaURL = defaults.Local.OllamaURL
	}
	if cfg.Local.Model == "" {
		cfg.Local.Model = defaults.Local.Model
	}
	if cfg.Local.ProbeTimeoutSecs == 0 {
		cfg.Local.ProbeTimeoutSecs = defaults.Local.ProbeTimeoutSecs
	}
	if cfg.Local.GenerateTimeoutSecs == 0 {
		cfg.Local.GenerateTimeoutSecs = defaults.Local.GenerateTimeoutSecs
	}

	if cfg.Cloud.MaxTokens == 0 {
		cfg.Cloud.MaxTokens = defaults.Cloud.MaxTokens
	}
	if cfg.Cloud.ProbeTimeoutSecs == 0 {
		cfg.Cloud.ProbeTimeoutSecs = defaults.Cloud.ProbeTimeoutSecs
	}
	if cfg.Cloud.GenerateTimeoutSecs == 0 {
		cfg.Cloud.GenerateTimeoutSecs = defaults.Cloud.GenerateTimeoutSecs
	}
	if cfg.Cloud.Models == nil {
		cfg.Cloud.Models = map[string]string{}
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaults.Storage.DataDir
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as TOML to path with 0600 permissions.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# localgpt configuration file\n")
	buf.WriteString("# API keys are read from the environment or a .env file, never from here.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Local
	if u, err := url.Parse(c.Local.OllamaURL); err != nil {
		add("local.ollama_url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("local.ollama_url", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("local.ollama_url", "missing host")
	}
	if c.Local.ProbeTimeoutSecs < 0 {
		add("local.probe_timeout_secs", "cannot be negative")
	}
	if c.Local.GenerateTimeoutSecs < 0 {
		add("local.generate_timeout_secs", "cannot be negative")
	}

	// Cloud
	if _, err := cloud.Order(c.Cloud.Priority); err != nil {
		add("cloud.priority", "%v", err)
	}
	if c.Cloud.MaxTokens < 0 {
		add("cloud.max_tokens", "cannot be negative")
	}
	if c.Cloud.Temperature < 0 || c.Cloud.Temperature > 2 {
		add("cloud.temperature", "must be between 0 and 2, got %g", c.Cloud.Temperature)
	}
	if c.Cloud.ProbeTimeoutSecs < 0 {
		add("cloud.probe_timeout_secs", "cannot be negative")
	}
	if c.Cloud.GenerateTimeoutSecs < 0 {
		add("cloud.generate_timeout_secs", "cannot be negative")
	}
	for _, name := range sortedKeys(c.Cloud.Models) {
		if _, ok := cloud.Lookup(name); !ok {
			add("cloud.models", "unknown vendor %q (want one of: %s)", name, strings.Join(cloud.Names(), ", "))
		}
	}

	// Storage
	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		add("storage.backend", "invalid backend %q, must be one of: file, sqlite, memory", c.Storage.Backend)
	}

	// Log
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		add("log.level", "invalid level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case FormatConsole, FormatJSON:
	default:
		add("log.format", "invalid format %q, must be console or json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies LOCALGPT_* environment variables:
//   - LOCALGPT_OLLAMA_URL: overrides local.ollama_url
//   - LOCALGPT_MODEL: overrides local.model
//   - LOCALGPT_CLOUD_PRIORITY: comma-separated cloud.priority
//   - LOCALGPT_STORAGE: overrides storage.backend
//   - LOCALGPT_DATA_DIR: overrides storage.data_dir
//   - LOCALGPT_LOG_LEVEL: overrides log.level
//   - LOCALGPT_LOG_FORMAT: overrides log.format
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOCALGPT_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("LOCALGPT_MODEL"); v != "" {
		c.Local.Model = v
	}
	if v := os.Getenv("LOCALGPT_CLOUD_PRIORITY"); v != "" {
		c.Cloud.Priority = splitList(v)
	}
	if v := os.Getenv("LOCALGPT_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LOCALGPT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("LOCALGPT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOCALGPT_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys lists every key accepted by Get and Set.
func Keys() []string {
	return []string{
		"local.ollama_url",
		"local.model",
		"local.probe_timeout_secs",
		"local.generate_timeout_secs",
		"cloud.priority",
		"cloud.max_tokens",
		"cloud.temperature",
		"cloud.probe_timeout_secs",
		"cloud.generate_timeout_secs",
		"cloud.models.<vendor>",
		"storage.backend",
		"storage.data_dir",
		"log.level",
		"log.format",
		"log.file",
	}
}

// Get returns the value at key as a string.
func (c *Config) Get(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if vendor, ok := strings.CutPrefix(key, "cloud.models."); ok {
		return c.Cloud.Models[vendor], nil
	}
	switch key {
	case "local.ollama_url":
		return c.Local.OllamaURL, nil
	case "local.model":
		return c.Local.Model, nil
	case "local.probe_timeout_secs":
		return strconv.Itoa(c.Local.ProbeTimeoutSecs), nil
	case "local.generate_timeout_secs":
		return strconv.Itoa(c.Local.GenerateTimeoutSecs), nil
	case "cloud.priority":
		return strings.Join(c.Cloud.Priority, ","), nil
	case "cloud.max_tokens":
		return strconv.Itoa(c.Cloud.MaxTokens), nil
	case "cloud.temperature":
		return strconv.FormatFloat(c.Cloud.Temperature, 'g', -1, 64), nil
	case "cloud.probe_timeout_secs":
		return strconv.Itoa(c.Cloud.ProbeTimeoutSecs), nil
	case "cloud.generate_timeout_secs":
		return strconv.Itoa(c.Cloud.GenerateTimeoutSecs), nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.data_dir":
		return c.Storage.DataDir, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "log.file":
		return c.Log.File, nil
	}
	return "", errors.Errorf("unknown config key %q", key)
}

// Set parses value and stores it at key. The result is not validated; call
// Validate before saving.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	if vendor, ok := strings.CutPrefix(key, "cloud.models."); ok {
		if c.Cloud.Models == nil {
			c.Cloud.Models = map[string]string{}
		}
		if value == "" {
			delete(c.Cloud.Models, vendor)
		} else {
			c.Cloud.Models[vendor] = value
		}
		return nil
	}

	var err error
	switch key {
	case "local.ollama_url":
		c.Local.OllamaURL = value
	case "local.model":
		c.Local.Model = value
	case "local.probe_timeout_secs":
		c.Local.ProbeTimeoutSecs, err = strconv.Atoi(value)
	case "local.generate_timeout_secs":
		c.Local.GenerateTimeoutSecs, err = strconv.Atoi(value)
	case "cloud.priority":
		c.Cloud.Priority = splitList(value)
	case "cloud.max_tokens":
		c.Cloud.MaxTokens, err = strconv.Atoi(value)
	case "cloud.temperature":
		c.Cloud.Temperature, err = strconv.ParseFloat(value, 64)
	case "cloud.probe_timeout_secs":
		c.Cloud.ProbeTimeoutSecs, err = strconv.Atoi(value)
	case "cloud.generate_timeout_secs":
		c.Cloud.GenerateTimeoutSecs, err = strconv.Atoi(value)
	case "storage.backend":
		c.Storage.Backend = value
	case "storage.data_dir":
		c.Storage.DataDir = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "log.file":
		c.Log.File = value
	default:
		return errors.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", key)
	}
	return nil
}

// String renders cfg as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
