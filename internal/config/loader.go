package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Viper's Unmarshal doesn't reliably merge env vars into nested structs.
	l.applyEnvOverrides(cfg)

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Database.Path = expandTilde(cfg.Database.Path)
	cfg.Session.StatePath = expandTilde(cfg.Session.StatePath)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "pedrito"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "pedrito"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("PEDRITO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)
	bindEnvVars(v)
	v.AutomaticEnv()
}

func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Global
	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)

	// Upstream
	v.SetDefault("upstream.whatsapp_base_url", cfg.Upstream.WhatsAppBaseURL)
	v.SetDefault("upstream.whatsapp_api_key", cfg.Upstream.WhatsAppAPIKey)
	v.SetDefault("upstream.intel_base_url", cfg.Upstream.IntelBaseURL)
	v.SetDefault("upstream.intel_api_key", cfg.Upstream.IntelAPIKey)
	v.SetDefault("upstream.request_timeout", cfg.Upstream.RequestTimeout)

	// Polling
	v.SetDefault("polling.status_interval", cfg.Polling.StatusInterval)
	v.SetDefault("polling.pairing_interval", cfg.Polling.PairingInterval)

	// Session
	v.SetDefault("session.backend", cfg.Session.Backend)
	v.SetDefault("session.state_path", cfg.Session.StatePath)

	// Database
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout_ms", cfg.Database.BusyTimeoutMs)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// Server / TUI
	v.SetDefault("server.listen_addr", cfg.Server.ListenAddr)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Set sets a Viper value by key. Used for CLI flag overrides.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

// legacyEnv maps keys to the unprefixed variable names used by earlier
// deployments of the dashboard.
var legacyEnv = map[string]string{
	"upstream.whatsapp_base_url": "WHATSAPP_BASE_URL",
	"upstream.whatsapp_api_key":  "WHATSAPP_API_KEY",
	"upstream.intel_base_url":    "INTEL_BASE_URL",
	"upstream.intel_api_key":     "INTEL_API_KEY",
}

// bindEnvVars binds PEDRITO_* variables for every key, plus the legacy
// unprefixed names as fallbacks.
func bindEnvVars(v *viper.Viper) {
	envBindings := []string{
		// Global
		"global.data_dir",
		"global.config_dir",
		// Upstream
		"upstream.whatsapp_base_url",
		"upstream.whatsapp_api_key",
		"upstream.intel_base_url",
		"upstream.intel_api_key",
		"upstream.request_timeout",
		// Polling
		"polling.status_interval",
		"polling.pairing_interval",
		// Session
		"session.backend",
		"session.state_path",
		// Database
		"database.path",
		"database.busy_timeout_ms",
		// Logging
		"logging.level",
		"logging.format",
		"logging.file",
		"logging.enable_caller",
		// Server / TUI
		"server.listen_addr",
		"tui.theme",
	}

	for _, key := range envBindings {
		envVar := "PEDRITO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if legacy, ok := legacyEnv[key]; ok {
			_ = v.BindEnv(key, envVar, legacy)
			continue
		}
		_ = v.BindEnv(key, envVar)
	}
}

// applyEnvOverrides copies env-sourced values that Unmarshal may have missed.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	v := l.v

	for key, dst := range map[string]*string{
		"upstream.whatsapp_base_url": &cfg.Upstream.WhatsAppBaseURL,
		"upstream.whatsapp_api_key":  &cfg.Upstream.WhatsAppAPIKey,
		"upstream.intel_base_url":    &cfg.Upstream.IntelBaseURL,
		"upstream.intel_api_key":     &cfg.Upstream.IntelAPIKey,
		"global.data_dir":            &cfg.Global.DataDir,
		"database.path":              &cfg.Database.Path,
		"session.state_path":         &cfg.Session.StatePath,
		"logging.file":               &cfg.Logging.File,
	} {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}

	if level := v.GetString("logging.level"); level != "" && level != "info" {
		cfg.Logging.Level = level
	}
	if format := v.GetString("logging.format"); format != "" && format != "console" {
		cfg.Logging.Format = format
	}
	if backend := v.GetString("session.backend"); backend != "" {
		cfg.Session.Backend = strings.ToLower(backend)
	}
}

// YAML renders the config, with API keys masked unless reveal is set.
func (c *Config) YAML(reveal bool) ([]byte, error) {
	out := *c
	if !reveal {
		out.Upstream.WhatsAppAPIKey = mask(out.Upstream.WhatsAppAPIKey)
		out.Upstream.IntelAPIKey = mask(out.Upstream.IntelAPIKey)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := DefaultConfig().YAML(true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
