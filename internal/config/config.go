// Package config handles pedrito configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tOgg1/pedrito/internal/connection"
	"github.com/tOgg1/pedrito/internal/models"
	"github.com/tOgg1/pedrito/internal/normalize"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure for pedrito.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Upstream endpoints and credentials
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`

	// Poll cadences
	Polling PollingConfig `yaml:"polling" mapstructure:"polling"`

	// Where onboarding and dismissals are kept
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Database settings (session.backend = sqlite)
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// HTTP API settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// Upstream shape priorities
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where pedrito stores its state (default: ~/.local/share/pedrito).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/pedrito).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// UpstreamConfig points at the messaging bridge and the intelligence service.
type UpstreamConfig struct {
	WhatsAppBaseURL string `yaml:"whatsapp_base_url" mapstructure:"whatsapp_base_url"`
	WhatsAppAPIKey  string `yaml:"whatsapp_api_key" mapstructure:"whatsapp_api_key"`
	IntelBaseURL    string `yaml:"intel_base_url" mapstructure:"intel_base_url"`
	IntelAPIKey     string `yaml:"intel_api_key" mapstructure:"intel_api_key"`

	// RequestTimeout bounds every upstream call.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// PollingConfig contains poll cadences.
type PollingConfig struct {
	StatusInterval  time.Duration `yaml:"status_interval" mapstructure:"status_interval"`
	PairingInterval time.Duration `yaml:"pairing_interval" mapstructure:"pairing_interval"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	// Backend is "file" (JSON session file) or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// StatePath is the JSON session file (default: DataDir/session.json).
	StatePath string `yaml:"state_path" mapstructure:"state_path"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast, light).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// ReconcileConfig overrides how upstream shapes are read. Empty lists keep
// the built-in priorities.
type ReconcileConfig struct {
	Fields          normalize.Fields `yaml:"fields" mapstructure:"fields"`
	CollectionPaths []string         `yaml:"collection_paths" mapstructure:"collection_paths"`
	Status          connection.Rules `yaml:"status" mapstructure:"status"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "pedrito"),
			ConfigDir: filepath.Join(homeDir, ".config", "pedrito"),
		},
		Upstream: UpstreamConfig{
			RequestTimeout: 10 * time.Second,
		},
		Polling: PollingConfig{
			StatusInterval:  5 * time.Second,
			PairingInterval: 15 * time.Second,
		},
		Session: SessionConfig{
			Backend: BackendFile,
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/pedrito.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8787",
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// Validate checks if the configuration is valid. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs models.ValidationErrors

	if c.Polling.StatusInterval < 500*time.Millisecond {
		errs.AddMessage("polling.status_interval", "must be at least 500ms")
	}
	if c.Polling.PairingInterval < time.Second {
		errs.AddMessage("polling.pairing_interval", "must be at least 1s")
	}
	if c.Upstream.RequestTimeout <= 0 {
		errs.AddMessage("upstream.request_timeout", "must be positive")
	}
	for field, raw := range map[string]string{
		"upstream.whatsapp_base_url": c.Upstream.WhatsAppBaseURL,
		"upstream.intel_base_url":    c.Upstream.IntelBaseURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.AddMessage(field, "must be an http(s) URL")
		}
	}
	switch c.Session.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs.AddMessage("session.backend", "must be one of file, sqlite")
	}
	if c.Database.BusyTimeoutMs < 0 {
		errs.AddMessage("database.busy_timeout_ms", "must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs.AddMessage("logging.format", "must be one of console, json")
	}
	for i, m := range c.Reconcile.Status.Matches {
		if m.State == "" || len(m.Substrings) == 0 {
			errs.AddMessage(fmt.Sprintf("reconcile.status.matches[%d]", i), "needs a state and at least one substring")
		}
	}

	return errs.Err()
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Global.ConfigDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "pedrito.db")
}

// StatePath returns the session file path.
func (c *Config) StatePath() string {
	if c.Session.StatePath != "" {
		return c.Session.StatePath
	}
	return filepath.Join(c.Global.DataDir, "session.json")
}

// Normalizer builds the loop normalizer from the reconcile overrides.
func (c *Config) Normalizer() *normalize.Normalizer {
	return normalize.NewNormalizer(c.Reconcile.Fields, normalize.ParseCollectionPaths(c.Reconcile.CollectionPaths))
}

// Interpreter builds the status interpreter from the reconcile overrides.
func (c *Config) Interpreter() *connection.Interpreter {
	return connection.NewInterpreter(c.Reconcile.Status)
}
