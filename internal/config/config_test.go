package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tOgg1/pedrito/internal/connection"
	"github.com/tOgg1/pedrito/internal/models"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	for _, key := range []string{"WHATSAPP_BASE_URL", "WHATSAPP_API_KEY", "INTEL_BASE_URL", "INTEL_API_KEY"} {
		t.Setenv(key, "")
		t.Setenv("PEDRITO_UPSTREAM_"+key, "")
	}
	return home
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Polling.StatusInterval != 5*time.Second {
		t.Errorf("status interval = %v, want 5s", cfg.Polling.StatusInterval)
	}
	if cfg.Polling.PairingInterval != 15*time.Second {
		t.Errorf("pairing interval = %v, want 15s", cfg.Polling.PairingInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "status interval too short",
			mutate: func(c *Config) { c.Polling.StatusInterval = 10 * time.Millisecond },
			field:  "polling.status_interval",
		},
		{
			name:   "pairing interval too short",
			mutate: func(c *Config) { c.Polling.PairingInterval = 0 },
			field:  "polling.pairing_interval",
		},
		{
			name:   "bad whatsapp url",
			mutate: func(c *Config) { c.Upstream.WhatsAppBaseURL = "ftp://bridge" },
			field:  "upstream.whatsapp_base_url",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Session.Backend = "redis" },
			field:  "session.backend",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			field:  "logging.format",
		},
		{
			name: "empty status rule",
			mutate: func(c *Config) {
				c.Reconcile.Status.Matches = append(c.Reconcile.Status.Matches, connection.Match{State: models.StateConnected})
			},
			field: "reconcile.status.matches[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verrs *models.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err.Error(), tt.field)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Polling.StatusInterval = 0
	cfg.Session.Backend = "nope"
	var verrs *models.ValidationErrors
	if !errors.As(cfg.Validate(), &verrs) {
		t.Fatal("expected ValidationErrors")
	}
	if len(verrs.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verrs.Errors), verrs)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantDir := filepath.Join(home, ".local", "share", "pedrito")
	if cfg.Global.DataDir != wantDir {
		t.Errorf("data dir = %q, want %q", cfg.Global.DataDir, wantDir)
	}
	if cfg.StatePath() != filepath.Join(wantDir, "session.json") {
		t.Errorf("state path = %q", cfg.StatePath())
	}
	if cfg.DatabasePath() != filepath.Join(wantDir, "pedrito.db") {
		t.Errorf("database path = %q", cfg.DatabasePath())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	body := `
upstream:
  whatsapp_base_url: http://bridge.local:3000
  intel_base_url: http://intel.local:8000
polling:
  status_interval: 2s
session:
  backend: sqlite
  state_path: ~/state/session.json
reconcile:
  fields:
    id: [loop_ref]
  collection_paths: [payload.items]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PEDRITO_UPSTREAM_INTEL_BASE_URL", "https://intel.example")
	t.Setenv("INTEL_API_KEY", "legacy-key")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Upstream.WhatsAppBaseURL != "http://bridge.local:3000" {
		t.Errorf("whatsapp url = %q", cfg.Upstream.WhatsAppBaseURL)
	}
	if cfg.Upstream.IntelBaseURL != "https://intel.example" {
		t.Errorf("intel url = %q, env should win over file", cfg.Upstream.IntelBaseURL)
	}
	if cfg.Upstream.IntelAPIKey != "legacy-key" {
		t.Errorf("intel key = %q, want legacy env value", cfg.Upstream.IntelAPIKey)
	}
	if cfg.Polling.StatusInterval != 2*time.Second {
		t.Errorf("status interval = %v", cfg.Polling.StatusInterval)
	}
	if cfg.Polling.PairingInterval != 15*time.Second {
		t.Errorf("pairing interval = %v, want default", cfg.Polling.PairingInterval)
	}
	if cfg.Session.Backend != BackendSQLite {
		t.Errorf("backend = %q", cfg.Session.Backend)
	}
	if cfg.Session.StatePath != filepath.Join(home, "state", "session.json") {
		t.Errorf("state path not expanded: %q", cfg.Session.StatePath)
	}
	if len(cfg.Reconcile.Fields.ID) != 1 || cfg.Reconcile.Fields.ID[0] != "loop_ref" {
		t.Errorf("fields.id = %v", cfg.Reconcile.Fields.ID)
	}
	if len(cfg.Reconcile.CollectionPaths) != 1 {
		t.Errorf("collection paths = %v", cfg.Reconcile.CollectionPaths)
	}
}

func TestLoad_PrefixedEnvBeatsLegacy(t *testing.T) {
	isolate(t)
	t.Setenv("PEDRITO_UPSTREAM_WHATSAPP_BASE_URL", "http://new.local")
	t.Setenv("WHATSAPP_BASE_URL", "http://old.local")

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Upstream.WhatsAppBaseURL != "http://new.local" {
		t.Errorf("whatsapp url = %q", cfg.Upstream.WhatsAppBaseURL)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidFileFailsValidation(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(path, []byte("session:\n  backend: redis\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), "session.backend") {
		t.Fatalf("expected session.backend validation error, got %v", err)
	}
}

func TestYAML_MasksKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upstream.IntelAPIKey = "super-secret"

	masked, err := cfg.YAML(false)
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if strings.Contains(string(masked), "super-secret") {
		t.Errorf("masked output leaks key:\n%s", masked)
	}
	if cfg.Upstream.IntelAPIKey != "super-secret" {
		t.Errorf("YAML mutated the config")
	}

	revealed, err := cfg.YAML(true)
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if !strings.Contains(string(revealed), "super-secret") {
		t.Errorf("revealed output missing key")
	}
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "pedrito", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Error("expected refusal to overwrite")
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if cfg.Polling.StatusInterval != 5*time.Second {
		t.Errorf("status interval = %v", cfg.Polling.StatusInterval)
	}
}
