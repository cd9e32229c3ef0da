package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quaestor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "evidence:\n  index_backend: memory\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, DefaultReadTimeout)
	}
	if cfg.Evidence.IndexBackend != "memory" {
		t.Errorf("IndexBackend = %q, want memory", cfg.Evidence.IndexBackend)
	}
	if cfg.Evidence.ChainPath != DefaultChainPath {
		t.Errorf("ChainPath = %q, want %q", cfg.Evidence.ChainPath, DefaultChainPath)
	}
	if cfg.Evidence.ChainID != DefaultChainID {
		t.Errorf("ChainID = %q, want %q", cfg.Evidence.ChainID, DefaultChainID)
	}
	if cfg.Telemetry.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, DefaultLogLevel)
	}
}

func TestLoadConfig_ParsesFullFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: ":9000"
  read_timeout: 10s
  shutdown_timeout: 5s
evidence:
  index_backend: sqlite
  index_path: /var/lib/quaestor/evidence.db
  chain_path: /var/lib/quaestor/audit_chain.json
  chain_id: pci_audit_2026
integrity:
  verify_schedule: "0 3 * * *"
  watch_chain_file: true
  checkpoint_path: /var/lib/quaestor/checkpoints.db
telemetry:
  logging:
    level: debug
    format: text
    redact_pan: true
  metrics:
    enabled: true
    namespace: quaestor
    path: /metrics
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.ListenAddress != ":9000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Evidence.ChainID != "pci_audit_2026" {
		t.Errorf("ChainID = %q", cfg.Evidence.ChainID)
	}
	if cfg.Integrity.VerifySchedule != "0 3 * * *" {
		t.Errorf("VerifySchedule = %q", cfg.Integrity.VerifySchedule)
	}
	if !cfg.Integrity.WatchChainFile {
		t.Error("WatchChainFile = false, want true")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Logging.RedactPAN {
		t.Error("RedactPAN = false, want true")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() succeeded on a missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted invalid YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: ":9000"
evidence:
  index_backend: memory
`)

	t.Setenv("QUAESTOR_SERVER_LISTEN_ADDRESS", ":7777")
	t.Setenv("QUAESTOR_EVIDENCE_INDEX_BACKEND", "sqlite")
	t.Setenv("QUAESTOR_EVIDENCE_INDEX_PATH", "/tmp/evidence.db")
	t.Setenv("QUAESTOR_INTEGRITY_VERIFY_SCHEDULE", "*/5 * * * *")
	t.Setenv("QUAESTOR_TELEMETRY_METRICS_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Server.ListenAddress != ":7777" {
		t.Errorf("env override lost: ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Evidence.IndexBackend != "sqlite" {
		t.Errorf("env override lost: IndexBackend = %q", cfg.Evidence.IndexBackend)
	}
	if cfg.Integrity.VerifySchedule != "*/5 * * * *" {
		t.Errorf("env override lost: VerifySchedule = %q", cfg.Integrity.VerifySchedule)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("env override lost: Metrics.Enabled = false")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenAddress = ""
	cfg.Evidence.IndexBackend = "postgres"
	cfg.Integrity.VerifySchedule = "not a schedule"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() accepted a broken configuration")
	}

	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("Validate() returned %T, want ValidationErrors", err)
	}
	if len(errs) != 4 {
		t.Errorf("Validate() collected %d errors, want 4: %v", len(errs), errs)
	}

	msg := err.Error()
	for _, field := range []string{
		"server.listen_address",
		"evidence.index_backend",
		"integrity.verify_schedule",
		"telemetry.logging.level",
	} {
		if !strings.Contains(msg, field) {
			t.Errorf("error message missing field %q: %s", field, msg)
		}
	}
}

func TestValidate_SQLiteBackendRequiresPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Evidence.IndexBackend = "sqlite"
	cfg.Evidence.IndexPath = ""

	if err := Validate(cfg); err == nil {
		t.Error("Validate() accepted sqlite backend without index_path")
	}
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("Validate(DefaultConfig()) failed: %v", err)
	}
}
