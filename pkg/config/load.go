package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates it. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the convention
// QUAESTOR_SECTION_FIELD (e.g. QUAESTOR_SERVER_LISTEN_ADDRESS) and always
// take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("QUAESTOR_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("QUAESTOR_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("QUAESTOR_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("QUAESTOR_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("QUAESTOR_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("QUAESTOR_SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}

	// Evidence overrides
	if val := os.Getenv("QUAESTOR_EVIDENCE_INDEX_BACKEND"); val != "" {
		cfg.Evidence.IndexBackend = val
	}
	if val := os.Getenv("QUAESTOR_EVIDENCE_INDEX_PATH"); val != "" {
		cfg.Evidence.IndexPath = val
	}
	if val := os.Getenv("QUAESTOR_EVIDENCE_CHAIN_PATH"); val != "" {
		cfg.Evidence.ChainPath = val
	}
	if val := os.Getenv("QUAESTOR_EVIDENCE_CHAIN_ID"); val != "" {
		cfg.Evidence.ChainID = val
	}

	// Integrity overrides
	if val := os.Getenv("QUAESTOR_INTEGRITY_VERIFY_SCHEDULE"); val != "" {
		cfg.Integrity.VerifySchedule = val
	}
	if val := os.Getenv("QUAESTOR_INTEGRITY_WATCH_CHAIN_FILE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Integrity.WatchChainFile = b
		}
	}
	if val := os.Getenv("QUAESTOR_INTEGRITY_CHECKPOINT_PATH"); val != "" {
		cfg.Integrity.CheckpointPath = val
	}

	// Telemetry overrides
	if val := os.Getenv("QUAESTOR_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("QUAESTOR_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("QUAESTOR_TELEMETRY_LOGGING_REDACT_PAN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.RedactPAN = b
		}
	}
	if val := os.Getenv("QUAESTOR_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("QUAESTOR_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("QUAESTOR_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
