package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every validation failure so a broken
// configuration file is reported in one pass.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors. All failures are collected
// and returned together.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	add := func(field, message string) {
		errs = append(errs, &ValidationError{Field: field, Message: message})
	}

	if cfg.Server.ListenAddress == "" {
		add("server.listen_address", "cannot be empty")
	}
	if cfg.Server.ReadTimeout < 0 {
		add("server.read_timeout", "cannot be negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		add("server.write_timeout", "cannot be negative")
	}
	if cfg.Server.IdleTimeout < 0 {
		add("server.idle_timeout", "cannot be negative")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		add("server.shutdown_timeout", "cannot be negative")
	}
	if cfg.Server.MaxHeaderBytes < 0 {
		add("server.max_header_bytes", "cannot be negative")
	}

	switch cfg.Evidence.IndexBackend {
	case "sqlite":
		if cfg.Evidence.IndexPath == "" {
			add("evidence.index_path", "required for the sqlite backend")
		}
	case "memory":
	default:
		add("evidence.index_backend", fmt.Sprintf("unknown backend %q (must be sqlite or memory)", cfg.Evidence.IndexBackend))
	}

	if cfg.Evidence.ChainPath == "" {
		add("evidence.chain_path", "cannot be empty")
	}
	if cfg.Evidence.ChainID == "" {
		add("evidence.chain_id", "cannot be empty")
	}

	if cfg.Integrity.VerifySchedule != "" {
		if _, err := cron.ParseStandard(cfg.Integrity.VerifySchedule); err != nil {
			add("integrity.verify_schedule", fmt.Sprintf("invalid cron expression: %v", err))
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level))
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		add("telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format))
	}

	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		add("telemetry.metrics.path", "must start with /")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
