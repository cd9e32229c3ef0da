package config

import "time"

// Default values applied to fields left unset in the configuration file.
const (
	DefaultListenAddress   = ":8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20 // 1 MB

	DefaultIndexBackend = "sqlite"
	DefaultIndexPath    = "data/evidence.db"
	DefaultChainPath    = "data/audit_chain.json"
	DefaultChainID      = "audit_chain_v1"

	DefaultCheckpointPath = "data/checkpoints.db"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "quaestor"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills in default values for any unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if cfg.Evidence.IndexBackend == "" {
		cfg.Evidence.IndexBackend = DefaultIndexBackend
	}
	if cfg.Evidence.IndexPath == "" {
		cfg.Evidence.IndexPath = DefaultIndexPath
	}
	if cfg.Evidence.ChainPath == "" {
		cfg.Evidence.ChainPath = DefaultChainPath
	}
	if cfg.Evidence.ChainID == "" {
		cfg.Evidence.ChainID = DefaultChainID
	}

	if cfg.Integrity.CheckpointPath == "" {
		cfg.Integrity.CheckpointPath = DefaultCheckpointPath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with all defaults applied and
// sensible development settings.
func DefaultConfig() *Config {
	cfg := &Config{
		Integrity: IntegrityConfig{
			WatchChainFile: true,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPAN: true},
			Metrics: MetricsConfig{Enabled: true},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
