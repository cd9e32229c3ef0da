package config

import "time"

// Config is the root configuration for the quaestor service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Evidence  EvidenceConfig  `yaml:"evidence"`
	Integrity IntegrityConfig `yaml:"integrity"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the API server binds to (e.g. ":8090").
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// EvidenceConfig controls evidence persistence.
type EvidenceConfig struct {
	// IndexBackend is the queryable evidence index backend: "sqlite" or
	// "memory". The memory backend does not survive restarts and is meant
	// for development.
	IndexBackend string `yaml:"index_backend"`

	// IndexPath is the SQLite database path for the evidence index.
	IndexPath string `yaml:"index_path"`

	// ChainPath is the path of the append-only audit chain file.
	ChainPath string `yaml:"chain_path"`

	// ChainID identifies the chain within its file. An existing file keeps
	// the id it was created with.
	ChainID string `yaml:"chain_id"`
}

// IntegrityConfig controls chain verification.
type IntegrityConfig struct {
	// VerifySchedule is a standard cron expression for scheduled chain
	// verification. Empty disables the scheduler.
	VerifySchedule string `yaml:"verify_schedule"`

	// WatchChainFile enables filesystem watching of the chain file so
	// out-of-band edits trigger an immediate verification run.
	WatchChainFile bool `yaml:"watch_chain_file"`

	// CheckpointPath is the SQLite database path for verification
	// checkpoints. Empty disables checkpoint retention.
	CheckpointPath string `yaml:"checkpoint_path"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`

	// RedactPAN masks PAN-like digit runs before log emission.
	RedactPAN bool `yaml:"redact_pan"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}
