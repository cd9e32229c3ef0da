package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"veritas-hq/quaestor/pkg/evidence/ledger"
	"veritas-hq/quaestor/pkg/telemetry/metrics"
)

// Config contains configuration for the integrity monitor.
type Config struct {
	// VerifySchedule is a standard cron expression for scheduled chain
	// verification (e.g. "0 3 * * *" for daily at 3 AM). Empty disables
	// scheduled verification.
	VerifySchedule string
}

// Monitor runs chain verification on a schedule and on demand, recording
// every run as a checkpoint. Integrity findings are reported and retained;
// they are never auto-corrected.
type Monitor struct {
	chain       *ledger.Ledger
	checkpoints *CheckpointStore
	config      *Config
	cron        *cron.Cron
	metrics     *metrics.LedgerMetrics

	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewMonitor creates an integrity monitor. The checkpoint store may be nil,
// in which case runs are logged but not retained. The metrics may be nil.
func NewMonitor(chain *ledger.Ledger, checkpoints *CheckpointStore, config *Config, m *metrics.LedgerMetrics) *Monitor {
	if config == nil {
		config = &Config{}
	}
	return &Monitor{
		chain:       chain,
		checkpoints: checkpoints,
		config:      config,
		cron:        cron.New(),
		metrics:     m,
		logger:      slog.Default().With("component", "evidence.integrity"),
	}
}

// Start begins scheduled verification based on the cron expression. If no
// schedule is configured, Start does nothing.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.VerifySchedule == "" {
		m.logger.Info("verification schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(m.config.VerifySchedule); err != nil {
		return fmt.Errorf("invalid verification schedule %q: %w", m.config.VerifySchedule, err)
	}

	if _, err := m.cron.AddFunc(m.config.VerifySchedule, func() {
		m.Run(ctx, TriggerSchedule)
	}); err != nil {
		return fmt.Errorf("failed to schedule verification: %w", err)
	}

	m.cron.Start()
	m.running = true

	m.logger.Info("integrity monitor started",
		"schedule", m.config.VerifySchedule,
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop stops scheduled verification and waits for any in-flight run.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	stopCtx := m.cron.Stop()
	<-stopCtx.Done()
	m.running = false

	m.logger.Info("integrity monitor stopped")
}

// Run verifies the whole chain once, records a checkpoint, and returns the
// verification result.
func (m *Monitor) Run(ctx context.Context, trigger Trigger) *ledger.VerificationResult {
	start := time.Now()
	result := m.chain.Verify()

	tailHash := ""
	if tail := m.chain.Latest(); tail != nil {
		tailHash = tail.RecordHash
	}

	cp := &Checkpoint{
		RunAt:      start.UTC(),
		Trigger:    trigger,
		Valid:      result.Valid,
		TotalNodes: result.TotalNodes,
		IssueCount: len(result.Errors),
		TailHash:   tailHash,
	}

	if m.checkpoints != nil {
		if err := m.checkpoints.Record(ctx, cp); err != nil {
			m.logger.Error("failed to record verification checkpoint", "error", err)
		}
	}

	if m.metrics != nil {
		m.metrics.RecordVerification(string(trigger), result)
	}

	if result.Valid {
		m.logger.Info("chain verification passed",
			"trigger", trigger,
			"total_nodes", result.TotalNodes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		// Findings are surfaced for forensic review; nothing is repaired.
		m.logger.Error("chain verification FAILED",
			"trigger", trigger,
			"total_nodes", result.TotalNodes,
			"issues", len(result.Errors),
		)
		for _, issue := range result.Errors {
			m.logger.Error("integrity issue",
				"evidence_id", issue.EvidenceID,
				"sequence", issue.SequenceNumber,
				"kind", issue.Kind,
				"expected", issue.Expected,
				"actual", issue.Actual,
			)
		}
	}

	return result
}
