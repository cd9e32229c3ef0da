package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"veritas-hq/quaestor/pkg/evidence/ledger"
)

// LedgerMetrics tracks evidence capture and chain integrity.
//
// Metrics:
//   - quaestor_evidence_captures_total: captures by event type and outcome
//   - quaestor_ledger_append_duration_seconds: capture-and-append latency
//   - quaestor_ledger_chain_nodes: current chain length
//   - quaestor_ledger_verifications_total: verification runs by trigger and result
//   - quaestor_ledger_verification_issues_total: integrity findings by kind
type LedgerMetrics struct {
	capturesTotal      *prometheus.CounterVec
	appendDuration     prometheus.Histogram
	chainNodes         prometheus.Gauge
	verificationsTotal *prometheus.CounterVec
	verificationIssues *prometheus.CounterVec
}

// NewLedgerMetrics creates and registers ledger metrics with the registry.
func NewLedgerMetrics(namespace string, registry *prometheus.Registry) *LedgerMetrics {
	m := &LedgerMetrics{
		capturesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evidence",
				Name:      "captures_total",
				Help:      "Total number of evidence capture attempts",
			},
			[]string{"event_type", "outcome"},
		),

		appendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "append_duration_seconds",
				Help:      "Duration of capture-and-append operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		chainNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "chain_nodes",
				Help:      "Current number of nodes in the evidence chain",
			},
		),

		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "verifications_total",
				Help:      "Total number of chain verification runs",
			},
			[]string{"trigger", "valid"},
		),

		verificationIssues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "verification_issues_total",
				Help:      "Total number of integrity issues found by verification",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.capturesTotal,
		m.appendDuration,
		m.chainNodes,
		m.verificationsTotal,
		m.verificationIssues,
	)
	return m
}

// RecordCapture records a successful capture and the new chain length.
func (m *LedgerMetrics) RecordCapture(eventType string, duration time.Duration, chainLen int) {
	m.capturesTotal.WithLabelValues(eventType, "success").Inc()
	m.appendDuration.Observe(duration.Seconds())
	m.chainNodes.Set(float64(chainLen))
}

// RecordCaptureFailure records a failed capture attempt.
func (m *LedgerMetrics) RecordCaptureFailure(eventType string) {
	m.capturesTotal.WithLabelValues(eventType, "failure").Inc()
}

// SetChainNodes records the current chain length.
func (m *LedgerMetrics) SetChainNodes(n int) {
	m.chainNodes.Set(float64(n))
}

// RecordVerification records the outcome of one verification run.
func (m *LedgerMetrics) RecordVerification(trigger string, result *ledger.VerificationResult) {
	m.verificationsTotal.WithLabelValues(trigger, strconv.FormatBool(result.Valid)).Inc()
	for _, issue := range result.Errors {
		m.verificationIssues.WithLabelValues(string(issue.Kind)).Inc()
	}
}
