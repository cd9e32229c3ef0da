package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/ledger"
	"veritas-hq/quaestor/pkg/telemetry/metrics"
)

// Service is the only entry point permitted to create evidence records. A
// capture validates the request, generates the evidence id, writes the
// evidence index, and appends to the ledger as one logical operation: if
// the ledger append fails, the index write is rolled back so no partial
// state is visible to readers.
type Service struct {
	index   evidence.Storage
	ledger  *ledger.Ledger
	logger  *slog.Logger
	metrics *metrics.LedgerMetrics

	// mu serializes captures end to end. The ledger has its own append
	// lock, but the index-write/append pair must also be serialized so a
	// rollback never races a concurrent reader into seeing half a capture.
	mu sync.Mutex

	// lastTimestamp enforces non-decreasing capture timestamps per process.
	lastTimestamp time.Time

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates an evidence service over the given index and ledger.
func New(index evidence.Storage, chain *ledger.Ledger) *Service {
	return &Service{
		index:  index,
		ledger: chain,
		logger: slog.Default().With("component", "evidence.service"),
		now:    time.Now,
	}
}

// WithMetrics attaches ledger metrics to the service and returns it.
func (s *Service) WithMetrics(m *metrics.LedgerMetrics) *Service {
	s.metrics = m
	if m != nil {
		m.SetChainNodes(s.ledger.Len())
	}
	return s
}

// Capture validates the request, builds an immutable evidence record, and
// persists it to both the index and the ledger. It returns only after the
// record is durably appended.
func (s *Service) Capture(ctx context.Context, req *evidence.CaptureRequest) (*evidence.EvidenceRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ts := s.now().UTC()
	// Clamp to keep capture timestamps non-decreasing within the process,
	// so the chain's timestamp order matches its sequence order.
	if ts.Before(s.lastTimestamp) {
		ts = s.lastTimestamp
	}

	record := &evidence.EvidenceRecord{
		EvidenceID:     NewEvidenceID(ts),
		EventType:      req.EventType,
		Regulation:     req.Regulation,
		Detection:      req.Detection,
		ViolationState: req.ViolationState,
		Remediation:    req.Remediation,
		ReasoningChain: req.ReasoningChain,
		Linkages:       req.Linkages,
		Metadata:       req.Metadata,
		Timestamp:      ts,
	}

	if err := s.index.Store(ctx, record); err != nil {
		if s.metrics != nil {
			s.metrics.RecordCaptureFailure(string(record.EventType))
		}
		return nil, evidence.NewCaptureError(record.EvidenceID, err)
	}

	if _, err := s.ledger.Append(record); err != nil {
		// Roll back the index write; the capture must be all or nothing.
		if delErr := s.index.Delete(ctx, record.EvidenceID); delErr != nil {
			s.logger.Error("index rollback failed after ledger append error",
				"evidence_id", record.EvidenceID,
				"append_error", err,
				"rollback_error", delErr,
			)
		}
		if s.metrics != nil {
			s.metrics.RecordCaptureFailure(string(record.EventType))
		}
		return nil, evidence.NewCaptureError(record.EvidenceID, err)
	}

	s.lastTimestamp = ts

	if s.metrics != nil {
		s.metrics.RecordCapture(string(record.EventType), time.Since(start), s.ledger.Len())
	}

	s.logger.Info("evidence captured",
		"evidence_id", record.EvidenceID,
		"event_type", record.EventType,
		"tenant_id", record.TenantID(),
	)
	return record, nil
}

// Get retrieves an evidence record by id from the index.
func (s *Service) Get(ctx context.Context, evidenceID string) (*evidence.EvidenceRecord, error) {
	return s.index.Get(ctx, evidenceID)
}

// ListInRange returns evidence records with timestamps in [start, end],
// ordered ascending, optionally filtered by tenant. An empty tenant matches
// all records.
func (s *Service) ListInRange(ctx context.Context, start, end time.Time, tenantID string) ([]*evidence.EvidenceRecord, error) {
	return s.index.Query(ctx, &evidence.Query{
		StartTime: &start,
		EndTime:   &end,
		TenantID:  tenantID,
	})
}

// List returns all evidence records ordered ascending by timestamp.
func (s *Service) List(ctx context.Context) ([]*evidence.EvidenceRecord, error) {
	return s.index.Query(ctx, &evidence.Query{})
}

// Ledger exposes the underlying chain for audit trail and verification
// queries.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}
