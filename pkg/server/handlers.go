package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/integrity"
	"veritas-hq/quaestor/pkg/evidence/ledger"
)

// maxCaptureBodyBytes bounds capture request bodies. Evidence payloads are
// structured descriptors, not bulk content.
const maxCaptureBodyBytes = 1 << 20 // 1 MB

type captureResponse struct {
	EvidenceID string `json:"evidence_id"`
	Message    string `json:"message"`
}

type evidenceListResponse struct {
	Count    int                        `json:"count"`
	Evidence []*evidence.EvidenceRecord `json:"evidence"`
}

type auditTrailResponse struct {
	Count int                 `json:"count"`
	Chain []*ledger.ChainNode `json:"chain"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCaptureBodyBytes)

	var req evidence.CaptureRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, evidence.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err)))
		return
	}

	record, err := s.service.Capture(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, &captureResponse{
		EvidenceID: record.EvidenceID,
		Message:    "Evidence captured and appended to audit chain",
	})
}

func (s *Server) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	evidenceID := r.PathValue("evidence_id")

	record, err := s.service.Get(r.Context(), evidenceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.service.ListInRange(r.Context(), start, end, r.URL.Query().Get("tenant_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, &evidenceListResponse{
		Count:    len(records),
		Evidence: records,
	})
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	nodes := s.service.Ledger().NodesInRange(start, end)

	writeJSON(w, http.StatusOK, &auditTrailResponse{
		Count: len(nodes),
		Chain: nodes,
	})
}

func (s *Server) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	var result *ledger.VerificationResult
	if s.monitor != nil {
		result = s.monitor.Run(r.Context(), integrity.TriggerManual)
	} else {
		result = s.service.Ledger().Verify()
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"chain_nodes": s.service.Ledger().Len(),
	})
}

// parseTimeRange reads optional RFC 3339 start/end query parameters. Absent
// bounds widen to the whole chain history.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	start := time.Time{}
	end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, evidence.NewValidationError("start", fmt.Sprintf("invalid RFC 3339 timestamp %q", raw))
		}
		start = t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, evidence.NewValidationError("end", fmt.Sprintf("invalid RFC 3339 timestamp %q", raw))
		}
		end = t
	}

	if !start.IsZero() && end.Before(start) {
		return start, end, evidence.NewValidationError("end", "end must not precede start")
	}

	return start, end, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var validationErr *evidence.ValidationError
	var notFoundErr *evidence.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs, not the response body.
		requestLogger(r).Error("request failed", "error", err)
		writeJSON(w, status, &errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, &errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
