package storage

import (
	"context"
	"sort"
	"sync"

	"veritas-hq/quaestor/pkg/evidence"
)

// MemoryStorage implements the evidence Storage interface using an in-memory
// map. It is intended for tests and ephemeral deployments.
type MemoryStorage struct {
	records map[string]*evidence.EvidenceRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory evidence index.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.EvidenceRecord),
	}
}

// Store persists an evidence record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.EvidenceID]; exists {
		return evidence.NewStorageError("memory", "store",
			&evidence.ValidationError{Field: "evidence_id", Reason: "already exists"})
	}

	// Copy to keep the index immune to caller-side mutation.
	recordCopy := *record
	s.records[record.EvidenceID] = &recordCopy
	return nil
}

// Get retrieves a record by evidence_id.
func (s *MemoryStorage) Get(ctx context.Context, evidenceID string) (*evidence.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[evidenceID]
	if !ok {
		return nil, evidence.NewNotFoundError(evidenceID)
	}
	recordCopy := *record
	return &recordCopy, nil
}

// Query retrieves records matching the filters, ordered by timestamp ascending.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*evidence.EvidenceRecord, 0)
	for _, record := range s.records {
		if !matchesQuery(record, query) {
			continue
		}
		recordCopy := *record
		results = append(results, &recordCopy)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Timestamp.Equal(results[j].Timestamp) {
			return results[i].EvidenceID < results[j].EvidenceID
		}
		return results[i].Timestamp.Before(results[j].Timestamp)
	})

	return paginate(results, query), nil
}

// Count returns the number of records matching the filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes a record by evidence_id. Used only for capture rollback.
func (s *MemoryStorage) Delete(ctx context.Context, evidenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[evidenceID]; !ok {
		return evidence.NewNotFoundError(evidenceID)
	}
	delete(s.records, evidenceID)
	return nil
}

// Close releases resources (a no-op for the memory backend).
func (s *MemoryStorage) Close() error {
	return nil
}

// matchesQuery checks a record against the query filters.
func matchesQuery(record *evidence.EvidenceRecord, query *evidence.Query) bool {
	if query == nil {
		return true
	}
	if query.StartTime != nil && record.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.Timestamp.After(*query.EndTime) {
		return false
	}
	if query.EventType != "" && record.EventType != query.EventType {
		return false
	}
	if query.TenantID != "" && record.TenantID() != query.TenantID {
		return false
	}
	if query.Framework != "" && record.Regulation.Framework != query.Framework {
		return false
	}
	if query.DetectedBy != "" && record.Detection.DetectedBy != query.DetectedBy {
		return false
	}
	if query.SourceID != "" && record.Detection.SourceID != query.SourceID {
		return false
	}
	return true
}

// paginate applies offset/limit to an already sorted result set.
func paginate(results []*evidence.EvidenceRecord, query *evidence.Query) []*evidence.EvidenceRecord {
	if query == nil {
		return results
	}

	start := query.Offset
	if start < 0 {
		start = 0
	}
	if start > len(results) {
		return []*evidence.EvidenceRecord{}
	}

	end := len(results)
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}
	return results[start:end]
}
