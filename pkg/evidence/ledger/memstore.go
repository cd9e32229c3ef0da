package ledger

import "sync"

// MemoryStore is an in-memory ChainStore. It is intended for testing and for
// ephemeral ledgers that do not need to outlive the process.
type MemoryStore struct {
	mu    sync.Mutex
	nodes []*ChainNode
}

// NewMemoryStore creates an empty in-memory chain store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored snapshot.
func (s *MemoryStore) Load() ([]*ChainNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := make([]*ChainNode, len(s.nodes))
	copy(nodes, s.nodes)
	return nodes, nil
}

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(nodes []*ChainNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]*ChainNode, len(nodes))
	copy(s.nodes, nodes)
	return nil
}
