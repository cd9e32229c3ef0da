package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultChainID identifies a chain file created without an explicit id.
const DefaultChainID = "audit_chain_v1"

// chainFile is the persisted JSON document layout.
type chainFile struct {
	ChainID    string       `json:"chain_id"`
	CreatedAt  time.Time    `json:"created_at"`
	TotalNodes int          `json:"total_nodes"`
	Chain      []*ChainNode `json:"chain"`
}

// FileStore persists the chain as a single JSON document. Writes go to a
// temp file in the same directory, are fsynced, and are renamed over the
// previous file, so a crash mid-write never leaves a truncated chain.
type FileStore struct {
	path      string
	chainID   string
	createdAt time.Time
	logger    *slog.Logger
}

// NewFileStore opens the chain file at path, creating it with a stable
// header and an empty chain if it does not exist. An empty chainID selects
// DefaultChainID.
func NewFileStore(path, chainID string) (*FileStore, error) {
	if chainID == "" {
		chainID = DefaultChainID
	}

	s := &FileStore{
		path:      path,
		chainID:   chainID,
		createdAt: time.Now().UTC(),
		logger:    slog.Default().With("component", "evidence.ledger.filestore"),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create chain directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeAtomic(&chainFile{
			ChainID:   s.chainID,
			CreatedAt: s.createdAt,
			Chain:     []*ChainNode{},
		}); err != nil {
			return nil, fmt.Errorf("initialize chain file: %w", err)
		}
		s.logger.Info("created new chain file", "path", path, "chain_id", chainID)
	} else if err != nil {
		return nil, fmt.Errorf("stat chain file: %w", err)
	}

	return s, nil
}

// Path returns the chain file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the chain file and returns its nodes in stored order. It does
// not verify integrity.
func (s *FileStore) Load() ([]*ChainNode, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read chain file %q: %w", s.path, err)
	}

	var file chainFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse chain file %q: %w", s.path, err)
	}

	if file.ChainID != "" {
		s.chainID = file.ChainID
	}
	if !file.CreatedAt.IsZero() {
		s.createdAt = file.CreatedAt
	}
	if file.Chain == nil {
		file.Chain = []*ChainNode{}
	}

	s.logger.Info("loaded chain from file", "path", s.path, "nodes", len(file.Chain))
	return file.Chain, nil
}

// Save writes the full chain snapshot atomically.
func (s *FileStore) Save(nodes []*ChainNode) error {
	return s.writeAtomic(&chainFile{
		ChainID:    s.chainID,
		CreatedAt:  s.createdAt,
		TotalNodes: len(nodes),
		Chain:      nodes,
	})
}

// writeAtomic serializes the document to a temp file, fsyncs it, and renames
// it over the chain file.
func (s *FileStore) writeAtomic(file *chainFile) error {
	if file.Chain == nil {
		file.Chain = []*ChainNode{}
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("serialize chain: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp chain file: %w", err)
	}
	tmpPath := tmp.Name()

	// Any failure past this point must not leave the temp file around.
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp chain file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp chain file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp chain file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename chain file into place: %w", err)
	}
	return nil
}
