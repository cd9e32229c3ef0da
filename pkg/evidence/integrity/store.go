package integrity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"veritas-hq/quaestor/pkg/evidence"
)

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_at INTEGER NOT NULL,
    trigger_kind TEXT NOT NULL,
    valid BOOLEAN NOT NULL,
    total_nodes INTEGER NOT NULL,
    issue_count INTEGER NOT NULL,
    tail_hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_run_at ON checkpoints(run_at);
`

// CheckpointStore persists verification checkpoints in SQLite.
type CheckpointStore struct {
	db *sql.DB
}

// NewCheckpointStore opens (and if needed initializes) a checkpoint store at
// the given database path.
func NewCheckpointStore(dbPath string) (*CheckpointStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("checkpoint db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	// Single writer; checkpoints are low-volume.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(checkpointSchema); err != nil {
		db.Close()
		return nil, evidence.NewStorageError("sqlite", "create_schema", err)
	}

	return &CheckpointStore{db: db}, nil
}

// Record appends a verification checkpoint and fills in its assigned id.
func (s *CheckpointStore) Record(ctx context.Context, cp *Checkpoint) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_at, trigger_kind, valid, total_nodes, issue_count, tail_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cp.RunAt.UTC().UnixNano(), string(cp.Trigger), cp.Valid, cp.TotalNodes, cp.IssueCount, cp.TailHash,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "record_checkpoint", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return evidence.NewStorageError("sqlite", "record_checkpoint", err)
	}
	cp.ID = id
	return nil
}

// Latest returns the most recent checkpoint, or nil if none exist.
func (s *CheckpointStore) Latest(ctx context.Context) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_at, trigger_kind, valid, total_nodes, issue_count, tail_hash
		FROM checkpoints ORDER BY id DESC LIMIT 1`)

	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "latest_checkpoint", err)
	}
	return cp, nil
}

// List returns up to limit checkpoints, most recent first. A non-positive
// limit returns all checkpoints.
func (s *CheckpointStore) List(ctx context.Context, limit int) ([]*Checkpoint, error) {
	query := `
		SELECT id, run_at, trigger_kind, valid, total_nodes, issue_count, tail_hash
		FROM checkpoints ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "list_checkpoints", err)
	}
	defer rows.Close()

	checkpoints := make([]*Checkpoint, 0)
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "list_checkpoints", err)
		}
		checkpoints = append(checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "list_checkpoints", err)
	}
	return checkpoints, nil
}

// Close closes the underlying database.
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner) (*Checkpoint, error) {
	var (
		cp          Checkpoint
		runAtNanos  int64
		triggerKind string
	)
	err := row.Scan(&cp.ID, &runAtNanos, &triggerKind, &cp.Valid, &cp.TotalNodes, &cp.IssueCount, &cp.TailHash)
	if err != nil {
		return nil, err
	}
	cp.RunAt = time.Unix(0, runAtNanos).UTC()
	cp.Trigger = Trigger(triggerKind)
	return &cp, nil
}
