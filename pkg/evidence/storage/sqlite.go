package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"veritas-hq/quaestor/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite evidence index.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the evidence Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite evidence index. It initializes the
// schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite evidence index initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets up the schema and pragmas.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists an evidence record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	violationState, err := marshalOptional(record.ViolationState)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	remediation, err := marshalOptional(record.Remediation)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	reasoningChain, err := marshalOptional(record.ReasoningChain)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	linkages, err := marshalOptionalMap(record.Linkages)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	metadata, err := marshalOptionalMap(record.Metadata)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence (
			evidence_id, event_type,
			framework, clause, requirement,
			detected_by, source_type, source_id, matched_pattern,
			violation_state, remediation, reasoning_chain, linkages, metadata,
			tenant_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.EvidenceID, string(record.EventType),
		record.Regulation.Framework, record.Regulation.Clause, record.Regulation.Requirement,
		record.Detection.DetectedBy, record.Detection.SourceType, record.Detection.SourceID, record.Detection.MatchedPattern,
		violationState, remediation, reasoningChain, linkages, metadata,
		record.TenantID(), record.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get retrieves a record by evidence_id.
func (s *SQLiteStorage) Get(ctx context.Context, evidenceID string) (*evidence.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM evidence WHERE evidence_id = ?", evidenceID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, evidence.NewNotFoundError(evidenceID)
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// Query retrieves records matching the filters, ordered by timestamp ascending.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	where, args := buildWhere(query)

	sqlQuery := selectColumns + " FROM evidence" + where + " ORDER BY timestamp ASC, evidence_id ASC"
	if query != nil && query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", query.Limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	results := make([]*evidence.EvidenceRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "query", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	return results, nil
}

// Count returns the number of records matching the filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhere(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence"+where, args...).Scan(&count)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes a record by evidence_id. Used only for capture rollback.
func (s *SQLiteStorage) Delete(ctx context.Context, evidenceID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM evidence WHERE evidence_id = ?", evidenceID)
	if err != nil {
		return evidence.NewStorageError("sqlite", "delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return evidence.NewStorageError("sqlite", "delete", err)
	}
	if affected == 0 {
		return evidence.NewNotFoundError(evidenceID)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	return nil
}

const selectColumns = `SELECT
	evidence_id, event_type,
	framework, clause, requirement,
	detected_by, source_type, source_id, matched_pattern,
	violation_state, remediation, reasoning_chain, linkages, metadata,
	timestamp`

// rowScanner abstracts sql.Row and sql.Rows for scanRecord.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reconstructs an evidence record from a result row.
func scanRecord(row rowScanner) (*evidence.EvidenceRecord, error) {
	var (
		record         evidence.EvidenceRecord
		eventType      string
		violationState sql.NullString
		remediation    sql.NullString
		reasoningChain sql.NullString
		linkages       sql.NullString
		metadata       sql.NullString
		timestampNanos int64
	)

	err := row.Scan(
		&record.EvidenceID, &eventType,
		&record.Regulation.Framework, &record.Regulation.Clause, &record.Regulation.Requirement,
		&record.Detection.DetectedBy, &record.Detection.SourceType, &record.Detection.SourceID, &record.Detection.MatchedPattern,
		&violationState, &remediation, &reasoningChain, &linkages, &metadata,
		&timestampNanos,
	)
	if err != nil {
		return nil, err
	}

	record.EventType = evidence.EventType(eventType)
	record.Timestamp = time.Unix(0, timestampNanos).UTC()

	if err := unmarshalOptional(violationState, &record.ViolationState); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(remediation, &record.Remediation); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(reasoningChain, &record.ReasoningChain); err != nil {
		return nil, err
	}
	if linkages.Valid && linkages.String != "" {
		if err := json.Unmarshal([]byte(linkages.String), &record.Linkages); err != nil {
			return nil, err
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// buildWhere translates query filters into a WHERE clause and arguments.
func buildWhere(query *evidence.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)

	if query.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, query.StartTime.UTC().UnixNano())
	}
	if query.EndTime != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, query.EndTime.UTC().UnixNano())
	}
	if query.EventType != "" {
		conds = append(conds, "event_type = ?")
		args = append(args, string(query.EventType))
	}
	if query.TenantID != "" {
		conds = append(conds, "tenant_id = ?")
		args = append(args, query.TenantID)
	}
	if query.Framework != "" {
		conds = append(conds, "framework = ?")
		args = append(args, query.Framework)
	}
	if query.DetectedBy != "" {
		conds = append(conds, "detected_by = ?")
		args = append(args, query.DetectedBy)
	}
	if query.SourceID != "" {
		conds = append(conds, "source_id = ?")
		args = append(args, query.SourceID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// marshalOptional serializes an optional struct pointer to JSON, or NULL.
func marshalOptional(v any) (any, error) {
	if isNilPointer(v) {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// marshalOptionalMap serializes a map to JSON, or NULL when empty.
func marshalOptionalMap(m map[string]string) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// unmarshalOptional parses an optional JSON column into target, which must be
// a pointer to a pointer (e.g. **ViolationState).
func unmarshalOptional(col sql.NullString, target any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), target)
}

// isNilPointer reports whether v is a typed nil pointer.
func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *evidence.ViolationState:
		return p == nil
	case *evidence.Remediation:
		return p == nil
	case *evidence.ReasoningChain:
		return p == nil
	}
	return v == nil
}
