package storage

// SchemaVersion is the current evidence index schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the evidence index schema.
// Timestamps are stored as integer unix nanoseconds so that range filters
// and ordering are exact.
const Schema = `
-- Evidence index
CREATE TABLE IF NOT EXISTS evidence (
    evidence_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,

    -- Regulation descriptor
    framework TEXT NOT NULL,
    clause TEXT NOT NULL,
    requirement TEXT,

    -- Detection descriptor
    detected_by TEXT NOT NULL,
    source_type TEXT,
    source_id TEXT NOT NULL,
    matched_pattern TEXT,

    -- Optional descriptors, serialized as JSON
    violation_state TEXT,
    remediation TEXT,
    reasoning_chain TEXT,
    linkages TEXT,
    metadata TEXT,

    -- Denormalized for filtering
    tenant_id TEXT,

    -- Unix nanoseconds, UTC
    timestamp INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_evidence_timestamp ON evidence(timestamp);
CREATE INDEX IF NOT EXISTS idx_evidence_tenant_id ON evidence(tenant_id);
CREATE INDEX IF NOT EXISTS idx_evidence_event_type ON evidence(event_type);
CREATE INDEX IF NOT EXISTS idx_evidence_source_id ON evidence(source_id);
`

// InsertSchemaVersion records the schema version if not already present.
const InsertSchemaVersion = `
INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP);
`

// GetSchemaVersion retrieves the highest applied schema version.
const GetSchemaVersion = `
SELECT COALESCE(MAX(version), 0) FROM schema_version;
`
