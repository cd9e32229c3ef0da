// Package export serializes evidence records and audit chain nodes for
// delivery to auditors. JSON preserves full structure; CSV flattens records
// for spreadsheet review. Both formats support streaming for large result
// sets.
package export
