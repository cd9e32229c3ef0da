// Quaestor is a tamper-evident compliance evidence service.
//
// It captures compliance events (violations, remediations, reasoning
// conclusions) as immutable evidence records, appends each record to a
// SHA-256 hash chain, and serves capture and audit review over HTTP.
//
// Usage:
//
//	# Start the evidence API server
//	quaestor run
//
//	# Start with a custom configuration file
//	quaestor run --config /etc/quaestor/config.yaml
//
//	# Verify the audit chain offline
//	quaestor verify --chain data/audit_chain.json
//
//	# Query captured evidence
//	quaestor evidence query --tenant acme --format json
//
//	# Export evidence for an auditor
//	quaestor evidence export --format csv --output evidence.csv
package main

func main() {
	Execute()
}
