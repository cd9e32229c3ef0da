package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize re-encodes a JSON document into its canonical form: object
// keys sorted lexicographically at every nesting level, numbers kept as
// their source literals, no insignificant whitespace. Identical logical
// content always canonicalizes to identical bytes, so the data hash of an
// evidence record does not depend on field insertion order or formatting.
func Canonicalize(data []byte) ([]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	// UseNumber preserves the source number literal instead of converting
	// through float64, keeping the canonical form stable.
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonicalize: invalid JSON: %w", err)
	}

	// encoding/json marshals map keys in sorted order.
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// CanonicalMarshal serializes v to canonical JSON.
func CanonicalMarshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return Canonicalize(raw)
}
