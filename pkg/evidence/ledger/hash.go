package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes the SHA-256 hash of content and returns it as a
// hex-encoded string.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashString is a convenience function that hashes a string and returns the
// hex-encoded SHA-256 hash.
func HashString(content string) string {
	return HashContent([]byte(content))
}
