package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewEvidenceID generates a collision-resistant evidence id with a
// time-ordered prefix and a random suffix, e.g. "EVID-1767225600-3FA49B".
// The unix-seconds prefix keeps ids roughly sortable by capture time; the
// uuid-derived suffix makes collisions within one second practically
// impossible.
func NewEvidenceID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("EVID-%d-%s", now.Unix(), suffix)
}
