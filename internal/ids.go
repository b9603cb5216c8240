package internal

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewReportID generates a report ID using ULID.
// Format: ULID (e.g., 01JB6X8Y2K9FQR4T3VWHGP5M2C). IDs sort by creation time,
// and IDs created within the same millisecond still increase.
func NewReportID(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), idEntropy).String()
}

// ValidReportID reports whether id parses as a ULID
func ValidReportID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
