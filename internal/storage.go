package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ReportStore persists reports. Implementations return *NotFoundError from
// Get when the id is unknown, and *StorageError when the backing file or
// database cannot be read or written.
type ReportStore interface {
	// Insert stores a new report and returns its id
	Insert(ctx context.Context, sessionID string, sessionData json.RawMessage, rawJSONL *string) (string, error)

	// List returns every report, newest first
	List(ctx context.Context) ([]*Report, error)

	// Get returns a single report
	Get(ctx context.Context, id string) (*Report, error)

	// Delete removes a report and returns how many were removed
	Delete(ctx context.Context, id string) (int, error)

	Close() error
}

// OpenReportStore creates the store selected by cfg.Backend
func OpenReportStore(cfg StorageConfig) (ReportStore, error) {
	switch cfg.Backend {
	case "", BackendJSON:
		return NewJSONFileStore(afero.NewOsFs(), cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: json, sqlite)", cfg.Backend)
	}
}

// newReportRecord builds the report that Insert persists
func newReportRecord(now time.Time, sessionID string, sessionData json.RawMessage, rawJSONL *string) *Report {
	ts := now.UTC().Truncate(time.Millisecond)
	var raw *string
	if rawJSONL != nil && *rawJSONL != "" {
		v := *rawJSONL
		raw = &v
	}
	data := make(json.RawMessage, len(sessionData))
	copy(data, sessionData)
	return &Report{
		ID:          NewReportID(ts),
		SessionID:   sessionID,
		Timestamp:   ts,
		SessionData: data,
		RawJSONL:    raw,
	}
}
