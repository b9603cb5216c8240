package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// JSONFileStore keeps every report in a single JSON array, newest first.
// The whole file is rewritten on every mutation.
type JSONFileStore struct {
	fs   afero.Fs
	path string
	now  func() time.Time
	log  *logrus.Entry

	mu sync.Mutex
}

// NewJSONFileStore opens the store at path, creating an empty array file
// when none exists
func NewJSONFileStore(fsys afero.Fs, path string) (*JSONFileStore, error) {
	if path == "" {
		path = DefaultDataFile
	}
	s := &JSONFileStore{
		fs:   fsys,
		path: path,
		now:  time.Now,
		log:  NewLogger("json-store").WithField("path", path),
	}

	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	if !exists {
		if err := s.writeReports([]*Report{}); err != nil {
			return nil, err
		}
		s.log.Info("Initialized empty report file")
	}
	return s, nil
}

// Path returns the backing file path
func (s *JSONFileStore) Path() string {
	return s.path
}

func (s *JSONFileStore) readReports() ([]*Report, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Report{}, nil
		}
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	var reports []*Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, &StorageError{Path: s.path, Op: "parse", Err: err}
	}
	if reports == nil {
		reports = []*Report{}
	}
	return reports, nil
}

func (s *JSONFileStore) writeReports(reports []*Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return &SerializationError{Err: err}
	}
	if err := WriteFileAtomic(s.fs, s.path, data); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Insert adds a report at the front of the list
func (s *JSONFileStore) Insert(ctx context.Context, sessionID string, sessionData json.RawMessage, rawJSONL *string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readReports()
	if err != nil {
		return "", err
	}

	report := newReportRecord(s.now(), sessionID, sessionData, rawJSONL)
	reports = append([]*Report{report}, reports...)
	if err := s.writeReports(reports); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"report_id": report.ID, "session_id": sessionID}).Debug("Inserted report")
	return report.ID, nil
}

// List returns all reports in file order (newest first)
func (s *JSONFileStore) List(ctx context.Context) ([]*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readReports()
}

// Get returns the report with the given id
func (s *JSONFileStore) Get(ctx context.Context, id string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readReports()
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// Delete removes every report with the given id
func (s *JSONFileStore) Delete(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readReports()
	if err != nil {
		return 0, err
	}

	kept := make([]*Report, 0, len(reports))
	for _, r := range reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	removed := len(reports) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.writeReports(kept); err != nil {
		return 0, err
	}
	s.log.WithField("report_id", id).Debug("Deleted report")
	return removed, nil
}

// Close is a no-op; the file is not held open between operations
func (s *JSONFileStore) Close() error {
	return nil
}
