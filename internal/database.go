package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	session_data TEXT NOT NULL,
	raw_jsonl    TEXT
)`

// OpenDatabase opens (or creates) a SQLite database file
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps reports in a SQLite "reports" table
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
	log  *logrus.Entry
}

// NewSQLiteStore opens the database at path and ensures the schema exists
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLiteFile
	}
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	if _, err := db.Exec(reportsSchema); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "migrate", Err: err}
	}
	return &SQLiteStore{
		db:   db,
		path: path,
		now:  time.Now,
		log:  NewLogger("sqlite-store").WithField("path", path),
	}, nil
}

// Insert stores a new report row
func (s *SQLiteStore) Insert(ctx context.Context, sessionID string, sessionData json.RawMessage, rawJSONL *string) (string, error) {
	report := newReportRecord(s.now(), sessionID, sessionData, rawJSONL)

	data := string(report.SessionData)
	if len(report.SessionData) == 0 {
		data = "null"
	} else if !json.Valid(report.SessionData) {
		return "", &SerializationError{Err: errors.New("session data is not valid JSON")}
	}

	var raw sql.NullString
	if report.RawJSONL != nil {
		raw = sql.NullString{String: *report.RawJSONL, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reports (id, session_id, timestamp, session_data, raw_jsonl) VALUES (?, ?, ?, ?, ?)",
		report.ID, report.SessionID, report.Timestamp.Format(time.RFC3339Nano), data, raw)
	if err != nil {
		return "", &StorageError{Path: s.path, Op: "insert", Err: err}
	}

	s.log.WithFields(logrus.Fields{"report_id": report.ID, "session_id": sessionID}).Debug("Inserted report")
	return report.ID, nil
}

// List returns every report ordered by id, newest first
func (s *SQLiteStore) List(ctx context.Context) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, timestamp, session_data, raw_jsonl FROM reports ORDER BY id DESC")
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	reports := make([]*Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, &StorageError{Path: s.path, Op: "scan", Err: err}
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}

	return reports, nil
}

// Get returns the report with the given id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, timestamp, session_data, raw_jsonl FROM reports WHERE id = ?", id)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return report, nil
}

// Delete removes the report with the given id
func (s *SQLiteStore) Delete(ctx context.Context, id string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	if n > 0 {
		s.log.WithField("report_id", id).Debug("Deleted report")
	}
	return int(n), nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		report Report
		ts     string
		data   string
		raw    sql.NullString
	)
	if err := row.Scan(&report.ID, &report.SessionID, &ts, &data, &raw); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	report.Timestamp = parsed
	report.SessionData = json.RawMessage(data)
	if raw.Valid {
		v := raw.String
		report.RawJSONL = &v
	}
	return &report, nil
}
