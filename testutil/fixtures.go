package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"

	"github.com/iksnae/session-report/internal"
)

// Sample session documents, one per shape
const (
	TurnRecordsJSON = `[
		{"type":"user","message":{"role":"user","content":"Hello, how are you?"}},
		{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"I'm doing well, thank you!"}]}}
	]`

	MessageListJSON = `{"messages":[
		{"role":"user","content":"What is 2+2?"},
		{"role":"assistant","content":"4"}
	],"timestamp":"2025-01-05T10:00:00Z","working_dir":"/home/dev/project"}`

	UnstructuredJSON = `{"foo":"bar"}`

	RawJSONL = `{"type":"user","message":{"role":"user","content":"Hello, how are you?"}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"I'm doing well, thank you!"}]}}
`
)

// SeededReport describes a report inserted by a fixture
type SeededReport struct {
	SessionID   string
	SessionData string
	RawJSONL    *string
}

// DefaultSeed returns one report of each document shape; the last one kept
// its raw upload
func DefaultSeed() []SeededReport {
	raw := RawJSONL
	return []SeededReport{
		{SessionID: "unstructured", SessionData: UnstructuredJSON},
		{SessionID: "messages", SessionData: MessageListJSON},
		{SessionID: "turns", SessionData: TurnRecordsJSON, RawJSONL: &raw},
	}
}

// SeedJSONStore creates a JSON report file at path holding seed and returns
// the inserted ids in insertion order
func SeedJSONStore(t *testing.T, path string, seed []SeededReport) []string {
	t.Helper()
	store, err := internal.NewJSONFileStore(afero.NewOsFs(), path)
	if err != nil {
		t.Fatalf("Failed to create JSON store: %v", err)
	}
	defer func() { _ = store.Close() }()
	return insertAll(t, store, seed)
}

func insertAll(t *testing.T, store internal.ReportStore, seed []SeededReport) []string {
	t.Helper()
	ids := make([]string, 0, len(seed))
	for _, r := range seed {
		id, err := store.Insert(context.Background(), r.SessionID, json.RawMessage(r.SessionData), r.RawJSONL)
		if err != nil {
			t.Fatalf("Failed to insert report %s: %v", r.SessionID, err)
		}
		ids = append(ids, id)
	}
	return ids
}
