package internal

import (
	"bytes"
	"encoding/json"
	"strings"
)

const fileHistorySnapshot = "file-history-snapshot"

// Normalize converts a classified document into ordered entries, or into an
// Unstructured dump when the document has no recognizable message shape.
// It is a pure function: the same document always yields the same result.
func Normalize(doc Document) Normalized {
	switch d := doc.(type) {
	case TurnRecords:
		return Entries{Items: normalizeTurnRecords(d.Records)}
	case MessageList:
		return Entries{
			Items: normalizeMessageList(d.Messages),
			Metadata: Metadata{
				Timestamp:  d.Timestamp,
				WorkingDir: d.WorkingDir,
			},
		}
	case UnstructuredDocument:
		return Unstructured{Text: dumpDocument(d.Raw)}
	default:
		return Unstructured{Text: "null"}
	}
}

// NormalizeRaw classifies and normalizes raw session data in one step
func NormalizeRaw(raw json.RawMessage) Normalized {
	return Normalize(ClassifyDocument(raw))
}

func normalizeTurnRecords(records []json.RawMessage) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rec, &fields); err != nil {
			continue
		}

		if kind, _ := jsonString(fields["type"]); kind == fileHistorySnapshot {
			continue
		}

		var msg map[string]json.RawMessage
		if err := json.Unmarshal(fields["message"], &msg); err != nil || msg == nil {
			continue
		}

		role, ok := jsonString(msg["role"])
		if !ok || role == "" {
			continue
		}

		entries = append(entries, Entry{
			Role: role,
			Text: flattenContent(msg["content"]),
		})
	}
	return entries
}

func normalizeMessageList(messages []json.RawMessage) []Entry {
	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(m, &fields); err != nil {
			continue
		}

		role, ok := jsonString(fields["role"])
		if !ok || role == "" {
			continue
		}
		content := fields["content"]
		if IsFalsyJSON(content) {
			continue
		}

		text, ok := jsonString(content)
		if !ok {
			text = canonicalJSON(content)
		}
		entries = append(entries, Entry{Role: role, Text: text})
	}
	return entries
}

// flattenContent turns message content into a single string. Strings pass
// through, block arrays keep only "text" blocks joined by newlines, and
// anything else becomes its canonical JSON text.
func flattenContent(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}

	if s, ok := jsonString(trimmed); ok {
		return s
	}

	if trimmed[0] == '[' {
		var blocks []json.RawMessage
		if err := json.Unmarshal(trimmed, &blocks); err == nil {
			return joinTextBlocks(blocks)
		}
	}

	return canonicalJSON(trimmed)
}

func joinTextBlocks(blocks []json.RawMessage) string {
	var parts []string
	for _, raw := range blocks {
		var block struct {
			Type json.RawMessage `json:"type"`
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		if kind, _ := jsonString(block.Type); kind != "text" {
			continue
		}
		parts = append(parts, jsText(block.Text))
	}
	return strings.Join(parts, "\n")
}

// dumpDocument pretty-prints a document for the fallback view
func dumpDocument(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(canonicalJSON(trimmed)), "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
