package internal

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Document is a transcript payload classified by shape. It is one of
// TurnRecords, MessageList or UnstructuredDocument.
type Document interface {
	isDocument()
}

// TurnRecords is a JSON array of turn records, each optionally carrying
// a message with a role and content
type TurnRecords struct {
	Records []json.RawMessage
}

// MessageList is a JSON object with a "messages" array of {role, content}
// pairs plus optional metadata
type MessageList struct {
	Messages   []json.RawMessage
	Timestamp  string
	WorkingDir string
}

// UnstructuredDocument is any payload that matches neither shape
type UnstructuredDocument struct {
	Raw json.RawMessage
}

func (TurnRecords) isDocument()          {}
func (MessageList) isDocument()          {}
func (UnstructuredDocument) isDocument() {}

// ClassifyDocument inspects raw session data once and returns its shape.
// Invalid JSON is not an error; it classifies as UnstructuredDocument.
func ClassifyDocument(raw json.RawMessage) Document {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return UnstructuredDocument{Raw: raw}
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err == nil {
			return TurnRecords{Records: records}
		}
	case '{':
		var obj struct {
			Messages   json.RawMessage `json:"messages"`
			Timestamp  json.RawMessage `json:"timestamp"`
			WorkingDir json.RawMessage `json:"working_dir"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			break
		}
		if !isJSONArray(obj.Messages) {
			break
		}
		var messages []json.RawMessage
		if err := json.Unmarshal(obj.Messages, &messages); err != nil {
			break
		}
		return MessageList{
			Messages:   messages,
			Timestamp:  metadataText(obj.Timestamp),
			WorkingDir: metadataText(obj.WorkingDir),
		}
	}

	return UnstructuredDocument{Raw: raw}
}

// DocumentFromValue encodes an in-memory value and classifies it. This is
// the only path in which a document can fail to serialize.
func DocumentFromValue(v interface{}) (Document, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return ClassifyDocument(raw), nil
	case []byte:
		return ClassifyDocument(raw), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return ClassifyDocument(data), nil
}

// IsFalsyJSON reports whether raw is absent or one of null, "", false, 0
func IsFalsyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch string(trimmed) {
	case "null", `""`, "false":
		return true
	}
	if trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9') {
		if f, err := strconv.ParseFloat(string(trimmed), 64); err == nil && f == 0 {
			return true
		}
	}
	return false
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// jsonString decodes raw as a JSON string; ok is false for any other type
func jsonString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func metadataText(raw json.RawMessage) string {
	if IsFalsyJSON(raw) {
		return ""
	}
	if s, ok := jsonString(raw); ok {
		return s
	}
	return canonicalJSON(raw)
}
