package internal

// Entry is a single normalized message
type Entry struct {
	Role string `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// Metadata carries the optional fields of a messages-shaped document
type Metadata struct {
	Timestamp  string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	WorkingDir string `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`
}

// IsEmpty reports whether no metadata field is set
func (m Metadata) IsEmpty() bool {
	return m.Timestamp == "" && m.WorkingDir == ""
}

// Normalized is the result of Normalize: either Entries or Unstructured
type Normalized interface {
	isNormalized()
}

// Entries is an ordered list of messages extracted from a document.
// Items may contain entries with empty text; use Present for display
// and export.
type Entries struct {
	Items    []Entry
	Metadata Metadata
}

// Unstructured holds a full textual dump of a document that could not be
// represented as entries
type Unstructured struct {
	Text string
}

func (Entries) isNormalized()      {}
func (Unstructured) isNormalized() {}

// Present returns the entries that have text, in order
func (e Entries) Present() []Entry {
	present := make([]Entry, 0, len(e.Items))
	for _, entry := range e.Items {
		if entry.Text == "" {
			continue
		}
		present = append(present, entry)
	}
	return present
}
