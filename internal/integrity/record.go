package integrity

import (
	"errors"
	"time"
)

// Format tags the artifact encodings a generation run can produce.
type Format string

const (
	// FormatEditable is the editable word-processing document.
	FormatEditable Format = "docx"
	// FormatPortable is the portable page-description rendering.
	FormatPortable Format = "pdf"
)

// ParseFormat maps a wire value to a known format.
func ParseFormat(raw string) (Format, bool) {
	switch raw {
	case "docx":
		return FormatEditable, true
	case "pdf":
		return FormatPortable, true
	default:
		return "", false
	}
}

// Extension returns the file suffix for the format.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type served on download.
func (f Format) ContentType() string {
	switch f {
	case FormatPortable:
		return "application/pdf"
	case FormatEditable:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// Artifact points at the stored bytes of one produced format.
type Artifact struct {
	Ref         string `json:"ref"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}

// Record is the immutable integrity record of one generated document. It is
// written exactly once, at successful completion of a pipeline run, and is
// never updated afterwards.
type Record struct {
	TraceID      string              `json:"trace_id"`
	HashCode     string              `json:"hash_code"`
	Algorithm    string              `json:"algorithm"`
	ContentHash  string              `json:"content_hash"`
	CombinedHash string              `json:"combined_hash"`
	CreatedAt    time.Time           `json:"created_at"`
	FileSize     int64               `json:"file_size"`
	OwnerID      string              `json:"owner_id"`
	ClientName   string              `json:"client_name"`
	Artifacts    map[Format]Artifact `json:"artifacts"`
}

// Produced reports whether the run yielded an artifact in the given format.
func (r Record) Produced(f Format) bool {
	_, ok := r.Artifacts[f]
	return ok
}

var (
	// ErrNotFound indicates an unknown trace identifier.
	ErrNotFound = errors.New("integrity: record not found")
	// ErrDuplicateTrace indicates a second write for an already-registered
	// trace identifier, which violates the single-assignment invariant.
	ErrDuplicateTrace = errors.New("integrity: trace id already registered")
)
