package ingest

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned by DetectFormat for filenames that do not
// end in .csv or .json. It is checked before any I/O occurs.
var ErrUnsupportedFormat = errors.New("unsupported file type: only CSV and JSON files are supported")

// FormatError is a fatal parse-layer failure: malformed CSV syntax or a
// malformed JSON/NDJSON line. It aborts the whole upload; row-level
// recovery only happens later, at the validation stage.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// LoadError is a chunk-level storage failure from one of the bulk-insert
// steps. The orchestrator counts the whole remaining chunk as skipped and
// continues with the next chunk.
type LoadError struct {
	Entity EntityType
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("bulk insert %ss: %v", e.Entity, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
