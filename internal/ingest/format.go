package ingest

import "strings"

// Format is the wire format of an uploaded file.
//
// The two formats carry different memory contracts: CSV streams with
// O(chunk) memory, while JSON-array mode buffers the whole document (the
// NDJSON fallback streams per line). This is a known limitation of the
// JSON-array mode, not something the reader hides.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat maps a filename to a Format by case-insensitive suffix
// match. Any other suffix, or an empty filename, fails with
// ErrUnsupportedFormat before any I/O occurs.
func DetectFormat(filename string) (Format, error) {
	if filename == "" {
		return "", ErrUnsupportedFormat
	}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, nil
	default:
		return "", ErrUnsupportedFormat
	}
}
