package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RecordReader is a lazy, forward-only, non-restartable sequence of raw
// records. Next returns io.EOF when the stream is exhausted and a
// *FormatError on a parse-layer failure, which is fatal for the remainder
// of the stream.
type RecordReader interface {
	Next() (RawRecord, error)
	Close() error

	// BytesRead reports how many input bytes have been consumed so far.
	BytesRead() int64
}

// maxScanTokenSize bounds a single NDJSON line (16MB).
const maxScanTokenSize = 16 * 1024 * 1024

// OpenReader detects the file format from filename and returns a reader
// over r. CSV streams with O(row) memory. JSON buffers the entire document
// to try array/object parsing first; only the NDJSON fallback parses per
// line. That asymmetry is a documented limitation of JSON-array mode, not
// a bug.
func OpenReader(filename string, r io.Reader) (RecordReader, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return newCSVReader(r)
	default:
		return newJSONReader(r)
	}
}

// csvReader streams records from header-prefixed CSV input.
type csvReader struct {
	cr       *csv.Reader
	counting *countingReader
	src      io.Reader
	header   []string
	closed   bool
}

func newCSVReader(r io.Reader) (*csvReader, error) {
	counting := sanitizeInput(r)

	// FieldsPerRecord -1 allows ragged rows; quote errors stay fatal so
	// structurally broken files abort instead of silently misparsing.
	cr := csv.NewReader(counting)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		header = nil // empty file yields zero records
	} else if err != nil {
		return nil, &FormatError{Format: FormatCSV, Err: err}
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &csvReader{cr: cr, counting: counting, src: r, header: header}, nil
}

func (c *csvReader) Next() (RawRecord, error) {
	if c.closed || c.header == nil {
		return nil, io.EOF
	}

	row, err := c.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		// Malformed CSV syntax aborts the whole upload.
		return nil, &FormatError{Format: FormatCSV, Err: err}
	}

	record := make(RawRecord, len(c.header))
	for i, name := range c.header {
		if name == "" {
			continue
		}
		var value string
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		record[name] = value
	}
	return record, nil
}

func (c *csvReader) BytesRead() int64 { return c.counting.bytesRead }

func (c *csvReader) Close() error {
	c.closed = true
	return closeIfCloser(c.src)
}

// jsonDocReader yields records parsed from a whole-document JSON array or a
// single root object.
type jsonDocReader struct {
	records   []RawRecord
	idx       int
	bytesRead int64
	src       io.Reader
}

func (j *jsonDocReader) Next() (RawRecord, error) {
	if j.idx >= len(j.records) {
		return nil, io.EOF
	}
	record := j.records[j.idx]
	j.idx++
	return record, nil
}

func (j *jsonDocReader) BytesRead() int64 { return j.bytesRead }

func (j *jsonDocReader) Close() error { return closeIfCloser(j.src) }

// ndjsonReader parses one JSON object per non-blank line. A malformed line
// is fatal for the remainder of the stream.
type ndjsonReader struct {
	scanner   *bufio.Scanner
	bytesRead int64
	src       io.Reader
	failed    bool
}

func (n *ndjsonReader) Next() (RawRecord, error) {
	if n.failed {
		return nil, io.EOF
	}

	for n.scanner.Scan() {
		line := strings.TrimSpace(n.scanner.Text())
		if line == "" {
			continue
		}

		value, err := decodeJSONValue([]byte(line))
		obj, isObj := value.(map[string]any)
		if err != nil || !isObj {
			n.failed = true
			return nil, &FormatError{
				Format: FormatJSON,
				Err:    fmt.Errorf("invalid JSON line: %s", truncate(line, 50)),
			}
		}
		return objectToRecord(obj), nil
	}

	if err := n.scanner.Err(); err != nil {
		n.failed = true
		return nil, &FormatError{Format: FormatJSON, Err: err}
	}
	return nil, io.EOF
}

func (n *ndjsonReader) BytesRead() int64 { return n.bytesRead }

func (n *ndjsonReader) Close() error { return closeIfCloser(n.src) }

// newJSONReader buffers the input and attempts to parse it as one JSON
// document. A root array yields one record per element and a root object
// yields exactly one record; any other root is fatal. If whole-document
// parsing fails (including trailing content after the first value), the
// buffered input is re-parsed as NDJSON.
func newJSONReader(r io.Reader) (RecordReader, error) {
	counting := sanitizeInput(r)
	data, err := io.ReadAll(counting)
	if err != nil {
		return nil, &FormatError{Format: FormatJSON, Err: err}
	}

	root, err := decodeJSONValue(data)
	if err != nil {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
		return &ndjsonReader{scanner: scanner, bytesRead: counting.bytesRead, src: r}, nil
	}

	doc := &jsonDocReader{bytesRead: counting.bytesRead, src: r}
	switch v := root.(type) {
	case []any:
		doc.records = make([]RawRecord, 0, len(v))
		for _, element := range v {
			obj, _ := element.(map[string]any)
			doc.records = append(doc.records, objectToRecord(obj))
		}
	case map[string]any:
		doc.records = []RawRecord{objectToRecord(v)}
	default:
		return nil, &FormatError{
			Format: FormatJSON,
			Err:    errors.New("JSON must be an array of objects or a single object"),
		}
	}
	return doc, nil
}

// decodeJSONValue parses data as exactly one JSON value, preserving number
// literals as their source text. Trailing content after the first value is
// an error, which is what routes NDJSON input to the line-based fallback.
func decodeJSONValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing content after JSON value")
	}
	return value, nil
}

// objectToRecord flattens a decoded JSON object into a RawRecord. Null
// values stay present-but-null; non-string scalars keep their JSON text.
// A nil object (non-object array element) yields an empty record, which
// later classifies as unknown.
func objectToRecord(obj map[string]any) RawRecord {
	record := make(RawRecord, len(obj))
	for key, value := range obj {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		record[key] = jsonValueString(value)
	}
	return record
}

func jsonValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func closeIfCloser(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
