package ingest

import (
	"errors"
	"io"
	"testing"
)

// sliceReader serves a fixed record sequence, optionally failing at a
// given position.
type sliceReader struct {
	records []RawRecord
	idx     int
	failAt  int // -1 disables
	err     error
}

func (s *sliceReader) Next() (RawRecord, error) {
	if s.failAt >= 0 && s.idx == s.failAt {
		return nil, s.err
	}
	if s.idx >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.idx]
	s.idx++
	return record, nil
}

func (s *sliceReader) Close() error     { return nil }
func (s *sliceReader) BytesRead() int64 { return 0 }

func makeRecords(n int) []RawRecord {
	records := make([]RawRecord, n)
	for i := range records {
		records[i] = RawRecord{"customer_id": "C", "email": "a@x.com"}
	}
	return records
}

func TestChunkerSizes(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		chunkSize int
		want      []int // chunk lengths in order
	}{
		{name: "exact multiple", records: 6, chunkSize: 3, want: []int{3, 3}},
		{name: "smaller last chunk", records: 7, chunkSize: 3, want: []int{3, 3, 1}},
		{name: "single partial chunk", records: 2, chunkSize: 10, want: []int{2}},
		{name: "empty stream", records: 0, chunkSize: 3, want: nil},
		{name: "size one", records: 3, chunkSize: 1, want: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := NewChunker(&sliceReader{records: makeRecords(tt.records), failAt: -1}, tt.chunkSize)

			var got []int
			for {
				chunk, err := chunker.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got = append(got, len(chunk))
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %v", len(got), got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d length = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkerInvalidSizeFallsBack(t *testing.T) {
	chunker := NewChunker(&sliceReader{records: makeRecords(5), failAt: -1}, 0)
	chunk, err := chunker.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk) != 5 {
		t.Errorf("chunk length = %d, want 5 (default size swallows all records)", len(chunk))
	}
}

func TestChunkerReaderErrorDiscardsPartialChunk(t *testing.T) {
	wantErr := &FormatError{Format: FormatCSV, Err: errors.New("bad row")}
	chunker := NewChunker(&sliceReader{records: makeRecords(5), failAt: 4, err: wantErr}, 3)

	chunk, err := chunker.Next()
	if err != nil {
		t.Fatalf("first chunk: unexpected error: %v", err)
	}
	if len(chunk) != 3 {
		t.Fatalf("first chunk length = %d, want 3", len(chunk))
	}

	chunk, err = chunker.Next()
	if !errors.Is(err, wantErr) {
		t.Fatalf("second chunk error = %v, want %v", err, wantErr)
	}
	if chunk != nil {
		t.Errorf("partial chunk = %v, want nil", chunk)
	}

	if _, err := chunker.Next(); err != io.EOF {
		t.Errorf("after error, Next = %v, want io.EOF", err)
	}
}
