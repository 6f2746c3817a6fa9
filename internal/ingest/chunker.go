package ingest

import "io"

// Chunker groups a record stream into ordered, fixed-size batches. It is a
// pure grouping transform with O(size) memory per chunk; record contents
// are never inspected. The last chunk may be smaller than size.
type Chunker struct {
	reader RecordReader
	size   int
	done   bool
}

// NewChunker wraps reader with chunking. A size < 1 falls back to
// DefaultChunkSize.
func NewChunker(reader RecordReader, size int) *Chunker {
	if size < 1 {
		size = DefaultChunkSize
	}
	return &Chunker{reader: reader, size: size}
}

// Next returns the next chunk in original record order, io.EOF when the
// stream is exhausted, or the reader's error. A parse failure mid-chunk
// discards the partial chunk: fatal errors produce no partial aggregate
// for the unread remainder.
func (c *Chunker) Next() ([]RawRecord, error) {
	if c.done {
		return nil, io.EOF
	}

	chunk := make([]RawRecord, 0, c.size)
	for len(chunk) < c.size {
		record, err := c.reader.Next()
		if err == io.EOF {
			c.done = true
			if len(chunk) == 0 {
				return nil, io.EOF
			}
			return chunk, nil
		}
		if err != nil {
			c.done = true
			return nil, err
		}
		chunk = append(chunk, record)
	}
	return chunk, nil
}
