package ingest

// Streaming wrappers applied to uploaded file bodies before parsing. They
// handle the usual artifacts of user-exported files without buffering:
//
//   - bomSkippingReader strips a UTF-8 BOM (0xEF 0xBB 0xBF) from Windows exports
//   - utf8SanitizingReader replaces invalid UTF-8 bytes with '?'
//   - countingReader tracks bytes consumed for post-upload logging
//
// sanitizeInput applies all three in the required order (BOM first).

import (
	"io"
	"unicode/utf8"
)

// bomSkippingReader removes a leading UTF-8 byte order mark, if present.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	rest    []byte
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		if n > 0 && !(n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF) {
			b.rest = append(b.rest, buf[:n]...)
		}
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(b.rest) > 0 {
		n := copy(p, b.rest)
		b.rest = b.rest[n:]
		return n, nil
	}

	return b.r.Read(p)
}

// utf8SanitizingReader replaces invalid UTF-8 sequences with '?' on the fly,
// in O(buffer) memory. A multi-byte sequence split across two reads is held
// back in pending until its continuation bytes arrive.
type utf8SanitizingReader struct {
	r       io.Reader
	pending []byte
}

func (s *utf8SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	off := copy(p, s.pending)
	if off < len(s.pending) {
		// Caller's buffer is smaller than the held-back bytes.
		s.pending = s.pending[off:]
		return off, nil
	}
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}

	// Fast path: most CSV data is plain ASCII.
	if allASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err != nil), err
}

// sanitize rewrites data in place, replacing invalid bytes with '?', and
// returns the number of output bytes. Unless atEOF, an incomplete trailing
// sequence is moved to pending instead of being replaced.
func (s *utf8SanitizingReader) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && incompletePrefix(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// incompletePrefix reports whether b could be the start of a multi-byte
// sequence whose continuation bytes have not arrived yet.
func incompletePrefix(b []byte) bool {
	want := seqLen(b[0])
	if want <= len(b) {
		return false
	}
	for _, c := range b[1:] {
		if c&0xC0 != 0x80 {
			return false
		}
	}
	return want > 0
}

// seqLen returns the expected length of a UTF-8 sequence starting with lead
// byte b, or 0 if b cannot start a sequence.
func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// countingReader tracks bytes read from the underlying reader.
type countingReader struct {
	r         io.Reader
	bytesRead int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bytesRead += int64(n)
	return n, err
}

// sanitizeInput wraps r with BOM skipping, UTF-8 sanitization, and byte
// counting, in that order.
func sanitizeInput(r io.Reader) *countingReader {
	return &countingReader{r: &utf8SanitizingReader{r: &bomSkippingReader{r: r}}}
}
