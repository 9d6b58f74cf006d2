package core

// streaming.go provides reader wrappers applied to an import file before it
// reaches the CSV decoder:
//
//   - BOMSkippingReader: removes the UTF-8 BOM (0xEF 0xBB 0xBF) written by
//     spreadsheet exports on Windows
//   - StrictUTF8Reader: fails on the first invalid UTF-8 sequence instead of
//     letting mojibake reach validation
//
// Use WrapForParsing to apply both in the correct order.

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInvalidEncoding is returned by StrictUTF8Reader on malformed input.
var ErrInvalidEncoding = errors.New("encoding error: file is not valid UTF-8")

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	head    []byte // bytes read during the BOM check that are not a BOM
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first call consumes up to three bytes to
// look for the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if !(n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF) {
			r.head = append(r.head, buf[:n]...)
		}
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// StrictUTF8Reader wraps an io.Reader and returns ErrInvalidEncoding as soon
// as an invalid UTF-8 sequence is seen. Validated bytes are buffered, so
// callers may read with buffers of any size. Multi-byte sequences split
// across underlying reads are carried over to the next chunk.
type StrictUTF8Reader struct {
	reader  io.Reader
	chunk   []byte
	ready   []byte // validated bytes not yet returned
	pending []byte // unfinished sequence at the end of the last chunk
	offset  int64
	err     error
}

const strictChunkSize = 4096

// NewStrictUTF8Reader creates a new validating reader.
func NewStrictUTF8Reader(r io.Reader) *StrictUTF8Reader {
	return &StrictUTF8Reader{
		reader:  r,
		chunk:   make([]byte, strictChunkSize+utf8.UTFMax),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *StrictUTF8Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.ready) == 0 && s.err == nil {
		if !s.fill() {
			break
		}
	}
	if len(s.ready) == 0 {
		return 0, s.err
	}
	n := copy(p, s.ready)
	s.ready = s.ready[n:]
	return n, nil
}

// fill reads one chunk from the underlying reader and validates it. It
// reports false when the underlying reader returned nothing.
func (s *StrictUTF8Reader) fill() bool {
	held := copy(s.chunk, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(s.chunk[held:strictChunkSize+held])
	data := s.chunk[:held+n]

	valid := len(data)
	if err != io.EOF {
		valid -= incompleteTrailingBytes(data)
	}
	if !utf8.Valid(data[:valid]) {
		s.err = fmt.Errorf("%w (near byte %d)", ErrInvalidEncoding, s.offset+int64(firstInvalid(data)))
		return true
	}

	s.pending = append(s.pending, data[valid:]...)
	s.ready = data[:valid]
	s.offset += int64(valid)
	if err != nil {
		s.err = err
	}
	return n > 0 || err != nil
}

func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that start a multi-byte sequence which is not finished yet.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with b.
func runeLen(b byte) int {
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

// WrapForParsing strips the BOM first, then validates the encoding.
func WrapForParsing(r io.Reader) io.Reader {
	return NewStrictUTF8Reader(NewBOMSkippingReader(r))
}
