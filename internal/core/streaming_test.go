package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello;world")...),
			expected: "hello;world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello;world"),
			expected: "hello;world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
		{
			name:     "shorter than a BOM",
			input:    []byte("ab"),
			expected: "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestStrictUTF8Reader(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{name: "ascii", input: []byte("Mésange;Étang"), want: "Mésange;Étang"},
		{name: "multi-byte runes", input: []byte("Grèbe huppé ☀"), want: "Grèbe huppé ☀"},
		{name: "empty", input: nil, want: ""},
		{name: "invalid byte", input: []byte("abc\xffdef"), wantErr: true},
		{name: "latin-1 accent", input: []byte("M\xe9sange"), wantErr: true},
		{name: "truncated rune at end", input: []byte("ab\xc3"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewStrictUTF8Reader(bytes.NewReader(tt.input)))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEncoding) {
					t.Fatalf("expected ErrInvalidEncoding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStrictUTF8Reader_RuneSplitAcrossReads(t *testing.T) {
	input := "Pic épeiche; Œdicnème criard"
	got, err := io.ReadAll(NewStrictUTF8Reader(iotest.OneByteReader(bytes.NewReader([]byte(input)))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestWrapForParsing(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Chouette hulotte")...)
	got, err := io.ReadAll(WrapForParsing(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "Chouette hulotte" {
		t.Errorf("got %q", got)
	}
}

func TestStrictUTF8Reader_SmallReadBuffers(t *testing.T) {
	input := strings.Repeat("€’“🐦", 1500)
	for _, size := range []int{1, 2, 3, 5, 4097} {
		t.Run(fmt.Sprintf("buffer %d", size), func(t *testing.T) {
			r := NewStrictUTF8Reader(strings.NewReader(input))
			var got bytes.Buffer
			p := make([]byte, size)
			for {
				n, err := r.Read(p)
				got.Write(p[:n])
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("unexpected error after %d bytes: %v", got.Len(), err)
				}
			}
			if got.String() != input {
				t.Errorf("read %d bytes, want %d", got.Len(), len(input))
			}
		})
	}
}

func TestStrictUTF8Reader_ReportsOffset(t *testing.T) {
	input := strings.Repeat("é", 3000) + "\xff"
	_, err := io.ReadAll(NewStrictUTF8Reader(strings.NewReader(input)))
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
	if !strings.Contains(err.Error(), "near byte 6000") {
		t.Errorf("error = %q, want the offset of the bad byte", err)
	}
}
