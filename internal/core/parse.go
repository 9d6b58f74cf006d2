package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Parser defaults used when ParseOptions leaves a field empty.
const (
	DefaultDelimiter     = ';'
	DefaultCommentMarker = "#"
)

// ParseOptions configures how an import file is split into rows.
type ParseOptions struct {
	Delimiter     rune
	CommentMarker string
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.CommentMarker == "" {
		o.CommentMarker = DefaultCommentMarker
	}
	return o
}

// RowSet is the parsed content of an import file. Blank lines are dropped;
// comment lines are kept but flagged by IsComment.
type RowSet struct {
	rows          []Row
	commentMarker string
	toValidate    int
	consumed      bool
}

// ParseRows splits data into rows. Any malformed quoting or invalid UTF-8
// fails the whole parse; no partial result is returned.
func ParseRows(data []byte, opts ParseOptions) (*RowSet, error) {
	opts = opts.withDefaults()

	r := csv.NewReader(WrapForParsing(bytes.NewReader(data)))
	r.Comma = opts.Delimiter
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	set := &RowSet{commentMarker: opts.CommentMarker}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrInvalidEncoding) {
				return nil, err
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("invalid csv: line %d: %w", perr.Line, perr.Err)
			}
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		row := Row(record)
		if !set.IsComment(row) {
			set.toValidate++
		}
		set.rows = append(set.rows, row)
	}
	return set, nil
}

// isBlank catches lines holding only whitespace, which the CSV reader keeps.
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

// IsComment reports whether the row's first field starts with the comment
// marker.
func (s *RowSet) IsComment(row Row) bool {
	return len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), s.commentMarker)
}

// Total is the number of non-blank lines, comments included.
func (s *RowSet) Total() int {
	return len(s.rows)
}

// ToValidate is the number of rows that are neither blank nor comments.
func (s *RowSet) ToValidate() int {
	return s.toValidate
}

// All yields every row with its position. The sequence can be consumed only
// once; later calls yield nothing.
func (s *RowSet) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		if s.consumed {
			return
		}
		s.consumed = true
		for i, row := range s.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}
