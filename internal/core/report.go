package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ReportWriter writes rejected rows to a downloadable file. Each line holds
// the original fields followed by the error message, joined with the same
// delimiter the import file used.
type ReportWriter struct {
	Dir       string
	Delimiter rune
}

// NewReportWriter creates a writer storing reports in dir.
func NewReportWriter(dir string, delimiter rune) *ReportWriter {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	return &ReportWriter{Dir: dir, Delimiter: delimiter}
}

// Write stores rowErrors under a fresh opaque name and returns that name.
// With no errors nothing is written and the name is empty.
func (w *ReportWriter) Write(rowErrors []RowError) (string, error) {
	if len(rowErrors) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	name := uuid.NewString() + ".csv"
	path := filepath.Join(w.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = w.Delimiter
	for _, re := range rowErrors {
		record := make([]string, 0, len(re.Row)+1)
		record = append(record, re.Row...)
		record = append(record, re.Message)
		if err := cw.Write(record); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("flush report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close report: %w", err)
	}
	return name, nil
}

// Path resolves a report name returned by Write.
func (w *ReportWriter) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}
