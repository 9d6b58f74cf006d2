package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewReportWriter(dir, 0)

	name, err := w.Write([]RowError{
		{Row: Row{"Alice", "a"}, Message: `label: "Alice" already exists`},
		{Row: Row{"Lac; rive"}, Message: "expected 2 columns, got 1"},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasSuffix(name, ".csv") || strings.ContainsRune(name, os.PathSeparator) {
		t.Errorf("name = %q, want a bare .csv file name", name)
	}

	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := `Alice;a;"label: ""Alice"" already exists"` + "\n" +
		`"Lac; rive";expected 2 columns, got 1` + "\n"
	if string(data) != want {
		t.Errorf("report =\n%s\nwant\n%s", data, want)
	}
}

func TestReportWriter_CustomDelimiter(t *testing.T) {
	w := NewReportWriter(t.TempDir(), ',')
	name, err := w.Write([]RowError{{Row: Row{"a", "b"}, Message: "bad"}})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, _ := os.ReadFile(w.Path(name))
	if string(data) != "a,b,bad\n" {
		t.Errorf("report = %q", data)
	}
}

func TestReportWriter_NoErrorsWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewReportWriter(dir, 0)

	name, err := w.Write(nil)
	if err != nil || name != "" {
		t.Fatalf("Write(nil) = (%q, %v), want empty name", name, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("report directory created for an empty report")
	}
}

func TestReportWriter_UniqueNames(t *testing.T) {
	w := NewReportWriter(t.TempDir(), 0)
	rows := []RowError{{Row: Row{"x"}, Message: "bad"}}

	a, _ := w.Write(rows)
	b, _ := w.Write(rows)
	if a == "" || a == b {
		t.Errorf("names %q and %q should be distinct", a, b)
	}
}

func TestReportWriter_PathStaysInDir(t *testing.T) {
	w := NewReportWriter("/var/reports", 0)
	if got := w.Path("../../etc/passwd"); got != filepath.Join("/var/reports", "passwd") {
		t.Errorf("Path() = %q", got)
	}
}

func TestReportWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewReportWriter(blocker, 0)
	if _, err := w.Write([]RowError{{Row: Row{"x"}, Message: "bad"}}); err == nil {
		t.Error("Write() into a regular file path should fail")
	}
}
