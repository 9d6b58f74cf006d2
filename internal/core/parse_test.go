package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		opts           ParseOptions
		wantTotal      int
		wantToValidate int
		wantFirst      Row
	}{
		{
			name:           "rows and a header comment",
			input:          "# label\nAlice\nBob\n",
			wantTotal:      3,
			wantToValidate: 2,
			wantFirst:      Row{"# label"},
		},
		{
			name:           "blank and whitespace lines are dropped",
			input:          "Alice\n\n   \nBob\n",
			wantTotal:      2,
			wantToValidate: 2,
			wantFirst:      Row{"Alice"},
		},
		{
			name:           "semicolon is the default delimiter",
			input:          "01;Bourg;1053\n",
			wantTotal:      1,
			wantToValidate: 1,
			wantFirst:      Row{"01", "Bourg", "1053"},
		},
		{
			name:           "quoted delimiter stays in the field",
			input:          `"Lac; rive nord";12` + "\n",
			wantTotal:      1,
			wantToValidate: 1,
			wantFirst:      Row{"Lac; rive nord", "12"},
		},
		{
			name:           "rows may have different lengths",
			input:          "a;b\nc\n",
			wantTotal:      2,
			wantToValidate: 2,
			wantFirst:      Row{"a", "b"},
		},
		{
			name:           "custom delimiter and marker",
			input:          "// header\na,b\n",
			opts:           ParseOptions{Delimiter: ',', CommentMarker: "//"},
			wantTotal:      2,
			wantToValidate: 1,
			wantFirst:      Row{"// header"},
		},
		{
			name:           "BOM is stripped",
			input:          "\ufeffAlice\n",
			wantTotal:      1,
			wantToValidate: 1,
			wantFirst:      Row{"Alice"},
		},
		{
			name:           "CRLF line endings",
			input:          "Alice\r\nBob\r\n",
			wantTotal:      2,
			wantToValidate: 2,
			wantFirst:      Row{"Alice"},
		},
		{
			name:  "empty input",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseRows([]byte(tt.input), tt.opts)
			if err != nil {
				t.Fatalf("ParseRows() error = %v", err)
			}
			if set.Total() != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", set.Total(), tt.wantTotal)
			}
			if set.ToValidate() != tt.wantToValidate {
				t.Errorf("ToValidate() = %d, want %d", set.ToValidate(), tt.wantToValidate)
			}
			if tt.wantFirst == nil {
				return
			}
			for _, row := range set.All() {
				if strings.Join(row, "|") != strings.Join(tt.wantFirst, "|") {
					t.Errorf("first row = %q, want %q", row, tt.wantFirst)
				}
				break
			}
		})
	}
}

func TestParseRows_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		wantText string
		wantIs   error
	}{
		{
			name:     "unterminated quote",
			input:    []byte("Alice\n\"Bob;12\n"),
			wantText: "invalid csv: line",
		},
		{
			name:     "bare quote in field",
			input:    []byte("Al\"ice;12\n"),
			wantText: "invalid csv",
		},
		{
			name:   "invalid UTF-8",
			input:  []byte("Alice\nM\xe9sange\n"),
			wantIs: ErrInvalidEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseRows(tt.input, ParseOptions{})
			if err == nil {
				t.Fatal("ParseRows() expected error")
			}
			if set != nil {
				t.Error("a failed parse must not return partial rows")
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantText)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want errors.Is %v", err, tt.wantIs)
			}
		})
	}
}

func TestRowSet_AllIsSinglePass(t *testing.T) {
	set, err := ParseRows([]byte("a\nb\nc\n"), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseRows() error = %v", err)
	}

	var positions []int
	for i := range set.All() {
		positions = append(positions, i)
	}
	if len(positions) != 3 || positions[0] != 0 || positions[2] != 2 {
		t.Errorf("positions = %v, want [0 1 2]", positions)
	}

	for range set.All() {
		t.Fatal("second iteration yielded a row")
	}
}

func TestRowSet_IsComment(t *testing.T) {
	set := &RowSet{commentMarker: "#"}
	tests := []struct {
		row  Row
		want bool
	}{
		{Row{"# header"}, true},
		{Row{"  #indented", "x"}, true},
		{Row{"value", "#not first"}, false},
		{Row{""}, false},
		{Row{}, false},
	}
	for _, tt := range tests {
		if got := set.IsComment(tt.row); got != tt.want {
			t.Errorf("IsComment(%q) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestParseRows_LongLinesWithMultiByteRunes(t *testing.T) {
	for pad := range 8 {
		t.Run(fmt.Sprintf("offset %d", pad), func(t *testing.T) {
			long := strings.Repeat("x", pad) + strings.Repeat("€", 3000)
			input := "# prix\n" + long + ";fin\nMésange;ok\n"

			set, err := ParseRows([]byte(input), ParseOptions{})
			if err != nil {
				t.Fatalf("ParseRows() error = %v", err)
			}
			if set.Total() != 3 {
				t.Fatalf("Total() = %d, want 3", set.Total())
			}
			var rows []Row
			for _, row := range set.All() {
				rows = append(rows, row)
			}
			if rows[1][0] != long || rows[1][1] != "fin" {
				t.Errorf("long row = %d bytes / %q, want %d bytes / \"fin\"", len(rows[1][0]), rows[1][1], len(long))
			}
			if rows[2][0] != "Mésange" {
				t.Errorf("row after the long line = %q", rows[2])
			}
		})
	}
}
