package core

// convert.go turns raw cell text into typed values. Field files are often
// exported from French spreadsheets, so dates are day-first and decimals may
// use a comma.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// decimalRegex validates a decimal after the comma has been normalized.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// timeOfDayRegex matches "14:05", "9:05", "14h05" and "14H05".
var timeOfDayRegex = regexp.MustCompile(`^(\d{1,2})[:hH](\d{2})$`)

// Day-first layouts are tried before ISO.
var dateLayouts = []string{
	"02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006",
	"2006-01-02", "2006/01/02",
}

// CleanCell trims whitespace and strips the ="..." wrapper spreadsheets add
// to keep leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// ParseDate parses a calendar date in one of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimeOfDay normalizes a time of day to "HH:MM".
func ParseTimeOfDay(s string) (string, bool) {
	m := timeOfDayRegex.FindStringSubmatch(CleanCell(s))
	if m == nil {
		return "", false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), true
}

// ParseDecimal parses a decimal number, accepting ',' as the separator.
func ParseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(CleanCell(s), ",", ".")
	if !decimalRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, bool) {
	n, err := strconv.Atoi(CleanCell(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseBool accepts oui/non, yes/no, true/false and 1/0. Empty means false.
func ParseBool(s string) (bool, bool) {
	switch NormalizeKey(s) {
	case "oui", "yes", "y", "true", "1":
		return true, true
	case "non", "no", "n", "false", "0", "":
		return false, true
	default:
		return false, false
	}
}

// SplitList splits a comma-separated cell into trimmed, non-empty items.
func SplitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = CleanCell(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
