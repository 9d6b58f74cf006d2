package core

// validation.go provides the field checks importers run on each row. A
// failed check is a row error, reported with the field it concerns.

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ValidationError is a row error tied to one field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The offending value, if any
	Message string // Human-readable problem
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, value, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// RequireText returns the cleaned value, or an error when it is empty or
// longer than maxLen characters.
func RequireText(field, value string, maxLen int) (string, error) {
	v := CleanCell(value)
	if v == "" {
		return "", Invalid(field, value, "required field is empty")
	}
	return checkLength(field, v, maxLen)
}

// OptionalText is RequireText that accepts an empty value.
func OptionalText(field, value string, maxLen int) (string, error) {
	v := CleanCell(value)
	if v == "" {
		return "", nil
	}
	return checkLength(field, v, maxLen)
}

func checkLength(field, v string, maxLen int) (string, error) {
	if maxLen > 0 && utf8.RuneCountInString(v) > maxLen {
		return "", Invalid(field, v, "must be at most %d characters", maxLen)
	}
	return v, nil
}

// RequireInt parses a mandatory integer within [min, max].
func RequireInt(field, value string, lo, hi int) (int, error) {
	v := CleanCell(value)
	if v == "" {
		return 0, Invalid(field, value, "required field is empty")
	}
	n, ok := ParseInt(v)
	if !ok {
		return 0, Invalid(field, v, "invalid number %q", v)
	}
	if n < lo || n > hi {
		return 0, Invalid(field, v, "must be between %d and %d", lo, hi)
	}
	return n, nil
}

// OptionalInt is RequireInt that returns nil for an empty value.
func OptionalInt(field, value string, lo, hi int) (*int, error) {
	if CleanCell(value) == "" {
		return nil, nil
	}
	n, err := RequireInt(field, value, lo, hi)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// RequireDecimal parses a mandatory decimal within [min, max].
func RequireDecimal(field, value string, lo, hi float64) (float64, error) {
	v := CleanCell(value)
	if v == "" {
		return 0, Invalid(field, value, "required field is empty")
	}
	f, ok := ParseDecimal(v)
	if !ok {
		return 0, Invalid(field, v, "invalid number %q", v)
	}
	if f < lo || f > hi {
		return 0, Invalid(field, v, "must be between %s and %s",
			strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64))
	}
	return f, nil
}
