package http

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/weave/pkg/domain"
)

// DefaultMaxBodySize bounds request bodies (1 MiB).
const DefaultMaxBodySize int64 = 1 << 20

// ErrInvalidUTF8 is returned when a state string is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// SanitizeState validates UTF-8 and strips control characters from every
// string in the state, nested values included. Newline, tab and carriage
// return are kept. The state is modified in place.
func SanitizeState(s domain.State) error {
	for k, v := range s {
		clean, err := sanitizeValue(v)
		if err != nil {
			return err
		}
		s[k] = clean
	}
	return nil
}

func sanitizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return sanitizeString(val)
	case map[string]any:
		for k, inner := range val {
			clean, err := sanitizeValue(inner)
			if err != nil {
				return nil, err
			}
			val[k] = clean
		}
		return val, nil
	case []any:
		for i, inner := range val {
			clean, err := sanitizeValue(inner)
			if err != nil {
				return nil, err
			}
			val[i] = clean
		}
		return val, nil
	}
	return v, nil
}

func sanitizeString(input string) (string, error) {
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: nothing to strip.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
