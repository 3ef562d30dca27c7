package asmtoken

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseImmediate converts a KindNumber token's text into a signed
// value. It accepts plain decimal, a '#'-prefixed decimal, 0x/0X hex,
// and 0b/0B binary.
func ParseImmediate(text string) (int64, error) {
	s := strings.TrimPrefix(text, "#")
	if s == "" {
		return 0, fmt.Errorf("empty numeric literal")
	}

	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex literal %q: %w", text, err)
		}
		return v, nil
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err := strconv.ParseInt(s[2:], 2, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid binary literal %q: %w", text, err)
		}
		return v, nil
	default:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal literal %q: %w", text, err)
		}
		return v, nil
	}
}

// ParseRegister recognizes R0-R31, case-insensitive, returning the
// register number and ok=true on a match.
func ParseRegister(text string) (int, bool) {
	if len(text) < 2 || len(text) > 3 {
		return 0, false
	}
	if text[0] != 'R' && text[0] != 'r' {
		return 0, false
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, false
	}
	return n, true
}
