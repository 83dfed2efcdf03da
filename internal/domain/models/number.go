package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is an optional numeric form field. An unset Number is distinct from
// a zero Number: unset crispness suppresses the expiry computation while a
// zero crispness does not.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a set Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// numericPrefix matches the leading decimal number of a field, the part the
// form always kept ("12abc" is 12, "1,5" is 1).
var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber coerces raw user input to its leading number. Empty text or
// text without a leading number yields an unset Number, never an error.
func ParseNumber(raw string) Number {
	prefix := numericPrefix.FindString(strings.TrimSpace(raw))
	if prefix == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Num(v)
}

// Or returns the value, or fallback when unset.
func (n Number) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// String renders the number the way it was typed; unset renders empty.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return FormatNumber(n.Value)
}

// MarshalJSON writes a JSON number, or null when unset.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts numbers, null and the legacy string form.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = Number{}
		return nil
	case data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode number text: %w", err)
		}
		*n = ParseNumber(raw)
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode number: %w", err)
		}
		*n = Num(v)
		return nil
	}
}

// FormatNumber prints whole numbers without a fractional part and everything
// else with the shortest exact representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
