package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies a runtime value for anchor matching and distance rules.
type Kind string

const (
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindBool   Kind = "bool"
	KindOther  Kind = "other"
)

// KindOf classifies v. Every Go integer and float type is a number, and so is
// json.Number. Booleans are never numbers.
func KindOf(v any) Kind {
	if _, ok := Number(v); ok {
		return KindNumber
	}
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBool
	default:
		return KindOther
	}
}

// Number returns v as a float64 when v is numeric.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Numbers returns both operands as float64 when both are numeric.
func Numbers(a, b any) (float64, float64, bool) {
	x, ok := Number(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := Number(b)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

// FormatValue renders v for expressions and explanations.
// Floats use the shortest representation that round-trips.
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "<nil>"
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}
