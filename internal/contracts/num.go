package contracts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Optional numerics are *float64 everywhere in the pipeline.
// nil means "unavailable"; 0 is always a real value.

// F returns a pointer to v
func F(v float64) *float64 {
	return &v
}

// I returns a pointer to v
func I(v int) *int {
	return &v
}

// Value unwraps an optional numeric
func Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// NonZero reports whether p is present and not 0
func NonZero(p *float64) bool {
	return p != nil && *p != 0
}

// Round2 rounds to 2 decimals (half away from zero)
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsFinite reports whether v is neither NaN nor ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ToFloat converts a decoded JSON value into an optional numeric.
// Only real numbers count: strings, bools and null are nil.
func ToFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		if !IsFinite(n) {
			return nil
		}
		return F(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil || !IsFinite(f) {
			return nil
		}
		return F(f)
	case int:
		return F(float64(n))
	case int64:
		return F(float64(n))
	default:
		return nil
	}
}

// ParseFloat is ToFloat plus numeric strings such as "1,234.50".
// Feeds that quote numbers go through this one.
func ParseFloat(v interface{}) *float64 {
	s, ok := v.(string)
	if !ok {
		return ToFloat(v)
	}

	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(f) {
		return nil
	}
	return F(f)
}

// TurnoverScale converts price*volume into crores
const TurnoverScale = 1e7
