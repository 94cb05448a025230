// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

/*
 * Value coercion for condition evaluation.
 *
 * Content values arrive as decoded JSON (string, float64, bool, nil, maps,
 * arrays), possibly with Go integer types when a caller builds content by
 * hand. Conditions need four views of a value:
 *
 *   - presence: nil and "" are absent, everything else is present
 *   - text: canonical string form (strings as-is, shortest decimal for
 *     numbers, true/false, "" for nil, compact JSON for composites)
 *   - number: finite float64, strings trimmed and parsed, bools rejected
 *   - date: epoch milliseconds or a string in one of dateLayouts
 *
 * Operands (conditionValue) are strings. Length bounds use a leading-integer
 * parse that never fails: unparseable operands read as 0.
 */

// maxEpochMillis bounds numeric dates to +/-100,000,000 days around the epoch.
const maxEpochMillis = 8.64e15

// dateLayouts are the accepted string date formats, tried in order.
// Single-digit month and day elements also accept two-digit values.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"2.1.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
}

// isPresent reports whether value counts as provided.
func isPresent(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}

// toText returns the canonical string form of value.
// Fails only when a composite value cannot be encoded as JSON.
func toText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("render value as text: %w", err)
		}
		return string(b), nil
	}
}

// textLength counts Unicode code points, not bytes.
func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

// toNumber converts value to a finite float64.
// Strings are trimmed and must be decimal; empty strings, booleans, nil
// and composites fail.
func toNumber(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" || isHexLiteral(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isHexLiteral reports whether s carries a 0x prefix after an optional sign.
// strconv.ParseFloat accepts hex floats such as 0x1p4.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// toDate interprets value as a calendar date.
// Numbers are epoch milliseconds; strings must match one of dateLayouts.
func toDate(value any) (time.Time, bool) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
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
	if _, isBool := value.(bool); isBool {
		return time.Time{}, false
	}
	ms, ok := toNumber(value)
	if !ok || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// parseIntOperand reads a leading integer from s.
// Leading whitespace and one sign are allowed; parsing stops at the first
// non-digit. No digits, or overflow, yields 0.
func parseIntOperand(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
