package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Params are the loosely typed arguments that accompany an intent. Values
// usually come straight from decoded JSON, so numbers arrive as float64 or
// json.Number and lists as []any.
type Params map[string]any

// String returns the trimmed string form of key. Numbers are formatted
// without a fractional part when they are whole.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			s = strconv.FormatInt(int64(x), 10)
		} else {
			s = strconv.FormatFloat(x, 'f', -1, 64)
		}
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// First returns the first non-empty value among keys.
func (p Params) First(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p.String(k); ok {
			return s, true
		}
	}
	return "", false
}

// Int returns key as an int, or fallback when absent or unparsable.
func (p Params) Int(key string, fallback int) int {
	switch x := p[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	s, ok := p.String(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// Strings returns key as a list. A single string is split on commas.
func (p Params) Strings(key string) []string {
	var raw []string
	switch x := p[key].(type) {
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			if s, ok := (Params{"v": item}).String("v"); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(x, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseAssignments turns "key=value" pairs into Params. Values that look
// like lists ("a,b") stay strings; Strings splits them when asked.
func ParseAssignments(pairs []string) (Params, error) {
	params := make(Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q must look like key=value", pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

func clampLimit(n, fallback, ceiling int) int {
	if n <= 0 {
		return fallback
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
