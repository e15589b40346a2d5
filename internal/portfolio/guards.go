package portfolio

import "strings"

// IsNonEmptyString reports whether v is a string with non-whitespace content.
func IsNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// String returns v when it is a present string, otherwise "".
func String(v any) string {
	if !IsNonEmptyString(v) {
		return ""
	}
	return v.(string)
}

// List returns v as a slice, or nil when v is not list-shaped.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Object returns v as a string-keyed record, or nil when v is not one.
func Object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Strings keeps the present string entries of a list-shaped v, in order.
func Strings(v any) []string {
	var out []string
	for _, item := range List(v) {
		if IsNonEmptyString(item) {
			out = append(out, item.(string))
		}
	}
	return out
}
