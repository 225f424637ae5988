// Package strings holds small slice helpers for parsing delimited
// configuration values.
package strings

import "strings"

// DedupeAndTrim trims whitespace from each value and drops empties and
// repeats, keeping first-occurrence order. Comma-split environment lists
// like "a, b,,a" come out as {"a","b"}.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower additionally lowercases, for values compared
// case-insensitively such as broker addresses and protocol tags.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
