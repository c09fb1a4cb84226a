// Package strings normalises caller-supplied lists (manifest labels, bulk ids).
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims and lowercases each element, then drops empty
// strings and repeats. Manifest labels compare case-insensitively, so
// " Photo" and "photo" are the same label. Order of first occurrence is kept.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			normalized = append(normalized, v)
		}
	}
	return Unique(normalized)
}

// Unique removes repeated values, keeping first occurrences in order.
func Unique[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
