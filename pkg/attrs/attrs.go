// Package attrs reads values back out of slog-style key/value slices.
package attrs

import "fmt"

// ExtractString returns the value stored under key in a [k1, v1, k2, v2, ...]
// slice. Typed record ids are read through fmt.Stringer. Missing keys and other
// value types yield "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}
