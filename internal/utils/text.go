package utils

import "strings"

const ellipsis = "..."

// Preview flattens whitespace in s and keeps at most limit runes, marking
// the cut with an ellipsis. Used for one-line CLI and log output.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(s), " ")
	n := 0
	for i := range flat {
		if n == limit {
			return flat[:i] + ellipsis
		}
		n++
	}
	return flat
}
