package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default maximum length of a message in tabular output.
const DefaultCellMaxLen = 80

// MinTruncateLen is the minimum maxLen value for Truncate.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// Truncate shortens s to maxLen runes and ensures single-line output.
// Whitespace runs (including newlines) collapse to single spaces and "..."
// marks a truncated result. maxLen is clamped to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
