package strings

import (
	"fmt"
	"strings"
)

// LinesContaining returns the lines that contain needle, preserving order.
// An empty needle matches nothing.
func LinesContaining(lines []string, needle string) []string {
	if needle == "" {
		return nil
	}
	var out []string
	for _, l := range lines {
		if strings.Contains(l, needle) {
			out = append(out, l)
		}
	}
	return out
}

// Excerpt joins at most maxLines lines with newlines. When lines were
// dropped a final "... (N more lines)" marker is appended.
func Excerpt(lines []string, maxLines int) string {
	if maxLines <= 0 || len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	var b strings.Builder
	b.WriteString(strings.Join(lines[:maxLines], "\n"))
	fmt.Fprintf(&b, "\n... (%d more lines)", len(lines)-maxLines)
	return b.String()
}

// SplitLines splits text on \n, dropping a trailing \r on each line and the
// empty element produced by a final newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
