// Package warning extracts diagnostics from fixture comments and analyzer
// output and compares the two.
package warning

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Warning is one diagnostic.
type Warning struct {
	Message  string `json:"message"`
	Line     *int   `json:"line,omitempty"`
	Column   *int   `json:"column,omitempty"`
	FileName string `json:"fileName"`
}

// String formats w as file:line:column: message, omitting absent parts.
func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.FileName)
	if w.Line != nil {
		b.WriteString(":" + strconv.Itoa(*w.Line))
	}
	if w.Column != nil {
		b.WriteString(":" + strconv.Itoa(*w.Column))
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	return b.String()
}

// Equal compares by value, including line and column.
func (w Warning) Equal(o Warning) bool {
	return w.Message == o.Message && w.FileName == o.FileName &&
		equalInt(w.Line, o.Line) && equalInt(w.Column, o.Column)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func compareInt(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

// compare orders by message first so that lists within a key sort by message.
func compare(a, b Warning) int {
	return cmp.Or(
		cmp.Compare(a.Message, b.Message),
		compareInt(a.Line, b.Line),
		compareInt(a.Column, b.Column),
		cmp.Compare(a.FileName, b.FileName),
	)
}

// Format renders warnings as a bracketed, comma separated list.
func Format(ws []Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}

func intPtr(v int) *int { return &v }
