package warning

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"verdict/internal/result"
)

const (
	expectedAndNotReceived = "Some warnings were expected but not received"
	unexpected             = "Some warnings were unexpected"
)

// Key groups warnings by position. Warnings without both a line and a column
// share the zero Key.
type Key struct {
	Line   int
	Column int
	Valid  bool
}

// KeyOf returns the grouping key of w.
func KeyOf(w Warning) Key {
	if w.Line == nil || w.Column == nil {
		return Key{}
	}
	return Key{Line: *w.Line, Column: *w.Column, Valid: true}
}

func compareKeys(a, b Key) int {
	if a.Valid != b.Valid {
		if !a.Valid {
			return -1
		}
		return 1
	}
	return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Column, b.Column))
}

// Groups maps a key to its warnings, sorted by message.
type Groups map[Key][]Warning

// Group builds Groups from ws. The input is not modified.
func Group(ws []Warning) Groups {
	g := Groups{}
	for _, w := range ws {
		k := KeyOf(w)
		g[k] = append(g[k], w)
	}
	for k := range g {
		slices.SortFunc(g[k], compare)
	}
	return g
}

// Filter returns the groups restricted to warnings of fileName.
func (g Groups) Filter(fileName string) Groups {
	out := Groups{}
	for k, ws := range g {
		for _, w := range ws {
			if w.FileName == fileName {
				out[k] = append(out[k], w)
			}
		}
	}
	return out
}

// Compare returns the expected warnings absent from actual at the same key
// and the actual warnings absent from expected. Both lists are ordered by
// key then message, independently of input order.
func Compare(expected, actual Groups) (missing, unexpected []Warning) {
	return valuesNotIn(expected, actual), valuesNotIn(actual, expected)
}

func valuesNotIn(g, other Groups) []Warning {
	var out []Warning
	for _, k := range slices.SortedFunc(maps.Keys(g), compareKeys) {
		for _, w := range g[k] {
			if !slices.ContainsFunc(other[k], w.Equal) {
				out = append(out, w)
			}
		}
	}
	return out
}

// Verdict turns a comparison into a status. Missing warnings always fail.
// Unexpected warnings fail unless exact matching is disabled, in which case
// they pass with a note.
func Verdict(missing, unexpectedWarnings []Warning, exactMatch bool) result.Status {
	switch {
	case len(missing) == 0 && len(unexpectedWarnings) == 0:
		return result.Pass("")
	case len(missing) > 0 && len(unexpectedWarnings) == 0:
		return failWith(expectedAndNotReceived, missing)
	case len(missing) > 0:
		return result.Fail(
			fmt.Sprintf("%s: %s, and some warnings were unexpected: %s", expectedAndNotReceived, Format(missing), Format(unexpectedWarnings)),
			fmt.Sprintf("%s (%d), and some warnings were unexpected (%d)", expectedAndNotReceived, len(missing), len(unexpectedWarnings)),
		)
	case !exactMatch:
		return result.Pass(fmt.Sprintf("%s: %s", unexpected, Format(unexpectedWarnings)))
	default:
		return failWith(unexpected, unexpectedWarnings)
	}
}

func failWith(base string, ws []Warning) result.Status {
	return result.Fail(fmt.Sprintf("%s: %s", base, Format(ws)), fmt.Sprintf("%s (%d)", base, len(ws)))
}
