package plugin

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchExcluded returns the first pattern that excludes fixture, or "".
// Patterns are doublestar globs matched against the fixture path relative to
// nodeDir and against its base name. Invalid patterns are rejected when the
// configuration is resolved and never match here.
func MatchExcluded(patterns []string, nodeDir, fixture string) string {
	if len(patterns) == 0 {
		return ""
	}
	rel, err := filepath.Rel(nodeDir, fixture)
	if err != nil {
		rel = fixture
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(fixture)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return p
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return p
		}
	}
	return ""
}
