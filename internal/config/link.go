package config

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

// Link pairs a configuration file with the configuration file that governs it.
type Link struct {
	Location string
	Parent   string
}

// LinkParents computes the parent of every descendant configuration file.
// The parent of a file is the closest configuration among root and the other
// descendants whose directory contains the file's directory. Links are
// returned shallowest first so that parents precede their children.
func LinkParents(root string, descendants []string) []Link {
	ordered := slices.Clone(descendants)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return cmp.Compare(depth(a), depth(b))
	})

	known := []string{root}
	links := make([]Link, 0, len(ordered))
	for _, loc := range ordered {
		if loc == root {
			continue
		}
		dir := filepath.Dir(loc)
		parent := root
		best := -1
		for _, k := range known {
			kd := filepath.Dir(k)
			if within(dir, kd) && depth(kd) > best {
				parent, best = k, depth(kd)
			}
		}
		links = append(links, Link{Location: loc, Parent: parent})
		known = append(known, loc)
	}
	return links
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}

// within reports whether dir is strictly below ancestor.
func within(dir, ancestor string) bool {
	rel, err := filepath.Rel(ancestor, dir)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
