// Package discovery locates configuration files and fixtures on an fsys.FS.
package discovery

import (
	"fmt"
	"iter"
	"path/filepath"

	"verdict/internal/failure"
	"verdict/internal/fsys"
)

// Predicate decides whether a path matches.
type Predicate func(path string) bool

// ListChildren returns the full paths of dir's entries in name order.
// Listing a regular file is an InvalidArgument failure.
func ListChildren(fs fsys.FS, dir string) ([]string, error) {
	fi, err := fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if fi.Mode().IsRegular() {
		return nil, failure.New(failure.InvalidArgument, "list children", []string{dir},
			"%s is a regular file, not a directory", dir)
	}
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// FindChild returns the first direct child of dir that matches, or "" when
// none does.
func FindChild(fs fsys.FS, dir string, match Predicate) (string, error) {
	children, err := ListChildren(fs, dir)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		if match(c) {
			return c, nil
		}
	}
	return "", nil
}

// FindAllMatching walks root breadth-first and returns the non-directory
// entries that match, one group per depth level. Group 0 holds root's own
// files; a level with no matches yields an empty group so that indexes keep
// meaning depth.
func FindAllMatching(fs fsys.FS, root string, match Predicate) ([][]string, error) {
	var levels [][]string
	frontier := []string{root}
	for len(frontier) > 0 {
		var (
			matched []string
			next    []string
		)
		for _, dir := range frontier {
			children, err := ListChildren(fs, dir)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				if fsys.IsDir(fs, c) {
					next = append(next, c)
					continue
				}
				if match(c) {
					matched = append(matched, c)
				}
			}
		}
		levels = append(levels, matched)
		frontier = next
	}
	return levels, nil
}

// Flatten concatenates FindAllMatching levels, shallowest first.
func Flatten(levels [][]string) []string {
	var out []string
	for _, l := range levels {
		out = append(out, l...)
	}
	return out
}

// Ancestors yields the directories above path, nearest first, ending at
// the filesystem root. The sequence can be ranged over any number of times.
func Ancestors(path string) iter.Seq[string] {
	return func(yield func(string) bool) {
		cur := filepath.Clean(path)
		for {
			parent := filepath.Dir(cur)
			if parent == cur {
				return
			}
			if !yield(parent) {
				return
			}
			cur = parent
		}
	}
}

// DescendantDirs returns the directories below dir accepted by keep, in
// depth-first name order. A rejected directory prunes its whole subtree.
// With withSelf, dir itself comes first and is not tested against keep.
func DescendantDirs(fs fsys.FS, dir string, withSelf bool, keep Predicate) ([]string, error) {
	var out []string
	if withSelf {
		out = append(out, dir)
	}
	children, err := ListChildren(fs, dir)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if !fsys.IsDir(fs, c) || !keep(c) {
			continue
		}
		sub, err := DescendantDirs(fs, c, true, keep)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}
