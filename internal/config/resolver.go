package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"verdict/internal/discovery"
	"verdict/internal/failure"
	"verdict/internal/fsys"
	"verdict/pkg/logging"
)

// Resolver builds configuration trees from entry points.
type Resolver struct {
	fs fsys.FS
}

// NewResolver returns a Resolver reading from fs.
func NewResolver(fs fsys.FS) *Resolver {
	return &Resolver{fs: fs}
}

// Resolve builds the tree for entry, which may be a directory, a
// configuration file or a single fixture. Failing to find a configuration
// is a ConfigurationNotFound failure; malformed files yield ConfigurationError.
func (r *Resolver) Resolve(entry string) (*Tree, error) {
	entry = filepath.Clean(entry)
	fi, err := r.fs.Stat(entry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.New(failure.ConfigurationNotFound, "resolve", []string{entry},
				"entry point %s does not exist", entry)
		}
		return nil, err
	}

	var (
		location string
		fixtures []string
	)
	switch {
	case fi.IsDir():
		logging.Debug("ConfigResolver", "Processing configuration from directory %s", entry)
		location, err = discovery.FindChild(r.fs, entry, IsConfigFile)
		if err != nil {
			return nil, err
		}
		if location == "" {
			return nil, failure.New(failure.ConfigurationNotFound, "resolve", []string{entry},
				"no %s in directory %s", FileName, entry)
		}
	case IsConfigFile(entry):
		location = entry
	default:
		logging.Debug("ConfigResolver", "Processing configuration for single fixture %s", entry)
		location, err = r.nearestConfig(entry, false)
		if err != nil {
			return nil, err
		}
		if location == "" {
			return nil, failure.New(failure.ConfigurationNotFound, "resolve", []string{entry},
				"no %s found above %s", FileName, entry)
		}
		fixtures = []string{entry}
	}

	node, err := r.buildChain(location)
	if err != nil {
		return nil, err
	}
	if err := r.linkDescendants(node); err != nil {
		return nil, err
	}

	root := node
	for root.Parent != nil {
		root = root.Parent
	}
	tree := &Tree{Root: root, Entry: node, Fixtures: fixtures}
	logging.Info("ConfigResolver", "Resolved %d configuration nodes under %s", len(tree.Nodes()), node.Dir)
	return tree, nil
}

// nearestConfig returns the closest configuration file in the ancestors of
// path. With skipOwnDir the directory containing path is not searched.
func (r *Resolver) nearestConfig(path string, skipOwnDir bool) (string, error) {
	first := true
	for dir := range discovery.Ancestors(path) {
		if first && skipOwnDir {
			first = false
			continue
		}
		first = false
		found, err := discovery.FindChild(r.fs, dir, IsConfigFile)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

// buildChain creates the node for location after creating its ancestors.
func (r *Resolver) buildChain(location string) (*Node, error) {
	parentLocation, err := r.nearestConfig(location, true)
	if err != nil {
		return nil, err
	}
	var parent *Node
	if parentLocation != "" {
		if parent, err = r.buildChain(parentLocation); err != nil {
			return nil, err
		}
	}
	own, err := Load(r.fs, location)
	if err != nil {
		return nil, err
	}
	logging.Debug("ConfigResolver", "Processing configuration file %s", location)
	return newNode(location, own, parent)
}

func (r *Resolver) linkDescendants(node *Node) error {
	levels, err := discovery.FindAllMatching(r.fs, node.Dir, IsConfigFile)
	if err != nil {
		return err
	}
	nodes := map[string]*Node{node.Location: node}
	for _, link := range LinkParents(node.Location, discovery.Flatten(levels)) {
		own, err := Load(r.fs, link.Location)
		if err != nil {
			return err
		}
		child, err := newNode(link.Location, own, nodes[link.Parent])
		if err != nil {
			return err
		}
		nodes[link.Location] = child
	}
	return nil
}
