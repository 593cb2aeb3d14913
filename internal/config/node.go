package config

import (
	"iter"
	"path/filepath"
)

// Node is the configuration scope of one verdict.yaml and its directory.
// Nodes are built by Resolver and are read-only afterwards.
type Node struct {
	// Location is the path of the configuration file.
	Location string
	// Dir is the directory that contains Location.
	Dir      string
	Parent   *Node
	Children []*Node
	// Own is the file content as declared.
	Own File

	effective File
	settings  *Settings
}

func newNode(location string, own File, parent *Node) (*Node, error) {
	n := &Node{
		Location: location,
		Dir:      filepath.Dir(location),
		Parent:   parent,
		Own:      own,
	}
	if parent != nil {
		n.effective = Merge(parent.effective, own)
		parent.Children = append(parent.Children, n)
	} else {
		n.effective = Merge(File{}, own)
	}
	s, err := ResolveSettings(location, n.effective)
	if err != nil {
		return nil, err
	}
	n.settings = s
	return n, nil
}

// Effective returns the merged configuration before defaults are applied.
func (n *Node) Effective() File { return n.effective }

// Settings returns the resolved settings.
func (n *Node) Settings() *Settings { return n.settings }

// PluginKinds lists the plugin sections in effect for the node.
func (n *Node) PluginKinds() []PluginKind { return n.effective.PluginKinds() }

// Depth is the number of ancestors above n.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// All yields n and its descendants in pre-order.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Tree is a resolved configuration hierarchy.
type Tree struct {
	// Root is the topmost node found above the entry point.
	Root *Node
	// Entry is the node governing the entry point. Only its subtree executes.
	Entry *Node
	// Fixtures restricts execution to these files when non-empty.
	Fixtures []string
}

// Nodes returns the entry node and its descendants in pre-order.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	for n := range t.Entry.All() {
		out = append(out, n)
	}
	return out
}

// Validate checks constraints that only apply to nodes that will execute.
func (t *Tree) Validate() error {
	errs := &ConfigurationErrorCollection{}
	for _, n := range t.Nodes() {
		if len(n.PluginKinds()) > 0 && n.settings.General.ExecCmd == "" {
			errs.Add(NewConfigurationErrorWithDetails(n.Location, "general", ErrorTypeValidation,
				"execCmd is required for nodes with plugin sections", "",
				[]string{"Set general.execCmd in this file or in a parent verdict.yaml"}))
		}
	}
	return errs.ErrOrNil()
}
