package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/spf13/cobra"

	"verdict/internal/config"
	"verdict/internal/fsys"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <entry>",
		Short: "Print the configuration tree of an entry point",
		Long: `The tree command resolves the configuration tree of an entry point and
prints every verdict.yaml with the plugins in effect for it. Nodes above
the entry point are listed because they contribute inherited settings;
only the entry point and its descendants run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			tree, err := config.NewResolver(fsys.OS{}).Resolve(entry)
			if err != nil {
				return err
			}
			renderTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}

// renderTree writes the chain from the root to the entry node followed by
// the entry subtree.
func renderTree(w io.Writer, tree *config.Tree) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)

	var chain []*config.Node
	for n := tree.Entry.Parent; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		l.AppendItem(describeNode(chain[i], false))
		l.Indent()
	}
	appendSubtree(l, tree.Entry, true)

	fmt.Fprintln(w, l.Render())
}

func appendSubtree(l list.Writer, n *config.Node, entry bool) {
	l.AppendItem(describeNode(n, entry))
	if len(n.Children) == 0 {
		return
	}
	l.Indent()
	for _, c := range n.Children {
		appendSubtree(l, c, false)
	}
	l.UnIndent()
}

func describeNode(n *config.Node, entry bool) string {
	var b strings.Builder
	b.WriteString(n.Location)

	kinds := n.PluginKinds()
	if len(kinds) == 0 {
		b.WriteString(" (no plugins)")
	} else {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(names, ", "))
	}
	if s := n.Settings().General.SuiteName; s != "" {
		fmt.Fprintf(&b, " suite=%q", s)
	}
	if entry {
		b.WriteString(" <- entry")
	}
	return b.String()
}
