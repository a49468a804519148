package report

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// RenderTree prints the tag structure of a tree, two-space indented,
// down to maxDepth levels below the root.
func RenderTree(node *xmltree.Node, maxDepth int) string {
	var b strings.Builder
	renderTreeNode(&b, node, 0, maxDepth)
	return b.String()
}

func renderTreeNode(b *strings.Builder, node *xmltree.Node, depth, maxDepth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(node.Tag)
	b.WriteByte('\n')
	if depth >= maxDepth {
		return
	}
	for _, child := range node.Children {
		renderTreeNode(b, child, depth+1, maxDepth)
	}
}
