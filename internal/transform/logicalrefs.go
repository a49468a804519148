package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// RewriteLogicalRefs rewrites logical interface references throughout
// the tree when interfaces are renumbered during conversion, for
// example when the source's opt2 becomes opt1 on the target. Firewall
// rules, bridge members, gateway groups, and interface groups all
// refer to interfaces by logical name and must follow the rename.
func RewriteLogicalRefs(root *xmltree.Node, logicalMap map[string]string) {
	if len(logicalMap) == 0 {
		return
	}
	rewriteLogicalNode(root, logicalMap)
}

func rewriteLogicalNode(node *xmltree.Node, logicalMap map[string]string) {
	switch node.Tag {
	case "members", "interfaces":
		// Space or comma separated lists like "lan opt1 opt2".
		if rewritten := rewriteLogicalTokens(node.Text, logicalMap); rewritten != node.Text {
			node.Text = rewritten
		}
	case "interface":
		if mapped, ok := logicalMap[strings.TrimSpace(node.Text)]; ok {
			node.Text = mapped
		}
	}
	for _, child := range node.Children {
		rewriteLogicalNode(child, logicalMap)
	}
}

// rewriteLogicalTokens replaces mapped names in a delimited token
// list, preserving the original delimiters.
func rewriteLogicalTokens(input string, logicalMap map[string]string) string {
	var out strings.Builder
	out.Grow(len(input))
	var token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		if mapped, ok := logicalMap[token.String()]; ok {
			out.WriteString(mapped)
		} else {
			out.WriteString(token.String())
		}
		token.Reset()
	}
	for _, ch := range input {
		if isRefDelim(ch) {
			flush()
			out.WriteRune(ch)
		} else {
			token.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}
