package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// NormalizeIfGroupsForOpnsense adjusts interface groups for OPNsense
// output. Auto-generated plugin groups (WireGuard, Tailscale) are
// pruned since OPNsense recreates them itself and importing them makes
// duplicates, and the WireGuard group token is rewritten to OPNsense's
// wireGuard casing everywhere it appears.
func NormalizeIfGroupsForOpnsense(root *xmltree.Node) {
	pruneAutogenIfGroups(root)
	rewriteGroupTokens(root, "WireGuard", "wireGuard")
}

// NormalizeIfGroupsForPfSense rewrites the wireGuard group token back
// to pfSense's WireGuard casing. pfSense does not auto-generate these
// groups, so no pruning happens.
func NormalizeIfGroupsForPfSense(root *xmltree.Node) {
	rewriteGroupTokens(root, "wireGuard", "WireGuard")
}

// pruneAutogenIfGroups drops ifgroup entries that plugins created.
// Those are recognizable by their "DO NOT EDIT/DELETE!" description
// combined with a plugin group name; user-created groups survive.
func pruneAutogenIfGroups(root *xmltree.Node) {
	ifgroups := root.Child("ifgroups")
	if ifgroups == nil {
		return
	}
	kept := ifgroups.Children[:0]
	for _, entry := range ifgroups.Children {
		if entry.Tag == "ifgroupentry" && isAutogenPluginGroup(entry) {
			continue
		}
		kept = append(kept, entry)
	}
	ifgroups.Children = kept
}

func isAutogenPluginGroup(entry *xmltree.Node) bool {
	ifname := strings.ToLower(entry.ChildText("ifname"))
	descr := strings.ToLower(entry.ChildText("descr"))
	return strings.Contains(descr, "do not edit/delete") &&
		(ifname == "wireguard" || ifname == "tailscale")
}

// rewriteGroupTokens replaces exact token matches in interface,
// members, and interfaces elements throughout the tree. Token-level
// matching avoids false positives like WireGuard_backup.
func rewriteGroupTokens(node *xmltree.Node, from, to string) {
	switch node.Tag {
	case "interface", "members", "interfaces":
		if rewritten := rewriteExactTokens(node.Text, from, to); rewritten != node.Text {
			node.Text = rewritten
		}
	}
	for _, child := range node.Children {
		rewriteGroupTokens(child, from, to)
	}
}

func rewriteExactTokens(input, from, to string) string {
	var out strings.Builder
	out.Grow(len(input))
	var token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		if token.String() == from {
			out.WriteString(to)
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
