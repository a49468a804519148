package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// PrunePfBlockerFloatingRules removes pfBlockerNG floating firewall
// rules when producing OPNsense output. The package does not exist on
// OPNsense, so its floating rules reference aliases (pfB_Top_v4,
// pfB_Top_v6, pfB_*) that will never resolve there and would break
// the ruleset. Regular rules and separators stay.
func PrunePfBlockerFloatingRules(root *xmltree.Node) {
	filter := root.Child("filter")
	if filter == nil {
		return
	}
	kept := filter.Children[:0]
	for _, child := range filter.Children {
		if child.Tag == "rule" && isPfBlockerFloatingRule(child) {
			continue
		}
		kept = append(kept, child)
	}
	filter.Children = kept
}

// isPfBlockerFloatingRule matches rules that are floating and carry a
// pfBlocker marker anywhere in their subtree. Markers can appear in
// source or destination addresses, descriptions, or custom fields.
func isPfBlockerFloatingRule(rule *xmltree.Node) bool {
	if !strings.EqualFold(rule.ChildText("floating"), "yes") {
		return false
	}
	return subtreeHasPfBlockerMarker(rule)
}

func subtreeHasPfBlockerMarker(node *xmltree.Node) bool {
	if isPfBlockerMarker(node.Text) {
		return true
	}
	for _, child := range node.Children {
		if subtreeHasPfBlockerMarker(child) {
			return true
		}
	}
	return false
}

func isPfBlockerMarker(s string) bool {
	t := strings.TrimSpace(s)
	return strings.EqualFold(t, "pfB_Top_v4") ||
		strings.EqualFold(t, "pfB_Top_v6") ||
		strings.HasPrefix(strings.ToLower(t), "pfb_")
}
