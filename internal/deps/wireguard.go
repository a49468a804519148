package deps

import (
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// WireGuardInventory records where WireGuard config lives in a tree and
// how many entries are enabled.
type WireGuardInventory struct {
	Configured     bool     `json:"configured"`
	EnabledEntries int      `json:"enabled_entries"`
	Paths          []string `json:"paths"`
}

// WireGuardReport pairs the inventories for two configs.
type WireGuardReport struct {
	Left  WireGuardInventory `json:"left"`
	Right WireGuardInventory `json:"right"`
}

// CompareWireGuard builds the inventory report for two configs.
func CompareWireGuard(left, right *xmltree.Node) WireGuardReport {
	return WireGuardReport{
		Left:  collectWireGuardInventory(left),
		Right: collectWireGuardInventory(right),
	}
}

func collectWireGuardInventory(root *xmltree.Node) WireGuardInventory {
	paths := findWireGuardPaths(root, root.Tag)
	sort.Strings(paths)

	enabled := 0
	for _, path := range paths {
		if node := xmltree.FindByPath(root, path); node != nil {
			enabled += countEnabledFlags(node)
		}
	}

	return WireGuardInventory{
		Configured:     len(paths) > 0,
		EnabledEntries: enabled,
		Paths:          paths,
	}
}

func findWireGuardPaths(node *xmltree.Node, path string) []string {
	var out []string
	if strings.EqualFold(node.Tag, "wireguard") {
		out = append(out, path)
	}
	for _, child := range node.Children {
		out = append(out, findWireGuardPaths(child, path+"."+child.Tag)...)
	}
	return out
}

func countEnabledFlags(node *xmltree.Node) int {
	count := 0
	if strings.EqualFold(node.Tag, "enabled") && detect.Truthy(node.Text) {
		count++
	}
	for _, child := range node.Children {
		count += countEnabledFlags(child)
	}
	return count
}
