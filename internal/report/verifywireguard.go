package report

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// wireGuardFindings warns when WireGuard is enabled but no interface
// assignment backs it.
func wireGuardFindings(root *xmltree.Node) []Finding {
	if !hasWireGuardConfig(root) || !wireGuardEnabled(root) {
		return nil
	}
	if hasWireGuardInterfaceAssignment(root) {
		return nil
	}
	return []Finding{warnFinding("wireguard_missing_interface_assignment",
		"WireGuard appears enabled but no wireguard/tun_wg* interface assignment was found")}
}

func hasWireGuardConfig(root *xmltree.Node) bool {
	if root.Child("wireguard") != nil {
		return true
	}
	opn := root.Child("OPNsense")
	return opn != nil && opn.Child("wireguard") != nil
}

func wireGuardEnabled(root *xmltree.Node) bool {
	var roots []*xmltree.Node
	if top := root.Child("wireguard"); top != nil {
		roots = append(roots, top)
	}
	if opn := root.Child("OPNsense"); opn != nil {
		if nested := opn.Child("wireguard"); nested != nil {
			roots = append(roots, nested)
		}
	}
	for _, node := range roots {
		if hasTruthyEnabled(node) {
			return true
		}
	}
	return false
}

func hasTruthyEnabled(node *xmltree.Node) bool {
	if strings.EqualFold(node.Tag, "enabled") && detect.Truthy(node.Text) {
		return true
	}
	for _, child := range node.Children {
		if hasTruthyEnabled(child) {
			return true
		}
	}
	return false
}

func hasWireGuardInterfaceAssignment(root *xmltree.Node) bool {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return false
	}
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") {
			return true
		}
		if strings.Contains(strings.ToLower(iface.ChildText("if")), "wg") {
			return true
		}
	}
	return false
}
