package transform

import (
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// PruneMissingInterfaces removes interface entries from the output
// that have no matching tag in the target baseline and are not backed
// by a virtual device. Source configs often reference optional ports
// bound to NICs the target box does not have; importing those would
// create broken assignments. Virtual interfaces (VLANs, tunnels,
// bridges, WireGuard) survive because they need no physical port.
//
// Returns the sorted, deduplicated tags that were removed.
func PruneMissingInterfaces(out, targetBaseline *xmltree.Node) []string {
	outIfaces := out.Child("interfaces")
	targetIfaces := targetBaseline.Child("interfaces")
	if outIfaces == nil || targetIfaces == nil {
		return nil
	}

	allowed := make(map[string]bool, len(targetIfaces.Children))
	for _, c := range targetIfaces.Children {
		allowed[c.Tag] = true
	}

	var removed []string
	kept := outIfaces.Children[:0]
	for _, iface := range outIfaces.Children {
		if allowed[iface.Tag] || isVirtualBackedInterface(iface) {
			kept = append(kept, iface)
			continue
		}
		removed = append(removed, iface.Tag)
	}
	outIfaces.Children = kept

	sort.Strings(removed)
	return dedupSorted(removed)
}

// isVirtualBackedInterface reports whether an interface entry is
// backed by a virtual device rather than a physical NIC. Either the
// tag itself is wireguard, or the <if> device name matches a known
// virtual pattern.
func isVirtualBackedInterface(iface *xmltree.Node) bool {
	if strings.EqualFold(iface.Tag, "wireguard") {
		return true
	}
	if name, ok := iface.PathText("if"); ok {
		return isVirtualIfName(name)
	}
	return false
}

var virtualIfPrefixes = []string{
	"vlan", "bridge", "ovpns", "ovpnc", "openvpn", "wg", "tun_wg",
	"gif", "gre", "lagg", "tap", "tun", "enc", "ipsec", "lo",
}

// IsVirtualIfName reports whether a device name looks like a virtual
// or software interface. The compatibility preflight uses the same
// notion to let virtual-backed interfaces pass.
func IsVirtualIfName(name string) bool {
	return isVirtualIfName(name)
}

// isVirtualIfName reports whether a device name looks like a virtual
// or software interface. Dotted names are VLAN sub-interfaces and a
// "wg" substring indicates WireGuard.
func isVirtualIfName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(lower, ".") || strings.Contains(lower, "wg") {
		return true
	}
	for _, prefix := range virtualIfPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func dedupSorted(items []string) []string {
	if len(items) < 2 {
		return items
	}
	kept := items[:1]
	for _, v := range items[1:] {
		if v != kept[len(kept)-1] {
			kept = append(kept, v)
		}
	}
	return kept
}
