package transform

import (
	"sort"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// PruneIncompatibleSections drops imported top-level sections the
// target platform cannot use. A section survives if the target
// baseline already has it or it is on the platform's allow list;
// everything else (pfSense installedpackages on an OPNsense target,
// the OPNsense container on a pfSense target, package leftovers) goes.
// Returns the sorted, deduplicated removed tags.
func PruneIncompatibleSections(out *xmltree.Node, targetPlatform string, targetBaseline *xmltree.Node) []string {
	baseline := make(map[string]bool, len(targetBaseline.Children))
	for _, c := range targetBaseline.Children {
		baseline[c.Tag] = true
	}
	allowed := allowedSections(targetPlatform)

	var removed []string
	kept := out.Children[:0]
	for _, child := range out.Children {
		if baseline[child.Tag] || allowed[child.Tag] {
			kept = append(kept, child)
			continue
		}
		removed = append(removed, child.Tag)
	}
	out.Children = kept

	sort.Strings(removed)
	return dedupSorted(removed)
}

var commonAllowedSections = []string{
	"version", "system", "interfaces", "filter", "nat",
	"dhcpd", "dhcpdv6", "dhcrelay", "dhcrelay6", "dhcp6relay",
	"vlans", "openvpn", "ipsec", "cert", "ca", "ifgroups", "bridges",
	"staticroutes", "gateways", "hasync", "revision",
}

func allowedSections(platform string) map[string]bool {
	out := make(map[string]bool)
	switch platform {
	case "opnsense":
		out["OPNsense"] = true
	case "pfsense":
		out["aliases"] = true
		out["installedpackages"] = true
		out["dhcpbackend"] = true
	default:
		return out
	}
	for _, tag := range commonAllowedSections {
		out[tag] = true
	}
	return out
}
