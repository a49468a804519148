package convert

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Summary counts the major subsystems of an output tree.
type Summary struct {
	Interfaces int `json:"interfaces"`
	Bridges    int `json:"bridges"`
	Aliases    int `json:"aliases"`
	Rules      int `json:"rules"`
	Routes     int `json:"routes"`
	VPNs       int `json:"vpns"`
}

// Summarize counts the output tree's subsystems for the one-line
// conversion report.
func Summarize(root *xmltree.Node) Summary {
	return Summary{
		Interfaces: countChildren(root, "interfaces"),
		Bridges:    countTagged(root.Child("bridges"), "bridged"),
		Aliases:    countAliases(root),
		Rules:      countTagged(root.Child("filter"), "rule"),
		Routes:     countChildren(root, "staticroutes"),
		VPNs:       countVPNs(root),
	}
}

// Render formats a summary the way the CLI prints it.
func (s Summary) Render() string {
	return fmt.Sprintf(
		"convert_summary interfaces=%d bridges=%d aliases=%d rules=%d routes=%d vpns=%d",
		s.Interfaces, s.Bridges, s.Aliases, s.Rules, s.Routes, s.VPNs)
}

func countChildren(root *xmltree.Node, tag string) int {
	if section := root.Child(tag); section != nil {
		return len(section.Children)
	}
	return 0
}

func countTagged(section *xmltree.Node, tag string) int {
	if section == nil {
		return 0
	}
	count := 0
	for _, c := range section.Children {
		if c.Tag == tag {
			count++
		}
	}
	return count
}

// countAliases takes the larger of the flat pfSense count and the
// nested OPNsense count; either dialect stores aliases in only one of
// the two places.
func countAliases(root *xmltree.Node) int {
	top := countTagged(root.Child("aliases"), "alias")
	nested := countTagged(root.Find("OPNsense", "Firewall", "Alias", "aliases"), "alias")
	if nested > top {
		return nested
	}
	return top
}

func countVPNs(root *xmltree.Node) int {
	count := 0
	if openvpn := root.Child("openvpn"); openvpn != nil {
		for _, c := range openvpn.Children {
			if c.Tag == "openvpn-server" || c.Tag == "openvpn-client" {
				count++
			}
		}
	}
	for _, present := range []bool{
		root.Child("ipsec") != nil,
		root.Find("OPNsense", "IPsec") != nil,
		root.Child("wireguard") != nil,
		root.Find("OPNsense", "wireguard") != nil,
		root.Child("tailscale") != nil,
		root.Child("tailscaleauth") != nil,
		root.Find("installedpackages", "tailscale") != nil,
		root.Find("OPNsense", "tailscale") != nil,
	} {
		if present {
			count++
		}
	}
	return count
}
