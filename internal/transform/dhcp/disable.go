package dhcp

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// DisableAll shuts down every DHCP backend in a generated config tree.
// Opt-in only, for safe restore and testing workflows where the target
// box must not start serving leases from an imported config.
func DisableAll(root *xmltree.Node) {
	disableLegacySection(root, "dhcpd")
	disableLegacySection(root, "dhcpdv6")
	disableLegacySection(root, "dhcpd6")
	disableOpnsenseKeaServices(root)
	disableKeaContainer(root, "kea")
	disableKeaContainer(root, "Kea")
}

// disableLegacySection flips every interface in an ISC section to the
// off state. All three flag spellings are written since different
// versions honor different ones.
func disableLegacySection(root *xmltree.Node, section string) {
	node := root.Child(section)
	if node == nil {
		return
	}
	for _, iface := range node.Children {
		if strings.HasPrefix(iface.Tag, "#") {
			continue
		}
		iface.SetChildText("enable", "0")
		iface.SetChildText("enabled", "0")
		iface.SetChildText("disabled", "1")
	}
}

func disableOpnsenseKeaServices(root *xmltree.Node) {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return
	}
	for _, service := range []string{"dhcp4", "dhcp6", "ctrl_agent"} {
		if serviceNode := kea.Child(service); serviceNode != nil {
			serviceNode.EnsureChild("general").SetChildText("enabled", "0")
		}
	}
	disableEnabledFlags(kea)
}

func disableKeaContainer(root *xmltree.Node, tag string) {
	if kea := root.Child(tag); kea != nil {
		disableEnabledFlags(kea)
	}
}

// disableEnabledFlags recursively flips every boolean flag in the
// subtree to its off state.
func disableEnabledFlags(node *xmltree.Node) {
	switch node.Tag {
	case "enabled", "enable":
		node.Text = "0"
	case "disabled":
		node.Text = "1"
	}
	for _, child := range node.Children {
		disableEnabledFlags(child)
	}
}
