package transform

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// DHCP relay conversion. Both platforms keep legacy <dhcrelay> and
// <dhcrelay6>/<dhcp6relay> sections; OPNsense additionally models
// relays through the os-dhcrelay plugin under OPNsense.DHCRelay, with
// one destinations entry per server and one relays entry per
// interface.

// relayTags are the legacy relay section names. dhcrelay6 and
// dhcp6relay are modern and legacy spellings of the IPv6 section.
var relayTags = []string{"dhcrelay", "dhcrelay6", "dhcp6relay"}

// DHCPRelayToOpnsense syncs the legacy relay sections from the source
// and projects them into the OPNsense DHCRelay plugin structure.
func DHCPRelayToOpnsense(out, source, baseline *xmltree.Node) {
	syncRelaySections(out, source)
	mapRelayToOpnsensePlugin(out, source)
}

// DHCPRelayToPfSense syncs the legacy relay sections and flattens any
// OPNsense DHCRelay plugin config back into them.
func DHCPRelayToPfSense(out, source, baseline *xmltree.Node) {
	syncRelaySections(out, source)
	mapOpnsensePluginToRelay(out, source)
}

// syncRelaySections makes the output's legacy relay sections exactly
// match the source's, removing leftovers from the target template.
func syncRelaySections(out, source *xmltree.Node) {
	for _, tag := range relayTags {
		out.RemoveChildren(tag)
	}
	for _, child := range source.Children {
		for _, tag := range relayTags {
			if child.Tag == tag {
				out.Append(child.Clone())
				break
			}
		}
	}
}

func relaySyntheticUUID(seed int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012x", seed)
}

// mapRelayToOpnsensePlugin builds the OPNsense.DHCRelay plugin section
// from the source's legacy relay sections. Each relay family with a
// server and at least one interface yields a destinations entry plus
// one relays entry per interface, all referencing the destination by
// its synthetic UUID. Sources without any relay sections leave the
// output's plugin config untouched.
func mapRelayToOpnsensePlugin(out, source *xmltree.Node) {
	type relayEntry struct {
		node   *xmltree.Node
		family string
	}
	var entries []relayEntry
	if relay4 := source.Child("dhcrelay"); relay4 != nil {
		entries = append(entries, relayEntry{relay4, "v4"})
	}
	relay6 := source.Child("dhcp6relay")
	if relay6 == nil {
		relay6 = source.Child("dhcrelay6")
	}
	if relay6 != nil {
		entries = append(entries, relayEntry{relay6, "v6"})
	}
	if len(entries) == 0 {
		return
	}

	opn := out.EnsureChild("OPNsense")
	opn.RemoveChildren("DHCRelay")

	dhc := xmltree.New("DHCRelay")
	dhc.SetAttr("version", "1.0.1")
	dhc.SetAttr("description", "DHCRelay configuration")

	seed := 1
	for _, entry := range entries {
		interfaces := splitCSV(entry.node.ChildText("interface"))
		server := entry.node.ChildText("server")
		// pfSense marks relays enabled by the mere presence of <enable>.
		enabled := boolTo01(entry.node.HasChild("enable"))
		if server == "" || len(interfaces) == 0 {
			continue
		}

		destUUID := relaySyntheticUUID(seed)
		seed++

		dest := xmltree.New("destinations")
		dest.SetAttr("uuid", destUUID)
		dest.Append(xmltree.NewText("name", "relay_destination_"+entry.family))
		dest.Append(xmltree.NewText("server", server))
		dhc.Append(dest)

		for _, iface := range interfaces {
			item := xmltree.New("relays")
			item.SetAttr("uuid", relaySyntheticUUID(seed+100))
			seed++
			item.Append(xmltree.NewText("enabled", enabled))
			item.Append(xmltree.NewText("interface", iface))
			item.Append(xmltree.NewText("destination", destUUID))
			item.Append(xmltree.NewText("agent_info", "0"))
			item.Append(xmltree.NewText("carp_depend_on", ""))
			dhc.Append(item)
		}
	}

	opn.Append(dhc)
}

// mapOpnsensePluginToRelay flattens OPNsense.DHCRelay plugin config to
// the legacy sections. Relays resolve their destination server through
// the UUID reference; servers with a colon are treated as IPv6 and
// aggregated into <dhcp6relay>, everything else into <dhcrelay>.
func mapOpnsensePluginToRelay(out, source *xmltree.Node) {
	dhc := source.Find("OPNsense", "DHCRelay")
	if dhc == nil {
		return
	}

	destinations := dhc.All("destinations")
	serverFor := func(uuid string) string {
		for _, d := range destinations {
			if v, ok := d.Attr("uuid"); ok && v == uuid {
				return strings.TrimSpace(d.ChildText("server"))
			}
		}
		return ""
	}

	var ifacesV4, ifacesV6, serversV4, serversV6 []string
	enabledV4, enabledV6 := false, false

	for _, r := range dhc.All("relays") {
		iface := strings.TrimSpace(r.ChildText("interface"))
		if iface == "" {
			continue
		}
		destUUID := strings.TrimSpace(r.ChildText("destination"))
		if destUUID == "" {
			continue
		}
		server := serverFor(destUUID)
		if server == "" {
			continue
		}

		enabled := strings.TrimSpace(r.ChildText("enabled")) == "1"
		if strings.Contains(server, ":") {
			ifacesV6 = appendUnique(ifacesV6, iface)
			serversV6 = appendUnique(serversV6, server)
			enabledV6 = enabledV6 || enabled
		} else {
			ifacesV4 = appendUnique(ifacesV4, iface)
			serversV4 = appendUnique(serversV4, server)
			enabledV4 = enabledV4 || enabled
		}
	}

	for _, tag := range relayTags {
		out.RemoveChildren(tag)
	}

	if len(ifacesV4) > 0 || len(serversV4) > 0 {
		relay := xmltree.New("dhcrelay")
		if enabledV4 {
			relay.Append(xmltree.New("enable"))
		}
		relay.Append(xmltree.NewText("interface", strings.Join(ifacesV4, ",")))
		relay.Append(xmltree.NewText("server", strings.Join(serversV4, ",")))
		out.Append(relay)
	}

	if len(ifacesV6) > 0 || len(serversV6) > 0 {
		relay := xmltree.New("dhcp6relay")
		if enabledV6 {
			relay.Append(xmltree.New("enable"))
		}
		relay.Append(xmltree.NewText("interface", strings.Join(ifacesV6, ",")))
		relay.Append(xmltree.NewText("server", strings.Join(serversV6, ",")))
		out.Append(relay)
	}
}

func appendUnique(items []string, value string) []string {
	for _, v := range items {
		if v == value {
			return items
		}
	}
	return append(items, value)
}
