package transform

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// syncedTopLevelSections are the top-level config sections copied
// wholesale from the source into the output. The conversion starts from
// a destination baseline, and for these sections the source's version
// must win over the baseline's defaults.
var syncedTopLevelSections = []string{
	"version",    // config schema version
	"system",     // system identity, users, DNS, NTP
	"interfaces", // interface assignments and settings
	"filter",     // firewall rules
	"nat",        // port forwards, outbound NAT, 1:1 NAT
	"dhcpd",      // DHCPv4 server config
	"dhcpdv6",    // DHCPv6 server config, OPNsense naming
	"dhcpd6",     // DHCPv6 server config, pfSense naming
	"dhcrelay",   // DHCP relay, IPv4
	"dhcrelay6",  // DHCP relay IPv6, OPNsense naming
	"dhcp6relay", // DHCP relay IPv6, pfSense naming
	"snmpd",      // SNMP daemon config
	"syslog",     // syslog config
	"rrd",        // RRD graphs config
	"gateways",   // gateway definitions for multi-WAN
}

// SyncSharedTopLevelSections replaces selected shared top-level
// sections in out with the versions from source. Sections present in
// the source replace or add the section in out; sections absent from
// the source are removed from out so baseline defaults cannot leak
// into the converted output.
func SyncSharedTopLevelSections(out, source *xmltree.Node) {
	for _, tag := range syncedTopLevelSections {
		if src := source.Child(tag); src != nil {
			upsertTopChild(out, src.Clone())
		} else {
			out.RemoveChildren(tag)
		}
	}
}

func upsertTopChild(root *xmltree.Node, node *xmltree.Node) {
	for i, child := range root.Children {
		if child.Tag == node.Tag {
			root.Children[i] = node
			return
		}
	}
	root.Append(node)
}
