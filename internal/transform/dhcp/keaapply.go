package dhcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// pushOptionDataV4Defaults seeds a subnet4 with the empty option-data
// placeholders the OPNsense UI expects to be present.
func pushOptionDataV4Defaults(subnet *xmltree.Node) {
	optionData := subnet.EnsureChild("option_data")
	for _, key := range []string{
		"domain_name_servers", "domain_search", "routers", "static_routes",
		"classless_static_route", "domain_name", "ntp_servers", "time_servers",
		"tftp_server_name", "boot_file_name", "v6_only_preferred", "v4_dnr",
	} {
		optionData.SetChildText(key, "")
	}
}

func pushOptionDataV6Defaults(subnet *xmltree.Node) {
	optionData := subnet.EnsureChild("option_data")
	for _, key := range []string{"dns_servers", "domain_search", "v6_dnr"} {
		optionData.SetChildText(key, "")
	}
}

// findSubnetUUIDByCIDR locates an existing subnet with a matching
// <subnet> value and returns its uuid attribute.
func findSubnetUUIDByCIDR(subnets *xmltree.Node, tag, cidr string) (string, bool) {
	for _, subnet := range subnets.All(tag) {
		if subnet.ChildText("subnet") != cidr {
			continue
		}
		if uuid, ok := subnet.Attr("uuid"); ok {
			return uuid, true
		}
	}
	return "", false
}

func findSubnetByUUID(subnets *xmltree.Node, tag, uuid string) *xmltree.Node {
	for _, subnet := range subnets.All(tag) {
		if v, ok := subnet.Attr("uuid"); ok && v == uuid {
			return subnet
		}
	}
	return nil
}

// applyReservationsV4 writes reservation entries under
// dhcp4.reservations for each extracted static mapping, linked to its
// interface's subnet by uuid. Addresses already reserved are skipped
// as conflicts rather than duplicated.
func applyReservationsV4(dhcp4 *xmltree.Node, maps []staticMapV4, subnetUUIDByIface map[string]string) (added, skipped int, err error) {
	reservations := dhcp4.EnsureChild("reservations")
	existingIPs := make(map[string]bool)
	for _, node := range reservations.All("reservation") {
		if ip := node.ChildText("ip_address"); ip != "" {
			existingIPs[ip] = true
		}
	}
	for _, m := range maps {
		if existingIPs[m.ipaddr] {
			skipped++
			continue
		}
		subnetID, ok := subnetUUIDByIface[m.iface]
		if !ok {
			return added, skipped, fmt.Errorf("cannot migrate DHCPv4 reservation %s (iface=%s): no matching Kea subnet", m.ipaddr, m.iface)
		}
		res := xmltree.New("reservation")
		res.Append(xmltree.NewText("hw_address", m.mac))
		res.Append(xmltree.NewText("ip_address", m.ipaddr))
		res.Append(xmltree.NewText("subnet", subnetID))
		if m.hostname != "" {
			res.Append(xmltree.NewText("hostname", m.hostname))
		}
		if m.cid != "" {
			res.Append(xmltree.NewText("client_id", m.cid))
		}
		if m.descr != "" {
			res.Append(xmltree.NewText("description", m.descr))
		}
		reservations.Append(res)
		existingIPs[m.ipaddr] = true
		added++
	}
	return added, skipped, nil
}

// applyReservationsV6 is the IPv6 counterpart. Conflicts are checked
// on both the address and the DUID, and abbreviated addresses are
// expanded against the interface's prefix before storing.
func applyReservationsV6(dhcp6 *xmltree.Node, maps []staticMapV6, subnetUUIDByIface map[string]string, ifaceNetworks map[string]ifaceNetwork) (added, skipped int, err error) {
	reservations := dhcp6.EnsureChild("reservations")
	existingIPs := make(map[string]bool)
	existingDUIDs := make(map[string]bool)
	for _, node := range reservations.All("reservation") {
		if ip := node.ChildText("ip_address"); ip != "" {
			existingIPs[ip] = true
		}
		if duid := node.ChildText("duid"); duid != "" {
			existingDUIDs[duid] = true
		}
	}
	for _, m := range maps {
		if existingIPs[m.ipaddr] || existingDUIDs[m.duid] {
			skipped++
			continue
		}
		subnetID, ok := subnetUUIDByIface[m.iface]
		if !ok {
			return added, skipped, fmt.Errorf("cannot migrate DHCPv6 reservation %s (iface=%s): no matching Kea subnet", m.ipaddr, m.iface)
		}
		ipValue := m.ipaddr
		if network, ok := ifaceNetworks[m.iface]; ok {
			if expanded, ok := expandIPv6InPrefix(m.ipaddr, network.network, network.prefix); ok {
				ipValue = expanded
			}
		}
		res := xmltree.New("reservation")
		res.Append(xmltree.NewText("duid", m.duid))
		res.Append(xmltree.NewText("ip_address", ipValue))
		res.Append(xmltree.NewText("subnet", subnetID))
		if m.hostname != "" {
			res.Append(xmltree.NewText("hostname", m.hostname))
		}
		if m.descr != "" {
			res.Append(xmltree.NewText("description", m.descr))
		}
		if m.domainSearch != "" {
			res.Append(xmltree.NewText("domain_search", normalizeDomainSearch(m.domainSearch)))
		}
		reservations.Append(res)
		existingIPs[ipValue] = true
		existingDUIDs[m.duid] = true
		added++
	}
	return added, skipped, nil
}

// applyOptionsV4ToSubnets fills each migrated subnet's option_data
// from the ISC per-interface options. Interfaces are visited in sorted
// order so output stays deterministic.
func applyOptionsV4ToSubnets(dhcp4 *xmltree.Node, subnetUUIDByIface map[string]string, optsByIface map[string]optsV4) (int, error) {
	applied := 0
	subnets := dhcp4.EnsureChild("subnets")
	for _, iface := range sortedOptKeysV4(optsByIface) {
		opts := optsByIface[iface]
		uuid, ok := subnetUUIDByIface[iface]
		if !ok {
			return applied, fmt.Errorf("cannot apply DHCPv4 options for iface %q: no matching Kea subnet", iface)
		}
		subnet := findSubnetByUUID(subnets, "subnet4", uuid)
		if subnet == nil {
			return applied, fmt.Errorf("cannot apply DHCPv4 options for iface %q: Kea subnet UUID %q missing", iface, uuid)
		}
		optionData := subnet.EnsureChild("option_data")
		if len(opts.dnsServers) > 0 {
			optionData.SetChildText("domain_name_servers", strings.Join(opts.dnsServers, ","))
		}
		if opts.routers != "" {
			optionData.SetChildText("routers", opts.routers)
		}
		if opts.domainName != "" {
			optionData.SetChildText("domain_name", opts.domainName)
		}
		if opts.domainSearch != "" {
			optionData.SetChildText("domain_search", opts.domainSearch)
		}
		if len(opts.ntpServers) > 0 {
			optionData.SetChildText("ntp_servers", strings.Join(opts.ntpServers, ","))
		}
		applied++
	}
	return applied, nil
}

func applyOptionsV6ToSubnets(dhcp6 *xmltree.Node, subnetUUIDByIface map[string]string, optsByIface map[string]optsV6) (int, error) {
	applied := 0
	subnets := dhcp6.EnsureChild("subnets")
	for _, iface := range sortedOptKeysV6(optsByIface) {
		opts := optsByIface[iface]
		uuid, ok := subnetUUIDByIface[iface]
		if !ok {
			return applied, fmt.Errorf("cannot apply DHCPv6 options for iface %q: no matching Kea subnet", iface)
		}
		subnet := findSubnetByUUID(subnets, "subnet6", uuid)
		if subnet == nil {
			return applied, fmt.Errorf("cannot apply DHCPv6 options for iface %q: Kea subnet UUID %q missing", iface, uuid)
		}
		optionData := subnet.EnsureChild("option_data")
		if len(opts.dnsServers) > 0 {
			optionData.SetChildText("dns_servers", strings.Join(opts.dnsServers, ","))
		}
		if opts.domainSearch != "" {
			optionData.SetChildText("domain_search", opts.domainSearch)
		}
		applied++
	}
	return applied, nil
}

// enableFamilyInterfaces turns the family on and records the migrated
// interfaces as a sorted comma separated list.
func enableFamilyInterfaces(general *xmltree.Node, ifaceMap map[string]string) {
	general.SetChildText("enabled", "1")
	ifaces := make([]string, 0, len(ifaceMap))
	for k := range ifaceMap {
		ifaces = append(ifaces, k)
	}
	sort.Strings(ifaces)
	if len(ifaces) > 0 {
		general.SetChildText("interfaces", strings.Join(ifaces, ","))
	}
}

func sortedOptKeysV4(m map[string]optsV4) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedOptKeysV6(m map[string]optsV6) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
