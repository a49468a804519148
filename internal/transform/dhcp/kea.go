package dhcp

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// MigrationSeverity grades migration findings.
type MigrationSeverity int

const (
	// SeverityError prevents migration of the affected item.
	SeverityError MigrationSeverity = iota
	// SeverityWarning is a non-fatal issue worth reviewing.
	SeverityWarning
)

// MigrationWarning is one issue encountered during migration.
type MigrationWarning struct {
	Message  string
	Severity MigrationSeverity
}

// KeaMigrationStats records what an ISC to Kea migration did.
type KeaMigrationStats struct {
	ReservationsAddedV4           int
	ReservationsAddedV6           int
	ReservationsSkippedConflictV4 int
	ReservationsSkippedConflictV6 int
	SubnetsAddedV4                int
	SubnetsAddedV6                int
	OptionsAppliedV4              int
	OptionsAppliedV6              int
	Warnings                      []MigrationWarning
	// Interfaces whose DHCPv6 config stayed in the legacy section
	// because no IPv6 prefix could be determined for them.
	PreservedDHCPv6Ifaces []string
}

// MigrateISCToKea rewrites ISC DHCP configuration from the source into
// the Kea layout under the output's OPNsense.Kea subtree.
//
// For each family it extracts static mappings, dynamic ranges,
// interface networks, and options, creates one subnet per demanding
// interface (reusing subnets whose CIDR already exists), then applies
// pools, reservations, and option data, and finally enables the family
// on the migrated interfaces. Subnet uuids are the deterministic
// migrated-subnet4-N / migrated-subnet6-N series so repeated runs
// produce identical output.
//
// A missing IPv4 network for a demanding interface is an error. The
// same situation on IPv6 only yields a warning: the legacy section is
// preserved for that interface and recorded in the stats, since
// track6/dhcp6 uplinks legitimately have no static prefix.
func MigrateISCToKea(out, source *xmltree.Node) (*KeaMigrationStats, error) {
	stats := &KeaMigrationStats{}
	nextID := 1

	kea := out.EnsurePath("OPNsense", "Kea")

	// IPv4.
	mapsV4 := extractStaticMapsV4(source)
	rangesV4 := extractRangesV4(source)
	ifaceNetworksV4 := extractIfaceNetworksV4(source)
	optsV4 := extractOptionsV4(source)
	demandedV4 := demandedIfacesV4(mapsV4, rangesV4, optsV4)
	subnetUUIDByIfaceV4 := make(map[string]string)

	dhcp4 := kea.EnsureChild("dhcp4")
	subnets4 := dhcp4.EnsureChild("subnets")
	dhcp4.EnsureChild("reservations")
	dhcp4.EnsureChild("general")

	for _, iface := range demandedV4 {
		network, ok := ifaceNetworksV4[iface]
		if !ok {
			return stats, fmt.Errorf("cannot migrate DHCPv4 interface %q: missing interfaces.%s.ipaddr/subnet", iface, iface)
		}
		cidr := network.cidr()
		if uuid, ok := findSubnetUUIDByCIDR(subnets4, "subnet4", cidr); ok {
			subnetUUIDByIfaceV4[iface] = uuid
			continue
		}

		uuid := fmt.Sprintf("migrated-subnet4-%d", nextID)
		nextID++
		subnet := xmltree.New("subnet4")
		subnet.SetAttr("uuid", uuid)
		subnet.Append(xmltree.NewText("subnet", cidr))
		subnet.Append(xmltree.NewText("option_data_autocollect", "1"))
		pushOptionDataV4Defaults(subnet)
		subnet.Append(xmltree.NewText("match-client-id", "1"))
		if pools := joinRangePools(rangesV4[iface]); pools != "" {
			subnet.Append(xmltree.NewText("pools", pools))
		}
		subnets4.Append(subnet)
		subnetUUIDByIfaceV4[iface] = uuid
		stats.SubnetsAddedV4++
	}

	applied4, err := applyOptionsV4ToSubnets(dhcp4, subnetUUIDByIfaceV4, optsV4)
	if err != nil {
		return stats, err
	}
	stats.OptionsAppliedV4 += applied4

	added4, skipped4, err := applyReservationsV4(dhcp4, mapsV4, subnetUUIDByIfaceV4)
	if err != nil {
		return stats, err
	}
	stats.ReservationsAddedV4 += added4
	stats.ReservationsSkippedConflictV4 += skipped4

	if len(subnetUUIDByIfaceV4) > 0 || stats.ReservationsAddedV4 > 0 {
		enableFamilyInterfaces(dhcp4.EnsureChild("general"), subnetUUIDByIfaceV4)
	}

	// IPv6.
	mapsV6 := extractStaticMapsV6(source)
	rangesV6 := extractRangesV6(source)
	ifaceNetworksV6 := extractIfaceNetworksV6(source)
	optsV6 := extractOptionsV6(source)
	prefixIntent := collectPrefixRangeIntent(source)
	demandedV6 := demandedIfacesV6(mapsV6, rangesV6, optsV6, prefixIntent)
	subnetUUIDByIfaceV6 := make(map[string]string)

	dhcp6 := kea.EnsureChild("dhcp6")
	subnets6 := dhcp6.EnsureChild("subnets")
	dhcp6.EnsureChild("reservations")
	dhcp6.EnsureChild("general")

	for _, iface := range demandedV6 {
		network, ok := ifaceNetworksV6[iface]
		if !ok {
			reason := v6ReadinessReason(false, prefixIntent[iface])
			stats.Warnings = append(stats.Warnings, MigrationWarning{
				Message: fmt.Sprintf(
					"DHCPv6 range on %s but unable to determine IPv6 prefix (%s); preserving legacy block; no Kea dhcp6 for %s.",
					iface, reason, iface),
				Severity: SeverityWarning,
			})
			stats.PreservedDHCPv6Ifaces = append(stats.PreservedDHCPv6Ifaces, iface)
			continue
		}
		cidr := network.cidr()
		if uuid, ok := findSubnetUUIDByCIDR(subnets6, "subnet6", cidr); ok {
			subnetUUIDByIfaceV6[iface] = uuid
			continue
		}

		uuid := fmt.Sprintf("migrated-subnet6-%d", nextID)
		nextID++
		subnet := xmltree.New("subnet6")
		subnet.SetAttr("uuid", uuid)
		subnet.Append(xmltree.NewText("subnet", cidr))
		pushOptionDataV6Defaults(subnet)
		if pools := joinRangePoolsV6(rangesV6[iface], network); pools != "" {
			subnet.Append(xmltree.NewText("pools", pools))
		}
		subnet.Append(xmltree.NewText("interface", iface))
		subnet.Append(xmltree.NewText("description", ""))
		subnets6.Append(subnet)
		subnetUUIDByIfaceV6[iface] = uuid
		stats.SubnetsAddedV6++
	}

	applied6, err := applyOptionsV6ToSubnets(dhcp6, subnetUUIDByIfaceV6, optsV6)
	if err != nil {
		return stats, err
	}
	stats.OptionsAppliedV6 += applied6

	added6, skipped6, err := applyReservationsV6(dhcp6, mapsV6, subnetUUIDByIfaceV6, ifaceNetworksV6)
	if err != nil {
		return stats, err
	}
	stats.ReservationsAddedV6 += added6
	stats.ReservationsSkippedConflictV6 += skipped6

	if len(subnetUUIDByIfaceV6) > 0 || stats.ReservationsAddedV6 > 0 {
		enableFamilyInterfaces(dhcp6.EnsureChild("general"), subnetUUIDByIfaceV6)
	}

	return stats, nil
}

func joinRangePools(ranges [][2]string) string {
	pools := make([]string, 0, len(ranges))
	for _, r := range ranges {
		pools = append(pools, r[0]+"-"+r[1])
	}
	return strings.Join(pools, ",")
}

// joinRangePoolsV6 expands abbreviated range bounds against the subnet
// prefix before joining.
func joinRangePoolsV6(ranges [][2]string, network ifaceNetwork) string {
	pools := make([]string, 0, len(ranges))
	for _, r := range ranges {
		from, to := r[0], r[1]
		if expanded, ok := expandIPv6InPrefix(from, network.network, network.prefix); ok {
			from = expanded
		}
		if expanded, ok := expandIPv6InPrefix(to, network.network, network.prefix); ok {
			to = expanded
		}
		pools = append(pools, from+"-"+to)
	}
	return strings.Join(pools, ",")
}

func v6ReadinessReason(hasStatic, hasPD bool) string {
	var missing []string
	if !hasStatic {
		missing = append(missing, "no static IPv6")
	}
	if !hasPD {
		missing = append(missing, "no PD indicators")
	}
	if len(missing) == 0 {
		missing = append(missing, "unknown prefix source")
	}
	return strings.Join(missing, " or ")
}
