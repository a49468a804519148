package convert

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/transform/dhcp"
)

// RenderMigrationSummary formats the outcome of an ISC to Kea
// migration as printable lines. Returns nil when there was no
// migration activity worth reporting.
func RenderMigrationSummary(stats *dhcp.KeaMigrationStats, finalBackend dhcp.EffectiveBackend, preserveLegacyIPv6 bool) []string {
	if stats == nil {
		return nil
	}
	hasV4 := stats.SubnetsAddedV4 > 0 || stats.ReservationsAddedV4 > 0 || stats.OptionsAppliedV4 > 0
	hasV6 := stats.SubnetsAddedV6 > 0 || stats.ReservationsAddedV6 > 0 || stats.OptionsAppliedV6 > 0
	if !hasV4 && !hasV6 && len(stats.PreservedDHCPv6Ifaces) == 0 {
		return nil
	}

	v4Status := "kea (no changes)"
	switch {
	case finalBackend == dhcp.BackendISC:
		v4Status = "isc-fallback"
	case hasV4:
		v4Status = keaActivity(stats.SubnetsAddedV4, stats.ReservationsAddedV4, stats.OptionsAppliedV4)
	}

	v6Status := "kea (no changes)"
	switch {
	case preserveLegacyIPv6:
		v6Status = fmt.Sprintf("isc-legacy (%s)", strings.Join(stats.PreservedDHCPv6Ifaces, ", "))
	case finalBackend == dhcp.BackendISC:
		v6Status = "isc-fallback"
	case hasV6:
		v6Status = keaActivity(stats.SubnetsAddedV6, stats.ReservationsAddedV6, stats.OptionsAppliedV6)
	}

	lines := []string{fmt.Sprintf("dhcp migration: v4=%s v6=%s", v4Status, v6Status)}
	if stats.ReservationsSkippedConflictV4 > 0 || stats.ReservationsSkippedConflictV6 > 0 {
		lines = append(lines, fmt.Sprintf("dhcp migration: skipped_conflicts v4=%d v6=%d",
			stats.ReservationsSkippedConflictV4, stats.ReservationsSkippedConflictV6))
	}
	return lines
}

func keaActivity(subnets, reservations, options int) string {
	return fmt.Sprintf("kea (%d subnet%s, %d reservation%s, %d option set%s)",
		subnets, plural(subnets),
		reservations, plural(reservations),
		options, plural(options))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
