// Package dhcp converts DHCP server configuration between the two
// platforms. pfSense runs ISC dhcpd with per-interface sections under
// <dhcpd>; OPNsense supports both the legacy ISC layout and the modern
// Kea backend under OPNsense.Kea with subnet-oriented IPv4 and IPv6
// sections. The backend policy picks which layout the output uses and
// the kea migration rewrites ISC data into Kea form when needed.
package dhcp

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// RequestedBackend is the user's explicit backend preference.
type RequestedBackend int

const (
	// RequestedAuto selects based on target version and detected state.
	RequestedAuto RequestedBackend = iota
	// RequestedKea forces the Kea backend.
	RequestedKea
	// RequestedISC forces the legacy ISC backend.
	RequestedISC
)

// ParseRequestedBackend maps a CLI flag value to a backend request.
func ParseRequestedBackend(v string) (RequestedBackend, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return RequestedAuto, nil
	case "kea":
		return RequestedKea, nil
	case "isc":
		return RequestedISC, nil
	}
	return RequestedAuto, fmt.Errorf("invalid dhcp backend %q (want auto, kea, or isc)", v)
}

// EffectiveBackend is the backend decision after weighing the request
// against the source and target configs.
type EffectiveBackend int

const (
	// BackendKea writes the Kea layout.
	BackendKea EffectiveBackend = iota
	// BackendISC writes the legacy ISC layout.
	BackendISC
)

func (b EffectiveBackend) String() string {
	if b == BackendKea {
		return "kea"
	}
	return "isc"
}

// ResolveEffectiveBackend picks the backend for the conversion.
// Explicit requests always win. On auto, OPNsense 26 and newer targets
// default to Kea since ISC is deprecated there; otherwise the source's
// detected backend decides, falling back to the target's.
func ResolveEffectiveBackend(requested RequestedBackend, source, target *xmltree.Node, toPlatform string) EffectiveBackend {
	switch requested {
	case RequestedKea:
		return BackendKea
	case RequestedISC:
		return BackendISC
	}

	if toPlatform == "opnsense" && isOpnsense26OrNewer(target) {
		return BackendKea
	}

	switch detect.DHCPBackend(source).Mode {
	case detect.BackendKea, detect.BackendMixed:
		return BackendKea
	case detect.BackendISC:
		return BackendISC
	}
	switch detect.DHCPBackend(target).Mode {
	case detect.BackendKea, detect.BackendMixed:
		return BackendKea
	}
	return BackendISC
}

// EnsureBackendReadiness validates that the target carries the
// structure the chosen backend needs. Kea on an OPNsense target needs
// the OPNsense.Kea subtree; ISC on OPNsense 26+ needs the os-isc-dhcp
// plugin declared plus at least one legacy dhcpd section. Checks are
// skipped for pre-26 targets unless the backend was explicitly
// requested, and entirely for pfSense targets.
func EnsureBackendReadiness(target *xmltree.Node, requested RequestedBackend, backend EffectiveBackend) error {
	if detect.Config(target) != detect.OpnSense {
		return nil
	}

	switch backend {
	case BackendKea:
		if requested != RequestedKea && !isOpnsense26OrNewer(target) {
			return nil
		}
		if target.Find("OPNsense", "Kea") == nil {
			return fmt.Errorf("target OPNsense config is missing OPNsense.Kea subtree required for Kea backend")
		}
	case BackendISC:
		if requested != RequestedISC && !isOpnsense26OrNewer(target) {
			return nil
		}
		if !opnsenseHasDeclaredPlugin(target, "os-isc-dhcp") {
			return fmt.Errorf("target OPNsense config requires os-isc-dhcp plugin for ISC backend (system.firmware.plugins)")
		}
		if !detect.HasLegacyDHCPSections(target) {
			return fmt.Errorf("target OPNsense config missing legacy ISC DHCP sections (dhcpd/dhcpdv6/dhcpd6)")
		}
	}
	return nil
}

// EnforceOutputBackend removes the losing backend's sections from the
// output and makes sure the winning one's structure exists.
//
// OPNsense output: Kea drops the legacy dhcpd sections (keeping the
// IPv6 ones when preserveIPv6Legacy is set) and ensures OPNsense.Kea;
// ISC disables Kea via its general.enabled flags while keeping the
// container so custom settings survive. pfSense output: a
// <dhcpbackend> marker records the choice, Kea gets a <kea> container
// with the ISC sections removed, ISC drops <kea>.
func EnforceOutputBackend(root *xmltree.Node, backend EffectiveBackend, toPlatform string, preserveIPv6Legacy bool) {
	switch toPlatform {
	case "opnsense":
		if backend == BackendKea {
			root.RemoveChildren("dhcpd")
			if !preserveIPv6Legacy {
				root.RemoveChildren("dhcpdv6")
				root.RemoveChildren("dhcpd6")
			}
			root.EnsurePath("OPNsense", "Kea")
			return
		}
		disableOpnsenseKea(root)
	case "pfsense":
		if backend == BackendKea {
			root.SetChildText("dhcpbackend", "kea")
			root.EnsureChild("kea")
			root.RemoveChildren("dhcpd")
			root.RemoveChildren("dhcpdv6")
			root.RemoveChildren("dhcpd6")
			return
		}
		root.SetChildText("dhcpbackend", "isc")
		root.RemoveChildren("kea")
	}
}

// HasLegacyData reports whether any ISC dhcpd section is present.
func HasLegacyData(root *xmltree.Node) bool {
	return detect.HasLegacyDHCPSections(root)
}

func isOpnsense26OrNewer(target *xmltree.Node) bool {
	if detect.Config(target) != detect.OpnSense {
		return false
	}
	return detect.MajorVersion(detect.VersionInfo(target).Value) >= 26
}

// opnsenseHasDeclaredPlugin checks the space, comma, or semicolon
// separated plugin list in system.firmware.plugins.
func opnsenseHasDeclaredPlugin(root *xmltree.Node, plugin string) bool {
	plugins, _ := root.PathText("system", "firmware", "plugins")
	for _, p := range strings.FieldsFunc(plugins, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	}) {
		if strings.EqualFold(strings.TrimSpace(p), plugin) {
			return true
		}
	}
	return false
}

// disableOpnsenseKea writes enabled=0 into both Kea family general
// sections, keeping the rest of the Kea container intact.
func disableOpnsenseKea(root *xmltree.Node) {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return
	}
	for _, family := range []string{"dhcp4", "dhcp6"} {
		familyNode := kea.Child(family)
		if familyNode == nil {
			continue
		}
		familyNode.EnsureChild("general").SetChildText("enabled", "0")
	}
}
