package report

import (
	"fmt"
	"sort"

	"github.com/sheridans/pfopn-convert-sub000/internal/deps"
	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// buildAllExtras runs every heuristic extras pass: structural hints,
// DHCP backend transitions, VPN dependency gaps, and plugin gaps.
func buildAllExtras(left, right *xmltree.Node, leftOnly, rightOnly, leftSections []string, sectionMappings []mappings.SectionMapping) []ExtraFinding {
	extras := buildBaseExtras(left, right, leftOnly, rightOnly, leftSections, sectionMappings)
	extras = append(extras, buildBackendExtras(detect.DHCPBackend(left), detect.DHCPBackend(right))...)
	extras = append(extras, buildVPNExtras(deps.CompareOpenVPN(left, right))...)
	extras = append(extras, buildIPsecExtras(deps.CompareIPsec(left, right))...)
	extras = append(extras, buildWireGuardExtras(deps.CompareWireGuard(left, right))...)
	extras = append(extras, buildPluginExtras(DetectPlugins(left), DetectPlugins(right))...)
	return extras
}

func groupExtras(extras []ExtraFinding) []ExtraGroup {
	byName := map[string][]ExtraFinding{}
	for _, finding := range extras {
		byName[finding.Section] = append(byName[finding.Section], finding)
	}
	sections := make([]string, 0, len(byName))
	for section := range byName {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	out := make([]ExtraGroup, 0, len(sections))
	for _, section := range sections {
		out = append(out, ExtraGroup{Section: section, Findings: byName[section]})
	}
	return out
}

// buildBaseExtras finds nested-presence, rename-candidate, and known
// mapping-presence hints for sections that only one side carries.
func buildBaseExtras(left, right *xmltree.Node, leftOnly, rightOnly, leftSections []string, sectionMappings []mappings.SectionMapping) []ExtraFinding {
	var out []ExtraFinding
	for _, section := range leftOnly {
		paths := findPathsByCanonicalTag(right, section)
		if len(paths) > 0 {
			out = append(out, ExtraFinding{
				Kind:    "nested_presence",
				Section: section,
				Side:    "left_only",
				Paths:   take(paths, 8),
				Reason:  "section name appears nested in right tree",
			})
		}
	}
	for _, section := range rightOnly {
		paths := findPathsByCanonicalTag(left, section)
		if len(paths) > 0 {
			out = append(out, ExtraFinding{
				Kind:    "nested_presence",
				Section: section,
				Side:    "right_only",
				Paths:   take(paths, 8),
				Reason:  "section name appears nested in left tree",
			})
		}
	}
	for _, l := range leftOnly {
		for _, r := range rightOnly {
			if isFuzzyRenameCandidate(l, r) {
				out = append(out, ExtraFinding{
					Kind:    "rename_candidate",
					Section: l + " -> " + r,
					Side:    "cross",
					Reason:  "names look related by normalization/token overlap",
				})
			}
		}
	}
	for _, mapping := range sectionMappings {
		if !contains(leftSections, mapping.Left) {
			continue
		}
		for _, candidate := range mapping.Right {
			paths := findPathsByCanonicalTag(right, candidate)
			if len(paths) > 0 {
				out = append(out, ExtraFinding{
					Kind:    "mapping_presence",
					Section: mapping.Left + " -> " + candidate,
					Side:    "cross",
					Paths:   take(paths, 8),
					Reason:  "known mapping candidate present: " + mapping.Note,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// buildBackendExtras reports the observed DHCP backend transition and,
// for the transitions that need operator attention, a migration hint.
func buildBackendExtras(left, right detect.BackendDetection) []ExtraFinding {
	transition := detect.BackendTransition(left, right)
	out := []ExtraFinding{{
		Kind:    "backend_transition",
		Section: "dhcp",
		Side:    "cross",
		Reason: fmt.Sprintf("detected dhcp backend transition %s (left=%s, right=%s)",
			transition, left.Reason, right.Reason),
	}}
	switch transition {
	case "isc->kea":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"left: dhcpd/dhcpdv6/dhcpd6", "right: OPNsense.Kea.dhcp4/dhcp6"},
			Reason:  "legacy ISC to Kea migration: verify ranges/reservations/options parity",
		})
	case "kea->isc":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"left: Kea subtree", "right: dhcpd/dhcpdv6/dhcpd6"},
			Reason:  "Kea to legacy ISC migration: verify static mappings and DHCP options are retained",
		})
	case "mixed->kea", "isc->mixed", "mixed->isc", "kea->mixed":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"review both legacy and Kea sections"},
			Reason:  "mixed backend state detected; prefer explicit target backend before conversion",
		})
	}
	return out
}

func buildVPNExtras(report deps.OpenVPNReport) []ExtraFinding {
	var out []ExtraFinding
	if report.Left.DisabledInstances > 0 {
		out = append(out, disabledVPNFinding("left", report.Left.DisabledInstances))
	}
	if report.Right.DisabledInstances > 0 {
		out = append(out, disabledVPNFinding("right", report.Right.DisabledInstances))
	}
	out = appendOpenVPNGap(out, report.LeftToRight)
	out = appendOpenVPNGap(out, report.RightToLeft)
	return out
}

func disabledVPNFinding(side string, count int) ExtraFinding {
	return ExtraFinding{
		Kind:    "vpn_disabled_config_present",
		Section: "openvpn",
		Side:    side,
		Paths:   []string{fmt.Sprintf("disabled_instances=%d", count)},
		Reason:  "disabled OpenVPN configs still carry users/certs/CAs and should be migrated",
	}
}

func appendOpenVPNGap(out []ExtraFinding, gap deps.OpenVPNGap) []ExtraFinding {
	if len(gap.MissingCAIDs) == 0 && len(gap.MissingCertIDs) == 0 && len(gap.MissingUsers) == 0 {
		return out
	}
	var paths []string
	for _, ca := range gap.MissingCAIDs {
		paths = append(paths, "missing_ca: "+ca)
	}
	for _, cert := range gap.MissingCertIDs {
		paths = append(paths, "missing_cert: "+cert)
	}
	for _, user := range gap.MissingUsers {
		paths = append(paths, "missing_user: "+user)
	}
	return append(out, ExtraFinding{
		Kind:    "vpn_dependency_gap",
		Section: "openvpn",
		Side:    gap.Direction,
		Paths:   take(paths, 12),
		Reason:  "OpenVPN references do not exist on target side; migrate system users, certs and CAs",
	})
}

func buildIPsecExtras(report deps.IPsecReport) []ExtraFinding {
	var out []ExtraFinding
	out = appendIPsecGap(out, report.LeftToRight)
	out = appendIPsecGap(out, report.RightToLeft)
	return out
}

func appendIPsecGap(out []ExtraFinding, gap deps.IPsecGap) []ExtraFinding {
	if len(gap.MissingCAIDs) == 0 && len(gap.MissingCertIDs) == 0 && len(gap.MissingInterfaces) == 0 {
		return out
	}
	var paths []string
	for _, ca := range gap.MissingCAIDs {
		paths = append(paths, "missing_ca: "+ca)
	}
	for _, cert := range gap.MissingCertIDs {
		paths = append(paths, "missing_cert: "+cert)
	}
	for _, iface := range gap.MissingInterfaces {
		paths = append(paths, "missing_interface: "+iface)
	}
	return append(out, ExtraFinding{
		Kind:    "ipsec_dependency_gap",
		Section: "ipsec",
		Side:    gap.Direction,
		Paths:   take(paths, 12),
		Reason:  "IPsec references do not exist on target side; migrate certs/CAs/interfaces",
	})
}

func buildWireGuardExtras(report deps.WireGuardReport) []ExtraFinding {
	var out []ExtraFinding
	if report.Left.Configured && !report.Right.Configured {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_dependency_gap",
			Section: "wireguard",
			Side:    "left_to_right",
			Paths:   take(report.Left.Paths, 6),
			Reason:  "WireGuard config exists on left but not on right",
		})
	}
	if report.Right.Configured && !report.Left.Configured {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_dependency_gap",
			Section: "wireguard",
			Side:    "right_to_left",
			Paths:   take(report.Right.Paths, 6),
			Reason:  "WireGuard config exists on right but not on left",
		})
	}
	if report.Left.Configured && report.Left.EnabledEntries == 0 {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_disabled_config_present",
			Section: "wireguard",
			Side:    "left",
			Paths:   take(report.Left.Paths, 4),
			Reason:  "WireGuard config is present but currently disabled on left",
		})
	}
	if report.Right.Configured && report.Right.EnabledEntries == 0 {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_disabled_config_present",
			Section: "wireguard",
			Side:    "right",
			Paths:   take(report.Right.Paths, 4),
			Reason:  "WireGuard config is present but currently disabled on right",
		})
	}
	return out
}

// buildPluginExtras flags plugins present on one side but neither
// declared nor configured on the other.
func buildPluginExtras(left, right PluginInventory) []ExtraFinding {
	var out []ExtraFinding
	for _, lp := range left.Plugins {
		var rp *PluginState
		for i := range right.Plugins {
			if right.Plugins[i].Plugin == lp.Plugin {
				rp = &right.Plugins[i]
				break
			}
		}
		if rp == nil {
			continue
		}
		leftPresent := lp.Declared || lp.Configured
		rightPresent := rp.Declared || rp.Configured
		if leftPresent && !rightPresent {
			out = append(out, ExtraFinding{
				Kind:    "plugin_support_gap",
				Section: lp.Plugin,
				Side:    "left_to_right",
				Paths:   take(lp.Evidence, 6),
				Reason:  "plugin is present on left but not declared/configured on right",
			})
		}
		if rightPresent && !leftPresent {
			out = append(out, ExtraFinding{
				Kind:    "plugin_support_gap",
				Section: rp.Plugin,
				Side:    "right_to_left",
				Paths:   take(rp.Evidence, 6),
				Reason:  "plugin is present on right but not declared/configured on left",
			})
		}
	}
	return out
}

func take(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}
