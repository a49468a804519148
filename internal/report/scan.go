package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ScanReport is the migration readiness assessment for one config.
type ScanReport struct {
	Platform            string                  `json:"platform"`
	Version             detect.VersionDetection `json:"version"`
	TargetVersion       string                  `json:"target_version,omitempty"`
	DHCPBackend         string                  `json:"dhcp_backend"`
	BackendReason       string                  `json:"backend_reason"`
	MappingsSource      string                  `json:"mappings_source"`
	TargetPlatform      string                  `json:"target_platform,omitempty"`
	TopLevelSections    []string                `json:"top_level_sections"`
	SupportedSections   []string                `json:"supported_sections"`
	ReviewSections      []string                `json:"review_sections"`
	KnownPluginsPresent []string                `json:"known_plugins_present"`
	UnsupportedPlugins  []string                `json:"unsupported_plugins"`
	MissingTargetCompat []string                `json:"missing_target_compat"`
	Recommendations     []string                `json:"recommendations"`
}

// BuildScanReport assesses a config's readiness for migration to the
// optional target platform.
func BuildScanReport(root *xmltree.Node, target string) ScanReport {
	return BuildScanReportWithVersion(root, target, "", "")
}

// BuildScanReportWithVersion is BuildScanReport with an explicit
// target version and an optional mappings directory override.
func BuildScanReportWithVersion(root *xmltree.Node, target, targetVersion, mappingsDir string) ScanReport {
	platform := detect.Config(root).String()
	version := detect.VersionInfo(root)
	backend := detect.DHCPBackend(root)
	topSections := collectScanSections(root)

	supportedSet := map[string]bool{}
	for _, s := range supportedSectionsForPlatform(platform) {
		supportedSet[s] = true
	}
	var supported []string
	for _, s := range topSections {
		if supportedSet[s] {
			supported = append(supported, s)
		}
	}
	supported = append(supported, derivedSupportedSections(root, platform, supported)...)
	sort.Strings(supported)
	supported = dedupSorted(supported)

	var review []string
	for _, s := range topSections {
		if isReviewSection(root, s, supportedSet) {
			review = append(review, s)
		}
	}

	inventory := DetectPlugins(root)
	matrix, mappingsSource := loadPluginMatrixWithSource(mappingsDir)
	known := detectKnownPluginsPresent(root, platform, inventory, matrix)
	unsupported := detectUnsupportedPlugins(root, platform, matrix)
	missingCompat := detectMissingTargetCompat(known, platform, target, matrix)

	var recommendations []string
	if len(unsupported) > 0 {
		recommendations = append(recommendations,
			"unsupported plugins detected; expect manual migration for those plugin configs")
	}
	if len(review) > 0 {
		recommendations = append(recommendations,
			"some top-level sections are not in the current supported set; review with sections --extras")
	}
	if len(missingCompat) > 0 {
		recommendations = append(recommendations,
			"plugins present in source are not marked compatible with selected target")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"no immediate blockers detected; run diff/convert for full validation")
	}

	return ScanReport{
		Platform:            platform,
		Version:             version,
		TargetVersion:       targetVersion,
		DHCPBackend:         backend.Mode,
		BackendReason:       backend.Reason,
		MappingsSource:      mappingsSource,
		TargetPlatform:      target,
		TopLevelSections:    topSections,
		SupportedSections:   supported,
		ReviewSections:      review,
		KnownPluginsPresent: known,
		UnsupportedPlugins:  unsupported,
		MissingTargetCompat: missingCompat,
		Recommendations:     recommendations,
	}
}

// RenderScanText formats a scan report as plain key=value lines.
func RenderScanText(report ScanReport, verbose bool) string {
	var out []string
	out = append(out, fmt.Sprintf(
		"scan platform=%s version=%s version_source=%s version_confidence=%s",
		report.Platform, report.Version.Value, report.Version.Source, report.Version.Confidence))
	out = append(out, fmt.Sprintf("backend mode=%s reason=%s", report.DHCPBackend, report.BackendReason))
	if verbose {
		out = append(out, "Using mappings: "+report.MappingsSource)
	}
	if report.TargetPlatform != "" {
		out = append(out, "target_platform="+report.TargetPlatform)
	}
	if report.TargetVersion != "" {
		out = append(out, "target_version="+report.TargetVersion)
	}
	out = append(out, "supported_sections")
	out = appendScanList(out, report.SupportedSections)
	out = append(out, "review_sections")
	out = appendScanList(out, report.ReviewSections)
	out = append(out, "known_plugins_present")
	out = appendScanList(out, report.KnownPluginsPresent)
	out = append(out, "unsupported_plugins")
	out = appendScanList(out, report.UnsupportedPlugins)
	if report.TargetPlatform != "" {
		out = append(out, "missing_target_compat")
		out = appendScanList(out, report.MissingTargetCompat)
	}
	out = append(out, "recommendations")
	out = appendScanList(out, report.Recommendations)
	return strings.Join(out, "\n")
}

func appendScanList(out []string, items []string) []string {
	if len(items) == 0 {
		return append(out, "- none")
	}
	for _, item := range items {
		out = append(out, "- "+item)
	}
	return out
}

// collectScanSections keeps the version marker, unlike the inventory
// view; the scan reports everything the root carries.
func collectScanSections(root *xmltree.Node) []string {
	var sections []string
	for _, child := range root.Children {
		sections = append(sections, child.Tag)
	}
	sort.Strings(sections)
	return dedupSorted(sections)
}

func dedupSorted(values []string) []string {
	out := values[:0]
	for i, v := range values {
		if i == 0 || values[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func supportedSectionsForPlatform(platform string) []string {
	switch platform {
	case "pfsense":
		return []string{
			"system", "interfaces", "filter", "nat", "aliases", "openvpn",
			"ipsec", "dhcpbackend", "dhcpd", "dhcpdv6", "dhcpd6", "dhcrelay",
			"dhcp6relay", "cert", "ca", "installedpackages", "tailscale",
			"tailscaleauth", "ppps", "ovpnserver", "vlans", "virtualip",
			"wireguard", "ifgroups", "gateways", "staticroutes",
		}
	case "opnsense":
		return []string{
			"system", "interfaces", "filter", "nat", "openvpn", "ipsec",
			"dhcpd", "dhcpdv6", "dhcpd6", "dhcrelay", "dhcp6relay", "cert",
			"ca", "OPNsense", "dnsmasq", "wireguard", "tailscale", "ifgroups",
			"staticroutes", "ppps", "ovpnserver", "vlans", "virtualip",
		}
	}
	return nil
}

// derivedSupportedSections credits sections the converter can handle
// even when their layout differs: nested OPNsense gateways and bridge
// entries that carry enough detail to rebuild.
func derivedSupportedSections(root *xmltree.Node, platform string, existing []string) []string {
	var out []string
	if platform == "opnsense" && !contains(existing, "gateways") && hasNestedOpnsenseTag(root, "Gateways") {
		out = append(out, "gateways")
	}
	if !contains(existing, "bridges") && hasParseableBridges(root) {
		out = append(out, "bridges")
	}
	return out
}

func hasNestedOpnsenseTag(root *xmltree.Node, tag string) bool {
	opn := root.Child("OPNsense")
	return opn != nil && opn.Child(tag) != nil
}

func isReviewSection(root *xmltree.Node, section string, supportedSet map[string]bool) bool {
	if supportedSet[section] {
		return false
	}
	if strings.EqualFold(section, "gateways") &&
		(root.Child("gateways") != nil || hasNestedOpnsenseTag(root, "Gateways")) {
		return false
	}
	if strings.EqualFold(section, "bridges") && hasParseableBridges(root) {
		return false
	}
	return true
}

func hasParseableBridges(root *xmltree.Node) bool {
	bridges := root.Child("bridges")
	if bridges == nil {
		return false
	}
	for _, bridged := range bridges.All("bridged") {
		if strings.TrimSpace(bridged.ChildText("members")) != "" ||
			strings.TrimSpace(bridged.ChildText("bridgeif")) != "" {
			return true
		}
	}
	return false
}
