package report

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/deps"
	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// VerifyReport is the pre-restore validation result for one config.
type VerifyReport struct {
	Platform       string    `json:"platform"`
	Version        string    `json:"version"`
	TargetPlatform string    `json:"target_platform,omitempty"`
	ProfilesSource string    `json:"profiles_source,omitempty"`
	Errors         int       `json:"errors"`
	Warnings       int       `json:"warnings"`
	Issues         []Finding `json:"issues"`
}

// BuildVerifyReport validates a config for internal consistency and,
// when a target is given, compatibility with that platform.
func BuildVerifyReport(root *xmltree.Node, target string) VerifyReport {
	return BuildVerifyReportWithVersion(root, target, "", "")
}

// BuildVerifyReportWithVersion is BuildVerifyReport with an explicit
// target version and an optional profiles directory override.
func BuildVerifyReportWithVersion(root *xmltree.Node, target, targetVersion, profilesDir string) VerifyReport {
	flavor := detect.Config(root)
	platform := flavor.String()
	version := targetVersion
	if version == "" {
		version = detect.VersionInfo(root).Value
	}
	scan := BuildScanReport(root, target)

	profilePlatform := target
	if profilePlatform == "" {
		profilePlatform = platform
	}
	profile, profilesSource, haveProfile := mappings.LoadProfileWithSource(profilePlatform, version, profilesDir)

	var issues []Finding
	if flavor == detect.Unknown {
		issues = append(issues, errFinding("unknown_platform",
			"root tag is not recognized as pfsense/opnsense"))
	}
	issues = append(issues, requiredSectionIssues(root, platform)...)
	issues = append(issues, pluginIssues(scan)...)
	issues = append(issues, interfaceReferenceFindings(root)...)
	issues = append(issues, bridgeFindings(root)...)
	issues = append(issues, natFindings(root)...)
	issues = append(issues, ruleReferenceFindings(root)...)
	issues = append(issues, ruleDuplicateFindings(root)...)
	issues = append(issues, wireGuardFindings(root)...)
	issues = append(issues, dhcpConsistencyIssues(root, platform)...)
	if haveProfile {
		issues = append(issues, profileFindings(root, profile)...)
	}
	issues = append(issues, openVPNSelfIssues(root)...)
	issues = append(issues, ipsecSelfIssues(root)...)

	var errors, warnings int
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}

	return VerifyReport{
		Platform:       platform,
		Version:        version,
		TargetPlatform: target,
		ProfilesSource: profilesSource,
		Errors:         errors,
		Warnings:       warnings,
		Issues:         issues,
	}
}

// RenderVerifyText formats a verify report as plain lines.
func RenderVerifyText(report VerifyReport, verbose bool) string {
	target := report.TargetPlatform
	if target == "" {
		target = "none"
	}
	var out []string
	out = append(out, fmt.Sprintf("verify platform=%s version=%s target=%s",
		report.Platform, report.Version, target))
	if verbose {
		source := report.ProfilesSource
		if source == "" {
			source = "none"
		}
		out = append(out, "Using profiles: "+source)
	}
	out = append(out, fmt.Sprintf("result errors=%d warnings=%d", report.Errors, report.Warnings))
	out = append(out, "issues")
	if len(report.Issues) == 0 {
		out = append(out, "- none")
		return strings.Join(out, "\n")
	}
	for _, issue := range report.Issues {
		out = append(out, fmt.Sprintf("- [%s] %s: %s", issue.Severity, issue.Code, issue.Message))
	}
	return strings.Join(out, "\n")
}

func requiredSectionIssues(root *xmltree.Node, platform string) []Finding {
	if platform != "pfsense" && platform != "opnsense" {
		return nil
	}
	var out []Finding
	for _, section := range []string{"system", "interfaces"} {
		if root.Child(section) == nil {
			out = append(out, errFinding("missing_required_section",
				"required section '%s' is missing", section))
		}
	}
	return out
}

func pluginIssues(scan ScanReport) []Finding {
	var out []Finding
	for _, plugin := range scan.UnsupportedPlugins {
		out = append(out, warnFinding("unsupported_plugin",
			"unsupported plugin detected: %s", plugin))
	}
	for _, plugin := range scan.MissingTargetCompat {
		out = append(out, warnFinding("target_plugin_compat",
			"plugin not marked compatible with target: %s", plugin))
	}
	return out
}

// dhcpConsistencyIssues cross-checks the declared DHCP backend against
// the sections actually present.
func dhcpConsistencyIssues(root *xmltree.Node, platform string) []Finding {
	hasLegacy := root.Child("dhcpd") != nil || root.Child("dhcpdv6") != nil || root.Child("dhcpd6") != nil
	hasPfSenseKea := root.Child("kea") != nil
	hasOpnSenseKea := root.Find("OPNsense", "Kea") != nil

	var out []Finding
	switch platform {
	case "pfsense":
		backend := ""
		if node := root.Child("dhcpbackend"); node != nil {
			backend = strings.ToLower(strings.TrimSpace(node.Text))
		}
		if backend == "isc" && !hasLegacy {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"pfSense backend is ISC but legacy DHCP sections are missing (dhcpd/dhcpdv6/dhcpd6)"))
		}
		if backend == "isc" && hasPfSenseKea {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"pfSense backend is ISC but Kea section is still present"))
		}
		if backend == "kea" && !hasPfSenseKea {
			out = append(out, warnFinding("dhcp_backend_advisory",
				"pfSense backend is Kea but top-level <kea> section is missing; verify DHCP backend state on target"))
		}
	case "opnsense":
		backend := detect.DHCPBackend(root).Mode
		if backend == detect.BackendISC {
			if !opnsenseHasDeclaredPlugin(root, "os-isc-dhcp") {
				out = append(out, errFinding("dhcp_backend_inconsistent",
					"OPNsense appears to use ISC DHCP but os-isc-dhcp is not declared in system.firmware.plugins"))
			}
			if !hasLegacy {
				out = append(out, errFinding("dhcp_backend_inconsistent",
					"OPNsense appears to use ISC DHCP but legacy DHCP sections are missing (dhcpd/dhcpdv6/dhcpd6)"))
			}
		}
		if backend == detect.BackendKea && !hasOpnSenseKea {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"OPNsense appears to use Kea but OPNsense.Kea section is missing"))
		}
	}
	return out
}

// openVPNSelfIssues compares a config against itself so dangling
// OpenVPN references show up as errors.
func openVPNSelfIssues(root *xmltree.Node) []Finding {
	report := deps.CompareOpenVPN(root, root)
	var out []Finding
	for _, ca := range report.LeftToRight.MissingCAIDs {
		out = append(out, errFinding("openvpn_missing_ca", "OpenVPN references missing CA '%s'", ca))
	}
	for _, cert := range report.LeftToRight.MissingCertIDs {
		out = append(out, errFinding("openvpn_missing_cert", "OpenVPN references missing cert '%s'", cert))
	}
	for _, user := range report.LeftToRight.MissingUsers {
		out = append(out, errFinding("openvpn_missing_user", "OpenVPN references missing user '%s'", user))
	}
	return out
}

func ipsecSelfIssues(root *xmltree.Node) []Finding {
	report := deps.CompareIPsec(root, root)
	var out []Finding
	for _, ca := range report.LeftToRight.MissingCAIDs {
		out = append(out, errFinding("ipsec_missing_ca", "IPsec references missing CA '%s'", ca))
	}
	for _, cert := range report.LeftToRight.MissingCertIDs {
		out = append(out, errFinding("ipsec_missing_cert", "IPsec references missing cert '%s'", cert))
	}
	for _, iface := range report.LeftToRight.MissingInterfaces {
		out = append(out, errFinding("ipsec_missing_interface", "IPsec references missing interface '%s'", iface))
	}
	return out
}

func opnsenseHasDeclaredPlugin(root *xmltree.Node, plugin string) bool {
	for _, declared := range collectOpnSenseDeclaredPlugins(root) {
		if strings.EqualFold(declared, plugin) {
			return true
		}
	}
	return false
}
