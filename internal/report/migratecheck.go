package report

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/convert"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// MigrateCheckItem is one named go/no-go check.
type MigrateCheckItem struct {
	ID     string `json:"id"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// MigrateCheckReport is the strict pre-migration gate built on top of
// the verify and scan reports.
type MigrateCheckReport struct {
	Platform       string             `json:"platform"`
	TargetPlatform string             `json:"target_platform"`
	Pass           bool               `json:"pass"`
	Errors         int                `json:"errors"`
	Warnings       int                `json:"warnings"`
	Summary        convert.Summary    `json:"summary"`
	Items          []MigrateCheckItem `json:"items"`
	Verify         VerifyReport       `json:"verify"`
	Scan           ScanReport         `json:"scan"`
}

// BuildMigrateCheckReport runs the migration gate against a target
// platform.
func BuildMigrateCheckReport(root *xmltree.Node, target string) MigrateCheckReport {
	return BuildMigrateCheckReportWithVersion(root, target, "", "")
}

// BuildMigrateCheckReportWithVersion is BuildMigrateCheckReport with
// an explicit target version and profiles directory override.
func BuildMigrateCheckReportWithVersion(root *xmltree.Node, target, targetVersion, profilesDir string) MigrateCheckReport {
	verify := BuildVerifyReportWithVersion(root, target, targetVersion, profilesDir)
	scan := BuildScanReport(root, target)
	summary := convert.Summarize(root)

	items := []MigrateCheckItem{
		checkItem("platform_target_match", scan.Platform == target,
			fmt.Sprintf("detected=%s target=%s", scan.Platform, target)),
		checkItem("required_sections",
			!hasIssue(verify, "missing_required_section"),
			"system/interfaces/filter baseline present"),
		checkItem("interface_integrity",
			!hasAnyIssue(verify,
				"duplicate_interface_assignment", "missing_interface_reference",
				"missing_gateway_interface", "missing_route_interface"),
			"interface refs and assignments are valid"),
		checkItem("bridge_integrity",
			!hasAnyIssue(verify, "empty_bridge_members", "missing_bridge_member"),
			"bridge members are valid"),
		checkItem("rule_reference_integrity",
			!hasAnyIssue(verify,
				"missing_alias_reference", "missing_gateway_reference",
				"missing_route_gateway", "missing_schedule_reference"),
			"rule/route references resolve"),
		checkItem("nat_integrity",
			!hasAnyIssue(verify,
				"nat_missing_interface", "nat_missing_associated_rule", "nat_invalid_outbound_mode"),
			"nat mode/bindings/associations are valid"),
		checkItem("dhcp_integrity",
			!hasIssue(verify, "dhcp_backend_inconsistent"),
			"dhcp backend policy and section layout are consistent"),
		checkItem("openvpn_integrity",
			!hasIssuePrefix(verify, "openvpn_missing_"),
			"openvpn refs resolve"),
		checkItem("ipsec_integrity",
			!hasIssuePrefix(verify, "ipsec_missing_"),
			"ipsec refs resolve"),
		checkItem("plugin_compatibility",
			len(scan.UnsupportedPlugins) == 0 && len(scan.MissingTargetCompat) == 0,
			"no unsupported or target-incompatible plugins"),
		checkItem("profile_baseline", true,
			fmt.Sprintf("advisory profile warnings=%d", countIssuePrefix(verify, "profile_"))),
	}

	pass := verify.Errors == 0
	for _, item := range items {
		if !item.Pass {
			pass = false
		}
	}

	return MigrateCheckReport{
		Platform:       scan.Platform,
		TargetPlatform: target,
		Pass:           pass,
		Errors:         verify.Errors,
		Warnings:       verify.Warnings,
		Summary:        summary,
		Items:          items,
		Verify:         verify,
		Scan:           scan,
	}
}

// RenderMigrateCheckText formats a migrate-check report as plain lines.
func RenderMigrateCheckText(report MigrateCheckReport, verbose bool) string {
	var out []string
	out = append(out, fmt.Sprintf("migrate_check pass=%t platform=%s target=%s errors=%d warnings=%d",
		report.Pass, report.Platform, report.TargetPlatform, report.Errors, report.Warnings))
	if verbose {
		source := report.Verify.ProfilesSource
		if source == "" {
			source = "none"
		}
		out = append(out, "Using profiles: "+source)
		out = append(out, "Using mappings: "+report.Scan.MappingsSource)
	}
	out = append(out, fmt.Sprintf("counts interfaces=%d bridges=%d aliases=%d rules=%d routes=%d vpns=%d",
		report.Summary.Interfaces, report.Summary.Bridges, report.Summary.Aliases,
		report.Summary.Rules, report.Summary.Routes, report.Summary.VPNs))
	out = append(out, "items")
	for _, item := range report.Items {
		state := "FAIL"
		if item.Pass {
			state = "PASS"
		}
		out = append(out, fmt.Sprintf("- [%s] %s: %s", state, item.ID, item.Detail))
	}
	return strings.Join(out, "\n")
}

func checkItem(id string, pass bool, detail string) MigrateCheckItem {
	return MigrateCheckItem{ID: id, Pass: pass, Detail: detail}
}

func hasIssue(report VerifyReport, code string) bool {
	for _, issue := range report.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func hasIssuePrefix(report VerifyReport, prefix string) bool {
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue.Code, prefix) {
			return true
		}
	}
	return false
}

func hasAnyIssue(report VerifyReport, codes ...string) bool {
	for _, code := range codes {
		if hasIssue(report, code) {
			return true
		}
	}
	return false
}

func countIssuePrefix(report VerifyReport, prefix string) int {
	count := 0
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue.Code, prefix) {
			count++
		}
	}
	return count
}
