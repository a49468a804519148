package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// RenderDiffText colorizes the plain diff rendering for terminals:
// inserts green, removals red, modifications yellow, structural
// mismatches magenta.
func RenderDiffText(entries []xmldiff.Entry) string {
	raw := xmldiff.FormatText(entries)
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			out = append(out, color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			out = append(out, color.RedString("%s", line))
		case strings.HasPrefix(line, "~"):
			out = append(out, color.YellowString("%s", line))
		case strings.HasPrefix(line, "!"):
			out = append(out, color.MagentaString("%s", line))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// RenderUnifiedDiff renders a line-based unified diff of the two trees
// in their canonical serialized form. Both sides go through the same
// writer, so formatting noise never shows up as a change.
func RenderUnifiedDiff(leftName, rightName string, left, right *xmltree.Node) (string, error) {
	leftXML := string(xmltree.Write(left))
	rightXML := string(xmltree.Write(right))
	if leftXML == rightXML {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(leftXML),
		B:        difflib.SplitLines(rightXML),
		FromFile: leftName,
		ToFile:   rightName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// RenderDiffSummary colorizes the diff count summary.
func RenderDiffSummary(entries []xmldiff.Entry) string {
	return color.CyanString("%s", xmldiff.FormatSummary(entries))
}

// RenderAnalysis formats recommended actions one line per entry.
func RenderAnalysis(entries []AnalysisEntry) string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		prefix := "NOOP"
		switch entry.Action {
		case ActionInsertLeftToRight, ActionInsertRightToLeft:
			prefix = "SAFE"
		case ActionConflictManual:
			prefix = "MANUAL"
		}
		out = append(out, fmt.Sprintf("%s action=%s path=%s reason=%s",
			prefix, entry.Action, entry.Path, entry.Reason))
	}
	return strings.Join(out, "\n")
}

// RenderSectionStats formats per-section counters, conflicts first.
func RenderSectionStats(rows []SectionStats) string {
	sorted := make([]SectionStats, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ConflictManual != sorted[j].ConflictManual {
			return sorted[i].ConflictManual > sorted[j].ConflictManual
		}
		if sorted[i].Modified != sorted[j].Modified {
			return sorted[i].Modified > sorted[j].Modified
		}
		return sorted[i].Section < sorted[j].Section
	})

	out := []string{"section_summary"}
	for _, row := range sorted {
		out = append(out, fmt.Sprintf(
			"- %s: modified=%d only_left=%d only_right=%d structural=%d conflicts=%d safe=%d",
			row.Section, row.Modified, row.OnlyLeft, row.OnlyRight,
			row.Structural, row.ConflictManual, row.SafeActions))
	}
	return strings.Join(out, "\n")
}

// RenderSectionInventory formats the full inventory report.
func RenderSectionInventory(inv SectionInventory) string {
	var out []string
	out = append(out, "roots")
	out = append(out, fmt.Sprintf("- left: %s version=%s source=%s confidence=%s",
		inv.LeftRoot, inv.LeftVersion.Value, inv.LeftVersion.Source, inv.LeftVersion.Confidence))
	out = append(out, fmt.Sprintf("- right: %s version=%s source=%s confidence=%s",
		inv.RightRoot, inv.RightVersion.Value, inv.RightVersion.Source, inv.RightVersion.Confidence))

	out = append(out, "", "dhcp_backend")
	out = append(out, fmt.Sprintf("- left: %s (%s)", inv.LeftDHCPBackend.Mode, inv.LeftDHCPBackend.Reason))
	out = appendPrefixedList(out, "  evidence: ", inv.LeftDHCPBackend.EvidencePaths)
	out = append(out, fmt.Sprintf("- right: %s (%s)", inv.RightDHCPBackend.Mode, inv.RightDHCPBackend.Reason))
	out = appendPrefixedList(out, "  evidence: ", inv.RightDHCPBackend.EvidencePaths)

	out = append(out, "", "common")
	out = appendDashList(out, inv.Common)
	out = append(out, "", "left_only")
	out = appendDashList(out, inv.LeftOnly)
	out = append(out, "", "right_only")
	out = appendDashList(out, inv.RightOnly)

	out = append(out, "", "suggested_mappings")
	if len(inv.SuggestedMappings) == 0 {
		out = append(out, "- none")
	} else {
		for _, m := range inv.SuggestedMappings {
			out = append(out, fmt.Sprintf("- %s -> %s [%s] %s", m.Left, m.Right, m.Confidence, m.Reason))
		}
	}

	out = append(out, "", "alias_locations", "left")
	out = appendDashList(out, inv.LeftAliasPaths)
	out = append(out, "right")
	out = appendDashList(out, inv.RightAliasPaths)

	if len(inv.Extras) > 0 {
		out = append(out, "", "extras")
		for _, finding := range inv.Extras {
			out = append(out, fmt.Sprintf("- %s %s [%s] %s",
				finding.Side, finding.Section, finding.Kind, finding.Reason))
			for _, path := range finding.Paths {
				out = append(out, "  path: "+path)
			}
		}
		out = append(out, "", "unmatched_left_only")
		out = appendDashList(out, inv.UnmatchedLeftOnly)
		out = append(out, "unmatched_right_only")
		out = appendDashList(out, inv.UnmatchedRightOnly)
	}

	return strings.Join(out, "\n")
}

func appendDashList(out []string, items []string) []string {
	if len(items) == 0 {
		return append(out, "- none")
	}
	for _, item := range items {
		out = append(out, "- "+item)
	}
	return out
}

func appendPrefixedList(out []string, prefix string, items []string) []string {
	if len(items) == 0 {
		return append(out, prefix+"none")
	}
	for _, item := range items {
		out = append(out, prefix+item)
	}
	return out
}
