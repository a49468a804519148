package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/convert"
	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/merge"
	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// DiffOptions carries the diff subcommand flags.
type DiffOptions struct {
	File1           string
	File2           string
	Section         string
	Ignore          []string
	Format          string
	Summary         bool
	Verbose         bool
	Quiet           bool
	Plan            string
	Output          string
	Strict          bool
	MergeTo         string
	NoTransferUsers bool
	NoTransferCerts bool
	NoTransferCAs   bool
	SectionSummary  bool
}

// diffReport is the JSON payload for diff --format json.
type diffReport struct {
	Entries           []xmldiff.Entry         `json:"entries"`
	Analysis          []report.AnalysisEntry  `json:"analysis"`
	SectionStats      []report.SectionStats   `json:"section_stats"`
	LeftBackend       detect.BackendDetection `json:"left_backend"`
	RightBackend      detect.BackendDetection `json:"right_backend"`
	BackendTransition string                  `json:"backend_transition"`
}

// RunDiff compares two configs and optionally applies the safe merge.
func RunDiff(opts DiffOptions) error {
	left, err := xmltree.ParseFile(opts.File1)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File1, err)
	}
	right, err := xmltree.ParseFile(opts.File2)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File2, err)
	}

	diffOpts := xmldiff.DefaultOptions()
	diffOpts.IncludeIdentical = opts.Verbose
	diffOpts.IgnorePaths = opts.Ignore
	diffOpts.KeyFields = mappings.DefaultKeyFields()

	entries := xmldiff.DiffWithOptions(left, right, diffOpts)
	if opts.Section != "" {
		entries = filterDiffSection(entries, opts.Section)
	}

	analysis := report.Analyze(entries)
	sectionStats := report.SummarizeBySection(entries, analysis)
	leftBackend := detect.DHCPBackend(left)
	rightBackend := detect.DHCPBackend(right)
	transition := detect.BackendTransition(leftBackend, rightBackend)

	if opts.Strict {
		for _, a := range analysis {
			if a.Action == report.ActionConflictManual {
				return fmt.Errorf("strict mode failed: manual conflicts detected")
			}
		}
	}

	if opts.Plan != "" {
		planJSON, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.Plan, planJSON, 0o644); err != nil {
			return fmt.Errorf("failed to write plan file %s: %w", opts.Plan, err)
		}
	}

	if opts.Output != "" {
		if err := convert.EnsureOutputNotSame(opts.Output, []string{opts.File1, opts.File2}); err != nil {
			return err
		}
		target := merge.TargetRight
		if strings.EqualFold(opts.MergeTo, "left") {
			target = merge.TargetLeft
		}
		merged, err := merge.ApplySafe(left, right, entries, target, merge.Options{
			TransferUsers: !opts.NoTransferUsers,
			TransferCerts: !opts.NoTransferCerts,
			TransferCAs:   !opts.NoTransferCAs,
		})
		if err != nil {
			return fmt.Errorf("failed while applying safe merge actions: %w", err)
		}
		if err := xmltree.WriteFile(merged, opts.Output); err != nil {
			return fmt.Errorf("failed to write output XML %s: %w", opts.Output, err)
		}
	}

	if opts.Quiet || opts.Summary {
		Printf("left_backend=%s right_backend=%s backend_transition=%s\n",
			leftBackend.Mode, rightBackend.Mode, transition)
		Println(report.RenderDiffSummary(entries))
		Println(report.SummarizeAnalysis(analysis))
		if opts.SectionSummary {
			Println()
			Println("Section Summary")
			Println(report.RenderSectionStats(sectionStats))
		}
		return nil
	}

	switch opts.Format {
	case "unified":
		text, err := report.RenderUnifiedDiff(opts.File1, opts.File2, left, right)
		if err != nil {
			return err
		}
		if text == "" {
			Println("No changes detected.")
			return nil
		}
		Printf("%s", text)
	case "json":
		payload := diffReport{
			Entries:           entries,
			Analysis:          analysis,
			SectionStats:      sectionStats,
			LeftBackend:       leftBackend,
			RightBackend:      rightBackend,
			BackendTransition: transition,
		}
		raw, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
	default:
		Println(report.RenderDiffText(entries))
		Println()
		Println("Action Analysis")
		Println(report.RenderAnalysis(analysis))
		if opts.SectionSummary {
			Println()
			Println("Section Summary")
			Println(report.RenderSectionStats(sectionStats))
		}
	}
	return nil
}

// filterDiffSection keeps entries whose path touches the named section
// or any of its cross-platform equivalents.
func filterDiffSection(entries []xmldiff.Entry, section string) []xmldiff.Entry {
	tags := mappings.SectionTags(section)
	if len(tags) == 0 {
		tags = []string{section}
	}
	needles := make([]string, 0, len(tags))
	for _, tag := range tags {
		needles = append(needles, "."+tag)
	}

	var out []xmldiff.Entry
	for _, entry := range entries {
		for _, needle := range needles {
			if strings.Contains(entry.Path, needle) || strings.HasPrefix(entry.Path, needle[1:]) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}
