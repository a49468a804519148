package report

import (
	"fmt"
	"sort"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// SuggestedMapping proposes a correspondence between section names
// that differ across the two configs.
type SuggestedMapping struct {
	Left       string `json:"left"`
	Right      string `json:"right"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// ExtraFinding is one heuristic hint about a moved, renamed, or
// dependency-gapped section.
type ExtraFinding struct {
	Kind    string   `json:"kind"`
	Section string   `json:"section"`
	Side    string   `json:"side"`
	Paths   []string `json:"paths"`
	Reason  string   `json:"reason"`
}

// ExtraGroup bundles findings that concern the same section.
type ExtraGroup struct {
	Section  string         `json:"section"`
	Findings []ExtraFinding `json:"findings"`
}

// SectionInventory compares the top-level sections of two configs.
type SectionInventory struct {
	LeftRoot           string                  `json:"left_root"`
	RightRoot          string                  `json:"right_root"`
	LeftVersion        detect.VersionDetection `json:"left_version"`
	RightVersion       detect.VersionDetection `json:"right_version"`
	LeftDHCPBackend    detect.BackendDetection `json:"left_dhcp_backend"`
	RightDHCPBackend   detect.BackendDetection `json:"right_dhcp_backend"`
	MappingsSource     string                  `json:"mappings_source"`
	LeftSections       []string                `json:"left_sections"`
	RightSections      []string                `json:"right_sections"`
	Common             []string                `json:"common"`
	LeftOnly           []string                `json:"left_only"`
	RightOnly          []string                `json:"right_only"`
	SuggestedMappings  []SuggestedMapping      `json:"suggested_mappings"`
	LeftAliasPaths     []string                `json:"left_alias_paths"`
	RightAliasPaths    []string                `json:"right_alias_paths"`
	Extras             []ExtraFinding          `json:"extras"`
	ExtrasGrouped      []ExtraGroup            `json:"extras_grouped"`
	UnmatchedLeftOnly  []string                `json:"unmatched_left_only"`
	UnmatchedRightOnly []string                `json:"unmatched_right_only"`
}

// ExtrasJSONReport is the compact extras-only payload.
type ExtrasJSONReport struct {
	MappingsSource     string       `json:"mappings_source"`
	ExtrasGrouped      []ExtraGroup `json:"extras_grouped"`
	UnmatchedLeftOnly  []string     `json:"unmatched_left_only"`
	UnmatchedRightOnly []string     `json:"unmatched_right_only"`
}

// BuildInventory compares the top-level sections of two config trees,
// suggesting mappings for renamed sections and, when includeExtras is
// set, running the heuristic extras pass.
func BuildInventory(left, right *xmltree.Node, includeExtras bool, sectionMappings []mappings.SectionMapping, mappingsSource string) SectionInventory {
	leftSections := collectTopSections(left)
	rightSections := collectTopSections(right)

	leftSet := toSet(leftSections)
	rightSet := toSet(rightSections)

	var common, leftOnly, rightOnly []string
	for _, s := range leftSections {
		if rightSet[s] {
			common = append(common, s)
		} else {
			leftOnly = append(leftOnly, s)
		}
	}
	for _, s := range rightSections {
		if !leftSet[s] {
			rightOnly = append(rightOnly, s)
		}
	}
	sort.Strings(common)
	sort.Strings(leftOnly)
	sort.Strings(rightOnly)

	var suggested []SuggestedMapping
	matchedLeft := map[string]bool{}
	matchedRight := map[string]bool{}

	for _, mapping := range sectionMappings {
		if !contains(leftOnly, mapping.Left) {
			continue
		}
		for _, candidate := range mapping.Right {
			rightTopMatch := ""
			for _, name := range rightOnly {
				if normalizeSection(name) == normalizeSection(candidate) {
					rightTopMatch = name
					break
				}
			}
			rightNested := findPathsByCanonicalTag(right, candidate)
			if rightTopMatch == "" && len(rightNested) == 0 {
				continue
			}
			confidence := "medium"
			if rightTopMatch != "" {
				confidence = "high"
			}
			suggested = append(suggested, SuggestedMapping{
				Left:       mapping.Left,
				Right:      candidate,
				Confidence: confidence,
				Reason:     fmt.Sprintf("%s [%s]", mapping.Note, mapping.Category),
			})
			matchedLeft[mapping.Left] = true
			if rightTopMatch != "" {
				matchedRight[rightTopMatch] = true
			}
		}
	}

	for _, leftName := range leftOnly {
		for _, rightName := range rightOnly {
			if normalizeSection(leftName) == normalizeSection(rightName) {
				suggested = append(suggested, SuggestedMapping{
					Left:       leftName,
					Right:      rightName,
					Confidence: "medium",
					Reason:     "normalized names match",
				})
				matchedLeft[leftName] = true
				matchedRight[rightName] = true
			}
		}
	}

	var extras []ExtraFinding
	if includeExtras {
		extras = buildAllExtras(left, right, leftOnly, rightOnly, leftSections, sectionMappings)
	}
	grouped := groupExtras(extras)

	for _, finding := range extras {
		if finding.Kind != "nested_presence" {
			continue
		}
		switch finding.Side {
		case "left_only":
			matchedLeft[finding.Section] = true
		case "right_only":
			matchedRight[finding.Section] = true
		}
	}

	var unmatchedLeft, unmatchedRight []string
	for _, s := range leftOnly {
		if !matchedLeft[s] {
			unmatchedLeft = append(unmatchedLeft, s)
		}
	}
	for _, s := range rightOnly {
		if !matchedRight[s] {
			unmatchedRight = append(unmatchedRight, s)
		}
	}

	return SectionInventory{
		LeftRoot:           left.Tag,
		RightRoot:          right.Tag,
		LeftVersion:        detect.VersionInfo(left),
		RightVersion:       detect.VersionInfo(right),
		LeftDHCPBackend:    detect.DHCPBackend(left),
		RightDHCPBackend:   detect.DHCPBackend(right),
		MappingsSource:     mappingsSource,
		LeftSections:       leftSections,
		RightSections:      rightSections,
		Common:             common,
		LeftOnly:           leftOnly,
		RightOnly:          rightOnly,
		SuggestedMappings:  suggested,
		LeftAliasPaths:     findAliasPaths(left),
		RightAliasPaths:    findAliasPaths(right),
		Extras:             extras,
		ExtrasGrouped:      grouped,
		UnmatchedLeftOnly:  unmatchedLeft,
		UnmatchedRightOnly: unmatchedRight,
	}
}

// ExtrasReport strips an inventory down to the extras-only payload.
func ExtrasReport(inv SectionInventory) ExtrasJSONReport {
	return ExtrasJSONReport{
		MappingsSource:     inv.MappingsSource,
		ExtrasGrouped:      inv.ExtrasGrouped,
		UnmatchedLeftOnly:  inv.UnmatchedLeftOnly,
		UnmatchedRightOnly: inv.UnmatchedRightOnly,
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
