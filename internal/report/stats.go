package report

import (
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// SectionStats aggregates diff and action counts for one top-level
// section.
type SectionStats struct {
	Section        string `json:"section"`
	Modified       int    `json:"modified"`
	OnlyLeft       int    `json:"only_left"`
	OnlyRight      int    `json:"only_right"`
	Structural     int    `json:"structural"`
	ConflictManual int    `json:"conflict_manual"`
	SafeActions    int    `json:"safe_actions"`
}

// SummarizeBySection groups diff entries and analysis actions by the
// top-level section of each path, sorted by section name.
func SummarizeBySection(entries []xmldiff.Entry, analysis []AnalysisEntry) []SectionStats {
	stats := make(map[string]*SectionStats)
	row := func(section string) *SectionStats {
		if existing, ok := stats[section]; ok {
			return existing
		}
		created := &SectionStats{Section: section}
		stats[section] = created
		return created
	}

	for _, entry := range entries {
		r := row(sectionFromPath(entry.Path))
		switch entry.Kind {
		case xmldiff.Modified:
			r.Modified++
		case xmldiff.OnlyLeft:
			r.OnlyLeft++
		case xmldiff.OnlyRight:
			r.OnlyRight++
		case xmldiff.Structural:
			r.Structural++
		}
	}

	for _, action := range analysis {
		r, ok := stats[sectionFromPath(action.Path)]
		if !ok {
			continue
		}
		if action.Safe {
			r.SafeActions++
		} else {
			r.ConflictManual++
		}
	}

	rows := make([]SectionStats, 0, len(stats))
	for _, r := range stats {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Section < rows[j].Section })
	return rows
}

// sectionFromPath extracts the second path segment, stripping any
// bracketed selector; a bare root yields "(root)".
func sectionFromPath(path string) string {
	rest := path
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[i+1:]
	} else {
		return "(root)"
	}
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '['); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
