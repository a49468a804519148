package xmldiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders diff entries as plain text, one marker per line:
// "=" identical, "~" modified, "-" only left, "+" only right,
// "!" structural mismatch.
func FormatText(entries []Entry) string {
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		switch e.Kind {
		case Identical:
			lines = append(lines, "= "+e.Path)
		case Modified:
			lines = append(lines, "~ "+e.Path)
			lines = append(lines, "  left:  "+e.Left)
			lines = append(lines, "  right: "+e.Right)
		case OnlyLeft:
			lines = append(lines, "- "+e.Path)
		case OnlyRight:
			lines = append(lines, "+ "+e.Path)
		case Structural:
			lines = append(lines, "! "+e.Path+": "+e.Description)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatSummary renders per-kind entry counts on one line.
func FormatSummary(entries []Entry) string {
	var identical, modified, onlyLeft, onlyRight, structural int
	for _, e := range entries {
		switch e.Kind {
		case Identical:
			identical++
		case Modified:
			modified++
		case OnlyLeft:
			onlyLeft++
		case OnlyRight:
			onlyRight++
		case Structural:
			structural++
		}
	}
	return fmt.Sprintf("identical=%d modified=%d only_left=%d only_right=%d structural=%d",
		identical, modified, onlyLeft, onlyRight, structural)
}

type jsonEntry struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Left        string `json:"left,omitempty"`
	Right       string `json:"right,omitempty"`
	Node        string `json:"node,omitempty"`
	Description string `json:"description,omitempty"`
}

// FormatJSON renders diff entries as pretty-printed JSON. Node
// snapshots serialize as their XML text.
func FormatJSON(entries []Entry) string {
	rows := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		row := jsonEntry{Type: e.Kind.String(), Path: e.Path}
		switch e.Kind {
		case Modified:
			row.Left = e.Left
			row.Right = e.Right
		case OnlyLeft, OnlyRight:
			if e.Node != nil {
				row.Node = e.Node.Tag
			}
		case Structural:
			row.Description = e.Description
		}
		rows = append(rows, row)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
