// Package report holds the read-only advisory subsystems: diff action
// analysis, section inventories, plugin detection, migration readiness
// scanning, pre-restore verification, and the strict migrate-check
// gate. Nothing in this package mutates a config tree.
package report

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// Action is the recommended handling for one diff entry.
type Action int

const (
	// ActionNoop means no action is needed.
	ActionNoop Action = iota
	// ActionInsertLeftToRight is a safe insert into the right tree.
	ActionInsertLeftToRight
	// ActionInsertRightToLeft is a safe insert into the left tree.
	ActionInsertRightToLeft
	// ActionConflictManual requires manual reconciliation.
	ActionConflictManual
)

func (a Action) String() string {
	switch a {
	case ActionInsertLeftToRight:
		return "insert_left_to_right"
	case ActionInsertRightToLeft:
		return "insert_right_to_left"
	case ActionConflictManual:
		return "conflict_manual"
	}
	return "noop"
}

// MarshalText lets the action serialize as its wire name in JSON.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// AnalysisEntry is the action-oriented view of one diff path.
type AnalysisEntry struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Safe   bool   `json:"safe"`
	Reason string `json:"reason"`
}

// Analyze classifies diff entries into recommended actions.
func Analyze(entries []xmldiff.Entry) []AnalysisEntry {
	out := make([]AnalysisEntry, 0, len(entries))
	for _, entry := range entries {
		switch entry.Kind {
		case xmldiff.Identical:
			out = append(out, AnalysisEntry{
				Path: entry.Path, Action: ActionNoop, Safe: true, Reason: "identical",
			})
		case xmldiff.OnlyLeft:
			out = append(out, AnalysisEntry{
				Path: entry.Path, Action: ActionInsertLeftToRight, Safe: true, Reason: "missing on right",
			})
		case xmldiff.OnlyRight:
			out = append(out, AnalysisEntry{
				Path: entry.Path, Action: ActionInsertRightToLeft, Safe: true, Reason: "missing on left",
			})
		case xmldiff.Modified:
			out = append(out, AnalysisEntry{
				Path: entry.Path, Action: ActionConflictManual, Safe: false, Reason: "value differs on both sides",
			})
		case xmldiff.Structural:
			out = append(out, AnalysisEntry{
				Path:   entry.Path,
				Action: ActionConflictManual,
				Safe:   false,
				Reason: "structural mismatch: " + entry.Description,
			})
		}
	}
	return out
}

// SummarizeAnalysis counts analysis outcomes by action.
func SummarizeAnalysis(entries []AnalysisEntry) string {
	var l2r, r2l, conflict, noop int
	for _, entry := range entries {
		switch entry.Action {
		case ActionInsertLeftToRight:
			l2r++
		case ActionInsertRightToLeft:
			r2l++
		case ActionConflictManual:
			conflict++
		case ActionNoop:
			noop++
		}
	}
	return fmt.Sprintf("insert_left_to_right=%d insert_right_to_left=%d conflict_manual=%d noop=%d",
		l2r, r2l, conflict, noop)
}
