package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

func mustParse(t *testing.T, src string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestAnalyzeClassifiesDiffEntries(t *testing.T) {
	left := mustParse(t, "<config><a>1</a><b>2</b></config>")
	right := mustParse(t, "<config><a>9</a><c>3</c></config>")

	entries := xmldiff.Diff(left, right)
	analysis := Analyze(entries)

	byAction := map[Action]int{}
	for _, entry := range analysis {
		byAction[entry.Action]++
	}
	assert.Equal(t, 1, byAction[ActionConflictManual])
	assert.Equal(t, 1, byAction[ActionInsertLeftToRight])
	assert.Equal(t, 1, byAction[ActionInsertRightToLeft])

	for _, entry := range analysis {
		if entry.Action == ActionConflictManual {
			assert.False(t, entry.Safe)
			assert.Equal(t, "value differs on both sides", entry.Reason)
		} else {
			assert.True(t, entry.Safe)
		}
	}
}

func TestAnalyzeStructuralIsManual(t *testing.T) {
	left := mustParse(t, "<config/>")
	right := mustParse(t, "<system/>")

	analysis := Analyze(xmldiff.Diff(left, right))
	require.NotEmpty(t, analysis)
	assert.Equal(t, ActionConflictManual, analysis[0].Action)
	assert.Contains(t, analysis[0].Reason, "structural mismatch")
}

func TestSummarizeAnalysis(t *testing.T) {
	analysis := []AnalysisEntry{
		{Action: ActionInsertLeftToRight},
		{Action: ActionInsertLeftToRight},
		{Action: ActionInsertRightToLeft},
		{Action: ActionConflictManual},
		{Action: ActionNoop},
	}
	assert.Equal(t,
		"insert_left_to_right=2 insert_right_to_left=1 conflict_manual=1 noop=1",
		SummarizeAnalysis(analysis))
}

func TestSummarizeBySection(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <system><hostname>edge</hostname></system>
  <filter><rule><tracker>100</tracker></rule></filter>
</pfsense>`)
	right := mustParse(t, `<pfsense>
  <system><hostname>base</hostname></system>
</pfsense>`)

	entries := xmldiff.Diff(left, right)
	rows := SummarizeBySection(entries, Analyze(entries))

	byName := map[string]SectionStats{}
	for _, row := range rows {
		byName[row.Section] = row
	}
	require.Contains(t, byName, "system")
	require.Contains(t, byName, "filter")
	assert.Equal(t, 1, byName["system"].Modified)
	assert.Equal(t, 1, byName["system"].ConflictManual)
	assert.Equal(t, 1, byName["filter"].OnlyLeft)
	assert.Equal(t, 1, byName["filter"].SafeActions)
}

func TestRenderAnalysis(t *testing.T) {
	out := RenderAnalysis([]AnalysisEntry{
		{Path: "config.a[1]", Action: ActionInsertLeftToRight, Safe: true, Reason: "missing on right"},
		{Path: "config.b[1]", Action: ActionConflictManual, Reason: "value differs on both sides"},
	})
	assert.Contains(t, out, "SAFE action=insert_left_to_right path=config.a[1]")
	assert.Contains(t, out, "MANUAL action=conflict_manual path=config.b[1]")
}
