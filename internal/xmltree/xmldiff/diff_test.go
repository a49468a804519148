package xmldiff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

func mustParse(t *testing.T, src string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func kinds(entries []Entry) map[Kind]int {
	out := map[Kind]int{}
	for _, e := range entries {
		out[e.Kind]++
	}
	return out
}

func TestDiffIdenticalTreesEmpty(t *testing.T) {
	left := mustParse(t, "<root><a>1</a><b>2</b></root>")
	right := mustParse(t, "<root><a>1</a><b>2</b></root>")
	assert.Empty(t, Diff(left, right))
}

func TestDiffModifiedText(t *testing.T) {
	left := mustParse(t, "<root><hostname>fw1</hostname></root>")
	right := mustParse(t, "<root><hostname>fw2</hostname></root>")

	entries := Diff(left, right)
	require.Len(t, entries, 1)
	assert.Equal(t, Modified, entries[0].Kind)
	assert.Equal(t, "root.hostname[1]", entries[0].Path)
	assert.Contains(t, entries[0].Left, `"fw1"`)
	assert.Contains(t, entries[0].Right, `"fw2"`)
}

func TestDiffTextWhitespaceInsensitive(t *testing.T) {
	left := mustParse(t, "<root><a> x </a></root>")
	right := mustParse(t, "<root><a>x</a></root>")
	assert.Empty(t, Diff(left, right))
}

func TestDiffOnlySides(t *testing.T) {
	left := mustParse(t, "<root><a>1</a><gone>x</gone></root>")
	right := mustParse(t, "<root><a>1</a><added>y</added></root>")

	entries := Diff(left, right)
	counts := kinds(entries)
	assert.Equal(t, 1, counts[OnlyLeft])
	assert.Equal(t, 1, counts[OnlyRight])

	for _, e := range entries {
		if e.Kind == OnlyLeft {
			assert.Equal(t, "root.gone[1]", e.Path)
			require.NotNil(t, e.Node)
			assert.Equal(t, "x", e.Node.Text)
		}
	}
}

func TestDiffAttributeChange(t *testing.T) {
	left := mustParse(t, `<root><rule uuid="a"/></root>`)
	right := mustParse(t, `<root><rule uuid="b"/></root>`)

	entries := Diff(left, right)
	require.Len(t, entries, 1)
	assert.Equal(t, Modified, entries[0].Kind)
}

func TestDiffStructuralOnTagMismatch(t *testing.T) {
	opts := DefaultOptions()
	opts.KeyFields = map[string]string{}

	left := mustParse(t, "<pfsense><system/></pfsense>")
	right := mustParse(t, "<opnsense><system/></opnsense>")

	entries := DiffWithOptions(left, right, opts)
	require.NotEmpty(t, entries)
	assert.Equal(t, Structural, entries[0].Kind)
	assert.Contains(t, entries[0].Description, "tag mismatch")
}

func TestDiffKeyFieldMatching(t *testing.T) {
	opts := DefaultOptions()
	opts.KeyFields = map[string]string{"alias": "name"}

	// Same aliases in different order must match by name, not position.
	left := mustParse(t, `<root><aliases>
	  <alias><name>web</name><address>10.0.0.1</address></alias>
	  <alias><name>db</name><address>10.0.0.2</address></alias>
	</aliases></root>`)
	right := mustParse(t, `<root><aliases>
	  <alias><name>db</name><address>10.0.0.2</address></alias>
	  <alias><name>web</name><address>10.0.0.9</address></alias>
	</aliases></root>`)

	entries := DiffWithOptions(left, right, opts)
	require.Len(t, entries, 1)
	assert.Equal(t, Modified, entries[0].Kind)
	assert.Equal(t, "root.aliases[1].alias[web].address[1]", entries[0].Path)
}

func TestDiffKeyFieldOnlySides(t *testing.T) {
	opts := DefaultOptions()
	opts.KeyFields = map[string]string{"alias": "name"}

	left := mustParse(t, `<root><alias><name>old</name></alias></root>`)
	right := mustParse(t, `<root><alias><name>new</name></alias></root>`)

	entries := DiffWithOptions(left, right, opts)
	counts := kinds(entries)
	assert.Equal(t, 1, counts[OnlyLeft])
	assert.Equal(t, 1, counts[OnlyRight])
	for _, e := range entries {
		switch e.Kind {
		case OnlyLeft:
			assert.Equal(t, "root.alias[old]", e.Path)
		case OnlyRight:
			assert.Equal(t, "root.alias[new]", e.Path)
		}
	}
}

func TestDiffIgnorePaths(t *testing.T) {
	opts := DefaultOptions()
	opts.IgnorePaths = []string{"revision"}

	left := mustParse(t, "<root><revision><time>1</time></revision><a>x</a></root>")
	right := mustParse(t, "<root><revision><time>2</time></revision><a>y</a></root>")

	entries := DiffWithOptions(left, right, opts)
	require.Len(t, entries, 1)
	assert.Equal(t, "root.a[1]", entries[0].Path)
}

func TestDiffMaxDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 1

	left := mustParse(t, "<root><a><deep>1</deep></a></root>")
	right := mustParse(t, "<root><a><deep>2</deep></a></root>")

	assert.Empty(t, DiffWithOptions(left, right, opts))
}

func TestDiffIncludeIdentical(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeIdentical = true

	left := mustParse(t, "<root><a>1</a></root>")
	right := mustParse(t, "<root><a>1</a></root>")

	entries := DiffWithOptions(left, right, opts)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, Identical, e.Kind)
	}
}

func TestFormatText(t *testing.T) {
	left := mustParse(t, "<root><a>1</a><gone>x</gone></root>")
	right := mustParse(t, "<root><a>2</a><added>y</added></root>")

	out := FormatText(Diff(left, right))
	assert.Contains(t, out, "~ root.a[1]")
	assert.Contains(t, out, "- root.gone[1]")
	assert.Contains(t, out, "+ root.added[1]")
}

func TestFormatSummary(t *testing.T) {
	left := mustParse(t, "<root><a>1</a><gone>x</gone></root>")
	right := mustParse(t, "<root><a>2</a></root>")

	out := FormatSummary(Diff(left, right))
	assert.Contains(t, out, "modified=1")
	assert.Contains(t, out, "only_left=1")
	assert.Contains(t, out, "only_right=0")
}

func TestFormatJSON(t *testing.T) {
	left := mustParse(t, "<root><a>1</a></root>")
	right := mustParse(t, "<root><a>2</a></root>")

	out := FormatJSON(Diff(left, right))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "modified", rows[0]["type"])
	assert.Equal(t, "root.a[1]", rows[0]["path"])
}
