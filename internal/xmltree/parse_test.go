package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	input := []byte(`<?xml version="1.0"?>
<pfsense>
  <version>23.05</version>
  <system>
    <hostname>fw1</hostname>
  </system>
  <filter>
    <rule uuid="abc">
      <descr>Allow &amp; log</descr>
    </rule>
  </filter>
</pfsense>`)

	root, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, "pfsense", root.Tag)
	assert.Equal(t, "23.05", root.ChildText("version"))
	assert.Equal(t, "fw1", root.Find("system", "hostname").Text)

	rule := root.Find("filter", "rule")
	require.NotNil(t, rule)
	uuid, ok := rule.Attr("uuid")
	require.True(t, ok)
	assert.Equal(t, "abc", uuid)
	assert.Equal(t, "Allow & log", rule.ChildText("descr"))

	// Parse(Write(x)) must reproduce the same tree.
	again, err := Parse(Write(root))
	require.NoError(t, err)
	assert.True(t, root.Equal(again))
}

func TestParseDropsWhitespaceText(t *testing.T) {
	root, err := Parse([]byte("<root>\n  <a>x</a>\n</root>"))
	require.NoError(t, err)
	assert.Equal(t, "", root.Text)
	assert.Equal(t, "x", root.ChildText("a"))
}

func TestParseIgnoresCommentsAndDecl(t *testing.T) {
	root, err := Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?><!-- header --><root><!-- inner --><a>1</a></root>`))
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "1", root.ChildText("a"))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<root><a></root>"))
	assert.Error(t, err)

	_, err = Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("<a/><b/>"))
	assert.Error(t, err)
}

func TestWriteEscapesText(t *testing.T) {
	n := New("root")
	n.Append(NewText("descr", `a < b & "c"`))
	out := string(Write(n))
	assert.Contains(t, out, "a &lt; b &amp;")
	assert.NotContains(t, out, `a < b`)
}

func TestWriteSelfClosesEmptyElements(t *testing.T) {
	n := New("root")
	n.Append(New("enable"))
	assert.Contains(t, string(Write(n)), "<enable/>")
}

func TestWriteDeterministic(t *testing.T) {
	root, err := Parse([]byte("<root><b>2</b><a>1</a><a>3</a></root>"))
	require.NoError(t, err)
	first := Write(root)
	second := Write(root)
	assert.Equal(t, first, second)
	// Sibling order is preserved as parsed, never sorted.
	assert.Equal(t, "b", root.Children[0].Tag)
}
