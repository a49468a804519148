package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParentPath(t *testing.T) {
	parent, ok := SplitParentPath("root.system.hostname")
	require.True(t, ok)
	assert.Equal(t, "root.system", parent)

	// Bracketed selectors may contain dots; the split must not break on them.
	parent, ok = SplitParentPath("root.interfaces.wan[192.168.1.1].ipaddr")
	require.True(t, ok)
	assert.Equal(t, "root.interfaces.wan[192.168.1.1]", parent)

	_, ok = SplitParentPath("root")
	assert.False(t, ok)
}

func TestNormalizeRootPath(t *testing.T) {
	got := NormalizeRootPath("pfsense.system.hostname", "opnsense", "pfsense", "opnsense")
	assert.Equal(t, "opnsense.system.hostname", got)

	got = NormalizeRootPath("opnsense", "pfsense", "pfsense", "opnsense")
	assert.Equal(t, "pfsense", got)

	// Unrelated roots pass through untouched.
	got = NormalizeRootPath("other.system", "opnsense", "pfsense", "opnsense")
	assert.Equal(t, "other.system", got)
}

func TestFindByPath(t *testing.T) {
	root, err := Parse([]byte(`<pfsense>
  <system><hostname>fw1</hostname></system>
  <filter>
    <rule><tracker>aa11</tracker><descr>first</descr></rule>
    <rule><tracker>bb22</tracker><descr>second</descr></rule>
  </filter>
</pfsense>`))
	require.NoError(t, err)

	n := FindByPath(root, "pfsense.system.hostname")
	require.NotNil(t, n)
	assert.Equal(t, "fw1", n.Text)

	// Positional selector is 1-based.
	n = FindByPath(root, "pfsense.filter.rule[2]")
	require.NotNil(t, n)
	assert.Equal(t, "second", n.ChildText("descr"))

	// Key selector matches a direct child text value.
	n = FindByPath(root, "pfsense.filter.rule[aa11]")
	require.NotNil(t, n)
	assert.Equal(t, "first", n.ChildText("descr"))

	assert.Nil(t, FindByPath(root, "pfsense.missing.path"))
	assert.Nil(t, FindByPath(root, "opnsense.system"))
	assert.Nil(t, FindByPath(root, "pfsense.filter.rule[9]"))
}
