package mappings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSectionMappings(t *testing.T) {
	loaded := DefaultSectionMappings()
	require.NotEmpty(t, loaded)

	var found *SectionMapping
	for i := range loaded {
		if loaded[i].Left == "installedpackages" {
			found = &loaded[i]
			break
		}
	}
	require.NotNil(t, found, "installedpackages mapping must be embedded")
	assert.Contains(t, found.Right, "OPNsense")
	assert.Equal(t, "packages", found.Category)
}

func TestLoadSectionMappingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sections.yaml")
	content := `mapping:
  - left: custom
    right: [Custom]
    category: test
    note: test entry
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadSectionMappings(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "custom", loaded[0].Left)
	assert.Equal(t, []string{"Custom"}, loaded[0].Right)
}

func TestLoadSectionMappingsErrors(t *testing.T) {
	_, err := LoadSectionMappings("/nonexistent/sections.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mapping: {not a list}"), 0o644))
	_, err = LoadSectionMappings(path)
	assert.Error(t, err)
}

func TestDefaultPluginMatrix(t *testing.T) {
	matrix := DefaultPluginMatrix()

	wg := matrix.FindByID("wireguard")
	require.NotNil(t, wg)
	assert.Equal(t, PluginSupported, wg.Status)

	assert.Nil(t, matrix.FindByID("nonexistent"))
}

func TestPluginMatrixFindByMarker(t *testing.T) {
	matrix := DefaultPluginMatrix()

	entry := matrix.FindByMarker("pfsense", "wireguard")
	require.NotNil(t, entry)
	assert.Equal(t, "wireguard", entry.ID)

	entry = matrix.FindByMarker("opnsense", "os-wireguard")
	require.NotNil(t, entry)
	assert.Equal(t, "wireguard", entry.ID)

	assert.Nil(t, matrix.FindByMarker("pfsense", "no-such-plugin"))
}

func TestPluginMatrixTargetCompat(t *testing.T) {
	matrix := DefaultPluginMatrix()

	assert.True(t, matrix.IsTargetCompatible("wireguard", "opnsense"))
	// pfSense-only packages do not carry over.
	assert.False(t, matrix.IsTargetCompatible("pfblockerng", "opnsense"))
	// Unknown ids are not compatible with anything.
	assert.False(t, matrix.IsTargetCompatible("nonexistent", "opnsense"))
}

func TestDefaultKeyFields(t *testing.T) {
	fields := DefaultKeyFields()
	assert.Equal(t, "tracker", fields["rule"])
	assert.Equal(t, "name", fields["alias"])
}

func TestSectionTags(t *testing.T) {
	assert.Equal(t, []string{"system"}, SectionTags("system"))
	assert.Contains(t, SectionTags("firewall"), "nat")
	assert.Contains(t, SectionTags("vpn"), "wireguard")
	assert.Nil(t, SectionTags("bogus"))
}
