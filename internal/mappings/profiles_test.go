package mappings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileDefault(t *testing.T) {
	profile, ok := LoadProfile("pfsense", "")
	require.True(t, ok)
	assert.Contains(t, profile.RequiredSections, "system")
	assert.Contains(t, profile.RequiredSections, "filter")
	assert.Equal(t, "tracker", profile.FirewallOrderKey)
	assert.True(t, profile.BridgeRequireMembers)

	profile, ok = LoadProfile("opnsense", "")
	require.True(t, ok)
	assert.Contains(t, profile.DeprecatedSections, "dhcpd")
}

func TestLoadProfileFallsBackToMajorVersion(t *testing.T) {
	// No exact 99.9 profile exists; the loader must fall back to the
	// 99 major profile, which carries an extra required section.
	profile, ok := LoadProfile("pfsense", "99.9")
	require.True(t, ok)
	assert.Contains(t, profile.RequiredSections, "future_section_99")
}

func TestLoadProfileFallsBackToDefault(t *testing.T) {
	profile, ok := LoadProfile("pfsense", "23.05")
	require.True(t, ok)
	assert.NotContains(t, profile.RequiredSections, "future_section_99")
	assert.Contains(t, profile.RequiredSections, "system")
}

func TestLoadProfileUnknownPlatform(t *testing.T) {
	_, ok := LoadProfile("junos", "1.0")
	assert.False(t, ok)
}

func TestLoadProfileWithSourceDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pfsense"), 0o755))
	path := filepath.Join(dir, "pfsense", "default.yaml")
	content := `required_sections: [system, custom_section]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profile, source, ok := LoadProfileWithSource("pfsense", "", dir)
	require.True(t, ok)
	assert.Equal(t, "file:"+path, source)
	assert.Contains(t, profile.RequiredSections, "custom_section")

	// Without the override the embedded table is used.
	_, source, ok = LoadProfileWithSource("pfsense", "", "")
	require.True(t, ok)
	assert.Equal(t, "embedded", source)
}

func TestLoadProfileWithSourceExactBeatsMajor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "opnsense"), 0o755))
	exact := filepath.Join(dir, "opnsense", "24.7.yaml")
	require.NoError(t, os.WriteFile(exact, []byte("required_sections: [exact_hit]\n"), 0o644))
	major := filepath.Join(dir, "opnsense", "24.yaml")
	require.NoError(t, os.WriteFile(major, []byte("required_sections: [major_hit]\n"), 0o644))

	profile, source, ok := LoadProfileWithSource("opnsense", "24.7", dir)
	require.True(t, ok)
	assert.Equal(t, "file:"+exact, source)
	assert.Equal(t, []string{"exact_hit"}, profile.RequiredSections)
}
