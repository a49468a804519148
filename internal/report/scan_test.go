package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScanReportBasics(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <version>23.05</version>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter/>
  <dhcpd><lan><enable/></lan></dhcpd>
  <bogussection/>
</pfsense>`)

	report := BuildScanReport(root, "")
	assert.Equal(t, "pfsense", report.Platform)
	assert.Equal(t, "23.05", report.Version.Value)
	assert.Equal(t, "isc", report.DHCPBackend)
	assert.Equal(t, "embedded", report.MappingsSource)

	assert.Contains(t, report.SupportedSections, "system")
	assert.Contains(t, report.SupportedSections, "filter")
	assert.Contains(t, report.SupportedSections, "dhcpd")
	assert.Contains(t, report.ReviewSections, "bogussection")
	assert.NotContains(t, report.ReviewSections, "system")

	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "review with sections --extras")
}

func TestBuildScanReportCleanRecommendation(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter/>
</pfsense>`)

	report := BuildScanReport(root, "")
	assert.Empty(t, report.ReviewSections)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "no immediate blockers")
}

func TestBuildScanReportUnsupportedPlugins(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <installedpackages>
    <package><name>wireguard</name></package>
    <package><name>pfBlockerNG</name></package>
    <package><name>fancypkg</name></package>
  </installedpackages>
</pfsense>`)

	report := BuildScanReport(root, "opnsense")
	assert.Contains(t, report.KnownPluginsPresent, "wireguard")
	assert.Contains(t, report.KnownPluginsPresent, "pfblockerng")
	assert.Contains(t, report.UnsupportedPlugins, "pfblockerng")
	assert.Contains(t, report.UnsupportedPlugins, "fancypkg")
	assert.NotContains(t, report.UnsupportedPlugins, "wireguard")

	// pfBlockerNG is only marked compatible with pfSense.
	assert.Contains(t, report.MissingTargetCompat, "pfblockerng")
	assert.NotContains(t, report.MissingTargetCompat, "wireguard")
}

func TestBuildScanReportDerivedSections(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <bridges><bridged><members>wan,lan</members></bridged></bridges>
  <OPNsense><Gateways><gateway_item/></Gateways></OPNsense>
</opnsense>`)

	report := BuildScanReport(root, "")
	assert.Contains(t, report.SupportedSections, "gateways")
	assert.Contains(t, report.SupportedSections, "bridges")
	assert.NotContains(t, report.ReviewSections, "bridges")
}

func TestRenderScanText(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <version>23.05</version>
  <system/>
  <interfaces><wan/><lan/></interfaces>
</pfsense>`)

	report := BuildScanReport(root, "opnsense")
	out := RenderScanText(report, true)
	assert.Contains(t, out, "scan platform=pfsense version=23.05 version_source=pfsense.version version_confidence=high")
	assert.Contains(t, out, "Using mappings: embedded")
	assert.Contains(t, out, "target_platform=opnsense")
	assert.Contains(t, out, "supported_sections")
	assert.Contains(t, out, "recommendations")
}
