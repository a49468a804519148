package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const minimalPfSense = `<pfsense>
  <system/>
  <interfaces><lan/></interfaces>
  <filter/>
</pfsense>`

func itemByID(t *testing.T, report MigrateCheckReport, id string) MigrateCheckItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %q not in report", id)
	return MigrateCheckItem{}
}

func TestMigrateCheckPassesOnCleanConfig(t *testing.T) {
	report := BuildMigrateCheckReport(mustParse(t, minimalPfSense), "pfsense")

	assert.True(t, report.Pass)
	assert.Equal(t, 0, report.Errors)
	assert.True(t, itemByID(t, report, "platform_target_match").Pass)
	assert.True(t, itemByID(t, report, "required_sections").Pass)
	assert.True(t, itemByID(t, report, "dhcp_integrity").Pass)
}

func TestMigrateCheckFailsOnPlatformMismatch(t *testing.T) {
	report := BuildMigrateCheckReport(mustParse(t, minimalPfSense), "opnsense")

	assert.False(t, report.Pass)
	item := itemByID(t, report, "platform_target_match")
	assert.False(t, item.Pass)
	assert.Contains(t, item.Detail, "detected=pfsense target=opnsense")
}

func TestMigrateCheckFailsOnBrokenReferences(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule><tracker>100</tracker><interface>opt9</interface></rule>
  </filter>
</pfsense>`)

	report := BuildMigrateCheckReport(root, "pfsense")
	assert.False(t, report.Pass)
	assert.False(t, itemByID(t, report, "interface_integrity").Pass)
	assert.Greater(t, report.Errors, 0)
}

func TestMigrateCheckProfileWarningsCountedWithTargetVersion(t *testing.T) {
	report := BuildMigrateCheckReportWithVersion(mustParse(t, minimalPfSense), "pfsense", "99", "")

	// The forward-looking profile expects a section this config lacks;
	// that stays advisory and does not fail the gate.
	assert.True(t, report.Pass)
	assert.Equal(t, 1, report.Warnings)
	assert.Contains(t, itemByID(t, report, "profile_baseline").Detail, "warnings=1")
}

func TestMigrateCheckCarriesSummaryCounts(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule><tracker>100</tracker><interface>lan</interface></rule>
    <rule><tracker>200</tracker><interface>wan</interface></rule>
  </filter>
</pfsense>`)

	report := BuildMigrateCheckReport(root, "pfsense")
	assert.Equal(t, 2, report.Summary.Interfaces)
	assert.Equal(t, 2, report.Summary.Rules)
}

func TestRenderMigrateCheckText(t *testing.T) {
	report := BuildMigrateCheckReport(mustParse(t, minimalPfSense), "pfsense")
	out := RenderMigrateCheckText(report, true)

	assert.Contains(t, out, "migrate_check pass=true platform=pfsense target=pfsense")
	assert.Contains(t, out, "Using profiles: embedded")
	assert.Contains(t, out, "Using mappings: embedded")
	assert.Contains(t, out, "- [PASS] platform_target_match:")
}
