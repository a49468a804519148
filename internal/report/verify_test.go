package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCodes(report VerifyReport) []string {
	out := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func findIssue(report VerifyReport, code string) (Finding, bool) {
	for _, issue := range report.Issues {
		if issue.Code == code {
			return issue, true
		}
	}
	return Finding{}, false
}

func TestVerifyCleanConfigPasses(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system><hostname>edge</hostname></system>
  <interfaces>
    <wan><if>em0</if></wan>
    <lan><if>em1</if></lan>
  </interfaces>
  <filter>
    <rule><tracker>100</tracker><type>pass</type><interface>lan</interface></rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	assert.Equal(t, "pfsense", report.Platform)
	assert.Equal(t, 0, report.Errors)
	assert.Empty(t, report.Issues)
}

func TestVerifyUnknownPlatform(t *testing.T) {
	report := BuildVerifyReport(mustParse(t, "<router/>"), "")
	assert.Contains(t, issueCodes(report), "unknown_platform")
}

func TestVerifyMissingRequiredSection(t *testing.T) {
	report := BuildVerifyReport(mustParse(t, "<pfsense><system/></pfsense>"), "")
	issue, ok := findIssue(report, "missing_required_section")
	require.True(t, ok)
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Contains(t, issue.Message, "interfaces")
}

func TestVerifyDetectsMissingInterfaceReference(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan><if>em0</if></wan><lan><if>em1</if></lan></interfaces>
  <filter>
    <rule><tracker>100</tracker><interface>opt9</interface></rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "missing_interface_reference")
	require.True(t, ok)
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Contains(t, issue.Message, "opt9")
}

func TestVerifyDuplicateInterfaceAssignment(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><lan><if>em1</if></lan><lan><if>em2</if></lan></interfaces>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	assert.Contains(t, issueCodes(report), "duplicate_interface_assignment")
}

func TestVerifyDetectsEmptyBridgeMembers(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <bridges><bridged><descr>empty</descr></bridged></bridges>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "empty_bridge_members")
	require.True(t, ok)
	assert.Equal(t, SeverityError, issue.Severity)
}

func TestVerifyDetectsMissingBridgeMember(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <bridges><bridged><members>lan,opt7</members></bridged></bridges>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "missing_bridge_member")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "opt7")
}

func TestVerifyWarnsOnUnknownOutboundMode(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <nat><outbound><mode>bogus</mode></outbound></nat>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "nat_invalid_outbound_mode")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, issue.Severity)

	accepted := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <nat><outbound><mode>hybrid</mode></outbound></nat>
</pfsense>`)
	_, ok = findIssue(BuildVerifyReport(accepted, ""), "nat_invalid_outbound_mode")
	assert.False(t, ok)
}

func TestVerifyErrorsOnMissingNATInterface(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <nat>
    <rule><interface>opt2</interface><target>192.168.1.10</target></rule>
  </nat>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "nat_missing_interface")
	require.True(t, ok)
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Contains(t, issue.Message, "opt2")
}

func TestVerifyWarnsOnMissingAssociatedRule(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule><tracker>100</tracker><associated-rule-id>nat_100</associated-rule-id></rule>
  </filter>
  <nat>
    <rule><interface>wan</interface><associated-rule-id>nat_999</associated-rule-id></rule>
  </nat>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "nat_missing_associated_rule")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, issue.Severity)
	assert.Contains(t, issue.Message, "nat_999")
}

func TestVerifyDetectsMissingAliasReference(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <aliases>
    <alias><name>web_servers</name><address>10.0.0.1</address></alias>
  </aliases>
  <filter>
    <rule>
      <tracker>100</tracker>
      <interface>lan</interface>
      <source><address>web_servers</address></source>
      <destination><address>ghost_alias</address></destination>
    </rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "missing_alias_reference")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "ghost_alias")
	assert.NotContains(t, issue.Message, "web_servers")
}

func TestVerifyAcceptsLiteralAddresses(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule>
      <tracker>100</tracker>
      <interface>lan</interface>
      <source><address>192.168.1.0/24</address></source>
      <destination><address>any</address></destination>
    </rule>
  </filter>
</pfsense>`)

	_, ok := findIssue(BuildVerifyReport(root, ""), "missing_alias_reference")
	assert.False(t, ok)
}

func TestVerifyDetectsMissingGatewayReference(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <gateways>
    <gateway_item><name>WAN_GW</name><interface>wan</interface><gateway>203.0.113.1</gateway></gateway_item>
  </gateways>
  <filter>
    <rule><tracker>100</tracker><interface>lan</interface><gateway>LOST_GW</gateway></rule>
  </filter>
  <staticroutes>
    <route><network>10.9.0.0/16</network><gateway>WAN_GW</gateway></route>
    <route><network>10.8.0.0/16</network><gateway>NOPE_GW</gateway></route>
  </staticroutes>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	codes := issueCodes(report)
	assert.Contains(t, codes, "missing_gateway_reference")
	assert.Contains(t, codes, "missing_route_gateway")

	issue, _ := findIssue(report, "missing_route_gateway")
	assert.Contains(t, issue.Message, "NOPE_GW")
}

func TestVerifyScheduleReferences(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <schedules>
    <schedule><name>workhours</name></schedule>
  </schedules>
  <filter>
    <rule><tracker>100</tracker><interface>lan</interface><sched>workhours</sched></rule>
    <rule><tracker>101</tracker><interface>lan</interface><sched>weekend</sched></rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "missing_schedule_reference")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, issue.Severity)
	assert.Contains(t, issue.Message, "weekend")
	assert.NotContains(t, issue.Message, "workhours")
}

func TestVerifyDuplicateRuleSignature(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule>
      <tracker>100</tracker><type>pass</type><interface>lan</interface>
      <ipprotocol>inet</ipprotocol><protocol>tcp</protocol>
      <source><any/></source>
      <destination><address>10.0.0.5</address><port>443</port></destination>
      <descr>allow https</descr>
    </rule>
    <rule>
      <tracker>200</tracker><type>pass</type><interface>lan</interface>
      <ipprotocol>inet</ipprotocol><protocol>tcp</protocol>
      <source><any/></source>
      <destination><address>10.0.0.5</address><port>443</port></destination>
      <descr>allow https again</descr>
    </rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "duplicate_firewall_rule")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "100,200")
}

func TestVerifyDefaultRuleOverlapIsSeparate(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter>
    <rule>
      <tracker>100</tracker><type>pass</type><interface>lan</interface>
      <source><any/></source><destination><any/></destination>
      <descr>Default allow LAN to any rule</descr>
    </rule>
    <rule>
      <tracker>200</tracker><type>pass</type><interface>lan</interface>
      <source><any/></source><destination><any/></destination>
      <descr>my custom allow</descr>
    </rule>
  </filter>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	codes := issueCodes(report)
	assert.Contains(t, codes, "default_rule_overlap")
	assert.NotContains(t, codes, "duplicate_firewall_rule")
}

func TestVerifyWireGuardMissingAssignment(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan><if>em0</if></wan><lan><if>em1</if></lan></interfaces>
  <wireguard>
    <tunnels><item><enabled>1</enabled><name>tun_wg0</name></item></tunnels>
  </wireguard>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	assert.Contains(t, issueCodes(report), "wireguard_missing_interface_assignment")

	assigned := mustParse(t, `<pfsense>
  <system/>
  <interfaces>
    <wan><if>em0</if></wan>
    <opt1><if>tun_wg0</if></opt1>
  </interfaces>
  <wireguard>
    <tunnels><item><enabled>1</enabled><name>tun_wg0</name></item></tunnels>
  </wireguard>
</pfsense>`)
	assert.NotContains(t, issueCodes(BuildVerifyReport(assigned, "")), "wireguard_missing_interface_assignment")
}

func TestVerifyOpnsenseISCNeedsDeclaredPlugin(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <dhcpd><lan><enable/></lan></dhcpd>
</opnsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "dhcp_backend_inconsistent")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "os-isc-dhcp")

	declared := mustParse(t, `<opnsense>
  <system><firmware><plugins>os-isc-dhcp</plugins></firmware></system>
  <interfaces><wan/><lan/></interfaces>
  <dhcpd><lan><enable/></lan></dhcpd>
</opnsense>`)
	_, ok = findIssue(BuildVerifyReport(declared, ""), "dhcp_backend_inconsistent")
	assert.False(t, ok)
}

func TestVerifyPfSenseBackendMarkerConsistency(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <dhcpbackend>isc</dhcpbackend>
</pfsense>`)

	report := BuildVerifyReport(root, "")
	issue, ok := findIssue(report, "dhcp_backend_inconsistent")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "legacy DHCP sections are missing")
}

func TestVerifyProfileWarningsWithTargetVersion(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <system/>
  <interfaces><lan/></interfaces>
  <filter/>
</pfsense>`)

	report := BuildVerifyReportWithVersion(root, "pfsense", "99", "")
	assert.Equal(t, "99", report.Version)
	assert.Equal(t, "embedded", report.ProfilesSource)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 1, report.Warnings)

	issue, ok := findIssue(report, "profile_missing_required_section")
	require.True(t, ok)
	assert.Contains(t, issue.Message, "future_section_99")
}

func TestRenderVerifyText(t *testing.T) {
	report := VerifyReport{
		Platform: "pfsense", Version: "23.05", Errors: 1, Warnings: 0,
		ProfilesSource: "embedded",
		Issues: []Finding{
			errFinding("missing_required_section", "required section 'interfaces' is missing"),
		},
	}
	out := RenderVerifyText(report, true)
	assert.Contains(t, out, "verify platform=pfsense version=23.05 target=none")
	assert.Contains(t, out, "Using profiles: embedded")
	assert.Contains(t, out, "result errors=1 warnings=0")
	assert.Contains(t, out, "- [error] missing_required_section:")
}
