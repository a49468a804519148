package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheridans/pfopn-convert-sub000/internal/transform/dhcp"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

const pfsenseSource = `<pfsense>
  <version>23.05</version>
  <system>
    <hostname>edge</hostname>
    <domain>example.lan</domain>
  </system>
  <interfaces>
    <wan><if>em0</if><ipaddr>dhcp</ipaddr><enable/></wan>
    <lan><if>em1</if><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet><enable/></lan>
  </interfaces>
  <filter>
    <rule><tracker>100</tracker><type>pass</type><interface>lan</interface><descr>allow lan</descr></rule>
  </filter>
  <aliases>
    <alias><name>web</name><type>host</type><address>10.0.0.1</address></alias>
  </aliases>
  <dhcpd>
    <lan>
      <enable/>
      <range><from>192.168.1.100</from><to>192.168.1.199</to></range>
    </lan>
  </dhcpd>
</pfsense>`

const opnsenseISCBaseline = `<opnsense>
  <version>24.7</version>
  <system><hostname>base</hostname></system>
  <interfaces>
    <wan><if>vtnet0</if></wan>
    <lan><if>vtnet1</if></lan>
  </interfaces>
</opnsense>`

const opnsenseKeaBaseline = `<opnsense>
  <version>26.1</version>
  <system><hostname>base</hostname></system>
  <interfaces>
    <wan><if>vtnet0</if></wan>
    <lan><if>vtnet1</if></lan>
  </interfaces>
  <OPNsense>
    <Kea>
      <dhcp4><general><enabled>0</enabled></general></dhcp4>
    </Kea>
  </OPNsense>
</opnsense>`

func mustParse(t *testing.T, src string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestRunRejectsSamePlatform(t *testing.T) {
	source := mustParse(t, pfsenseSource)
	target := mustParse(t, "<pfsense><interfaces><lan/></interfaces></pfsense>")

	opts := DefaultOptions()
	opts.To = "pfsense"
	_, err := Run(source, target, opts)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestRunRejectsBaselineMismatch(t *testing.T) {
	source := mustParse(t, pfsenseSource)
	target := mustParse(t, "<pfsense><interfaces><lan/></interfaces></pfsense>")

	opts := DefaultOptions()
	opts.To = "opnsense"
	_, err := Run(source, target, opts)
	require.Error(t, err)
	assert.Equal(t, KindBaselineRejected, KindOf(err))
}

func TestRunRejectsMissingTargetInterface(t *testing.T) {
	source := mustParse(t, `<pfsense>
  <interfaces>
    <wan><if>em0</if></wan>
    <opt1><if>em2</if><descr>dmz</descr></opt1>
  </interfaces>
</pfsense>`)
	target := mustParse(t, `<opnsense><interfaces><wan><if>vtnet0</if></wan></interfaces></opnsense>`)

	opts := DefaultOptions()
	opts.To = "opnsense"
	_, err := Run(source, target, opts)
	require.Error(t, err)
	assert.Equal(t, KindIncompatibleInterfaces, KindOf(err))
	assert.Contains(t, err.Error(), "opt1")
}

func TestRunPfSenseToOpnsenseISC(t *testing.T) {
	source := mustParse(t, pfsenseSource)
	target := mustParse(t, opnsenseISCBaseline)

	opts := DefaultOptions()
	opts.To = "opnsense"
	result, err := Run(source, target, opts)
	require.NoError(t, err)

	out := result.Output
	assert.Equal(t, "opnsense", out.Tag)
	assert.Equal(t, "edge", out.Find("system", "hostname").Text)
	assert.Equal(t, dhcp.BackendISC, result.Backend)

	// Pre-26 OPNsense target with an ISC source keeps the legacy layout.
	dhcpd := out.Child("dhcpd")
	require.NotNil(t, dhcpd)
	assert.Equal(t, "192.168.1.100", dhcpd.Find("lan", "range", "from").Text)

	assert.Equal(t, 2, result.Summary.Interfaces)
	assert.Equal(t, 1, result.Summary.Rules)
	assert.Equal(t, 1, result.Summary.Aliases)
}

func TestRunPfSenseToOpnsenseKeaMigration(t *testing.T) {
	source := mustParse(t, pfsenseSource)
	target := mustParse(t, opnsenseKeaBaseline)

	opts := DefaultOptions()
	opts.To = "opnsense"
	result, err := Run(source, target, opts)
	require.NoError(t, err)

	assert.Equal(t, dhcp.BackendKea, result.Backend)
	require.NotNil(t, result.MigrationStats)
	assert.Equal(t, 1, result.MigrationStats.SubnetsAddedV4)

	out := result.Output
	assert.Nil(t, out.Child("dhcpd"), "legacy dhcpd must be dropped on Kea output")

	subnets := out.Find("OPNsense", "Kea", "dhcp4", "subnets")
	require.NotNil(t, subnets)
	subnet4 := subnets.Child("subnet4")
	require.NotNil(t, subnet4)
	assert.Equal(t, "192.168.1.0/24", subnet4.ChildText("subnet"))
	assert.Equal(t, "192.168.1.100-192.168.1.199", subnet4.ChildText("pools"))
}

func TestRunIsDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.To = "opnsense"

	first, err := Run(mustParse(t, pfsenseSource), mustParse(t, opnsenseKeaBaseline), opts)
	require.NoError(t, err)
	second, err := Run(mustParse(t, pfsenseSource), mustParse(t, opnsenseKeaBaseline), opts)
	require.NoError(t, err)

	assert.Equal(t, string(xmltree.Write(first.Output)), string(xmltree.Write(second.Output)))
}

func TestRunDisableDHCP(t *testing.T) {
	opts := DefaultOptions()
	opts.To = "opnsense"
	opts.DisableDHCP = true

	result, err := Run(mustParse(t, pfsenseSource), mustParse(t, opnsenseISCBaseline), opts)
	require.NoError(t, err)

	lan := result.Output.Find("dhcpd", "lan")
	require.NotNil(t, lan)
	assert.Equal(t, "0", lan.ChildText("enable"))
	assert.Equal(t, "1", lan.ChildText("disabled"))
}

func TestRunKeaOnlySourceDowngrade(t *testing.T) {
	source := mustParse(t, `<opnsense>
  <version>26.1</version>
  <system><hostname>src</hostname></system>
  <interfaces>
    <wan><if>vtnet0</if></wan>
    <lan><if>vtnet1</if></lan>
  </interfaces>
  <OPNsense>
    <Kea><dhcp4><general><enabled>1</enabled></general></dhcp4></Kea>
  </OPNsense>
</opnsense>`)
	target := mustParse(t, `<pfsense>
  <interfaces>
    <wan><if>em0</if></wan>
    <lan><if>em1</if></lan>
  </interfaces>
</pfsense>`)

	opts := DefaultOptions()
	opts.To = "pfsense"
	opts.Backend = dhcp.RequestedISC
	_, err := Run(source, target, opts)
	require.Error(t, err)
	assert.Equal(t, KindKeaOnlySourceDowngrade, KindOf(err))
}

func TestResolveFromPlatform(t *testing.T) {
	got, err := ResolveFromPlatform("auto", mustParse(t, "<pfsense/>"))
	require.NoError(t, err)
	assert.Equal(t, "pfsense", got)

	got, err = ResolveFromPlatform("", mustParse(t, "<opnsense/>"))
	require.NoError(t, err)
	assert.Equal(t, "opnsense", got)

	_, err = ResolveFromPlatform("auto", mustParse(t, "<router/>"))
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = ResolveFromPlatform("cisco", mustParse(t, "<pfsense/>"))
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestNormalizeToPlatform(t *testing.T) {
	got, err := NormalizeToPlatform("opnsense")
	require.NoError(t, err)
	assert.Equal(t, "opnsense", got)

	_, err = NormalizeToPlatform("auto")
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = NormalizeToPlatform("")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestEnforceInterfaceCompatAllowsVirtual(t *testing.T) {
	source := mustParse(t, `<pfsense>
  <interfaces>
    <wan><if>em0</if></wan>
    <opt1><if>em0.100</if></opt1>
    <opt2><if>wg0</if></opt2>
  </interfaces>
</pfsense>`)
	target := mustParse(t, `<opnsense><interfaces><wan><if>vtnet0</if></wan></interfaces></opnsense>`)

	assert.NoError(t, EnforceInterfaceCompat(source, target))
}

func TestSummarize(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <interfaces><wan/><lan/></interfaces>
  <bridges><bridged><members>wan,lan</members></bridged></bridges>
  <aliases><alias/><alias/></aliases>
  <filter><rule/><rule/><rule/></filter>
  <staticroutes><route/></staticroutes>
  <openvpn><openvpn-server/><openvpn-client/></openvpn>
  <ipsec/>
</pfsense>`)

	s := Summarize(root)
	assert.Equal(t, 2, s.Interfaces)
	assert.Equal(t, 1, s.Bridges)
	assert.Equal(t, 2, s.Aliases)
	assert.Equal(t, 3, s.Rules)
	assert.Equal(t, 1, s.Routes)
	assert.Equal(t, 3, s.VPNs)

	assert.Contains(t, s.Render(), "rules=3")
}

func TestRenderMigrationSummary(t *testing.T) {
	assert.Nil(t, RenderMigrationSummary(nil, dhcp.BackendKea, false))
	assert.Nil(t, RenderMigrationSummary(&dhcp.KeaMigrationStats{}, dhcp.BackendKea, false))

	lines := RenderMigrationSummary(&dhcp.KeaMigrationStats{
		SubnetsAddedV4:      1,
		ReservationsAddedV4: 2,
	}, dhcp.BackendKea, false)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "v4=kea (1 subnet, 2 reservations, 0 option sets)")
	assert.Contains(t, lines[0], "v6=kea (no changes)")

	preserved := RenderMigrationSummary(&dhcp.KeaMigrationStats{
		SubnetsAddedV4:        1,
		PreservedDHCPv6Ifaces: []string{"lan"},
	}, dhcp.BackendKea, true)
	require.Len(t, preserved, 1)
	assert.Contains(t, preserved[0], "v6=isc-legacy (lan)")
}

func TestEnsureOutputNotSame(t *testing.T) {
	assert.Error(t, EnsureOutputNotSame("/tmp/a.xml", []string{"/tmp/a.xml"}))
	assert.NoError(t, EnsureOutputNotSame("/tmp/out.xml", []string{"/tmp/in.xml", ""}))
}
