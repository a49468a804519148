package transform

import (
	"errors"
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

func TestAliasesToOpnsenseMovesFlatAliases(t *testing.T) {
	source := mustParse(t, `<pfsense><aliases>
  <alias><name>web</name><address>10.0.0.1</address></alias>
  <alias><name>db</name><address>10.0.0.2</address></alias>
</aliases></pfsense>`)
	out := mustParse(t, "<opnsense/>")

	AliasesToOpnsense(out, source, nil)

	dst := out.Find("OPNsense", "Firewall", "Alias", "aliases")
	require.NotNil(t, dst)
	assert.Len(t, dst.All("alias"), 2)
}

func TestAliasesToOpnsenseDeduplicatesByName(t *testing.T) {
	source := mustParse(t, `<pfsense><aliases>
  <alias><name>Web</name><address>10.0.0.1</address></alias>
  <alias><name>web</name><address>10.0.0.9</address></alias>
</aliases></pfsense>`)
	out := mustParse(t, "<opnsense/>")

	AliasesToOpnsense(out, source, nil)

	dst := out.Find("OPNsense", "Firewall", "Alias", "aliases")
	require.Len(t, dst.All("alias"), 1)
	assert.Equal(t, "10.0.0.1", dst.Find("alias", "address").Text)
}

func TestAliasesToPfSenseFlattensNested(t *testing.T) {
	source := mustParse(t, `<opnsense><OPNsense><Firewall><Alias><aliases>
  <alias><name>web</name><address>10.0.0.1</address></alias>
</aliases></Alias></Firewall></OPNsense></opnsense>`)
	out := mustParse(t, "<pfsense/>")

	AliasesToPfSense(out, source, nil)

	dst := out.Child("aliases")
	require.NotNil(t, dst)
	assert.Equal(t, "web", dst.Find("alias", "name").Text)
}

func TestNormalizeBridgesForOpnsense(t *testing.T) {
	root := mustParse(t, `<opnsense><bridges>
  <bridged><members>wan,lan</members></bridged>
  <bridged uuid="keep-me"><members>opt1,opt2</members></bridged>
</bridges></opnsense>`)

	NormalizeBridgesForOpnsense(root)

	all := root.Child("bridges").All("bridged")
	uuid0, ok := all[0].Attr("uuid")
	require.True(t, ok)
	assert.NotEmpty(t, uuid0)
	uuid1, _ := all[1].Attr("uuid")
	assert.Equal(t, "keep-me", uuid1)

	// Same input yields the same generated uuid.
	again := mustParse(t, `<opnsense><bridges>
  <bridged><members>wan,lan</members></bridged>
</bridges></opnsense>`)
	NormalizeBridgesForOpnsense(again)
	uuidAgain, _ := again.Find("bridges", "bridged").Attr("uuid")
	assert.Equal(t, uuid0, uuidAgain)
}

func TestNormalizeBridgesForPfSenseStripsUUIDs(t *testing.T) {
	root := mustParse(t, `<pfsense><bridges><bridged uuid="x"><members>wan</members></bridged></bridges></pfsense>`)
	NormalizeBridgesForPfSense(root)
	assert.False(t, root.Find("bridges", "bridged").HasAttr("uuid"))
}

func TestNormalizeOpnsenseVlanIfNames(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <vlans>
    <vlan><if>vtnet0</if><tag>50</tag></vlan>
  </vlans>
  <interfaces>
    <opt1><if>vtnet0.50</if></opt1>
  </interfaces>
</opnsense>`)

	NormalizeOpnsenseVlanIfNames(root)

	vlan := root.Find("vlans", "vlan")
	vlanif := vlan.ChildText("vlanif")
	assert.Regexp(t, `^vlan\d`, vlanif)
	// The dotted assignment must follow the rename.
	assert.Equal(t, vlanif, root.Find("interfaces", "opt1", "if").Text)
}

func TestNormalizeOpnsenseVlanIfNamesKeepsValidNames(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <vlans>
    <vlan><if>vtnet0</if><tag>50</tag><vlanif>vlan07</vlanif></vlan>
  </vlans>
</opnsense>`)

	NormalizeOpnsenseVlanIfNames(root)
	assert.Equal(t, "vlan07", root.Find("vlans", "vlan", "vlanif").Text)
}

func TestPruneMissingInterfaces(t *testing.T) {
	out := mustParse(t, `<opnsense><interfaces>
  <wan><if>em0</if></wan>
  <opt1><if>em5</if></opt1>
  <opt2><if>vlan10</if></opt2>
</interfaces></opnsense>`)
	target := mustParse(t, "<opnsense><interfaces><wan><if>vtnet0</if></wan></interfaces></opnsense>")

	removed := PruneMissingInterfaces(out, target)
	assert.Equal(t, []string{"opt1"}, removed)

	interfaces := out.Child("interfaces")
	assert.NotNil(t, interfaces.Child("wan"))
	assert.Nil(t, interfaces.Child("opt1"))
	// Virtual-backed interfaces survive pruning.
	assert.NotNil(t, interfaces.Child("opt2"))
}

func TestIsVirtualIfName(t *testing.T) {
	for _, name := range []string{"vtnet0.50", "wg0", "tun_wg0", "vlan10", "bridge0", "ovpns1", "lagg0", "lo0"} {
		assert.True(t, IsVirtualIfName(name), name)
	}
	for _, name := range []string{"em0", "vtnet1", "igb2", ""} {
		assert.False(t, IsVirtualIfName(name), name)
	}
}

func TestApplyLanIPRewritesAddresses(t *testing.T) {
	root := mustParse(t, `<pfsense>
  <interfaces>
    <lan><if>em1</if><ipaddr>10.1.10.1</ipaddr><subnet>24</subnet></lan>
  </interfaces>
  <dhcpd>
    <lan>
      <range><from>10.1.10.100</from><to>10.1.10.199</to></range>
      <staticmap><ipaddr>10.1.10.50</ipaddr></staticmap>
    </lan>
  </dhcpd>
  <gateways>
    <gateway_item><gateway>10.1.10.1</gateway></gateway_item>
  </gateways>
</pfsense>`)

	require.NoError(t, ApplyLanIP(root, "192.168.5.1"))

	assert.Equal(t, "192.168.5.1", root.Find("interfaces", "lan", "ipaddr").Text)
	// DHCP values in the old subnet keep their host bits.
	assert.Equal(t, "192.168.5.100", root.Find("dhcpd", "lan", "range", "from").Text)
	assert.Equal(t, "192.168.5.50", root.Find("dhcpd", "lan", "staticmap", "ipaddr").Text)
	// Exact matches of the old address are swept everywhere.
	assert.Equal(t, "192.168.5.1", root.Find("gateways", "gateway_item", "gateway").Text)
}

func TestApplyLanIPNoopWhenUnchanged(t *testing.T) {
	root := mustParse(t, `<pfsense><interfaces><lan><ipaddr>192.168.1.1</ipaddr></lan></interfaces></pfsense>`)
	require.NoError(t, ApplyLanIP(root, "192.168.1.1"))
	assert.Equal(t, "192.168.1.1", root.Find("interfaces", "lan", "ipaddr").Text)
}

func TestApplyLanIPConflict(t *testing.T) {
	root := mustParse(t, `<pfsense><interfaces>
  <wan><ipaddr>192.168.5.1</ipaddr></wan>
  <lan><ipaddr>10.1.10.1</ipaddr></lan>
</interfaces></pfsense>`)

	err := ApplyLanIP(root, "192.168.5.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLanIPConflict))
}

func TestApplyLanIPValidation(t *testing.T) {
	root := mustParse(t, "<pfsense><interfaces><lan><ipaddr>dhcp</ipaddr></lan></interfaces></pfsense>")
	assert.Error(t, ApplyLanIP(root, "not-an-ip"))
	assert.Error(t, ApplyLanIP(root, "192.168.1.1"))

	assert.Error(t, ApplyLanIP(mustParse(t, "<pfsense/>"), "192.168.1.1"))
}

func TestSyncSharedTopLevelSections(t *testing.T) {
	out := mustParse(t, `<opnsense>
  <system><hostname>base</hostname></system>
  <filter><rule><descr>baseline rule</descr></rule></filter>
  <unrelated>kept</unrelated>
</opnsense>`)
	source := mustParse(t, `<pfsense>
  <system><hostname>src</hostname></system>
</pfsense>`)

	SyncSharedTopLevelSections(out, source)

	assert.Equal(t, "src", out.Find("system", "hostname").Text)
	// Sections absent from the source are dropped so baseline defaults
	// cannot leak into the output.
	assert.Nil(t, out.Child("filter"))
	// Sections outside the synced list are untouched.
	assert.Equal(t, "kept", out.ChildText("unrelated"))
}

func TestRewriteLogicalRefs(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <filter><rule><interface>opt3</interface></rule></filter>
  <bridges><bridged><members>lan,opt3</members></bridged></bridges>
  <ifgroups><ifgroupentry><members>opt3 wan</members></ifgroupentry></ifgroups>
</opnsense>`)

	RewriteLogicalRefs(root, map[string]string{"opt3": "opt1"})

	assert.Equal(t, "opt1", root.Find("filter", "rule", "interface").Text)
	assert.Equal(t, "lan,opt1", root.Find("bridges", "bridged", "members").Text)
	assert.Equal(t, "opt1 wan", root.Find("ifgroups", "ifgroupentry", "members").Text)
}
