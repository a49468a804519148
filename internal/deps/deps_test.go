package deps

import (
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

func TestCompareOpenVPNGaps(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <system><user><name>alice</name></user></system>
  <ca><refid>ca1</refid></ca>
  <cert><refid>cert1</refid></cert>
  <openvpn>
    <openvpn-server>
      <caref>ca1</caref>
      <certref>cert1</certref>
      <username>alice</username>
    </openvpn-server>
  </openvpn>
</pfsense>`)
	right := mustParse(t, "<opnsense><system/></opnsense>")

	report := CompareOpenVPN(left, right)
	assert.Equal(t, 1, report.Left.InstanceCount)
	assert.Equal(t, 1, report.Left.EnabledInstances)
	assert.Equal(t, []string{"ca1"}, report.Left.ReferencedCAIDs)
	assert.Equal(t, []string{"cert1"}, report.Left.ReferencedCertIDs)
	assert.Equal(t, []string{"alice"}, report.Left.ReferencedUsers)

	// The right config provides nothing, so everything referenced on
	// the left is missing going left to right.
	assert.Equal(t, "left_to_right", report.LeftToRight.Direction)
	assert.Equal(t, []string{"ca1"}, report.LeftToRight.MissingCAIDs)
	assert.Equal(t, []string{"cert1"}, report.LeftToRight.MissingCertIDs)
	assert.Equal(t, []string{"alice"}, report.LeftToRight.MissingUsers)

	// Nothing referenced on the right, so no gap going back.
	assert.Empty(t, report.RightToLeft.MissingCAIDs)
}

func TestCompareOpenVPNSatisfiedByTarget(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <openvpn><openvpn-server><caref>ca1</caref></openvpn-server></openvpn>
</pfsense>`)
	right := mustParse(t, "<opnsense><ca><refid>ca1</refid></ca></opnsense>")

	report := CompareOpenVPN(left, right)
	assert.Empty(t, report.LeftToRight.MissingCAIDs)
}

func TestOpenVPNInstanceDisabled(t *testing.T) {
	n := mustParse(t, "<openvpn-server><disable/></openvpn-server>")
	assert.True(t, InstanceDisabled(n))

	n = mustParse(t, "<openvpn-server><disable>0</disable></openvpn-server>")
	assert.False(t, InstanceDisabled(n))

	n = mustParse(t, "<Instance><enabled>0</enabled></Instance>")
	assert.True(t, InstanceDisabled(n))

	n = mustParse(t, "<Instance><enabled>1</enabled></Instance>")
	assert.False(t, InstanceDisabled(n))

	n = mustParse(t, "<Instance/>")
	assert.False(t, InstanceDisabled(n))
}

func TestOpenVPNCountsOpnSenseInstances(t *testing.T) {
	root := mustParse(t, `<opnsense><OPNsense><OpenVPN>
  <Instances>
    <Instance><enabled>1</enabled></Instance>
    <Instance><enabled>0</enabled></Instance>
  </Instances>
</OpenVPN></OPNsense></opnsense>`)

	report := CompareOpenVPN(root, mustParse(t, "<pfsense/>"))
	assert.Equal(t, 2, report.Left.InstanceCount)
	assert.Equal(t, 1, report.Left.EnabledInstances)
	assert.Equal(t, 1, report.Left.DisabledInstances)
}

func TestCompareIPsec(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <interfaces><wan/><lan/></interfaces>
  <ca><refid>ca1</refid></ca>
  <ipsec>
    <phase1>
      <interface>wan</interface>
      <caref>ca1</caref>
      <certref>cert9</certref>
    </phase1>
  </ipsec>
</pfsense>`)
	right := mustParse(t, "<opnsense><interfaces><wan/></interfaces></opnsense>")

	report := CompareIPsec(left, right)
	assert.True(t, report.Left.Configured)
	assert.False(t, report.Right.Configured)
	assert.Equal(t, []string{"ca1"}, report.LeftToRight.MissingCAIDs)
	assert.Equal(t, []string{"cert9"}, report.LeftToRight.MissingCertIDs)
	// wan exists on the right, so only non-existent interfaces gap.
	assert.Empty(t, report.LeftToRight.MissingInterfaces)
}

func TestCompareWireGuard(t *testing.T) {
	left := mustParse(t, `<opnsense><OPNsense><wireguard>
  <general><enabled>1</enabled></general>
  <server><servers><server><enabled>1</enabled></server></servers></server>
</wireguard></OPNsense></opnsense>`)
	right := mustParse(t, "<pfsense><system/></pfsense>")

	report := CompareWireGuard(left, right)
	assert.True(t, report.Left.Configured)
	assert.Equal(t, 2, report.Left.EnabledEntries)
	assert.Equal(t, []string{"opnsense.OPNsense.wireguard"}, report.Left.Paths)
	assert.False(t, report.Right.Configured)
}

func TestCollectInterfaceNames(t *testing.T) {
	root := mustParse(t, "<pfsense><interfaces><wan/><lan/><opt1/></interfaces></pfsense>")
	assert.Equal(t, []string{"lan", "opt1", "wan"}, CollectInterfaceNames(root))
}
