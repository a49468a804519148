package dhcp

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

func TestParseRequestedBackend(t *testing.T) {
	for _, v := range []string{"", "auto", "AUTO"} {
		got, err := ParseRequestedBackend(v)
		require.NoError(t, err)
		assert.Equal(t, RequestedAuto, got)
	}

	got, err := ParseRequestedBackend("kea")
	require.NoError(t, err)
	assert.Equal(t, RequestedKea, got)

	got, err = ParseRequestedBackend(" ISC ")
	require.NoError(t, err)
	assert.Equal(t, RequestedISC, got)

	_, err = ParseRequestedBackend("dnsmasq")
	assert.Error(t, err)
}

func TestResolveEffectiveBackendExplicitWins(t *testing.T) {
	source := mustParse(t, "<pfsense><dhcpd/></pfsense>")
	target := mustParse(t, "<opnsense><version>26.1</version></opnsense>")

	assert.Equal(t, BackendISC, ResolveEffectiveBackend(RequestedISC, source, target, "opnsense"))
	assert.Equal(t, BackendKea, ResolveEffectiveBackend(RequestedKea, source, target, "opnsense"))
}

func TestResolveEffectiveBackendAutoPrefersKeaOn26(t *testing.T) {
	source := mustParse(t, "<pfsense><dhcpd/></pfsense>")
	target := mustParse(t, "<opnsense><version>26.1</version></opnsense>")

	assert.Equal(t, BackendKea, ResolveEffectiveBackend(RequestedAuto, source, target, "opnsense"))
}

func TestResolveEffectiveBackendAutoFollowsSource(t *testing.T) {
	target := mustParse(t, "<opnsense><version>24.7</version></opnsense>")

	iscSource := mustParse(t, "<pfsense><dhcpd><lan/></dhcpd></pfsense>")
	assert.Equal(t, BackendISC, ResolveEffectiveBackend(RequestedAuto, iscSource, target, "opnsense"))

	keaSource := mustParse(t, "<pfsense><dhcpbackend>kea</dhcpbackend></pfsense>")
	assert.Equal(t, BackendKea, ResolveEffectiveBackend(RequestedAuto, keaSource, target, "opnsense"))
}

func TestEnsureBackendReadinessKeaNeedsSubtree(t *testing.T) {
	target := mustParse(t, "<opnsense><version>26.1</version></opnsense>")
	err := EnsureBackendReadiness(target, RequestedAuto, BackendKea)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPNsense.Kea")

	ready := mustParse(t, "<opnsense><version>26.1</version><OPNsense><Kea/></OPNsense></opnsense>")
	assert.NoError(t, EnsureBackendReadiness(ready, RequestedAuto, BackendKea))
}

func TestEnsureBackendReadinessISCOn26NeedsPlugin(t *testing.T) {
	target := mustParse(t, "<opnsense><version>26.1</version><dhcpd/></opnsense>")
	err := EnsureBackendReadiness(target, RequestedISC, BackendISC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "os-isc-dhcp")

	ready := mustParse(t, `<opnsense>
  <version>26.1</version>
  <system><firmware><plugins>os-isc-dhcp os-wireguard</plugins></firmware></system>
  <dhcpd/>
</opnsense>`)
	assert.NoError(t, EnsureBackendReadiness(ready, RequestedISC, BackendISC))
}

func TestEnsureBackendReadinessSkipsPre26Auto(t *testing.T) {
	target := mustParse(t, "<opnsense><version>24.7</version></opnsense>")
	assert.NoError(t, EnsureBackendReadiness(target, RequestedAuto, BackendKea))
	assert.NoError(t, EnsureBackendReadiness(target, RequestedAuto, BackendISC))
}

func TestEnforceOutputBackendOpnsenseKea(t *testing.T) {
	root := mustParse(t, "<opnsense><dhcpd><lan/></dhcpd><dhcpdv6><lan/></dhcpdv6></opnsense>")
	EnforceOutputBackend(root, BackendKea, "opnsense", false)

	assert.Nil(t, root.Child("dhcpd"))
	assert.Nil(t, root.Child("dhcpdv6"))
	assert.NotNil(t, root.Find("OPNsense", "Kea"))
}

func TestEnforceOutputBackendPreservesLegacyIPv6(t *testing.T) {
	root := mustParse(t, "<opnsense><dhcpd><lan/></dhcpd><dhcpdv6><lan/></dhcpdv6></opnsense>")
	EnforceOutputBackend(root, BackendKea, "opnsense", true)

	assert.Nil(t, root.Child("dhcpd"))
	assert.NotNil(t, root.Child("dhcpdv6"))
}

func TestEnforceOutputBackendOpnsenseISCDisablesKea(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <dhcpd><lan/></dhcpd>
  <OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4></Kea></OPNsense>
</opnsense>`)
	EnforceOutputBackend(root, BackendISC, "opnsense", false)

	assert.NotNil(t, root.Child("dhcpd"))
	enabled, _ := root.PathText("OPNsense", "Kea", "dhcp4", "general", "enabled")
	assert.Equal(t, "0", enabled)
}

func TestEnforceOutputBackendPfSense(t *testing.T) {
	root := mustParse(t, "<pfsense><dhcpd><lan/></dhcpd></pfsense>")
	EnforceOutputBackend(root, BackendKea, "pfsense", false)
	assert.Equal(t, "kea", root.ChildText("dhcpbackend"))
	assert.Nil(t, root.Child("dhcpd"))
	assert.NotNil(t, root.Child("kea"))

	root = mustParse(t, "<pfsense><kea/><dhcpd><lan/></dhcpd></pfsense>")
	EnforceOutputBackend(root, BackendISC, "pfsense", false)
	assert.Equal(t, "isc", root.ChildText("dhcpbackend"))
	assert.Nil(t, root.Child("kea"))
	assert.NotNil(t, root.Child("dhcpd"))
}

func TestDisableAll(t *testing.T) {
	root := mustParse(t, `<opnsense>
  <dhcpd><lan><enable/></lan></dhcpd>
  <OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4></Kea></OPNsense>
</opnsense>`)
	DisableAll(root)

	lan := root.Find("dhcpd", "lan")
	assert.Equal(t, "0", lan.ChildText("enable"))
	assert.Equal(t, "1", lan.ChildText("disabled"))

	enabled, _ := root.PathText("OPNsense", "Kea", "dhcp4", "general", "enabled")
	assert.Equal(t, "0", enabled)
}

func TestHasLegacyData(t *testing.T) {
	assert.True(t, HasLegacyData(mustParse(t, "<pfsense><dhcpd/></pfsense>")))
	assert.False(t, HasLegacyData(mustParse(t, "<pfsense><kea/></pfsense>")))
}
