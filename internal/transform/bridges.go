package transform

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// NormalizeBridgesForOpnsense gives every <bridged> entry the uuid
// attribute OPNsense requires. pfSense configs carry none, so one is
// derived from the member list (falling back to the bridge interface
// name), keeping repeated conversions identical. Existing uuids stay.
func NormalizeBridgesForOpnsense(root *xmltree.Node) {
	bridges := root.Child("bridges")
	if bridges == nil {
		return
	}
	for idx, bridged := range bridges.All("bridged") {
		if bridged.HasAttr("uuid") {
			continue
		}
		seed := bridged.ChildText("members")
		if seed == "" {
			seed = bridged.ChildText("bridgeif")
		}
		if seed == "" {
			seed = "bridge"
		}
		bridged.SetAttr("uuid", mixedUUID([]byte(seed), idx))
	}
}

// NormalizeBridgesForPfSense strips the uuid attributes, which pfSense
// does not use.
func NormalizeBridgesForPfSense(root *xmltree.Node) {
	bridges := root.Child("bridges")
	if bridges == nil {
		return
	}
	for _, bridged := range bridges.All("bridged") {
		bridged.DeleteAttr("uuid")
	}
}
