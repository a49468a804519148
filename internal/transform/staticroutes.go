package transform

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// StaticRoutesToOpnsense normalizes static routes for OPNsense, which
// needs a uuid attribute and a <disabled> child on every <route>.
// Missing uuids are generated deterministically from the route's
// network, gateway, and description.
func StaticRoutesToOpnsense(out, source, baseline *xmltree.Node) {
	routes := out.Child("staticroutes")
	if routes == nil {
		return
	}
	for idx, route := range routes.All("route") {
		if !route.HasAttr("uuid") {
			seed := fmt.Sprintf("%s|%s|%s|%d",
				route.ChildText("network"),
				route.ChildText("gateway"),
				route.ChildText("descr"),
				idx)
			route.SetAttr("uuid", stableUUID([]byte(seed), idx))
		}
		if !route.HasChild("disabled") {
			route.Append(xmltree.NewText("disabled", "0"))
		}
	}
}

// StaticRoutesToPfSense strips the OPNsense-only uuid attribute and
// <disabled> element from static routes.
func StaticRoutesToPfSense(out, source, baseline *xmltree.Node) {
	routes := out.Child("staticroutes")
	if routes == nil {
		return
	}
	for _, route := range routes.All("route") {
		route.DeleteAttr("uuid")
		route.RemoveChildren("disabled")
	}
}
