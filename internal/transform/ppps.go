package transform

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// PPPsToOpnsense replaces the whole <ppps> section in the output with
// the source's. PPP config structure is identical on both platforms, so
// PPPoE and PPTP setups carry over unchanged.
func PPPsToOpnsense(out, source, baseline *xmltree.Node) {
	syncPPPs(out, source)
}

// PPPsToPfSense replaces the whole <ppps> section in the output with
// the source's.
func PPPsToPfSense(out, source, baseline *xmltree.Node) {
	syncPPPs(out, source)
}

func syncPPPs(out, source *xmltree.Node) {
	out.RemoveChildren("ppps")
	if ppps := source.Child("ppps"); ppps != nil {
		out.Append(ppps.Clone())
	}
}
