package transform

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// TailscaleToOpnsense moves Tailscale configuration to the OPNsense
// location. pfSense stores it under installedpackages.tailscale and
// installedpackages.tailscaleauth, OPNsense under OPNsense.tailscale
// and OPNsense.tailscaleauth.
func TailscaleToOpnsense(out, source, baseline *xmltree.Node) {
	dst := out.EnsureChild("OPNsense")
	dst.RetainChildren(func(c *xmltree.Node) bool {
		return c.Tag != "tailscale" && c.Tag != "tailscaleauth"
	})

	srcTailscale := pfsenseTailscale(source, "tailscale")
	if srcTailscale == nil {
		return
	}
	dst.Append(srcTailscale.Clone())

	if srcAuth := pfsenseTailscale(source, "tailscaleauth"); srcAuth != nil {
		dst.Append(srcAuth.Clone())
	}
}

// TailscaleToPfSense moves Tailscale configuration from the OPNsense
// container into pfSense's installedpackages.
func TailscaleToPfSense(out, source, baseline *xmltree.Node) {
	installed := out.EnsureChild("installedpackages")
	installed.RetainChildren(func(c *xmltree.Node) bool {
		return c.Tag != "tailscale" && c.Tag != "tailscaleauth"
	})

	srcTailscale := source.Find("OPNsense", "tailscale")
	if srcTailscale == nil {
		return
	}
	installed.Append(srcTailscale.Clone())

	if srcAuth := source.Find("OPNsense", "tailscaleauth"); srcAuth != nil {
		installed.Append(srcAuth.Clone())
	}
}

// pfsenseTailscale finds a Tailscale section in a pfSense source,
// checking the legacy top-level location before the standard
// installedpackages one.
func pfsenseTailscale(root *xmltree.Node, tag string) *xmltree.Node {
	if n := root.Child(tag); n != nil {
		return n
	}
	return root.Find("installedpackages", tag)
}
