package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// IdentityToOpnsense copies system identity and network settings to an
// OPNsense output. Hostname, domain, DNS servers, NTP servers, and DNS
// settings are platform-agnostic and work the same way on both sides.
func IdentityToOpnsense(out, source, baseline *xmltree.Node) {
	copyIdentityFields(out, source)
}

// IdentityToPfSense copies system identity and network settings to a
// pfSense output.
func IdentityToPfSense(out, source, baseline *xmltree.Node) {
	copyIdentityFields(out, source)
}

// copyIdentityFields transfers the identity fields from the source
// system section into the output system section. Single-value fields
// only overwrite when the source has a non-empty value; DNS fields are
// synced wholesale so the output matches the source exactly, including
// repeated <dnsserver> elements.
func copyIdentityFields(out, source *xmltree.Node) {
	srcSystem := source.Child("system")
	if srcSystem == nil {
		return
	}
	dstSystem := out.Child("system")
	if dstSystem == nil {
		return
	}

	for _, field := range []string{"hostname", "domain", "timeservers"} {
		value := strings.TrimSpace(srcSystem.ChildText(field))
		if value == "" {
			continue
		}
		dstSystem.SetChildText(field, value)
	}

	// dns1gw..dns8gw route each DNS server through a specific gateway
	// on multi-WAN setups.
	for _, field := range []string{
		"dnsallowoverride",
		"dnsallowoverride_exclude",
		"dns1gw", "dns2gw", "dns3gw", "dns4gw",
		"dns5gw", "dns6gw", "dns7gw", "dns8gw",
	} {
		syncAllChildrenByTag(dstSystem, srcSystem, field)
	}

	syncAllChildrenByTag(dstSystem, srcSystem, "dnsserver")
}

// syncAllChildrenByTag replaces every child of dst with the given tag
// by clones of the matching children of src.
func syncAllChildrenByTag(dst, src *xmltree.Node, tag string) {
	dst.RemoveChildren(tag)
	for _, child := range src.All(tag) {
		dst.Append(child.Clone())
	}
}
