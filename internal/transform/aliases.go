package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// AliasesToOpnsense converts pfSense aliases to the OPNsense layout.
//
// pfSense keeps a flat <aliases><alias>...</alias></aliases> section,
// OPNsense nests them under OPNsense.Firewall.Alias.aliases. Alias
// names are compared case-insensitively to prevent duplicates.
func AliasesToOpnsense(out, source, baseline *xmltree.Node) {
	srcAliases := source.Child("aliases")
	if srcAliases == nil {
		return
	}
	var items []*xmltree.Node
	for _, alias := range srcAliases.All("alias") {
		items = append(items, alias.Clone())
	}

	dst := out.EnsurePath("OPNsense", "Firewall", "Alias", "aliases")
	insertAliases(dst, items)
}

// AliasesToPfSense converts OPNsense nested aliases back to the flat
// pfSense layout.
func AliasesToPfSense(out, source, baseline *xmltree.Node) {
	srcAliases := source.Find("OPNsense", "Firewall", "Alias", "aliases")
	if srcAliases == nil {
		return
	}
	var items []*xmltree.Node
	for _, alias := range srcAliases.All("alias") {
		items = append(items, alias.Clone())
	}

	dst := out.EnsureChild("aliases")
	insertAliases(dst, items)
}

func insertAliases(dst *xmltree.Node, items []*xmltree.Node) {
	dst.RemoveChildren("alias")
	existing := collectAliasNames(dst)
	for _, alias := range items {
		name := aliasName(alias)
		if name != "" {
			if existing[name] {
				continue
			}
			existing[name] = true
		}
		dst.Append(alias)
	}
}

// aliasName returns the lowercased trimmed alias name, or "" when the
// alias has no usable name.
func aliasName(alias *xmltree.Node) string {
	return strings.ToLower(strings.TrimSpace(alias.ChildText("name")))
}

func collectAliasNames(aliasesNode *xmltree.Node) map[string]bool {
	names := map[string]bool{}
	for _, alias := range aliasesNode.All("alias") {
		if name := aliasName(alias); name != "" {
			names[name] = true
		}
	}
	return names
}
