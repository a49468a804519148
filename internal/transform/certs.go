package transform

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// CertsToOpnsense makes certificate and CA entries valid for OPNsense,
// which requires uuid attributes on <ca> and <cert> elements. Entries
// missing one get a deterministic UUID seeded from the refid or descr
// so the same input always produces the same output.
func CertsToOpnsense(out, source, baseline *xmltree.Node) {
	normalizeUUIDAttrs(out, "ca")
	normalizeUUIDAttrs(out, "cert")
}

// CertsToPfSense strips the uuid attributes from <ca> and <cert>
// elements, which pfSense does not use.
func CertsToPfSense(out, source, baseline *xmltree.Node) {
	stripUUIDAttrs(out, "ca")
	stripUUIDAttrs(out, "cert")
}

// normalizeUUIDAttrs ensures every top-level child with the given tag
// carries a uuid attribute. The seed prefers refid, then descr, then a
// positional fallback; the ordinal keeps identical seeds unique.
func normalizeUUIDAttrs(root *xmltree.Node, tag string) {
	ordinal := 0
	for _, node := range root.All(tag) {
		if node.HasAttr("uuid") {
			ordinal++
			continue
		}
		seed := strings.TrimSpace(node.ChildText("refid"))
		if seed == "" {
			seed = strings.TrimSpace(node.ChildText("descr"))
		}
		if seed == "" {
			seed = fmt.Sprintf("%s:%d", tag, ordinal)
		}
		node.SetAttr("uuid", stableUUID([]byte(seed), ordinal))
		ordinal++
	}
}

func stripUUIDAttrs(root *xmltree.Node, tag string) {
	for _, node := range root.All(tag) {
		node.DeleteAttr("uuid")
	}
}
