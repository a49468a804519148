package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// MergeInterfaceSettings carries the source's logical interface
// settings (addresses, subnets, options) into the output while keeping
// the target baseline's physical device bindings. The two boxes rarely
// share NIC names, so the <if> child always comes from the target.
//
// Each source interface resolves its destination tag through
// interfaceMap (for renames like opt2 to igc3), defaulting to the same
// tag. Interfaces with no counterpart in the target baseline are
// skipped; the presence prune handles those separately. The merged
// node is the full source clone with the target's <if> written over
// it, so settings absent from the source do not survive from the
// target template.
func MergeInterfaceSettings(out, source, target *xmltree.Node, interfaceMap map[string]string) {
	srcInterfaces := source.Child("interfaces")
	targetInterfaces := target.Child("interfaces")
	outInterfaces := out.Child("interfaces")
	if srcInterfaces == nil || targetInterfaces == nil || outInterfaces == nil {
		return
	}

	for _, srcIface := range srcInterfaces.Children {
		mapped := srcIface.Tag
		if v, ok := interfaceMap[srcIface.Tag]; ok {
			mapped = v
		}
		targetIface := targetInterfaces.Child(mapped)
		if targetIface == nil {
			continue
		}

		merged := srcIface.Clone()
		merged.Tag = mapped
		if dstIf, ok := targetIface.PathText("if"); ok {
			merged.SetChildText("if", strings.TrimSpace(dstIf))
		}
		upsertChild(outInterfaces, merged)
	}
}
