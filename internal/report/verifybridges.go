package report

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// bridgeFindings checks that bridge definitions carry members and that
// every member names a defined interface.
func bridgeFindings(root *xmltree.Node) []Finding {
	bridges := root.Child("bridges")
	if bridges == nil {
		return nil
	}
	defined := collectDefinedInterfaceNames(root)
	var out []Finding
	for idx, bridged := range bridges.All("bridged") {
		members := splitInterfaceTokens(bridged.ChildText("members"))
		bridgeif := strings.ToLower(strings.TrimSpace(bridged.ChildText("bridgeif")))

		if len(members) == 0 && bridgeif == "" {
			out = append(out, errFinding("empty_bridge_members", "bridge #%d has no members", idx))
			continue
		}
		for _, member := range members {
			if !defined[member] {
				out = append(out, errFinding("missing_bridge_member",
					"bridge #%d references missing member '%s'", idx, member))
			}
		}
		if bridgeif != "" && !defined[bridgeif] && !isBridgeToken(bridgeif) {
			out = append(out, warnFinding("missing_bridge_interface",
				"bridge #%d bridgeif references missing interface '%s'", idx, bridgeif))
		}
	}
	return out
}
