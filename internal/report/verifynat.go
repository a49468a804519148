package report

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// natFindings checks the outbound NAT mode and the interface and
// associated-rule references NAT rules carry.
func natFindings(root *xmltree.Node) []Finding {
	nat := root.Child("nat")
	if nat == nil {
		return nil
	}
	interfaces := collectDefinedInterfaceNames(root)
	associatedIDs := collectFilterAssociatedIDs(root)

	var out []Finding
	out = append(out, outboundModeFindings(nat)...)
	out = append(out, natInterfaceFindings(nat, interfaces)...)
	out = append(out, natAssociationFindings(nat, associatedIDs)...)
	return out
}

func outboundModeFindings(nat *xmltree.Node) []Finding {
	outbound := nat.Child("outbound")
	if outbound == nil {
		return nil
	}
	mode := strings.TrimSpace(outbound.ChildText("mode"))
	if mode == "" {
		return nil
	}
	for _, valid := range []string{"automatic", "hybrid", "manual", "disable", "disabled", "advanced"} {
		if strings.EqualFold(mode, valid) {
			return nil
		}
	}
	return []Finding{warnFinding("nat_invalid_outbound_mode",
		"NAT outbound mode '%s' is not recognized", mode)}
}

func natInterfaceFindings(nat *xmltree.Node, interfaces map[string]bool) []Finding {
	var out []Finding
	for idx, rule := range collectNATRules(nat) {
		iface := rule.ChildText("interface")
		if iface == "" {
			continue
		}
		for _, token := range splitInterfaceTokens(iface) {
			if isBuiltinNATInterface(token) || interfaces[token] {
				continue
			}
			out = append(out, errFinding("nat_missing_interface",
				"NAT rule #%d references missing interface '%s'", idx, token))
		}
	}
	return out
}

func natAssociationFindings(nat *xmltree.Node, associatedIDs map[string]bool) []Finding {
	var out []Finding
	for idx, rule := range collectNATRules(nat) {
		assoc := strings.TrimSpace(rule.ChildText("associated-rule-id"))
		if assoc == "" || associatedIDs[assoc] {
			continue
		}
		out = append(out, warnFinding("nat_missing_associated_rule",
			"NAT rule #%d associated-rule-id '%s' not found in filter", idx, assoc))
	}
	return out
}

// collectNATRules gathers port forward rules and outbound rules in
// document order.
func collectNATRules(nat *xmltree.Node) []*xmltree.Node {
	out := nat.All("rule")
	if outbound := nat.Child("outbound"); outbound != nil {
		out = append(out, outbound.All("rule")...)
	}
	return out
}

func collectFilterAssociatedIDs(root *xmltree.Node) map[string]bool {
	out := map[string]bool{}
	filter := root.Child("filter")
	if filter == nil {
		return out
	}
	for _, rule := range filter.All("rule") {
		if id := strings.TrimSpace(rule.ChildText("associated-rule-id")); id != "" {
			out[id] = true
		}
	}
	return out
}

func isBuiltinNATInterface(token string) bool {
	return token == "any" || token == "wan" || token == "lan"
}
