package report

import (
	"net"
	"strconv"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ruleReferenceFindings checks that rules and routes only reference
// aliases, gateways, and schedules that exist.
func ruleReferenceFindings(root *xmltree.Node) []Finding {
	aliases := collectAliasNames(root)
	gateways := collectGatewayNames(root)
	schedules := collectScheduleNames(root)

	var out []Finding
	out = append(out, filterRuleAliasFindings(root, aliases)...)
	out = append(out, filterRuleGatewayFindings(root, gateways)...)
	out = append(out, staticRouteGatewayFindings(root, gateways)...)
	out = append(out, filterRuleScheduleFindings(root, schedules)...)
	return out
}

func filterRuleAliasFindings(root *xmltree.Node, aliases map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.All("rule") {
		for _, side := range []string{"source", "destination"} {
			sideNode := rule.Child(side)
			if sideNode == nil {
				continue
			}
			addr := sideNode.ChildText("address")
			if addr == "" {
				continue
			}
			for _, token := range splitRefTokens(addr) {
				if isBuiltinOrLiteral(token) {
					continue
				}
				if !aliases[strings.ToLower(token)] {
					out = append(out, errFinding("missing_alias_reference",
						"filter rule #%d %s references alias '%s' that does not exist", idx, side, token))
				}
			}
		}
	}
	return out
}

func filterRuleGatewayFindings(root *xmltree.Node, gateways map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.All("rule") {
		gateway := strings.TrimSpace(rule.ChildText("gateway"))
		if gateway == "" || isBuiltinOrLiteral(gateway) {
			continue
		}
		if !gateways[strings.ToLower(gateway)] {
			out = append(out, errFinding("missing_gateway_reference",
				"filter rule #%d references gateway '%s' that does not exist", idx, gateway))
		}
	}
	return out
}

func staticRouteGatewayFindings(root *xmltree.Node, gateways map[string]bool) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for idx, route := range routes.Children {
		gateway := strings.TrimSpace(route.ChildText("gateway"))
		if gateway == "" || isBuiltinOrLiteral(gateway) {
			continue
		}
		if !gateways[strings.ToLower(gateway)] {
			out = append(out, errFinding("missing_route_gateway",
				"static route #%d references gateway '%s' that does not exist", idx, gateway))
		}
	}
	return out
}

func filterRuleScheduleFindings(root *xmltree.Node, schedules map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.All("rule") {
		sched := strings.TrimSpace(rule.ChildText("sched"))
		if sched == "" {
			sched = strings.TrimSpace(rule.ChildText("schedule"))
		}
		if sched == "" {
			continue
		}
		if !schedules[strings.ToLower(sched)] {
			out = append(out, warnFinding("missing_schedule_reference",
				"filter rule #%d references schedule '%s' that does not exist", idx, sched))
		}
	}
	return out
}

// collectAliasNames reads alias names from both the flat and the
// nested OPNsense layouts.
func collectAliasNames(root *xmltree.Node) map[string]bool {
	out := map[string]bool{}
	add := func(container *xmltree.Node) {
		if container == nil {
			return
		}
		for _, alias := range container.All("alias") {
			if name := strings.ToLower(strings.TrimSpace(alias.ChildText("name"))); name != "" {
				out[name] = true
			}
		}
	}
	add(root.Child("aliases"))
	add(root.Find("OPNsense", "Firewall", "Alias", "aliases"))
	return out
}

func collectGatewayNames(root *xmltree.Node) map[string]bool {
	out := map[string]bool{}
	add := func(container *xmltree.Node) {
		if container == nil {
			return
		}
		for _, gw := range container.Children {
			if name := strings.ToLower(strings.TrimSpace(gw.ChildText("name"))); name != "" {
				out[name] = true
			}
		}
	}
	add(root.Child("gateways"))
	add(root.Find("OPNsense", "Gateways"))
	return out
}

func collectScheduleNames(root *xmltree.Node) map[string]bool {
	out := map[string]bool{}
	schedules := root.Child("schedules")
	if schedules == nil {
		return out
	}
	for _, s := range schedules.All("schedule") {
		if name := strings.ToLower(strings.TrimSpace(s.ChildText("name"))); name != "" {
			out[name] = true
		}
	}
	return out
}

func splitRefTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// isBuiltinOrLiteral accepts the address values that never need an
// alias definition: built-in keywords, IP literals, CIDR networks, and
// dynamic gateway names.
func isBuiltinOrLiteral(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	switch v {
	case "any", "(self)", "self", "wanip", "lanip",
		"wan address", "lan address", "wan net", "lan net", "this firewall":
		return true
	}
	if net.ParseIP(v) != nil {
		return true
	}
	if isDynamicGatewayLiteral(v) {
		return true
	}
	if ip, mask, found := strings.Cut(v, "/"); found {
		if net.ParseIP(ip) != nil {
			if bits, err := strconv.Atoi(mask); err == nil && bits >= 0 && bits <= 128 {
				return true
			}
		}
	}
	return false
}

func isDynamicGatewayLiteral(v string) bool {
	return strings.HasSuffix(v, "_dhcp") || strings.HasSuffix(v, "_dhcp6") ||
		strings.HasSuffix(v, "_pppoe") || strings.HasSuffix(v, "_track6")
}
