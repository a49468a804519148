package report

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// profileFindings checks a config against its platform/version
// expectation profile. Every deviation is advisory.
func profileFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	var out []Finding
	out = append(out, profileRequiredSectionFindings(root, profile)...)
	out = append(out, profileDeprecatedSectionFindings(root, profile)...)
	out = append(out, profileRuleFieldFindings(root, profile)...)
	out = append(out, profileRuleOrderFindings(root, profile)...)
	out = append(out, profileGatewayFieldFindings(root, profile)...)
	out = append(out, profileRouteFieldFindings(root, profile)...)
	out = append(out, profileBridgeFindings(root, profile)...)
	return out
}

func profileRequiredSectionFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	var out []Finding
	for _, section := range profile.RequiredSections {
		if root.Child(section) == nil {
			out = append(out, warnFinding("profile_missing_required_section",
				"expected section '%s' is missing", section))
		}
	}
	return out
}

func profileDeprecatedSectionFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	var out []Finding
	for _, section := range profile.DeprecatedSections {
		if root.Child(section) != nil {
			out = append(out, warnFinding("profile_deprecated_section_present",
				"deprecated section '%s' is present", section))
		}
	}
	return out
}

func profileRuleFieldFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.All("rule") {
		for _, field := range profile.RuleRequiredFields {
			if strings.TrimSpace(rule.ChildText(field)) == "" {
				out = append(out, warnFinding("profile_rule_missing_required_field",
					"filter rule #%d is missing required field '%s'", idx, field))
			}
		}
	}
	return out
}

// profileRuleOrderFindings checks the platform's rule ordering key for
// presence and uniqueness, but only when at least one rule carries it;
// configs predating the key are left alone.
func profileRuleOrderFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	if profile.FirewallOrderKey == "" {
		return nil
	}
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	rules := filter.All("rule")
	anyHasKey := false
	for _, rule := range rules {
		if rule.HasChild(profile.FirewallOrderKey) {
			anyHasKey = true
			break
		}
	}
	if !anyHasKey {
		return nil
	}
	seen := map[string]bool{}
	var out []Finding
	for idx, rule := range rules {
		if !rule.HasChild(profile.FirewallOrderKey) {
			out = append(out, warnFinding("profile_rule_missing_order_key",
				"filter rule #%d is missing order key '%s'", idx, profile.FirewallOrderKey))
			continue
		}
		value := strings.TrimSpace(rule.ChildText(profile.FirewallOrderKey))
		if value == "" {
			out = append(out, warnFinding("profile_rule_missing_order_key",
				"filter rule #%d has empty order key '%s'", idx, profile.FirewallOrderKey))
			continue
		}
		if seen[value] {
			out = append(out, warnFinding("profile_rule_duplicate_order_key",
				"duplicate firewall order key '%s'", value))
		}
		seen[value] = true
	}
	return out
}

func profileGatewayFieldFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	gateways := root.Child("gateways")
	if gateways == nil {
		return nil
	}
	var out []Finding
	for idx, gw := range gateways.Children {
		if !hasAnyField(gw, profile.GatewayRequiredFields) {
			continue
		}
		for _, field := range profile.GatewayRequiredFields {
			if strings.TrimSpace(gw.ChildText(field)) == "" {
				out = append(out, warnFinding("profile_gateway_missing_required_field",
					"gateway #%d is missing required field '%s'", idx, field))
			}
		}
	}
	return out
}

func profileRouteFieldFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for idx, route := range routes.Children {
		for _, field := range profile.RouteRequiredFields {
			if strings.TrimSpace(route.ChildText(field)) == "" {
				out = append(out, warnFinding("profile_route_missing_required_field",
					"static route #%d is missing required field '%s'", idx, field))
			}
		}
		if len(profile.RouteRequiredAnyFields) == 0 {
			continue
		}
		hasAny := false
		for _, field := range profile.RouteRequiredAnyFields {
			if strings.TrimSpace(route.ChildText(field)) != "" {
				hasAny = true
				break
			}
		}
		if !hasAny {
			out = append(out, warnFinding("profile_route_missing_any_required_field",
				"static route #%d is missing one of [%s]", idx,
				strings.Join(profile.RouteRequiredAnyFields, ", ")))
		}
	}
	return out
}

func profileBridgeFindings(root *xmltree.Node, profile *mappings.ExpectedProfile) []Finding {
	if !profile.BridgeRequireMembers {
		return nil
	}
	bridges := root.Child("bridges")
	if bridges == nil {
		return nil
	}
	var out []Finding
	for idx, bridge := range bridges.All("bridged") {
		members := strings.TrimSpace(bridge.ChildText("members"))
		bridgeif := strings.TrimSpace(bridge.ChildText("bridgeif"))
		if members == "" && bridgeif == "" {
			out = append(out, warnFinding("profile_bridge_missing_members",
				"bridge #%d has no members according to profile", idx))
		}
	}
	return out
}

func hasAnyField(node *xmltree.Node, fields []string) bool {
	for _, field := range fields {
		if node.HasChild(field) {
			return true
		}
	}
	return false
}
