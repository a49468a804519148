package report

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Severity ranks a verification finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText serializes severity as its wire name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is one verification problem.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func errFinding(code, format string, args ...any) Finding {
	return Finding{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}

func warnFinding(code, format string, args ...any) Finding {
	return Finding{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

// interfaceReferenceFindings checks that firewall rules, gateways, and
// static routes only reference interfaces the config defines.
func interfaceReferenceFindings(root *xmltree.Node) []Finding {
	defined := collectDefinedInterfaceNames(root)
	var out []Finding
	out = append(out, duplicateInterfaceFindings(root)...)
	out = append(out, ruleInterfaceFindings(root, defined)...)
	out = append(out, gatewayInterfaceFindings(root, defined)...)
	out = append(out, routeInterfaceFindings(root, defined)...)
	return out
}

// collectDefinedInterfaceNames gathers logical interface names plus
// the VPN pseudo-interfaces the config implies, lowercased.
func collectDefinedInterfaceNames(root *xmltree.Node) map[string]bool {
	out := map[string]bool{}
	if interfaces := root.Child("interfaces"); interfaces != nil {
		for _, iface := range interfaces.Children {
			out[strings.ToLower(iface.Tag)] = true
		}
	}
	if root.Child("openvpn") != nil {
		out["openvpn"] = true
	}
	opn := root.Child("OPNsense")
	if root.Child("wireguard") != nil || (opn != nil && opn.Child("wireguard") != nil) {
		out["wireguard"] = true
	}
	installed := root.Child("installedpackages")
	if root.Child("tailscale") != nil || root.Child("tailscaleauth") != nil ||
		(installed != nil && installed.Child("tailscale") != nil) ||
		(opn != nil && opn.Child("tailscale") != nil) {
		out["tailscale"] = true
	}
	return out
}

func duplicateInterfaceFindings(root *xmltree.Node) []Finding {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	counts := map[string]int{}
	var order []string
	for _, iface := range interfaces.Children {
		name := strings.ToLower(iface.Tag)
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}
	var out []Finding
	for _, name := range order {
		if counts[name] > 1 {
			out = append(out, errFinding("duplicate_interface_assignment",
				"interface '%s' assigned %d times", name, counts[name]))
		}
	}
	return out
}

func ruleInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.All("rule") {
		iface := rule.ChildText("interface")
		if iface == "" {
			continue
		}
		for _, token := range splitInterfaceTokens(iface) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_interface_reference",
					"filter rule #%d references missing interface '%s'", idx, token))
			}
		}
	}
	return out
}

func gatewayInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	gateways := root.Child("gateways")
	if gateways == nil {
		return nil
	}
	var out []Finding
	for _, gw := range gateways.Children {
		iface := gw.ChildText("interface")
		if iface == "" {
			continue
		}
		for _, token := range splitInterfaceTokens(iface) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_gateway_interface",
					"gateway references missing interface '%s'", token))
			}
		}
	}
	return out
}

func routeInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for _, route := range routes.Children {
		iface := route.ChildText("interface")
		if iface == "" {
			continue
		}
		for _, token := range splitInterfaceTokens(iface) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_route_interface",
					"static route references missing interface '%s'", token))
			}
		}
	}
	return out
}

// splitInterfaceTokens splits a comma/whitespace separated interface
// list into lowercased tokens.
func splitInterfaceTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

func isInterfaceTokenKnown(token string, defined map[string]bool) bool {
	if defined[token] {
		return true
	}
	switch token {
	case "any", "floating", "lo0", "enc0", "ipsec", "openvpn", "wireguard", "tailscale", "wanip", "lanip":
		return true
	}
	return isBridgeToken(token)
}

// isBridgeToken matches bridge device names like bridge0.
func isBridgeToken(token string) bool {
	stripped := strings.TrimPrefix(token, "bridge")
	if stripped == token || stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
