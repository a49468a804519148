package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// RewriteDeviceRefs rewrites raw device references (igb0 to vtnet0 and
// the like) throughout the output tree. The replacement map is derived
// by pairing each logical interface's device on the source with the
// device the same logical interface (after optional renaming through
// interfaceMap) has on the target.
//
// PPPoE interface names (pppoe0) are assigned by the PPP subsystem and
// never rewritten; the physical port behind them lives in the ppp
// entry's <ports> element and gets its own replacement.
func RewriteDeviceRefs(out, source, target *xmltree.Node, interfaceMap map[string]string) {
	replacements := buildDeviceMap(source, target, interfaceMap)
	if len(replacements) == 0 {
		return
	}
	rewriteDeviceTree(out, replacements, nil)
}

func buildDeviceMap(source, target *xmltree.Node, interfaceMap map[string]string) map[string]string {
	out := make(map[string]string)
	src := interfaceDeviceByLogical(source)
	dst := interfaceDeviceByLogical(target)

	for logical, srcIf := range src {
		mapped := logical
		if v, ok := interfaceMap[logical]; ok {
			mapped = v
		}
		dstIf, ok := dst[mapped]
		if !ok {
			continue
		}
		if isPPPoEIfName(srcIf) {
			continue
		}
		if srcIf != dstIf {
			out[srcIf] = dstIf
		}
	}
	augmentPPPoEPortMap(source, target, interfaceMap, out)
	return out
}

// augmentPPPoEPortMap adds replacements for the physical ports behind
// PPPoE uplinks. The interface's <if> holds the logical PPPoE name,
// while the underlying NIC sits in the ppp entry's <ports>.
func augmentPPPoEPortMap(source, target *xmltree.Node, interfaceMap map[string]string, out map[string]string) {
	ppps := source.Child("ppps")
	if ppps == nil {
		return
	}

	src := interfaceDeviceByLogical(source)
	dst := interfaceDeviceByLogical(target)
	srcLogicalByIf := make(map[string]string, len(src))
	for logical, ifName := range src {
		srcLogicalByIf[ifName] = logical
	}

	for _, ppp := range ppps.All("ppp") {
		if !strings.EqualFold(ppp.ChildText("type"), "pppoe") {
			continue
		}
		pppIf := ppp.ChildText("if")
		portIf := ppp.ChildText("ports")
		if pppIf == "" || portIf == "" {
			continue
		}
		srcLogical, ok := srcLogicalByIf[pppIf]
		if !ok {
			continue
		}
		mapped := srcLogical
		if v, ok := interfaceMap[srcLogical]; ok {
			mapped = v
		}
		dstIf, ok := dst[mapped]
		if !ok {
			continue
		}
		if portIf != dstIf {
			out[portIf] = dstIf
		}
	}
}

// interfaceDeviceByLogical maps logical interface tags (wan, lan,
// optN) to their device names from the <if> child.
func interfaceDeviceByLogical(root *xmltree.Node) map[string]string {
	out := make(map[string]string)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		name := iface.ChildText("if")
		if name == "" {
			continue
		}
		out[iface.Tag] = name
	}
	return out
}

func rewriteDeviceTree(node *xmltree.Node, replacements map[string]string, path []string) {
	path = append(path, node.Tag)
	if node.Text != "" && !skipDeviceRewrite(path) {
		if rewritten := rewriteDeviceTokens(node.Text, replacements); rewritten != node.Text {
			node.Text = rewritten
		}
	}
	for _, child := range node.Children {
		rewriteDeviceTree(child, replacements, path)
	}
}

// skipDeviceRewrite keeps the logical PPPoE name in ppps/ppp/if
// untouched; only the sibling <ports> element carries a physical NIC.
func skipDeviceRewrite(path []string) bool {
	n := len(path)
	return n >= 3 && path[n-3] == "ppps" && path[n-2] == "ppp" && path[n-1] == "if"
}

// rewriteDeviceTokens splits on whitespace and commas so it handles
// comma-separated interface lists, preserving the delimiters. Tokens
// try an exact match first, then a dotted-parent match so VLAN
// sub-interfaces like igb0.50 rewrite their base device and keep the
// VLAN tag.
func rewriteDeviceTokens(input string, replacements map[string]string) string {
	var out strings.Builder
	out.Grow(len(input))
	var token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		t := token.String()
		if newv, ok := replacements[t]; ok {
			out.WriteString(newv)
		} else if base, suffix, ok := splitDottedParent(t); ok {
			if newBase, ok := replacements[base]; ok {
				out.WriteString(newBase)
				out.WriteByte('.')
				out.WriteString(suffix)
			} else {
				out.WriteString(t)
			}
		} else {
			out.WriteString(t)
		}
		token.Reset()
	}
	for _, ch := range input {
		if isRefDelim(ch) {
			flush()
			out.WriteRune(ch)
		} else {
			token.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}

func splitDottedParent(token string) (base, suffix string, ok bool) {
	dot := strings.IndexByte(token, '.')
	if dot <= 0 || dot+1 >= len(token) {
		return "", "", false
	}
	return token[:dot], token[dot+1:], true
}

func isRefDelim(ch rune) bool {
	switch ch {
	case ',', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isPPPoEIfName(v string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "pppoe")
}
