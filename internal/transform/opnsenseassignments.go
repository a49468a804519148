package transform

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// NormalizeOpnsenseAssignments remaps non-standard interface
// assignment names (ovpns1, wg1, tailscale0 and friends) to the next
// free optN slot, which is the sequence OPNsense expects for
// assignments beyond wan and lan. Returns a map of old name to new
// name so logical references elsewhere in the tree can follow.
func NormalizeOpnsenseAssignments(out *xmltree.Node) map[string]string {
	rewrites := make(map[string]string)
	interfaces := out.Child("interfaces")
	if interfaces == nil {
		return rewrites
	}

	usedOpt := collectUsedOptIndices(interfaces)

	for _, iface := range interfaces.Children {
		oldTag := iface.Tag
		if isAllowedOpnsenseLogical(oldTag) {
			continue
		}
		if !isVirtualAssignmentCandidate(oldTag) {
			continue
		}
		newTag := nextOptTag(usedOpt)
		iface.Tag = newTag
		rewrites[oldTag] = newTag
	}

	return rewrites
}

// isAllowedOpnsenseLogical reports whether an assignment name is
// already valid without remapping: the built-in interfaces, the
// virtual group names, or an optN slot.
func isAllowedOpnsenseLogical(tag string) bool {
	switch tag {
	case "wan", "lan", "lo0", "openvpn", "wireguard", "tailscale":
		return true
	}
	_, ok := parseOptIndex(tag)
	return ok
}

// isVirtualAssignmentCandidate matches the auto-generated tunnel and
// virtual interface names that should move to optN slots.
func isVirtualAssignmentCandidate(tag string) bool {
	lower := strings.ToLower(tag)
	for _, prefix := range []string{"ovpns", "ovpnc", "wg", "tun_wg", "tailscale"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func parseOptIndex(tag string) (int, bool) {
	rest, ok := strings.CutPrefix(tag, "opt")
	if !ok || rest == "" || !allDigits(rest) {
		return 0, false
	}
	n := 0
	for _, c := range rest {
		n = n*10 + int(c-'0')
	}
	return n, true
}

func collectUsedOptIndices(interfaces *xmltree.Node) map[int]bool {
	out := make(map[int]bool)
	for _, iface := range interfaces.Children {
		if idx, ok := parseOptIndex(iface.Tag); ok {
			out[idx] = true
		}
	}
	return out
}

func nextOptTag(used map[int]bool) string {
	idx := 1
	for used[idx] {
		idx++
	}
	used[idx] = true
	return fmt.Sprintf("opt%d", idx)
}
