// Package deps builds dependency inventories for the VPN subsystems:
// which CAs, certificates, users, and interfaces a subsystem references
// versus what a config actually provides. The gap between two configs
// drives dependency transfer during conversion and the advisory
// reports.
package deps

import (
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// OpenVPNInventory captures OpenVPN reference and availability sets for
// one config.
type OpenVPNInventory struct {
	InstanceCount     int      `json:"instance_count"`
	EnabledInstances  int      `json:"enabled_instances"`
	DisabledInstances int      `json:"disabled_instances"`
	ReferencedCAIDs   []string `json:"referenced_ca_ids"`
	ReferencedCertIDs []string `json:"referenced_cert_ids"`
	ReferencedUsers   []string `json:"referenced_usernames"`
	AvailableCAIDs    []string `json:"available_ca_ids"`
	AvailableCertIDs  []string `json:"available_cert_ids"`
	AvailableUsers    []string `json:"available_usernames"`
}

// OpenVPNGap lists identifiers referenced by the source but absent from
// the target.
type OpenVPNGap struct {
	Direction       string   `json:"direction"`
	MissingCAIDs    []string `json:"missing_ca_ids"`
	MissingCertIDs  []string `json:"missing_cert_ids"`
	MissingUsers    []string `json:"missing_usernames"`
}

// OpenVPNReport pairs both inventories with the gaps in each direction.
type OpenVPNReport struct {
	Left        OpenVPNInventory `json:"left"`
	Right       OpenVPNInventory `json:"right"`
	LeftToRight OpenVPNGap       `json:"left_to_right"`
	RightToLeft OpenVPNGap       `json:"right_to_left"`
}

// CompareOpenVPN builds the dependency report for two configs.
func CompareOpenVPN(left, right *xmltree.Node) OpenVPNReport {
	leftInv := collectOpenVPNInventory(left)
	rightInv := collectOpenVPNInventory(right)
	return OpenVPNReport{
		Left:        leftInv,
		Right:       rightInv,
		LeftToRight: buildOpenVPNGap("left_to_right", leftInv, rightInv),
		RightToLeft: buildOpenVPNGap("right_to_left", rightInv, leftInv),
	}
}

func buildOpenVPNGap(direction string, source, target OpenVPNInventory) OpenVPNGap {
	return OpenVPNGap{
		Direction:      direction,
		MissingCAIDs:   sortedDiff(source.ReferencedCAIDs, target.AvailableCAIDs),
		MissingCertIDs: sortedDiff(source.ReferencedCertIDs, target.AvailableCertIDs),
		MissingUsers:   sortedDiff(source.ReferencedUsers, target.AvailableUsers),
	}
}

func sortedDiff(source, target []string) []string {
	have := make(map[string]bool, len(target))
	for _, t := range target {
		have[t] = true
	}
	var out []string
	for _, s := range source {
		if !have[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func collectOpenVPNInventory(root *xmltree.Node) OpenVPNInventory {
	inv := OpenVPNInventory{
		AvailableCAIDs:   CollectTopLevelRefids(root, "ca"),
		AvailableCertIDs: CollectTopLevelRefids(root, "cert"),
		AvailableUsers:   CollectSystemUsernames(root),
	}

	caIDs := map[string]bool{}
	certIDs := map[string]bool{}
	users := map[string]bool{}

	for _, vpnRoot := range findOpenVPNRoots(root) {
		walkOpenVPNRefs(vpnRoot, caIDs, certIDs, users)
		countInstances(vpnRoot, &inv)
	}

	inv.ReferencedCAIDs = sortedKeys(caIDs)
	inv.ReferencedCertIDs = sortedKeys(certIDs)
	inv.ReferencedUsers = sortedKeys(users)
	return inv
}

func findOpenVPNRoots(root *xmltree.Node) []*xmltree.Node {
	var out []*xmltree.Node
	stack := []*xmltree.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Tag == "openvpn" || node.Tag == "OpenVPN" {
			out = append(out, node)
		}
		stack = append(stack, node.Children...)
	}
	return out
}

func walkOpenVPNRefs(node *xmltree.Node, caIDs, certIDs, users map[string]bool) {
	if value := node.TrimText(); value != "" {
		switch strings.ToLower(node.Tag) {
		case "caref", "authcertca", "ca":
			caIDs[value] = true
		case "certref", "authcertname", "cert":
			certIDs[value] = true
		case "username", "user", "local_user":
			users[value] = true
		}
	}
	for _, child := range node.Children {
		walkOpenVPNRefs(child, caIDs, certIDs, users)
	}
}

func countInstances(node *xmltree.Node, inv *OpenVPNInventory) {
	if node.Tag == "openvpn-server" || node.Tag == "Instance" {
		inv.InstanceCount++
		if InstanceDisabled(node) {
			inv.DisabledInstances++
		} else {
			inv.EnabledInstances++
		}
	}
	for _, child := range node.Children {
		countInstances(child, inv)
	}
}

// InstanceDisabled reports whether a VPN instance node is disabled. An
// empty <disable/> marker counts as disabled; an <enabled> child must
// be truthy for the instance to count as enabled.
func InstanceDisabled(node *xmltree.Node) bool {
	if disable := node.Child("disable"); disable != nil {
		value := disable.TrimText()
		if value == "" {
			return true
		}
		return value == "1" || strings.EqualFold(value, "yes") || strings.EqualFold(value, "true")
	}
	if enabled := node.Child("enabled"); enabled != nil {
		if value := enabled.TrimText(); value != "" {
			return !(value == "1" || strings.EqualFold(value, "yes") || strings.EqualFold(value, "true"))
		}
	}
	return false
}

// CollectTopLevelRefids gathers refid values from root children with
// the given section tag (ca or cert).
func CollectTopLevelRefids(root *xmltree.Node, sectionTag string) []string {
	set := map[string]bool{}
	for _, child := range root.All(sectionTag) {
		if refid := child.ChildText("refid"); refid != "" {
			set[refid] = true
		}
	}
	return sortedKeys(set)
}

// CollectSystemUsernames gathers user names under system.
func CollectSystemUsernames(root *xmltree.Node) []string {
	set := map[string]bool{}
	if system := root.Child("system"); system != nil {
		for _, user := range system.All("user") {
			if name := user.ChildText("name"); name != "" {
				set[name] = true
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
