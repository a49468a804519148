package deps

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// IPsecInventory captures IPsec reference and availability sets for one
// config.
type IPsecInventory struct {
	Configured           bool     `json:"configured"`
	ReferencedCAIDs      []string `json:"referenced_ca_ids"`
	ReferencedCertIDs    []string `json:"referenced_cert_ids"`
	ReferencedInterfaces []string `json:"referenced_interfaces"`
	AvailableCAIDs       []string `json:"available_ca_ids"`
	AvailableCertIDs     []string `json:"available_cert_ids"`
	AvailableInterfaces  []string `json:"available_interfaces"`
}

// IPsecGap lists identifiers referenced by the source but absent from
// the target.
type IPsecGap struct {
	Direction         string   `json:"direction"`
	MissingCAIDs      []string `json:"missing_ca_ids"`
	MissingCertIDs    []string `json:"missing_cert_ids"`
	MissingInterfaces []string `json:"missing_interfaces"`
}

// IPsecReport pairs both inventories with the gaps in each direction.
type IPsecReport struct {
	Left        IPsecInventory `json:"left"`
	Right       IPsecInventory `json:"right"`
	LeftToRight IPsecGap       `json:"left_to_right"`
	RightToLeft IPsecGap       `json:"right_to_left"`
}

// CompareIPsec builds the dependency report for two configs.
func CompareIPsec(left, right *xmltree.Node) IPsecReport {
	leftInv := collectIPsecInventory(left)
	rightInv := collectIPsecInventory(right)
	return IPsecReport{
		Left:        leftInv,
		Right:       rightInv,
		LeftToRight: buildIPsecGap("left_to_right", leftInv, rightInv),
		RightToLeft: buildIPsecGap("right_to_left", rightInv, leftInv),
	}
}

func buildIPsecGap(direction string, source, target IPsecInventory) IPsecGap {
	return IPsecGap{
		Direction:         direction,
		MissingCAIDs:      sortedDiff(source.ReferencedCAIDs, target.AvailableCAIDs),
		MissingCertIDs:    sortedDiff(source.ReferencedCertIDs, target.AvailableCertIDs),
		MissingInterfaces: sortedDiff(source.ReferencedInterfaces, target.AvailableInterfaces),
	}
}

func collectIPsecInventory(root *xmltree.Node) IPsecInventory {
	roots := findIPsecRoots(root)

	caIDs := map[string]bool{}
	certIDs := map[string]bool{}
	ifaces := map[string]bool{}
	for _, node := range roots {
		walkIPsecRefs(node, caIDs, certIDs, ifaces)
	}

	return IPsecInventory{
		Configured:           len(roots) > 0,
		ReferencedCAIDs:      sortedKeys(caIDs),
		ReferencedCertIDs:    sortedKeys(certIDs),
		ReferencedInterfaces: sortedKeys(ifaces),
		AvailableCAIDs:       CollectTopLevelRefids(root, "ca"),
		AvailableCertIDs:     CollectTopLevelRefids(root, "cert"),
		AvailableInterfaces:  CollectInterfaceNames(root),
	}
}

func findIPsecRoots(root *xmltree.Node) []*xmltree.Node {
	var out []*xmltree.Node
	stack := []*xmltree.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if strings.EqualFold(node.Tag, "ipsec") || strings.EqualFold(node.Tag, "swanctl") {
			out = append(out, node)
		}
		stack = append(stack, node.Children...)
	}
	return out
}

func walkIPsecRefs(node *xmltree.Node, caIDs, certIDs, ifaces map[string]bool) {
	if value := node.TrimText(); value != "" {
		switch strings.ToLower(node.Tag) {
		case "caref", "ca_ref":
			caIDs[value] = true
		case "certref", "cert_ref", "localcertref", "peercertref":
			certIDs[value] = true
		case "interface", "if":
			ifaces[value] = true
		}
	}
	for _, child := range node.Children {
		walkIPsecRefs(child, caIDs, certIDs, ifaces)
	}
}

// CollectInterfaceNames returns the logical interface tags declared
// under the root interfaces container.
func CollectInterfaceNames(root *xmltree.Node) []string {
	set := map[string]bool{}
	if interfaces := root.Child("interfaces"); interfaces != nil {
		for _, iface := range interfaces.Children {
			set[iface.Tag] = true
		}
	}
	return sortedKeys(set)
}
