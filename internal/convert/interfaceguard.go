package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/transform"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// InterfaceSpec is one logical interface entry as the preflight sees
// it.
type InterfaceSpec struct {
	Name     string
	Descr    string
	IfName   string
	IPAddr   string
	Subnet   string
	IPAddrV6 string
	SubnetV6 string
}

// CollectInterfaces builds the logical interface inventory of a
// config, keyed by tag.
func CollectInterfaces(root *xmltree.Node) map[string]InterfaceSpec {
	out := make(map[string]InterfaceSpec)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		out[iface.Tag] = InterfaceSpec{
			Name:     iface.Tag,
			Descr:    iface.ChildText("descr"),
			IfName:   iface.ChildText("if"),
			IPAddr:   iface.ChildText("ipaddr"),
			Subnet:   iface.ChildText("subnet"),
			IPAddrV6: iface.ChildText("ipaddrv6"),
			SubnetV6: iface.ChildText("subnetv6"),
		}
	}
	return out
}

// EnforceInterfaceCompat verifies that every source interface either
// exists in the target baseline by logical tag or is virtual-backed
// and can be created from the source config. Address and subnet
// differences never block; only missing physical-backed interfaces do.
func EnforceInterfaceCompat(source, target *xmltree.Node) error {
	sourceMap := CollectInterfaces(source)
	targetMap := CollectInterfaces(target)

	if len(sourceMap) == 0 || len(targetMap) == 0 {
		return classifyf(KindIncompatibleInterfaces,
			"interface preflight failed: source_interfaces=%d target_interfaces=%d; provide --target-file with interfaces",
			len(sourceMap), len(targetMap))
	}

	var missing []string
	for _, name := range sortedSpecKeys(sourceMap) {
		if _, ok := targetMap[name]; ok {
			continue
		}
		src := sourceMap[name]
		if transform.IsVirtualIfName(src.IfName) {
			continue
		}
		missing = append(missing, formatMissing(name, src))
	}

	if len(missing) > 0 {
		return classifyf(KindIncompatibleInterfaces,
			"interface preflight failed: missing target interfaces: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

func formatMissing(name string, spec InterfaceSpec) string {
	var parts []string
	if spec.Descr != "" {
		parts = append(parts, "descr="+spec.Descr)
	}
	if spec.IfName != "" {
		parts = append(parts, "if="+spec.IfName)
	}
	if len(parts) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(parts, " "))
}

func sortedSpecKeys(m map[string]InterfaceSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
