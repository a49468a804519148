package transform

import (
	"fmt"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// NormalizeOpnsenseVlanIfNames canonicalizes VLAN device names for
// OPNsense. pfSense lets assignments reference VLANs by dotted names
// like vtnet0.50, while OPNsense wants explicit vlanNN devices. Every
// <vlan> gets a <vlanif> name (existing valid names are kept, missing
// ones get the next free vlanNN), OPNsense metadata (uuid attribute,
// pcp, proto, descr), and interface assignments using the dotted name
// are rewritten to the vlanif name.
func NormalizeOpnsenseVlanIfNames(root *xmltree.Node) {
	vlans := root.Child("vlans")
	if vlans == nil {
		return
	}

	used := collectUsedVlanIf(vlans)
	dottedToVlanIf := make(map[string]string)

	for _, vlan := range vlans.All("vlan") {
		parent := vlan.ChildText("if")
		tag := vlan.ChildText("tag")
		if parent == "" || tag == "" {
			continue
		}

		dotted := parent + "." + tag

		vlanif := vlan.ChildText("vlanif")
		if !(strings.HasPrefix(vlanif, "vlan") && len(vlanif) >= 5) {
			vlanif = nextVlanIfName(used)
		}
		vlan.SetChildText("vlanif", vlanif)
		ensureVlanOpnsenseShape(vlan, vlanSeed(vlanif, parent, tag))

		used[vlanif] = true
		dottedToVlanIf[dotted] = vlanif
	}

	if len(dottedToVlanIf) == 0 {
		return
	}

	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return
	}
	for _, iface := range interfaces.Children {
		if mapped, ok := dottedToVlanIf[iface.ChildText("if")]; ok {
			iface.SetChildText("if", mapped)
		}
	}
}

func collectUsedVlanIf(vlans *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	for _, vlan := range vlans.All("vlan") {
		if name := vlan.ChildText("vlanif"); strings.HasPrefix(name, "vlan") {
			out[name] = true
		}
	}
	return out
}

func nextVlanIfName(used map[string]bool) string {
	for i := 1; i < 1000; i++ {
		name := fmt.Sprintf("vlan%02d", i)
		if !used[name] {
			return name
		}
	}
	return "vlan999"
}

func ensureVlanOpnsenseShape(vlan *xmltree.Node, seed uint64) {
	if !vlan.HasAttr("uuid") {
		vlan.SetAttr("uuid", vlanStableUUID(seed))
	}
	if !vlan.HasChild("pcp") {
		vlan.Append(xmltree.NewText("pcp", "0"))
	}
	if !vlan.HasChild("proto") {
		vlan.Append(xmltree.NewText("proto", ""))
	}
	if !vlan.HasChild("descr") {
		vlan.Append(xmltree.NewText("descr", ""))
	}
}

func vlanSeed(vlanif, parent, tag string) uint64 {
	var s uint64
	for _, b := range []byte(vlanif + parent + tag) {
		s = s*131 + uint64(b)
	}
	return s
}

// vlanStableUUID derives a v4-formatted UUID from a seed with a small
// linear congruential generator, so the same VLAN definition always
// gets the same uuid attribute.
func vlanStableUUID(seed uint64) string {
	var acc [16]byte
	x := seed
	for i := range acc {
		x = x*6364136223846793005 + uint64(1+i)
		acc[i] = byte(x >> ((i % 8) * 8))
	}
	acc[6] = (acc[6] & 0x0f) | 0x40
	acc[8] = (acc[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", acc[0:4], acc[4:6], acc[6:8], acc[8:10], acc[10:16])
}
