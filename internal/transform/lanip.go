package transform

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ErrLanIPConflict marks a LAN override that collides with another
// interface's address.
var ErrLanIPConflict = errors.New("lan-ip conflict")

// ApplyLanIP rewrites the LAN interface address and every reference to
// it throughout the config. Migrations often move the LAN subnet; only
// changing interfaces.lan.ipaddr would leave stale addresses in DHCP
// ranges, gateways, and static routes.
//
// Three passes: write the new address into the interface, remap every
// IPv4 address under dhcpd.lan that falls inside the old subnet while
// preserving host bits, then sweep the tree for text exactly matching
// the old address. A conflict with another interface's address is an
// error; identical old and new addresses are a no-op.
func ApplyLanIP(root *xmltree.Node, newLanIP string) error {
	newIP := parseIPv4(newLanIP)
	if newIP == nil {
		return fmt.Errorf("invalid lan-ip value: %s", newLanIP)
	}

	lan := root.Find("interfaces", "lan")
	if lan == nil {
		if root.Child("interfaces") == nil {
			return fmt.Errorf("missing interfaces section")
		}
		return fmt.Errorf("missing interfaces.lan section")
	}
	oldIPStr, ok := lan.PathText("ipaddr")
	if !ok {
		return fmt.Errorf("missing interfaces.lan.ipaddr")
	}
	oldIPStr = strings.TrimSpace(oldIPStr)
	oldIP := parseIPv4(oldIPStr)
	if oldIP == nil {
		return fmt.Errorf("interfaces.lan.ipaddr is not IPv4: %s", oldIPStr)
	}
	if oldIP.Equal(newIP) {
		return nil
	}

	prefix := 24
	if v, err := strconv.Atoi(lan.ChildText("subnet")); err == nil {
		prefix = v
	}

	if err := ensureNoLanIPConflict(root, newIP); err != nil {
		return err
	}
	lan.SetChildText("ipaddr", newIP.String())
	if dhcpLan := root.Find("dhcpd", "lan"); dhcpLan != nil {
		remapIPv4InSubtree(dhcpLan, oldIP, newIP, prefix)
	}
	replaceExactIPText(root, oldIP.String(), newIP.String())
	return nil
}

// ensureNoLanIPConflict rejects the rewrite when another interface
// already uses the requested address, which would break routing on the
// target box.
func ensureNoLanIPConflict(root *xmltree.Node, newIP net.IP) error {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	want := newIP.String()
	for _, iface := range interfaces.Children {
		if iface.Tag == "lan" {
			continue
		}
		if iface.ChildText("ipaddr") == want {
			return fmt.Errorf("%w: existing interface %s.ipaddr=%s", ErrLanIPConflict, iface.Tag, want)
		}
	}
	return nil
}

func remapIPv4InSubtree(node *xmltree.Node, oldIP, newIP net.IP, prefix int) {
	if remapped, ok := remapIfInOldSubnet(strings.TrimSpace(node.Text), oldIP, newIP, prefix); ok {
		node.Text = remapped
	}
	for _, child := range node.Children {
		remapIPv4InSubtree(child, oldIP, newIP, prefix)
	}
}

// remapIfInOldSubnet moves an address from the old LAN subnet into the
// new one with the same host portion, e.g. 10.1.10.200 to
// 192.168.1.200 for a /24 move. Non-addresses and addresses outside
// the old subnet are left alone.
func remapIfInOldSubnet(value string, oldIP, newIP net.IP, prefix int) (string, bool) {
	addr := parseIPv4(value)
	if addr == nil || prefix < 0 || prefix > 32 {
		return "", false
	}
	mask := maskUint(prefix)
	if ipv4ToUint(oldIP)&mask != ipv4ToUint(addr)&mask {
		return "", false
	}
	host := ipv4ToUint(addr) &^ mask
	v := ipv4ToUint(newIP)&mask | host
	out := net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return out.String(), true
}

func replaceExactIPText(node *xmltree.Node, oldIP, newIP string) {
	if strings.TrimSpace(node.Text) == oldIP {
		node.Text = newIP
	}
	for _, child := range node.Children {
		replaceExactIPText(child, oldIP, newIP)
	}
}

func parseIPv4(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	return ip.To4()
}

func ipv4ToUint(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func maskUint(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}
