package dhcp

import (
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// staticMapV4 is an ISC IPv4 reservation: a fixed address for a MAC.
type staticMapV4 struct {
	iface    string
	mac      string
	ipaddr   string
	hostname string
	cid      string
	descr    string
}

// staticMapV6 is an ISC IPv6 reservation keyed by DUID.
type staticMapV6 struct {
	iface        string
	duid         string
	ipaddr       string
	hostname     string
	descr        string
	domainSearch string
}

type optsV4 struct {
	dnsServers   []string
	routers      string
	domainName   string
	domainSearch string
	ntpServers   []string
}

func (o optsV4) empty() bool {
	return len(o.dnsServers) == 0 && o.routers == "" && o.domainName == "" &&
		o.domainSearch == "" && len(o.ntpServers) == 0
}

type optsV6 struct {
	dnsServers   []string
	domainSearch string
}

func (o optsV6) empty() bool {
	return len(o.dnsServers) == 0 && o.domainSearch == ""
}

// ifaceNetwork is an interface's subnet: the masked network address
// and prefix length.
type ifaceNetwork struct {
	network netip.Addr
	prefix  int
}

func (n ifaceNetwork) cidr() string {
	return n.network.String() + "/" + strconv.Itoa(n.prefix)
}

// iscIfaceEnabled decides whether DHCP is on for an ISC interface
// section. The format has accumulated three flags over time: a
// <disabled> element (present or truthy means off), an <enable>
// element (empty or truthy means on), and an <enabled> value. Absent
// flags default to enabled.
func iscIfaceEnabled(iface *xmltree.Node) bool {
	if disabled, ok := iface.PathText("disabled"); ok {
		v := strings.TrimSpace(disabled)
		if v == "" || detect.Truthy(v) {
			return false
		}
	}
	if enable := iface.Child("enable"); enable != nil {
		v := strings.TrimSpace(enable.Text)
		return v == "" || detect.Truthy(v)
	}
	if enabled, ok := iface.PathText("enabled"); ok {
		return detect.Truthy(enabled)
	}
	return true
}

func extractStaticMapsV4(root *xmltree.Node) []staticMapV4 {
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return nil
	}
	var out []staticMapV4
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		for _, sm := range iface.All("staticmap") {
			mac := sm.ChildText("mac")
			ip := sm.ChildText("ipaddr")
			if mac == "" || ip == "" {
				continue
			}
			out = append(out, staticMapV4{
				iface:    iface.Tag,
				mac:      mac,
				ipaddr:   ip,
				hostname: sm.ChildText("hostname"),
				cid:      sm.ChildText("cid"),
				descr:    sm.ChildText("descr"),
			})
		}
	}
	return out
}

func extractRangesV4(root *xmltree.Node) map[string][][2]string {
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return nil
	}
	out := make(map[string][][2]string)
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		for _, r := range iface.All("range") {
			from := r.ChildText("from")
			to := r.ChildText("to")
			if from == "" || to == "" {
				continue
			}
			out[iface.Tag] = append(out[iface.Tag], [2]string{from, to})
		}
	}
	return out
}

// extractIfaceNetworksV4 derives each interface's IPv4 subnet from its
// address and mask. Kea wants subnet CIDRs rather than per-interface
// config, so the network address is what matters.
func extractIfaceNetworksV4(root *xmltree.Node) map[string]ifaceNetwork {
	out := make(map[string]ifaceNetwork)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		ip, err := netip.ParseAddr(iface.ChildText("ipaddr"))
		if err != nil || !ip.Is4() {
			continue
		}
		prefix := 24
		if v, err := strconv.Atoi(iface.ChildText("subnet")); err == nil {
			prefix = v
		}
		if prefix < 0 || prefix > 32 {
			continue
		}
		network, err := ip.Prefix(prefix)
		if err != nil {
			continue
		}
		out[iface.Tag] = ifaceNetwork{network: network.Addr(), prefix: prefix}
	}
	return out
}

func extractOptionsV4(root *xmltree.Node) map[string]optsV4 {
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return nil
	}
	out := make(map[string]optsV4)
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		var opts optsV4
		for _, child := range iface.Children {
			v := strings.TrimSpace(child.Text)
			if v == "" {
				continue
			}
			switch child.Tag {
			case "dnsserver":
				opts.dnsServers = append(opts.dnsServers, v)
			case "gateway":
				opts.routers = v
			case "domain":
				opts.domainName = v
			case "domainsearchlist":
				opts.domainSearch = normalizeDomainSearch(v)
			case "ntpserver":
				opts.ntpServers = append(opts.ntpServers, v)
			}
		}
		if !opts.empty() {
			out[iface.Tag] = opts
		}
	}
	return out
}

// demandedIfacesV4 lists interfaces that actually need a Kea subnet:
// anything with a reservation, a pool, or options.
func demandedIfacesV4(maps []staticMapV4, ranges map[string][][2]string, opts map[string]optsV4) []string {
	set := make(map[string]bool)
	for _, m := range maps {
		set[m.iface] = true
	}
	for k := range ranges {
		set[k] = true
	}
	for k := range opts {
		set[k] = true
	}
	return sortedKeys(set)
}

// dhcpv6LegacySections returns both spellings of the IPv6 section.
func dhcpv6LegacySections(root *xmltree.Node) []*xmltree.Node {
	var out []*xmltree.Node
	if n := root.Child("dhcpdv6"); n != nil {
		out = append(out, n)
	}
	if n := root.Child("dhcpd6"); n != nil {
		out = append(out, n)
	}
	return out
}

func extractStaticMapsV6(root *xmltree.Node) []staticMapV6 {
	var out []staticMapV6
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			for _, sm := range iface.All("staticmap") {
				duid := sm.ChildText("duid")
				ip := sm.ChildText("ipaddrv6")
				if duid == "" || ip == "" {
					continue
				}
				out = append(out, staticMapV6{
					iface:        iface.Tag,
					duid:         duid,
					ipaddr:       ip,
					hostname:     sm.ChildText("hostname"),
					descr:        sm.ChildText("descr"),
					domainSearch: sm.ChildText("domainsearchlist"),
				})
			}
		}
	}
	return out
}

func extractRangesV6(root *xmltree.Node) map[string][][2]string {
	out := make(map[string][][2]string)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			for _, r := range iface.All("range") {
				from := r.ChildText("from")
				to := r.ChildText("to")
				if from == "" || to == "" {
					continue
				}
				out[iface.Tag] = append(out[iface.Tag], [2]string{from, to})
			}
		}
	}
	return out
}

// extractIfaceNetworksV6 derives each interface's IPv6 subnet.
// Interfaces in track6 or dhcp6 client mode have no static prefix and
// are skipped.
func extractIfaceNetworksV6(root *xmltree.Node) map[string]ifaceNetwork {
	out := make(map[string]ifaceNetwork)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		raw := iface.ChildText("ipaddrv6")
		if raw == "" || strings.EqualFold(raw, "track6") || strings.EqualFold(raw, "dhcp6") {
			continue
		}
		ip, err := netip.ParseAddr(raw)
		if err != nil || !ip.Is6() {
			continue
		}
		prefix := 64
		if v, err := strconv.Atoi(iface.ChildText("subnetv6")); err == nil {
			prefix = v
		}
		if prefix < 0 || prefix > 128 {
			continue
		}
		network, err := ip.Prefix(prefix)
		if err != nil {
			continue
		}
		out[iface.Tag] = ifaceNetwork{network: network.Addr(), prefix: prefix}
	}
	return out
}

// collectPrefixRangeIntent flags interfaces with prefix delegation
// configured. PD evidence lets an interface demand a Kea subnet even
// without a static IPv6 address.
func collectPrefixRangeIntent(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			for _, pr := range iface.All("prefixrange") {
				from := pr.ChildText("from")
				to := pr.ChildText("to")
				length := pr.ChildText("prefixlength")
				if (from != "" || to != "") && length != "" {
					out[iface.Tag] = true
				}
			}
		}
	}
	return out
}

func extractOptionsV6(root *xmltree.Node) map[string]optsV6 {
	out := make(map[string]optsV6)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			var opts optsV6
			for _, child := range iface.Children {
				v := strings.TrimSpace(child.Text)
				if v == "" {
					continue
				}
				switch child.Tag {
				case "dnsserver":
					opts.dnsServers = append(opts.dnsServers, v)
				case "domainsearchlist":
					opts.domainSearch = normalizeDomainSearch(v)
				}
			}
			if opts.empty() {
				continue
			}
			merged := out[iface.Tag]
			for _, dns := range opts.dnsServers {
				if !containsString(merged.dnsServers, dns) {
					merged.dnsServers = append(merged.dnsServers, dns)
				}
			}
			if merged.domainSearch == "" {
				merged.domainSearch = opts.domainSearch
			}
			out[iface.Tag] = merged
		}
	}
	return out
}

func demandedIfacesV6(maps []staticMapV6, ranges map[string][][2]string, opts map[string]optsV6, prefixIntent map[string]bool) []string {
	set := make(map[string]bool)
	for _, m := range maps {
		set[m.iface] = true
	}
	for k := range ranges {
		set[k] = true
	}
	for k := range opts {
		set[k] = true
	}
	for k := range prefixIntent {
		set[k] = true
	}
	return sortedKeys(set)
}

// normalizeDomainSearch rewrites the search list to the space
// separated form Kea expects; ISC tolerates semicolons and commas too.
func normalizeDomainSearch(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return strings.Join(fields, " ")
}

// expandIPv6InPrefix expands abbreviated range addresses that assume
// the subnet prefix, turning ::10 inside fd00::/64 into fd00::10.
func expandIPv6InPrefix(value string, network netip.Addr, prefix int) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(value))
	if err != nil || !addr.Is6() {
		return "", false
	}
	mask := ipv6Mask(prefix)
	net16 := network.As16()
	addr16 := addr.As16()
	var out [16]byte
	for i := range out {
		out[i] = net16[i]&mask[i] | addr16[i]&^mask[i]
	}
	return netip.AddrFrom16(out).String(), true
}

func ipv6Mask(prefix int) [16]byte {
	var mask [16]byte
	for i := 0; i < 16 && prefix > 0; i++ {
		if prefix >= 8 {
			mask[i] = 0xff
			prefix -= 8
			continue
		}
		mask[i] = byte(0xff << (8 - prefix))
		prefix = 0
	}
	return mask
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func containsString(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
