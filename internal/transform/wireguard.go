package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// WireGuard conversion between the two platforms.
//
// pfSense keeps WireGuard config under installedpackages.wireguard (or
// a top-level <wireguard>) as tunnels/item and peers/item lists; peers
// reference their tunnel by name through <tun>, and tunnels are named
// tun_wgN. OPNsense keeps it under OPNsense.wireguard as nested
// server/servers/server and client/clients/client lists; servers carry
// an <instance> number mapping to the wgN device and reference their
// clients through a comma-separated UUID list in <peers>.
//
// To support lossless round-trips the full OPNsense config is stored
// as <opnsense_wireguard_snapshot> inside the pfSense structure and
// restored on the way back.

// WireGuardToOpnsense converts WireGuard configuration to the OPNsense
// layout and ensures interface assignments exist for the WireGuard
// devices.
func WireGuardToOpnsense(out, source, baseline *xmltree.Node) {
	if srcNested := source.Find("OPNsense", "wireguard"); srcNested != nil {
		upsertNestedWireGuard(out, srcNested.Clone())
	} else if srcTop := sourcePfsenseWireGuard(source); srcTop != nil {
		upsertNestedWireGuard(out, mapPfsenseWireGuard(srcTop))
	}
	ensureWireGuardInterfaceAssignment(out, source)
}

// WireGuardToPfSense converts WireGuard configuration to the pfSense
// layout and ensures interface assignments exist for the WireGuard
// devices.
func WireGuardToPfSense(out, source, baseline *xmltree.Node) {
	if srcTop := sourcePfsenseWireGuard(source); srcTop != nil {
		upsertPfsenseWireGuard(out, srcTop.Clone())
	} else if srcNested := source.Find("OPNsense", "wireguard"); srcNested != nil {
		upsertPfsenseWireGuard(out, mapOpnsenseWireGuard(srcNested))
	}
	ensureWireGuardInterfaceAssignment(out, source)
}

// sourcePfsenseWireGuard finds pfSense WireGuard config, checking the
// top level before the standard installedpackages location.
func sourcePfsenseWireGuard(source *xmltree.Node) *xmltree.Node {
	if wg := source.Child("wireguard"); wg != nil {
		return wg
	}
	return source.Find("installedpackages", "wireguard")
}

func upsertNestedWireGuard(out *xmltree.Node, wireguard *xmltree.Node) {
	upsertChild(out.EnsureChild("OPNsense"), wireguard)
}

func upsertPfsenseWireGuard(out *xmltree.Node, wireguard *xmltree.Node) {
	upsertChild(out.EnsureChild("installedpackages"), wireguard)
}

// NormalizeOpnsenseWireGuardIfNames rewrites WireGuard interface
// assignment device names to OPNsense's wgN format. Server names map
// to their instance device, and pfSense-style tun_wgN names lose the
// prefix.
func NormalizeOpnsenseWireGuardIfNames(out *xmltree.Node) {
	instanceMap := opnsenseWireGuardInstanceMap(out)
	interfaces := out.Child("interfaces")
	if interfaces == nil {
		return
	}
	for _, iface := range interfaces.Children {
		cur, ok := iface.PathText("if")
		if !ok {
			continue
		}
		cur = strings.TrimSpace(cur)
		if cur == "" {
			continue
		}
		if mapped, found := instanceMap[strings.ToLower(cur)]; found {
			iface.SetChildText("if", mapped)
			continue
		}
		if mapped := tunWgToWg(cur); mapped != "" {
			iface.SetChildText("if", mapped)
		}
	}
}

// ensureWireGuardInterfaceAssignment makes sure the output carries
// WireGuard interface assignments when WireGuard is configured.
// Existing assignments from the source are copied; failing that, a
// basic <wireguard><if>wgN</if></wireguard> entry is derived from the
// config so the devices stay visible to firewall rules.
func ensureWireGuardInterfaceAssignment(out, source *xmltree.Node) {
	if !wireGuardConfigPresent(source) && len(sourceWireGuardInterfaces(source)) == 0 {
		return
	}
	if hasWireGuardInterfaceAssignment(out) {
		return
	}
	sourceIfaces := sourceWireGuardInterfaces(source)
	if len(sourceIfaces) == 0 {
		if fallback := deriveWireGuardIfFromConfig(source); fallback != "" {
			iface := xmltree.New("wireguard")
			iface.Append(xmltree.NewText("if", fallback))
			sourceIfaces = append(sourceIfaces, iface)
		}
	}
	if len(sourceIfaces) == 0 {
		return
	}
	interfaces := out.EnsureChild("interfaces")
	for _, iface := range sourceIfaces {
		duplicate := false
		for _, existing := range interfaces.Children {
			if existing.Tag == iface.Tag || interfaceIfName(existing) == interfaceIfName(iface) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			interfaces.Append(iface)
		}
	}
}

func deriveWireGuardIfFromConfig(source *xmltree.Node) string {
	names := wireGuardIfNamesFromTop(source.Child("wireguard"))
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func wireGuardIfNamesFromTop(top *xmltree.Node) []string {
	if top == nil {
		return nil
	}
	var out []string
	collectCandidateNames(top, &out)
	sort.Strings(out)
	dedup := out[:0]
	for i, name := range out {
		if i == 0 || name != out[i-1] {
			dedup = append(dedup, name)
		}
	}
	return dedup
}

func collectCandidateNames(node *xmltree.Node, out *[]string) {
	switch node.Tag {
	case "name", "tun", "interface", "if":
		text := node.TrimText()
		if strings.Contains(strings.ToLower(text), "wg") {
			*out = append(*out, text)
		}
	case "instance":
		text := node.TrimText()
		if text != "" && allDigits(text) {
			*out = append(*out, "wg"+text)
		}
	}
	for _, child := range node.Children {
		collectCandidateNames(child, out)
	}
}

func sourceWireGuardInterfaces(source *xmltree.Node) []*xmltree.Node {
	interfaces := source.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	var out []*xmltree.Node
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") ||
			strings.Contains(interfaceIfName(iface), "wg") {
			out = append(out, iface.Clone())
		}
	}
	return out
}

func hasWireGuardInterfaceAssignment(root *xmltree.Node) bool {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return false
	}
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") ||
			strings.Contains(interfaceIfName(iface), "wg") {
			return true
		}
	}
	return false
}

func wireGuardConfigPresent(root *xmltree.Node) bool {
	return root.Child("wireguard") != nil ||
		root.Find("installedpackages", "wireguard") != nil ||
		root.Find("OPNsense", "wireguard") != nil
}

func interfaceIfName(iface *xmltree.Node) string {
	return strings.ToLower(strings.TrimSpace(iface.ChildText("if")))
}

// tunWgToWg converts pfSense-style tun_wgN names to wgN. Returns ""
// when the input is not in that form.
func tunWgToWg(input string) string {
	suffix, found := strings.CutPrefix(strings.ToLower(input), "tun_wg")
	if !found || suffix == "" || !allDigits(suffix) {
		return ""
	}
	return "wg" + suffix
}

// opnsenseWireGuardInstanceMap maps lowercased server names and wgN
// device names to the wgN device derived from each server's instance
// number.
func opnsenseWireGuardInstanceMap(root *xmltree.Node) map[string]string {
	out := map[string]string{}
	servers := root.Find("OPNsense", "wireguard", "server", "servers")
	if servers == nil {
		return out
	}
	for _, server := range servers.All("server") {
		instance := strings.TrimSpace(server.ChildText("instance"))
		if instance == "" || !allDigits(instance) {
			continue
		}
		device := "wg" + instance
		if name := strings.TrimSpace(server.ChildText("name")); name != "" {
			out[strings.ToLower(name)] = device
		}
		out[device] = device
	}
	return out
}

func asBoolText(value string) string {
	return boolTo01(detect.Truthy(value))
}

// mapPfsenseWireGuard converts pfSense tunnel/peer structure to the
// OPNsense server/client structure. Peers link to their tunnel through
// the pfSense <tun> field; the mapping inverts that into the OPNsense
// comma-separated peer UUID list on each server. When a snapshot from a
// previous conversion exists it is restored directly, preserving
// OPNsense-only fields.
func mapPfsenseWireGuard(source *xmltree.Node) *xmltree.Node {
	if snapshot := source.Child("opnsense_wireguard_snapshot"); snapshot != nil {
		restored := snapshot.Clone()
		restored.Tag = "wireguard"
		return restored
	}

	out := xmltree.New("wireguard")
	peersByTun := map[string][]string{}

	clientWrap := xmltree.New("client")
	clients := xmltree.New("clients")
	if peers := source.Child("peers"); peers != nil {
		for idx, peer := range peers.All("item") {
			id := stableUUID([]byte("pf-peer"), idx)
			client := xmltree.New("client")
			client.SetAttr("uuid", id)
			client.Append(xmltree.NewText("enabled", asBoolText(peer.ChildText("enabled"))))
			name := peer.ChildText("descr")
			if name == "" {
				name = fmt.Sprintf("wg_peer_%d", idx+1)
			}
			client.Append(xmltree.NewText("name", name))
			client.Append(xmltree.NewText("pubkey", peer.ChildText("publickey")))
			client.Append(xmltree.NewText("psk", peer.ChildText("presharedkey")))
			client.Append(xmltree.NewText("tunneladdress", peerTunnelAddress(peer)))
			client.Append(xmltree.NewText("serveraddress", textOr(peer, []string{"endpoint", "address"}, "")))
			client.Append(xmltree.NewText("serverport", textOr(peer, []string{"endpoint", "port"}, "")))
			client.Append(xmltree.NewText("keepalive", peer.ChildText("persistentkeepalive")))
			if tun := peer.ChildText("tun"); tun != "" {
				peersByTun[tun] = append(peersByTun[tun], id)
			}
			clients.Append(client)
		}
	}
	clientWrap.Append(clients)
	out.Append(clientWrap)

	general := xmltree.New("general")
	enable := textOr(source, []string{"config", "enable"}, "")
	if enable == "" {
		enable = textOr(source, []string{"config", "enabled"}, "0")
	}
	general.Append(xmltree.NewText("enabled", asBoolText(enable)))
	out.Append(general)

	serverWrap := xmltree.New("server")
	servers := xmltree.New("servers")
	if tunnels := source.Child("tunnels"); tunnels != nil {
		for idx, tunnel := range tunnels.All("item") {
			tunName := tunnel.ChildText("name")
			if tunName == "" {
				tunName = fmt.Sprintf("tun_wg%d", idx)
			}
			server := xmltree.New("server")
			server.SetAttr("uuid", stableUUID([]byte("pf-tunnel"), idx))
			server.Append(xmltree.NewText("enabled", asBoolText(tunnel.ChildText("enabled"))))
			server.Append(xmltree.NewText("name", tunName))
			server.Append(xmltree.NewText("instance", extractInstanceID(tunName)))
			server.Append(xmltree.NewText("pubkey", tunnel.ChildText("publickey")))
			server.Append(xmltree.NewText("privkey", tunnel.ChildText("privatekey")))
			server.Append(xmltree.NewText("port", tunnel.ChildText("listenport")))
			server.Append(xmltree.NewText("mtu", tunnel.ChildText("mtu")))
			server.Append(xmltree.NewText("tunneladdress", tunnel.ChildText("addresses")))
			server.Append(xmltree.NewText("disableroutes", "1"))
			server.Append(xmltree.NewText("gateway", ""))
			server.Append(xmltree.NewText("carp_depend_on", ""))
			server.Append(xmltree.NewText("peers", strings.Join(peersByTun[tunName], ",")))
			server.Append(xmltree.NewText("debug", "0"))
			server.Append(xmltree.NewText("endpoint", ""))
			server.Append(xmltree.NewText("peer_dns", ""))
			servers.Append(server)
		}
	}
	serverWrap.Append(servers)
	out.Append(serverWrap)

	return out
}

// peerTunnelAddress flattens pfSense's allowedips/row structure into
// the comma-separated CIDR list OPNsense expects.
func peerTunnelAddress(peer *xmltree.Node) string {
	allowed := peer.Child("allowedips")
	if allowed == nil {
		return ""
	}
	var cidrs []string
	for _, row := range allowed.All("row") {
		addr := row.ChildText("address")
		if addr == "" {
			continue
		}
		mask := row.ChildText("mask")
		if mask == "" {
			mask = "32"
		}
		cidrs = append(cidrs, addr+"/"+mask)
	}
	return strings.Join(cidrs, ",")
}

// extractInstanceID pulls the digits out of a pfSense tunnel name
// (tun_wg0 yields "0"), defaulting to "0" when none exist.
func extractInstanceID(tunName string) string {
	var digits strings.Builder
	for _, r := range tunName {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "0"
	}
	return digits.String()
}

// mapOpnsenseWireGuard converts the OPNsense server/client structure to
// pfSense tunnels and peers, and embeds the full OPNsense config as a
// snapshot for round-trip restoration.
func mapOpnsenseWireGuard(source *xmltree.Node) *xmltree.Node {
	out := xmltree.New("wireguard")
	serverPeerMap := collectServerPeers(source)

	tunnels := xmltree.New("tunnels")
	if servers := source.Find("server", "servers"); servers != nil {
		for idx, server := range servers.All("server") {
			item := xmltree.New("item")
			name := server.ChildText("name")
			if name == "" {
				name = fmt.Sprintf("tun_wg%d", idx)
			}
			item.Append(xmltree.NewText("addresses", server.ChildText("tunneladdress")))
			if !strings.HasPrefix(name, "tun_") {
				name = "tun_" + name
			}
			item.Append(xmltree.NewText("name", name))
			item.Append(xmltree.NewText("enabled", yesNo(detect.Truthy(server.ChildText("enabled")))))
			item.Append(xmltree.NewText("descr", server.ChildText("name")))
			item.Append(xmltree.NewText("listenport", server.ChildText("port")))
			item.Append(xmltree.NewText("privatekey", server.ChildText("privkey")))
			item.Append(xmltree.NewText("publickey", server.ChildText("pubkey")))
			item.Append(xmltree.NewText("mtu", server.ChildText("mtu")))
			tunnels.Append(item)
		}
	}
	out.Append(tunnels)

	peers := xmltree.New("peers")
	if clients := source.Find("client", "clients"); clients != nil {
		for idx, client := range clients.All("client") {
			id, _ := client.Attr("uuid")
			item := xmltree.New("item")

			allowed := xmltree.New("allowedips")
			for _, cidr := range splitCSV(client.ChildText("tunneladdress")) {
				addr, mask := splitCIDR(cidr)
				row := xmltree.New("row")
				row.Append(xmltree.NewText("address", addr))
				row.Append(xmltree.NewText("mask", mask))
				row.Append(xmltree.NewText("descr", ""))
				allowed.Append(row)
			}
			item.Append(allowed)

			item.Append(xmltree.NewText("enabled", yesNo(detect.Truthy(client.ChildText("enabled")))))
			tun := serverPeerMap[id]
			if tun == "" {
				tun = fmt.Sprintf("tun_wg%d", idx)
			}
			item.Append(xmltree.NewText("tun", tun))
			descr := client.ChildText("name")
			if descr == "" {
				descr = "imported_peer"
			}
			item.Append(xmltree.NewText("descr", descr))
			item.Append(xmltree.NewText("persistentkeepalive", client.ChildText("keepalive")))
			item.Append(xmltree.NewText("publickey", client.ChildText("pubkey")))
			item.Append(xmltree.NewText("presharedkey", client.ChildText("psk")))
			peers.Append(item)
		}
	}
	out.Append(peers)

	config := xmltree.New("config")
	enabled := textOr(source, []string{"general", "enabled"}, "")
	if enabled == "" {
		enabled = textOr(source, []string{"general", "enable"}, "0")
	}
	config.Append(xmltree.NewText("enable", onOff(detect.Truthy(enabled))))
	config.Append(xmltree.NewText("keep_conf", "yes"))
	config.Append(xmltree.NewText("resolve_interval", "300"))
	config.Append(xmltree.NewText("resolve_interval_track", "no"))
	config.Append(xmltree.NewText("interface_group", "all"))
	config.Append(xmltree.NewText("hide_secrets", "yes"))
	config.Append(xmltree.NewText("hide_peers", "yes"))
	out.Append(config)

	snapshot := source.Clone()
	snapshot.Tag = "opnsense_wireguard_snapshot"
	out.Append(snapshot)

	return out
}

// collectServerPeers inverts the server-to-peers UUID lists into a map
// from peer UUID to parent tunnel name (with tun_ prefix).
func collectServerPeers(source *xmltree.Node) map[string]string {
	out := map[string]string{}
	servers := source.Find("server", "servers")
	if servers == nil {
		return out
	}
	for idx, server := range servers.All("server") {
		tun := server.ChildText("name")
		if tun == "" {
			tun = fmt.Sprintf("tun_wg%d", idx)
		}
		if !strings.HasPrefix(tun, "tun_") {
			tun = "tun_" + tun
		}
		for _, id := range splitCSV(server.ChildText("peers")) {
			out[id] = tun
		}
	}
	return out
}

// splitCIDR splits "addr/mask" into its parts, defaulting the mask to
// 32 for bare host addresses.
func splitCIDR(value string) (string, string) {
	if addr, mask, found := strings.Cut(value, "/"); found {
		return strings.TrimSpace(addr), strings.TrimSpace(mask)
	}
	return strings.TrimSpace(value), "32"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
