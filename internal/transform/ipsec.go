package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// IPsec conversion between the two platforms.
//
// IPsec config lives in up to three places: the top-level legacy
// <ipsec> section (pfSense phase1/phase2 layout or OPNsense
// general/charon layout), OPNsense-native settings under
// OPNsense.IPsec, and strongSwan connection definitions under
// OPNsense.Swanctl.

// IPsecToOpnsense transforms IPsec configuration for OPNsense output.
// A top-level <ipsec> in the source is preserved as-is for round-trip
// fidelity; when it carries pfSense phase1/phase2 data it is also
// mapped into the Swanctl connection model and the IPsec pre-shared
// key store, otherwise it nests directly under OPNsense.IPsec. Without
// a top-level section the nested OPNsense sections pass through.
func IPsecToOpnsense(out, source, baseline *xmltree.Node) {
	if top := source.Child("ipsec"); top != nil {
		upsertTopLevelNode("ipsec", out, top)
		if looksLikePfsenseIPsec(top) {
			mappedIPsec, mappedSwanctl := mapPfIPsecToOpnsense(top)
			upsertNestedOpnsenseNode("IPsec", out, mappedIPsec)
			upsertNestedOpnsenseNode("Swanctl", out, mappedSwanctl)
		} else {
			upsertNestedOpnsenseNode("IPsec", out, top)
		}
		return
	}

	if nested := source.Find("OPNsense", "IPsec"); nested != nil {
		upsertNestedOpnsenseNode("IPsec", out, nested)
	}
	if swanctl := source.Find("OPNsense", "Swanctl"); swanctl != nil {
		upsertNestedOpnsenseNode("Swanctl", out, swanctl)
	}
}

// IPsecToPfSense transforms IPsec configuration for pfSense output. A
// top-level <ipsec> is authoritative and also mirrored into
// OPNsense.IPsec; failing that the nested section is promoted to the
// top level. Swanctl is always carried through so strongSwan
// connection data survives a later conversion back.
func IPsecToPfSense(out, source, baseline *xmltree.Node) {
	hadTopLevel := false
	if top := source.Child("ipsec"); top != nil {
		hadTopLevel = true
		upsertTopLevelNode("ipsec", out, top)
		upsertNestedOpnsenseNode("IPsec", out, top)
	}

	if !hadTopLevel {
		if nested := source.Find("OPNsense", "IPsec"); nested != nil {
			upsertTopLevelNode("ipsec", out, nested)
			upsertNestedOpnsenseNode("IPsec", out, nested)
		}
	}

	if swanctl := source.Find("OPNsense", "Swanctl"); swanctl != nil {
		upsertNestedOpnsenseNode("Swanctl", out, swanctl)
	}
}

func upsertTopLevelNode(section string, out *xmltree.Node, node *xmltree.Node) {
	upsertChild(out, cloneWithTag(node, section))
}

func upsertNestedOpnsenseNode(section string, out *xmltree.Node, node *xmltree.Node) {
	upsertChild(out.EnsureChild("OPNsense"), cloneWithTag(node, section))
}

func cloneWithTag(node *xmltree.Node, tag string) *xmltree.Node {
	out := node.Clone()
	out.Tag = tag
	return out
}

// looksLikePfsenseIPsec detects pfSense's phase1/phase2 layout. The
// OPNsense top-level <ipsec> carries <general> and <charon> instead,
// with tunnels under OPNsense.Swanctl.
func looksLikePfsenseIPsec(node *xmltree.Node) bool {
	return node.HasChild("phase1") || node.HasChild("phase2")
}

// mapPfIPsecToOpnsense converts pfSense phase1/phase2 IPsec into the
// OPNsense IPsec and Swanctl structures. Each phase1 becomes a
// Connection plus a local and a remote auth entry, with the embedded
// pre-shared key extracted into the IPsec preSharedKeys store. Each
// phase2 matching the phase1's ikeid becomes a child SA linked to the
// Connection through its UUID. All UUIDs derive deterministically from
// the kind, index, and ikeid so repeated conversions stay identical.
func mapPfIPsecToOpnsense(sourceIPsec *xmltree.Node) (*xmltree.Node, *xmltree.Node) {
	ipsec := baseOpnsenseIPsec()
	swanctl := baseSwanctl()

	phase1s := sourceIPsec.All("phase1")
	phase2s := sourceIPsec.All("phase2")

	for idx, p1 := range phase1s {
		ikeid := strings.TrimSpace(p1.ChildText("ikeid"))
		if ikeid == "" {
			ikeid = itoa(idx + 1)
		}

		connUUID := ipsecStableUUID("conn", idx, ikeid)

		conn := xmltree.New("Connection")
		conn.SetAttr("uuid", connUUID)
		conn.Append(xmltree.NewText("enabled", enabledFromDisabled(p1)))
		conn.Append(xmltree.NewText("proposals", "default"))
		conn.Append(xmltree.NewText("unique", "no"))
		conn.Append(xmltree.NewText("aggressive", "0"))
		conn.Append(xmltree.NewText("version", "0"))
		conn.Append(xmltree.NewText("mobike", onOffToBool(childTextOr(p1, "mobike", "off"))))
		conn.Append(xmltree.NewText("local_addrs", ""))
		conn.Append(xmltree.NewText("local_port", ""))
		conn.Append(xmltree.NewText("remote_addrs", childTextOr(p1, "remote-gateway", "")))
		conn.Append(xmltree.NewText("remote_port", ""))
		conn.Append(xmltree.NewText("encap", onOffToBool(childTextOr(p1, "nat_traversal", "off"))))
		conn.Append(xmltree.NewText("reauth_time", ""))
		conn.Append(xmltree.NewText("rekey_time", ""))
		conn.Append(xmltree.NewText("over_time", ""))
		conn.Append(xmltree.NewText("dpd_delay", childTextOr(p1, "dpd_delay", "")))
		// pfSense calls the DPD timeout maxfail.
		conn.Append(xmltree.NewText("dpd_timeout", childTextOr(p1, "dpd_maxfail", "")))
		conn.Append(xmltree.NewText("pools", "radius"))
		conn.Append(xmltree.NewText("send_certreq", "1"))
		conn.Append(xmltree.NewText("send_cert", ""))
		conn.Append(xmltree.NewText("keyingtries", ""))
		conn.Append(xmltree.NewText("description", childTextOr(p1, "descr", "")))
		swanctl.Child("Connections").Append(conn)

		local := xmltree.New("local")
		local.SetAttr("uuid", ipsecStableUUID("local", idx, ikeid))
		local.Append(xmltree.NewText("enabled", enabledFromDisabled(p1)))
		local.Append(xmltree.NewText("connection", connUUID))
		local.Append(xmltree.NewText("round", "0"))
		local.Append(xmltree.NewText("auth", p1AuthToSwanctl(childTextOr(p1, "authentication_method", "pre_shared_key"))))
		local.Append(xmltree.NewText("id", p1LocalID(p1)))
		local.Append(xmltree.NewText("eap_id", ""))
		local.Append(xmltree.NewText("certs", childTextOr(p1, "certref", "")))
		local.Append(xmltree.NewText("pubkeys", ""))
		local.Append(xmltree.NewText("description", childTextOr(p1, "descr", "")))
		swanctl.Child("locals").Append(local)

		remote := xmltree.New("remote")
		remote.SetAttr("uuid", ipsecStableUUID("remote", idx, ikeid))
		remote.Append(xmltree.NewText("enabled", enabledFromDisabled(p1)))
		remote.Append(xmltree.NewText("connection", connUUID))
		remote.Append(xmltree.NewText("round", "0"))
		remote.Append(xmltree.NewText("auth", "psk"))
		remote.Append(xmltree.NewText("id", p1RemoteID(p1)))
		remote.Append(xmltree.NewText("eap_id", ""))
		remote.Append(xmltree.NewText("groups", ""))
		remote.Append(xmltree.NewText("certs", ""))
		remote.Append(xmltree.NewText("cacerts", childTextOr(p1, "caref", "")))
		remote.Append(xmltree.NewText("pubkeys", ""))
		remote.Append(xmltree.NewText("description", childTextOr(p1, "descr", "")))
		swanctl.Child("remotes").Append(remote)

		psk := xmltree.New("preSharedKey")
		psk.SetAttr("uuid", ipsecStableUUID("psk", idx, ikeid))
		psk.Append(xmltree.NewText("ident", p1LocalID(p1)))
		psk.Append(xmltree.NewText("remote_ident", p1RemoteID(p1)))
		psk.Append(xmltree.NewText("keyType", "PSK"))
		psk.Append(xmltree.NewText("Key", childTextOr(p1, "pre-shared-key", "")))
		psk.Append(xmltree.NewText("description", childTextOr(p1, "descr", "")))
		ipsec.Child("preSharedKeys").Append(psk)

		cidx := 0
		for _, p2 := range phase2s {
			if childTextOr(p2, "ikeid", "") != ikeid {
				continue
			}
			child := xmltree.New("child")
			child.SetAttr("uuid", ipsecStableUUID("child", cidx, ikeid))
			child.Append(xmltree.NewText("enabled", "1"))
			child.Append(xmltree.NewText("connection", connUUID))
			child.Append(xmltree.NewText("reqid", childTextOr(p2, "reqid", "")))
			child.Append(xmltree.NewText("esp_proposals", "default"))
			child.Append(xmltree.NewText("sha256_96", "0"))
			child.Append(xmltree.NewText("start_action", p2StartAction(p1)))
			child.Append(xmltree.NewText("close_action", "none"))
			child.Append(xmltree.NewText("dpd_action", "clear"))
			child.Append(xmltree.NewText("mode", childTextOr(p2, "mode", "tunnel")))
			child.Append(xmltree.NewText("policies", "1"))
			child.Append(xmltree.NewText("local_ts", p2LocalTS(p2)))
			child.Append(xmltree.NewText("remote_ts", p2RemoteTS(p2)))
			child.Append(xmltree.NewText("rekey_time", childTextOr(p2, "lifetime", "")))
			child.Append(xmltree.NewText("description", childTextOr(p2, "descr", "")))
			swanctl.Child("children").Append(child)
			cidx++
		}
	}

	return ipsec, swanctl
}

// baseOpnsenseIPsec builds the default OPNsense IPsec structure:
// general settings, charon daemon tunables, and empty key containers.
func baseOpnsenseIPsec() *xmltree.Node {
	ipsec := xmltree.New("IPsec")

	general := xmltree.New("general")
	general.Append(xmltree.NewText("enabled", ""))
	general.Append(xmltree.NewText("preferred_oldsa", "0"))
	general.Append(xmltree.NewText("disablevpnrules", "0"))
	general.Append(xmltree.NewText("passthrough_networks", ""))
	general.Append(xmltree.NewText("user_source", ""))
	general.Append(xmltree.NewText("local_group", ""))
	ipsec.Append(general)

	charon := xmltree.New("charon")
	charon.Append(xmltree.NewText("threads", "16"))
	charon.Append(xmltree.NewText("install_routes", "0"))
	ipsec.Append(charon)

	ipsec.Append(xmltree.New("keyPairs"))
	ipsec.Append(xmltree.New("preSharedKeys"))
	return ipsec
}

// baseSwanctl builds the empty Swanctl container structure.
func baseSwanctl() *xmltree.Node {
	swanctl := xmltree.New("Swanctl")
	swanctl.Append(xmltree.New("Connections"))
	swanctl.Append(xmltree.New("locals"))
	swanctl.Append(xmltree.New("remotes"))
	swanctl.Append(xmltree.New("children"))
	swanctl.Append(xmltree.New("Pools"))
	swanctl.Append(xmltree.New("VTIs"))
	swanctl.Append(xmltree.New("SPDs"))
	return swanctl
}

// enabledFromDisabled converts pfSense's disabled-by-presence field to
// the OPNsense enabled flag.
func enabledFromDisabled(node *xmltree.Node) string {
	if childTextOr(node, "disabled", "") == "" {
		return "1"
	}
	return "0"
}

// p1AuthToSwanctl maps the pfSense authentication_method to the short
// swanctl auth type.
func p1AuthToSwanctl(auth string) string {
	if strings.EqualFold(auth, "pre_shared_key") {
		return "psk"
	}
	return "pubkey"
}

func p1LocalID(p1 *xmltree.Node) string {
	return childTextOr(p1, "myid_data", "")
}

func p1RemoteID(p1 *xmltree.Node) string {
	return childTextOr(p1, "peerid_data", "")
}

func p2LocalTS(p2 *xmltree.Node) string {
	localid := p2.Child("localid")
	if localid == nil {
		return ""
	}
	return tsFromSelector(localid)
}

func p2RemoteTS(p2 *xmltree.Node) string {
	remoteid := p2.Child("remoteid")
	if remoteid == nil {
		return ""
	}
	return tsFromSelector(remoteid)
}

func p2StartAction(p1 *xmltree.Node) string {
	if strings.EqualFold(childTextOr(p1, "startaction", "none"), "start") {
		return "start"
	}
	return "none"
}

func onOffToBool(v string) string {
	if strings.EqualFold(v, "on") {
		return "1"
	}
	return "0"
}

func childTextOr(node *xmltree.Node, child, fallback string) string {
	raw, ok := node.PathText(child)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(raw)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// tsFromSelector converts a pfSense phase2 traffic selector to the
// swanctl format: network selectors become address/netbits CIDRs,
// address selectors pass the address through, and range selectors
// become from-to pairs. Unrecognized types yield "".
func tsFromSelector(node *xmltree.Node) string {
	typ := childTextOr(node, "type", "")
	switch {
	case strings.EqualFold(typ, "network"):
		addr := childTextOr(node, "address", "")
		bits := childTextOr(node, "netbits", "")
		if addr == "" || bits == "" {
			return ""
		}
		return addr + "/" + bits
	case strings.EqualFold(typ, "address"):
		return childTextOr(node, "address", "")
	case strings.EqualFold(typ, "range"):
		from := childTextOr(node, "from", "")
		to := childTextOr(node, "to", "")
		if from != "" && to != "" {
			return from + "-" + to
		}
	}
	return ""
}

// ipsecStableUUID derives a deterministic v4-formatted UUID from a
// kind prefix, index, and ikeid seed. Same inputs always yield the
// same UUID, keeping conversions idempotent and the Connection to
// local/remote/child links stable across runs.
func ipsecStableUUID(prefix string, idx int, seed string) string {
	return mixedUUID([]byte(prefix+seed), idx)
}
