package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// OpenVPN conversion between the two platforms.
//
// pfSense keeps OpenVPN config in a root-level <openvpn> with separate
// <openvpn-server> and <openvpn-client> children, identified by
// <vpnid> and referenced from interfaces as ovpnsN devices. OPNsense
// keeps it under OPNsense.OpenVPN.Instances as <Instance> elements
// distinguished by a <role> field and identified by a uuid attribute.
//
// OPNsense outputs maintain both layouts: the native nested Instances
// plus a top-level <openvpn> kept for tools that expect it. To support
// lossless round-trips, instance UUIDs are carried into pfSense output
// as <opnsense_instance_uuid> markers and read back on the way in.

// OpenVPNToOpnsense converts OpenVPN configuration to the OPNsense
// layout. When the source already carries nested instances those are
// used directly; otherwise pfSense servers are mapped to instances.
func OpenVPNToOpnsense(out, source, baseline *xmltree.Node) {
	instances := sourceOpnsenseInstances(source)
	if instances == nil {
		instances = mapPfsenseServersToInstances(source, baseline)
	}
	if len(instances.Children) == 0 {
		return
	}

	openvpn := out.EnsurePath("OPNsense", "OpenVPN")
	upsertChild(openvpn, instances)

	// Top-level <openvpn> stays for pfSense compatibility. A config
	// that round-tripped through OPNsense (all servers carry UUID
	// markers) is normalized to an empty element instead, to avoid
	// duplicating the nested structure.
	if srcPf := sourcePfsenseServers(source); srcPf != nil {
		if !isOpnsenseOriginOpenVPN(srcPf) {
			upsertChild(out, srcPf)
		} else {
			normalizeTopLevelOpenVPN(out)
		}
	} else {
		normalizeTopLevelOpenVPN(out)
	}
	dedupeTopLevelOpenVPN(out)
}

// OpenVPNToPfSense converts OpenVPN configuration to the pfSense
// layout. When the source already carries a pfSense <openvpn> with
// server or client children it is used directly; otherwise OPNsense
// instances are mapped to servers.
func OpenVPNToPfSense(out, source, baseline *xmltree.Node) {
	servers := sourcePfsenseServers(source)
	if servers == nil {
		servers = mapInstancesToPfsense(source)
	}
	if len(servers.Children) == 0 {
		return
	}
	upsertChild(out, servers)
	dedupeTopLevelOpenVPN(out)
}

// sourceOpnsenseInstances returns a clone of the nested Instances
// container, or nil for pfSense-format sources.
func sourceOpnsenseInstances(source *xmltree.Node) *xmltree.Node {
	instances := source.Find("OPNsense", "OpenVPN", "Instances")
	if instances == nil {
		return nil
	}
	return instances.Clone()
}

// sourcePfsenseServers returns a clone of the root <openvpn> element
// when it holds server or client children. An <openvpn> without either
// indicates an empty or OPNsense-normalized structure and returns nil.
func sourcePfsenseServers(source *xmltree.Node) *xmltree.Node {
	openvpn := source.Child("openvpn")
	if openvpn == nil {
		return nil
	}
	for _, c := range openvpn.Children {
		if c.Tag == "openvpn-server" || c.Tag == "openvpn-client" {
			return openvpn.Clone()
		}
	}
	return nil
}

// isOpnsenseOriginOpenVPN reports whether every server carries an
// <opnsense_instance_uuid> marker from a previous conversion.
func isOpnsenseOriginOpenVPN(openvpn *xmltree.Node) bool {
	servers := openvpn.All("openvpn-server")
	if len(servers) == 0 {
		return false
	}
	for _, s := range servers {
		if _, ok := s.PathText("opnsense_instance_uuid"); !ok {
			return false
		}
	}
	return true
}

func upsertChild(parent *xmltree.Node, child *xmltree.Node) {
	for i, c := range parent.Children {
		if c.Tag == child.Tag {
			parent.Children[i] = child
			return
		}
	}
	parent.Append(child)
}

// normalizeTopLevelOpenVPN replaces (or creates) the root <openvpn>
// with an empty element. The nested OPNsense structure is the primary
// storage; the empty element keeps compatibility.
func normalizeTopLevelOpenVPN(out *xmltree.Node) {
	for i, c := range out.Children {
		if c.Tag == "openvpn" {
			out.Children[i] = xmltree.New("openvpn")
			return
		}
	}
	out.Append(xmltree.New("openvpn"))
}

// dedupeTopLevelOpenVPN keeps only the first <openvpn> element.
func dedupeTopLevelOpenVPN(out *xmltree.Node) {
	seen := false
	out.RetainChildren(func(n *xmltree.Node) bool {
		if n.Tag != "openvpn" {
			return true
		}
		if !seen {
			seen = true
			return true
		}
		return false
	})
}

// opnsenseInstanceTemplate returns a clone of the first Instance in the
// target's OpenVPN config, used as a template so new instances carry
// the correct default fields.
func opnsenseInstanceTemplate(target *xmltree.Node) *xmltree.Node {
	tpl := target.Find("OPNsense", "OpenVPN", "Instances", "Instance")
	if tpl == nil {
		return nil
	}
	return tpl.Clone()
}

// sourceAssignedOvpnsUnits scans interface assignments for ovpnsN
// device references and returns the sorted, deduplicated unit numbers.
func sourceAssignedOvpnsUnits(source *xmltree.Node) []string {
	interfaces := source.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, iface := range interfaces.Children {
		raw, ok := iface.PathText("if")
		if !ok {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(raw))
		unit, found := strings.CutPrefix(lower, "ovpns")
		if !found || unit == "" || !allDigits(unit) {
			continue
		}
		if !seen[unit] {
			seen[unit] = true
			out = append(out, unit)
		}
	}
	sort.Strings(out)
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// syntheticUUIDForID generates a deterministic UUID for an OpenVPN
// instance from the pfSense vpnid, so the same input always produces
// the same OPNsense UUIDs. Conversions stay idempotent and unchanged
// instances keep stable UUIDs across runs. Falls back to the index when
// the vpnid carries no digits.
func syntheticUUIDForID(vpnid string, index int) string {
	var digits strings.Builder
	for _, r := range vpnid {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	idNum, err := strconv.ParseUint(digits.String(), 10, 64)
	if err != nil {
		idNum = uint64(index + 1)
	}
	idNum %= 1 << 48

	var u uuid.UUID
	u[6] = 0x40 // version 4
	u[8] = 0x80 // RFC 4122 variant
	for i := 0; i < 6; i++ {
		u[15-i] = byte(idNum >> (8 * i))
	}
	return u.String()
}

// textOr returns the trimmed text at path, or fallback when the path is
// missing or empty.
func textOr(node *xmltree.Node, path []string, fallback string) string {
	raw, ok := node.PathText(path...)
	if !ok {
		return fallback
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	return value
}

func boolTo01(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// mapPfsenseServersToInstances converts pfSense <openvpn-server>
// elements to OPNsense <Instance> children. Interface assignments
// (ovpnsN) are mapped to vpnids positionally when the counts line up;
// field names translate between the formats, with numbered DNS and NTP
// fields joined into comma-separated lists and separate push booleans
// folded into various_push_flags.
func mapPfsenseServersToInstances(source, target *xmltree.Node) *xmltree.Node {
	instances := xmltree.New("Instances")
	openvpn := source.Child("openvpn")
	if openvpn == nil {
		return instances
	}

	template := opnsenseInstanceTemplate(target)
	assignedUnits := sourceAssignedOvpnsUnits(source)
	servers := openvpn.All("openvpn-server")
	serverCount := len(servers)

	for idx, server := range servers {
		var instance *xmltree.Node
		if template != nil {
			instance = template.Clone()
		} else {
			instance = xmltree.New("Instance")
		}
		instance.Tag = "Instance"

		// Positional mapping when assignment and server counts match,
		// or a single server with a single assignment.
		mappedUnit := ""
		if len(assignedUnits) == serverCount && idx < len(assignedUnits) {
			mappedUnit = assignedUnits[idx]
		} else if serverCount == 1 && len(assignedUnits) == 1 {
			mappedUnit = assignedUnits[0]
		}

		vpnid := mappedUnit
		if vpnid == "" {
			vpnid = textOr(server, []string{"vpnid"}, "1")
		}

		instanceUUID := textOr(server, []string{"opnsense_instance_uuid"}, "")
		if instanceUUID == "" {
			instanceUUID = syntheticUUIDForID(vpnid, len(instances.Children))
		}
		instance.SetAttr("uuid", instanceUUID)

		instance.SetChildText("vpnid", vpnid)
		// pfSense marks disabled by the presence of <disable>, OPNsense
		// uses <enabled>1</enabled>.
		_, hasDisable := server.PathText("disable")
		instance.SetChildText("enabled", boolTo01(!hasDisable))
		instance.SetChildText("dev_type", strings.ToLower(textOr(server, []string{"dev_mode"}, "tun")))
		instance.SetChildText("proto", strings.ToLower(textOr(server, []string{"protocol"}, "udp")))
		instance.SetChildText("port", textOr(server, []string{"local_port"}, ""))
		instance.SetChildText("role", "server")
		instance.SetChildText("server", textOr(server, []string{"tunnel_network"}, ""))
		instance.SetChildText("push_route", textOr(server, []string{"local_network"}, ""))
		instance.SetChildText("cert", textOr(server, []string{"certref"}, ""))
		instance.SetChildText("ca", textOr(server, []string{"caref"}, ""))
		instance.SetChildText("cert_depth", textOr(server, []string{"cert_depth"}, "1"))
		instance.SetChildText("topology", textOr(server, []string{"topology"}, "subnet"))
		instance.SetChildText("description", textOr(server, []string{"description"}, ""))

		dnsValues := gatherFields(server, "dns_server1", "dns_server2", "dns_server3", "dns_server4")
		if len(dnsValues) > 0 {
			instance.SetChildText("dns_servers", strings.Join(dnsValues, ","))
		}
		if domain := textOr(server, []string{"dns_domain"}, ""); domain != "" {
			instance.SetChildText("dns_domain", domain)
		}
		if search := textOr(server, []string{"dns_domain_search"}, ""); search != "" {
			instance.SetChildText("dns_domain_search", search)
		}
		ntpValues := gatherFields(server, "ntp_server1", "ntp_server2")
		if len(ntpValues) > 0 {
			instance.SetChildText("ntp_servers", strings.Join(ntpValues, ","))
		}

		if custom := textOr(server, []string{"custom_options"}, ""); custom != "" {
			instance.SetChildText("custom_options", custom)
		}
		var pushFlags []string
		if detect.Truthy(textOr(server, []string{"push_blockoutsidedns"}, "0")) {
			pushFlags = append(pushFlags, "block-outside-dns")
		}
		wantsRegisterDNS := detect.Truthy(textOr(server, []string{"push_register_dns"}, "0"))
		if wantsRegisterDNS {
			pushFlags = append(pushFlags, "register-dns")
		}
		instance.SetChildText("register_dns", boolTo01(wantsRegisterDNS))
		if len(pushFlags) > 0 {
			instance.SetChildText("various_push_flags", strings.Join(pushFlags, ","))
		}

		if username := textOr(server, []string{"username"}, ""); username != "" && username != "0" {
			instance.SetChildText("username", username)
		}
		if detect.Truthy(textOr(server, []string{"username_as_common_name"}, "0")) {
			instance.SetChildText("username_as_common_name", "1")
		}
		if detect.Truthy(textOr(server, []string{"strictusercn"}, "0")) {
			instance.SetChildText("strictusercn", "1")
		}

		if detect.Truthy(textOr(server, []string{"netbios_enable"}, "0")) {
			instance.SetChildText("netbios_enable", "1")
		}
		if ntype := textOr(server, []string{"netbios_ntype"}, ""); ntype != "" {
			instance.SetChildText("netbios_ntype", ntype)
		}
		if scope := textOr(server, []string{"netbios_scope"}, ""); scope != "" {
			instance.SetChildText("netbios_scope", scope)
		}

		instances.Append(instance)
	}

	return instances
}

// mapInstancesToPfsense converts OPNsense server instances to pfSense
// <openvpn-server> elements. Instance UUIDs are preserved as
// <opnsense_instance_uuid> markers; comma-separated DNS, NTP, and push
// flag lists expand back into pfSense's numbered and boolean fields.
func mapInstancesToPfsense(source *xmltree.Node) *xmltree.Node {
	openvpn := xmltree.New("openvpn")
	instances := source.Find("OPNsense", "OpenVPN", "Instances")
	if instances == nil {
		return openvpn
	}

	for _, instance := range instances.All("Instance") {
		role := strings.ToLower(textOr(instance, []string{"role"}, "server"))
		if role != "server" {
			continue
		}

		server := xmltree.New("openvpn-server")
		if id, ok := instance.Attr("uuid"); ok {
			server.Append(xmltree.NewText("opnsense_instance_uuid", id))
		}
		server.Append(xmltree.NewText("vpnid", textOr(instance, []string{"vpnid"}, "1")))
		if !detect.Truthy(textOr(instance, []string{"enabled"}, "1")) {
			server.Append(xmltree.New("disable"))
		}
		server.Append(xmltree.NewText("mode", "server_tls"))
		server.Append(xmltree.NewText("protocol", strings.ToUpper(textOr(instance, []string{"proto"}, "udp"))))
		server.Append(xmltree.NewText("dev_mode", strings.ToLower(textOr(instance, []string{"dev_type"}, "tun"))))
		server.Append(xmltree.NewText("interface", "wan"))
		server.Append(xmltree.NewText("local_port", textOr(instance, []string{"port"}, "")))
		server.Append(xmltree.NewText("description", textOr(instance, []string{"description"}, "")))
		server.Append(xmltree.NewText("caref", textOr(instance, []string{"ca"}, "")))
		server.Append(xmltree.NewText("certref", textOr(instance, []string{"cert"}, "")))
		server.Append(xmltree.NewText("cert_depth", textOr(instance, []string{"cert_depth"}, "1")))
		server.Append(xmltree.NewText("tunnel_network", textOr(instance, []string{"server"}, "")))
		server.Append(xmltree.NewText("local_network", textOr(instance, []string{"push_route"}, "")))
		server.Append(xmltree.NewText("topology", textOr(instance, []string{"topology"}, "subnet")))

		if domain := textOr(instance, []string{"dns_domain"}, ""); domain != "" {
			server.Append(xmltree.NewText("dns_domain", domain))
		}
		dnsServers := splitCSV(textOr(instance, []string{"dns_servers"}, ""))
		for i, dns := range dnsServers {
			if i >= 4 {
				break
			}
			server.Append(xmltree.NewText(fmt.Sprintf("dns_server%d", i+1), dns))
		}
		ntpServers := splitCSV(textOr(instance, []string{"ntp_servers"}, ""))
		for i, ntp := range ntpServers {
			if i >= 2 {
				break
			}
			server.Append(xmltree.NewText(fmt.Sprintf("ntp_server%d", i+1), ntp))
		}

		if custom := textOr(instance, []string{"custom_options"}, ""); custom != "" {
			server.Append(xmltree.NewText("custom_options", custom))
		}

		if username := textOr(instance, []string{"username"}, ""); username != "" {
			server.Append(xmltree.NewText("username", username))
		}
		if detect.Truthy(textOr(instance, []string{"username_as_common_name"}, "0")) {
			server.Append(xmltree.NewText("username_as_common_name", "enabled"))
		}
		if detect.Truthy(textOr(instance, []string{"strictusercn"}, "0")) {
			server.Append(xmltree.NewText("strictusercn", "1"))
		}

		pushFlags := splitCSV(textOr(instance, []string{"various_push_flags"}, ""))
		if flagPresent(pushFlags, "block-outside-dns") {
			server.Append(xmltree.NewText("push_blockoutsidedns", "yes"))
		}
		if flagPresent(pushFlags, "register-dns") ||
			detect.Truthy(textOr(instance, []string{"register_dns"}, "0")) {
			server.Append(xmltree.NewText("push_register_dns", "yes"))
		}
		if flagPresent(pushFlags, "explicit-exit-notify") {
			server.Append(xmltree.NewText("exit_notify", "explicit"))
		}

		if detect.Truthy(textOr(instance, []string{"netbios_enable"}, "0")) {
			server.Append(xmltree.NewText("netbios_enable", "yes"))
		}
		if ntype := textOr(instance, []string{"netbios_ntype"}, ""); ntype != "" {
			server.Append(xmltree.NewText("netbios_ntype", ntype))
		}
		if scope := textOr(instance, []string{"netbios_scope"}, ""); scope != "" {
			server.Append(xmltree.NewText("netbios_scope", scope))
		}

		openvpn.Append(server)
	}

	return openvpn
}

// gatherFields collects the non-empty trimmed values of the named
// children, in order.
func gatherFields(node *xmltree.Node, keys ...string) []string {
	var out []string
	for _, key := range keys {
		if value := textOr(node, []string{key}, ""); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// splitCSV splits a comma-separated value into trimmed non-empty parts.
func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func flagPresent(flags []string, key string) bool {
	for _, flag := range flags {
		if strings.EqualFold(flag, key) {
			return true
		}
	}
	return false
}
