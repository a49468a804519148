package mappings

// DefaultKeyFields returns the tag-to-key-field map used for repeated
// element matching during diff. Rules key on their tracker id, aliases
// on their name.
func DefaultKeyFields() map[string]string {
	return map[string]string{
		"rule":  "tracker",
		"alias": "name",
	}
}

// SectionTags maps a logical section flag to concrete top-level tags.
func SectionTags(section string) []string {
	switch section {
	case "system":
		return []string{"system"}
	case "interfaces":
		return []string{"interfaces"}
	case "firewall":
		return []string{"filter", "nat", "shaper"}
	case "services":
		return []string{"dnsmasq", "unbound", "dhcpd", "ntpd"}
	case "vpn":
		return []string{"openvpn", "ipsec", "wireguard"}
	case "packages":
		return []string{"installedpackages", "OPNsense"}
	}
	return nil
}
