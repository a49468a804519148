// Package transform holds the per-section conversion passes that move
// configuration data between the flat pfSense layout and the nested
// OPNsense layout. Each pass receives the output tree being built, the
// source config, and the destination baseline, and mutates the output
// in place.
package transform

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Func is the common shape of a section transform pass.
type Func func(out, source, baseline *xmltree.Node)

// Pair names a transform and carries its two directional passes.
type Pair struct {
	Name       string
	ToOpnsense Func
	ToPfSense  Func
}

// Pairs returns the section transforms in application order. Order
// matters: user and identity passes run before VPN passes so that
// credential references resolve against already-transferred users.
func Pairs() []Pair {
	return []Pair{
		{Name: "system_identity", ToOpnsense: IdentityToOpnsense, ToPfSense: IdentityToPfSense},
		{Name: "users", ToOpnsense: UsersToOpnsense, ToPfSense: UsersToPfSense},
		{Name: "system_users", ToOpnsense: SystemUsersToOpnsense, ToPfSense: SystemUsersToPfSense},
		{Name: "aliases", ToOpnsense: AliasesToOpnsense, ToPfSense: AliasesToPfSense},
		{Name: "tailscale", ToOpnsense: TailscaleToOpnsense, ToPfSense: TailscaleToPfSense},
		{Name: "openvpn", ToOpnsense: OpenVPNToOpnsense, ToPfSense: OpenVPNToPfSense},
		{Name: "ppps", ToOpnsense: PPPsToOpnsense, ToPfSense: PPPsToPfSense},
		{Name: "wireguard", ToOpnsense: WireGuardToOpnsense, ToPfSense: WireGuardToPfSense},
		{Name: "ipsec", ToOpnsense: IPsecToOpnsense, ToPfSense: IPsecToPfSense},
		{Name: "staticroutes", ToOpnsense: StaticRoutesToOpnsense, ToPfSense: StaticRoutesToPfSense},
		{Name: "dhcp_relay", ToOpnsense: DHCPRelayToOpnsense, ToPfSense: DHCPRelayToPfSense},
		{Name: "certs", ToOpnsense: CertsToOpnsense, ToPfSense: CertsToPfSense},
	}
}
