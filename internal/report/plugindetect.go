package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// PluginState records what evidence a config shows for one plugin.
type PluginState struct {
	Plugin     string   `json:"plugin"`
	Declared   bool     `json:"declared"`
	Configured bool     `json:"configured"`
	Enabled    bool     `json:"enabled"`
	Evidence   []string `json:"evidence"`
}

// PluginInventory is the per-config plugin detection result.
type PluginInventory struct {
	Platform string        `json:"platform"`
	Plugins  []PluginState `json:"plugins"`
}

// pluginDefinition names the markers each platform uses for one
// plugin: package declarations and the sections its config lives in.
type pluginDefinition struct {
	name                  string
	pfsensePackageNames   []string
	pfsenseTopSections    []string
	opnsensePackageNames  []string
	opnsensePluginSection []string
}

var pluginDefinitions = []pluginDefinition{
	{
		name:                  "wireguard",
		pfsensePackageNames:   []string{"wireguard"},
		pfsenseTopSections:    []string{"wireguard"},
		opnsensePackageNames:  []string{"os-wireguard"},
		opnsensePluginSection: []string{"Wireguard"},
	},
	{
		name:                  "tailscale",
		pfsensePackageNames:   []string{"tailscale"},
		pfsenseTopSections:    []string{"tailscale", "tailscaleauth"},
		opnsensePackageNames:  []string{"os-tailscale"},
		opnsensePluginSection: []string{"tailscale"},
	},
	{
		name:                  "openvpn",
		pfsenseTopSections:    []string{"openvpn", "ovpnserver"},
		opnsensePackageNames:  []string{"os-openvpn-client-export"},
		opnsensePluginSection: []string{"OpenVPN", "OpenVPNExport"},
	},
	{
		name:                  "ipsec",
		pfsenseTopSections:    []string{"ipsec"},
		opnsensePluginSection: []string{"IPsec", "Swanctl"},
	},
	{
		name:                  "kea-dhcp",
		pfsenseTopSections:    []string{"kea", "dhcpbackend"},
		opnsensePackageNames:  []string{"os-kea"},
		opnsensePluginSection: []string{"Kea"},
	},
	{
		name:                  "isc-dhcp",
		pfsenseTopSections:    []string{"dhcpd", "dhcpdv6", "dhcpd6"},
		opnsensePackageNames:  []string{"os-isc-dhcp"},
		opnsensePluginSection: []string{"dhcpd", "dhcpdv6", "dhcpd6", "DHCRelay"},
	},
}

// DetectPlugins inspects a config for declared, configured, and
// enabled state of the plugins both dialects commonly carry.
func DetectPlugins(root *xmltree.Node) PluginInventory {
	flavor := detect.Config(root)
	inventory := PluginInventory{Platform: flavor.String()}

	for _, def := range pluginDefinitions {
		var state PluginState
		switch flavor {
		case detect.PfSense:
			state = detectPfSensePlugin(def, root)
		case detect.OpnSense:
			state = detectOpnSensePlugin(def, root)
		default:
			state = PluginState{Plugin: def.name, Evidence: []string{"unknown platform"}}
		}
		inventory.Plugins = append(inventory.Plugins, state)
	}
	return inventory
}

func detectPfSensePlugin(def pluginDefinition, root *xmltree.Node) PluginState {
	state := PluginState{Plugin: def.name}
	installed := collectPfSenseInstalledPackages(root)

	for _, pkg := range def.pfsensePackageNames {
		for _, name := range installed {
			if strings.EqualFold(name, pkg) {
				state.Declared = true
				state.Evidence = append(state.Evidence, "installedpackages="+pkg)
				break
			}
		}
	}
	for _, section := range def.pfsenseTopSections {
		if root.Child(section) != nil {
			state.Configured = true
			state.Evidence = append(state.Evidence, "top_section="+section)
		}
	}
	state.Enabled = detectEnabledState(root, def.pfsenseTopSections)
	return state
}

func detectOpnSensePlugin(def pluginDefinition, root *xmltree.Node) PluginState {
	state := PluginState{Plugin: def.name}
	declared := collectOpnSenseDeclaredPlugins(root)

	for _, pkg := range def.opnsensePackageNames {
		for _, name := range declared {
			if strings.EqualFold(name, pkg) {
				state.Declared = true
				state.Evidence = append(state.Evidence, "firmware.plugins="+pkg)
				break
			}
		}
	}
	for _, section := range def.opnsensePluginSection {
		paths := findPathsByTag(root, section)
		if len(paths) == 0 {
			continue
		}
		state.Configured = true
		for i, path := range paths {
			if i == 4 {
				break
			}
			state.Evidence = append(state.Evidence, "path="+path)
		}
	}
	state.Enabled = detectEnabledState(root, def.opnsensePluginSection)
	return state
}

// detectEnabledState looks for a truthy <enabled> anywhere below a
// candidate section; a bare <disable> marker short-circuits to off.
func detectEnabledState(root *xmltree.Node, sections []string) bool {
	for _, section := range sections {
		for _, node := range findNodesByTag(root, section) {
			if subtreeHasEnabledTrue(node) {
				return true
			}
			if subtreeHasDisableFlag(node) {
				return false
			}
		}
	}
	return false
}

func subtreeHasEnabledTrue(node *xmltree.Node) bool {
	if strings.EqualFold(node.Tag, "enabled") && detect.Truthy(node.Text) {
		return true
	}
	for _, child := range node.Children {
		if subtreeHasEnabledTrue(child) {
			return true
		}
	}
	return false
}

func subtreeHasDisableFlag(node *xmltree.Node) bool {
	if strings.EqualFold(node.Tag, "disable") {
		return true
	}
	for _, child := range node.Children {
		if subtreeHasDisableFlag(child) {
			return true
		}
	}
	return false
}

func collectPfSenseInstalledPackages(root *xmltree.Node) []string {
	var out []string
	installed := root.Child("installedpackages")
	if installed == nil {
		return out
	}
	for _, pkg := range installed.All("package") {
		if name := pkg.ChildText("name"); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func collectOpnSenseDeclaredPlugins(root *xmltree.Node) []string {
	plugins, ok := root.PathText("system", "firmware", "plugins")
	if !ok {
		return nil
	}
	fields := strings.FieldsFunc(plugins, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func findPathsByTag(root *xmltree.Node, target string) []string {
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if strings.EqualFold(node.Tag, target) {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, fmt.Sprintf("%s.%s", path, child.Tag))
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

func findNodesByTag(root *xmltree.Node, target string) []*xmltree.Node {
	var out []*xmltree.Node
	var walk func(node *xmltree.Node)
	walk = func(node *xmltree.Node) {
		if strings.EqualFold(node.Tag, target) {
			out = append(out, node)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}
