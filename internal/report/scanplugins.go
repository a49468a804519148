package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// detectKnownPluginsPresent merges structural plugin detection with
// declared package markers the matrix recognizes.
func detectKnownPluginsPresent(root *xmltree.Node, platform string, inventory PluginInventory, matrix *mappings.PluginMatrix) []string {
	present := map[string]bool{}
	for _, p := range inventory.Plugins {
		if p.Declared || p.Configured {
			present[p.Plugin] = true
		}
	}
	for _, marker := range collectDeclaredPluginMarkers(root, platform) {
		if entry := matrix.FindByMarker(platform, marker); entry != nil {
			present[entry.ID] = true
		}
	}
	return sortedKeys(present)
}

// detectUnsupportedPlugins flags declared markers the matrix marks
// unsupported, plus markers it does not know at all.
func detectUnsupportedPlugins(root *xmltree.Node, platform string, matrix *mappings.PluginMatrix) []string {
	out := map[string]bool{}
	for _, marker := range collectDeclaredPluginMarkers(root, platform) {
		entry := matrix.FindByMarker(platform, marker)
		switch {
		case entry == nil:
			out[strings.ToLower(marker)] = true
		case entry.Status == mappings.PluginUnsupported:
			out[entry.ID] = true
		}
	}
	return sortedKeys(out)
}

func detectMissingTargetCompat(present []string, sourcePlatform, target string, matrix *mappings.PluginMatrix) []string {
	if target == "" || sourcePlatform == target {
		return nil
	}
	out := map[string]bool{}
	for _, plugin := range present {
		if !matrix.IsTargetCompatible(plugin, target) {
			out[plugin] = true
		}
	}
	return sortedKeys(out)
}

// loadPluginMatrixWithSource loads plugins.yaml from an override
// directory when given, falling back to the embedded matrix.
func loadPluginMatrixWithSource(mappingsDir string) (*mappings.PluginMatrix, string) {
	if mappingsDir == "" {
		return mappings.DefaultPluginMatrix(), "embedded"
	}
	path := filepath.Join(mappingsDir, "plugins.yaml")
	matrix, err := mappings.LoadPluginMatrix(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load plugin matrix from %s (%v); using embedded defaults\n", path, err)
		return mappings.DefaultPluginMatrix(), "embedded"
	}
	return matrix, "file:" + path
}

func collectDeclaredPluginMarkers(root *xmltree.Node, platform string) []string {
	var markers []string
	switch platform {
	case "pfsense":
		markers = collectPfSenseInstalledPackages(root)
	case "opnsense":
		markers = collectOpnSenseDeclaredPlugins(root)
	}
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		out = append(out, strings.ToLower(strings.TrimSpace(m)))
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
