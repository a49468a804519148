// Package mappings carries the external data tables the engine and the
// advisory commands consume: key fields for diff matching, the
// section-sync list, known cross-platform section relationships, and
// the plugin compatibility matrix. The built-in tables are embedded as
// YAML; callers may load replacements from disk.
package mappings

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

//go:embed data/sections.yaml
var embeddedSections []byte

//go:embed data/plugins.yaml
var embeddedPlugins []byte

// SectionMapping records a known cross-platform section relationship.
type SectionMapping struct {
	Left     string   `yaml:"left"`
	Right    []string `yaml:"right"`
	Category string   `yaml:"category"`
	Note     string   `yaml:"note"`
}

type sectionFile struct {
	Mapping []SectionMapping `yaml:"mapping"`
}

// LoadSectionMappings reads section mappings from a YAML file.
func LoadSectionMappings(path string) ([]SectionMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file %s: %w", path, err)
	}
	return parseSectionMappings(raw, path)
}

// DefaultSectionMappings returns the built-in section mapping table.
func DefaultSectionMappings() []SectionMapping {
	mappings, err := parseSectionMappings(embeddedSections, "embedded mappings")
	if err != nil {
		// The embedded table is validated by tests; an empty table is
		// the safe degradation.
		return nil
	}
	return mappings
}

func parseSectionMappings(raw []byte, path string) ([]SectionMapping, error) {
	var parsed sectionFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file %s: %w", path, err)
	}
	return parsed.Mapping, nil
}

// Plugin support statuses.
const (
	PluginSupported   = "supported"
	PluginPartial     = "partial"
	PluginUnsupported = "unsupported"
)

// PluginEntry describes one plugin's cross-platform support.
type PluginEntry struct {
	ID                string   `yaml:"id"`
	PfSenseMarkers    []string `yaml:"pfsense_markers"`
	OpnSenseMarkers   []string `yaml:"opnsense_markers"`
	CompatibleTargets []string `yaml:"compatible_targets"`
	Status            string   `yaml:"status"`
	Note              string   `yaml:"note"`
}

// PluginMatrix is the plugin compatibility table.
type PluginMatrix struct {
	Entries []PluginEntry
}

type pluginFile struct {
	Plugin []PluginEntry `yaml:"plugin"`
}

// LoadPluginMatrix reads a plugin matrix from a YAML file.
func LoadPluginMatrix(path string) (*PluginMatrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin matrix %s: %w", path, err)
	}
	return parsePluginMatrix(raw, path)
}

// DefaultPluginMatrix returns the built-in plugin matrix.
func DefaultPluginMatrix() *PluginMatrix {
	matrix, err := parsePluginMatrix(embeddedPlugins, "embedded plugin matrix")
	if err != nil {
		return &PluginMatrix{}
	}
	return matrix
}

func parsePluginMatrix(raw []byte, path string) (*PluginMatrix, error) {
	var parsed pluginFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse plugin matrix %s: %w", path, err)
	}
	return &PluginMatrix{Entries: parsed.Plugin}, nil
}

// FindByID returns the entry with the given plugin id.
func (m *PluginMatrix) FindByID(id string) *PluginEntry {
	for i := range m.Entries {
		if m.Entries[i].ID == id {
			return &m.Entries[i]
		}
	}
	return nil
}

// FindByMarker returns the entry whose platform marker list contains
// the given marker, compared case-insensitively.
func (m *PluginMatrix) FindByMarker(platform, marker string) *PluginEntry {
	marker = strings.ToLower(strings.TrimSpace(marker))
	for i := range m.Entries {
		var markers []string
		switch platform {
		case "pfsense":
			markers = m.Entries[i].PfSenseMarkers
		case "opnsense":
			markers = m.Entries[i].OpnSenseMarkers
		default:
			return nil
		}
		for _, candidate := range markers {
			if strings.ToLower(candidate) == marker {
				return &m.Entries[i]
			}
		}
	}
	return nil
}

// IsTargetCompatible reports whether the plugin id supports the target
// platform.
func (m *PluginMatrix) IsTargetCompatible(id, target string) bool {
	entry := m.FindByID(id)
	if entry == nil {
		return false
	}
	for _, t := range entry.CompatibleTargets {
		if strings.EqualFold(t, target) {
			return true
		}
	}
	return false
}
