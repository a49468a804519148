package mappings

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

//go:embed data/profiles
var embeddedProfiles embed.FS

// ExpectedProfile describes what a config on a given platform and
// version is expected to look like. Verification treats every profile
// deviation as advisory.
type ExpectedProfile struct {
	RequiredSections       []string `yaml:"required_sections"`
	RuleRequiredFields     []string `yaml:"rule_required_fields"`
	FirewallOrderKey       string   `yaml:"firewall_order_key"`
	GatewayRequiredFields  []string `yaml:"gateway_required_fields"`
	RouteRequiredFields    []string `yaml:"route_required_fields"`
	RouteRequiredAnyFields []string `yaml:"route_required_any_fields"`
	BridgeRequireMembers   bool     `yaml:"bridge_require_members"`
	DeprecatedSections     []string `yaml:"deprecated_sections"`
}

// LoadProfile resolves the expected profile for a platform/version
// pair using the embedded tables.
func LoadProfile(platform, version string) (*ExpectedProfile, bool) {
	profile, _, ok := LoadProfileWithSource(platform, version, "")
	return profile, ok
}

// LoadProfileWithSource resolves a profile, trying the exact version,
// then the major version, then the platform default. When profilesDir
// is set, files there take precedence over the embedded tables. The
// returned source is "embedded" or "file:<path>".
func LoadProfileWithSource(platform, version, profilesDir string) (*ExpectedProfile, string, bool) {
	var names []string
	trimmed := strings.TrimSpace(version)
	if trimmed != "" {
		names = append(names, trimmed+".yaml")
		if major, _, found := strings.Cut(trimmed, "."); found {
			names = append(names, major+".yaml")
		}
	}
	names = append(names, "default.yaml")

	for _, name := range names {
		if profilesDir != "" {
			path := filepath.Join(profilesDir, platform, name)
			if raw, err := os.ReadFile(path); err == nil {
				if profile, err := parseProfile(raw); err == nil {
					return profile, "file:" + path, true
				}
			}
		}
		if raw, err := embeddedProfiles.ReadFile("data/profiles/" + platform + "/" + name); err == nil {
			if profile, err := parseProfile(raw); err == nil {
				return profile, "embedded", true
			}
		}
	}
	return nil, "", false
}

func parseProfile(raw []byte) (*ExpectedProfile, error) {
	var profile ExpectedProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
