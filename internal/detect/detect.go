// Package detect identifies the platform flavor, version, and DHCP
// backend state of a parsed firewall configuration.
package detect

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Flavor is the detected configuration family.
type Flavor int

const (
	// Unknown means the root tag was not recognized.
	Unknown Flavor = iota
	// PfSense is the flat pfSense root format.
	PfSense
	// OpnSense is the nested OPNsense root format.
	OpnSense
)

// String returns the canonical root tag for recognized flavors.
func (f Flavor) String() string {
	switch f {
	case PfSense:
		return "pfsense"
	case OpnSense:
		return "opnsense"
	}
	return "unknown"
}

// Config detects the configuration family from the root tag.
func Config(root *xmltree.Node) Flavor {
	switch root.Tag {
	case "pfsense":
		return PfSense
	case "opnsense":
		return OpnSense
	}
	return Unknown
}

// VersionDetection is a detected version value with provenance.
type VersionDetection struct {
	Value      string `json:"value"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
}

// Version returns the root <version> child text, if present.
func Version(root *xmltree.Node) (string, bool) {
	v := root.Child("version")
	if v == nil {
		return "", false
	}
	return v.Text, true
}

// VersionInfo detects the platform version with source metadata. It
// prefers the root <version> element, then system.version, then the
// firmware version attribute.
func VersionInfo(root *xmltree.Node) VersionDetection {
	if v, ok := Version(root); ok && strings.TrimSpace(v) != "" {
		return VersionDetection{Value: v, Source: root.Tag + ".version", Confidence: "high"}
	}

	if system := root.Child("system"); system != nil {
		if v := system.ChildText("version"); v != "" {
			return VersionDetection{Value: v, Source: root.Tag + ".system.version", Confidence: "medium"}
		}
		if firmware := system.Child("firmware"); firmware != nil {
			if v, ok := firmware.Attr("version"); ok {
				return VersionDetection{Value: v, Source: root.Tag + ".system.firmware@version", Confidence: "low"}
			}
		}
	}

	return VersionDetection{Value: "unknown", Source: "not found", Confidence: "low"}
}

// MajorVersion parses the leading integer of a version string. Returns
// 0 when nothing parseable is present.
func MajorVersion(version string) int {
	s := strings.TrimSpace(version)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	major := 0
	for _, c := range s[:end] {
		major = major*10 + int(c-'0')
	}
	return major
}
