package detect

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Backend modes. "isc" is the legacy per-interface backend, "kea" the
// modern subnet-oriented one. "mixed" means both show evidence of being
// active at once.
const (
	BackendISC     = "isc"
	BackendKea     = "kea"
	BackendMixed   = "mixed"
	BackendUnknown = "unknown"
)

// BackendDetection is a best-effort DHCP backend identification with
// its supporting evidence.
type BackendDetection struct {
	Mode          string   `json:"mode"`
	Reason        string   `json:"reason"`
	EvidencePaths []string `json:"evidence_paths"`
}

// DHCPBackend classifies the DHCP backend state of a config root.
func DHCPBackend(root *xmltree.Node) BackendDetection {
	switch root.Tag {
	case "pfsense":
		return pfsenseBackend(root)
	case "opnsense":
		return opnsenseBackend(root)
	}
	return BackendDetection{
		Mode:          BackendUnknown,
		Reason:        "unsupported root tag for backend detection",
		EvidencePaths: []string{root.Tag},
	}
}

// BackendTransition describes the backend change between two inputs.
func BackendTransition(left, right BackendDetection) string {
	return left.Mode + "->" + right.Mode
}

func pfsenseBackend(root *xmltree.Node) BackendDetection {
	if v := root.ChildText("dhcpbackend"); v != "" {
		normalized := strings.ToLower(v)
		if normalized == BackendKea || normalized == BackendISC {
			return BackendDetection{
				Mode:          normalized,
				Reason:        "pfsense explicit <dhcpbackend> value",
				EvidencePaths: []string{"pfsense.dhcpbackend"},
			}
		}
	}

	if HasLegacyDHCPSections(root) {
		return BackendDetection{
			Mode:          BackendISC,
			Reason:        "legacy dhcp sections present without explicit backend value",
			EvidencePaths: legacyEvidencePaths("pfsense"),
		}
	}

	return BackendDetection{Mode: BackendUnknown, Reason: "no recognizable dhcp backend indicators found"}
}

func opnsenseBackend(root *xmltree.Node) BackendDetection {
	keaPaths := opnsenseKeaEvidence(root)
	if len(keaPaths) > 0 {
		if HasLegacyDHCPSections(root) {
			return BackendDetection{
				Mode:          BackendMixed,
				Reason:        "kea appears enabled while legacy dhcp sections are also present",
				EvidencePaths: append(keaPaths, legacyEvidencePaths("opnsense")...),
			}
		}
		return BackendDetection{
			Mode:          BackendKea,
			Reason:        "opnsense kea settings enabled",
			EvidencePaths: keaPaths,
		}
	}

	if HasLegacyDHCPSections(root) {
		return BackendDetection{
			Mode:          BackendISC,
			Reason:        "legacy dhcp sections present and kea appears disabled",
			EvidencePaths: legacyEvidencePaths("opnsense"),
		}
	}

	return BackendDetection{Mode: BackendUnknown, Reason: "no recognizable dhcp backend indicators found"}
}

func opnsenseKeaEvidence(root *xmltree.Node) []string {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return nil
	}

	checks := []struct {
		component string
		path      string
	}{
		{"dhcp4", "opnsense.OPNsense.Kea.dhcp4.general.enabled"},
		{"dhcp6", "opnsense.OPNsense.Kea.dhcp6.general.enabled"},
		{"ctrl_agent", "opnsense.OPNsense.Kea.ctrl_agent.general.enabled"},
	}

	var evidence []string
	for _, check := range checks {
		enabled := kea.Find(check.component, "general", "enabled")
		if enabled != nil && Truthy(enabled.Text) {
			evidence = append(evidence, check.path)
		}
	}
	return evidence
}

// Truthy reports whether a config text value represents an enabled
// state.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "enabled", "yes":
		return true
	}
	return false
}

// HasLegacyDHCPSections reports whether any legacy dhcpd container is
// present at the root. dhcpd6 is a dialect variant of dhcpdv6.
func HasLegacyDHCPSections(root *xmltree.Node) bool {
	return root.HasChild("dhcpd") || root.HasChild("dhcpdv6") || root.HasChild("dhcpd6")
}

func legacyEvidencePaths(prefix string) []string {
	return []string{prefix + ".dhcpd", prefix + ".dhcpdv6", prefix + ".dhcpd6"}
}
