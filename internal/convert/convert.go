// Package convert orchestrates a full configuration conversion: it
// resolves dialects and the DHCP backend, runs the preflight guards,
// performs the safe merge, drives the transform pipeline in its fixed
// order, installs the DHCP backend, and produces a summary.
package convert

import (
	"errors"
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/logging"
	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/merge"
	"github.com/sheridans/pfopn-convert-sub000/internal/transform"
	"github.com/sheridans/pfopn-convert-sub000/internal/transform/dhcp"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// Options configures a single conversion run.
type Options struct {
	// From is the source platform, or empty for auto-detection.
	From string
	// To is the target platform and must be explicit.
	To string
	// Backend is the requested DHCP backend.
	Backend dhcp.RequestedBackend
	// Transfer toggles for OpenVPN-referenced dependencies.
	TransferUsers bool
	TransferCerts bool
	TransferCAs   bool
	// LanIP, when set, overrides the LAN IPv4 address in the output.
	LanIP string
	// DisableDHCP turns every DHCP backend off in the output.
	DisableDHCP bool

	Logger *logging.Logger
}

// DefaultOptions enables all dependency transfers with auto backend.
func DefaultOptions() Options {
	return Options{
		Backend:       dhcp.RequestedAuto,
		TransferUsers: true,
		TransferCerts: true,
		TransferCAs:   true,
	}
}

// Result is the outcome of a successful conversion.
type Result struct {
	// Output is the converted tree, rooted at the target dialect.
	Output *xmltree.Node
	// Summary counts the output's subsystems.
	Summary Summary
	// Backend is the DHCP backend actually installed, which can
	// differ from the resolution when migration fell back.
	Backend dhcp.EffectiveBackend
	// Warnings collects non-fatal findings in emission order.
	Warnings []string
	// MigrationStats is set when an ISC to Kea migration ran.
	MigrationStats *dhcp.KeaMigrationStats
	// PreservedLegacyIPv6 reports that legacy DHCPv6 sections were
	// kept for interfaces Kea could not take over.
	PreservedLegacyIPv6 bool
}

// Run converts a parsed source config against a target baseline. The
// caller owns file I/O; Run never touches the filesystem.
func Run(source, target *xmltree.Node, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Default().WithComponent("convert")
	}

	from, err := ResolveFromPlatform(opts.From, source)
	if err != nil {
		return nil, err
	}
	to, err := NormalizeToPlatform(opts.To)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, classifyf(KindInvalidInput,
			"from and to are the same platform (%s); conversion requires different platforms", from)
	}
	if target.Tag != to {
		return nil, classifyf(KindBaselineRejected,
			"target-file platform (%s) does not match --to (%s); provide a matching baseline file", target.Tag, to)
	}

	result := &Result{}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		result.Warnings = append(result.Warnings, msg)
		log.Warn(msg)
	}

	sourceBackend := detect.DHCPBackend(source)
	effectiveBackend := dhcp.ResolveEffectiveBackend(opts.Backend, source, target, to)
	if err := dhcp.EnsureBackendReadiness(target, opts.Backend, effectiveBackend); err != nil {
		return nil, classify(KindBackendUnready, err)
	}

	if err := EnforceInterfaceCompat(source, target); err != nil {
		return nil, err
	}

	diffOpts := xmldiff.DefaultOptions()
	diffOpts.KeyFields = mappings.DefaultKeyFields()
	entries := xmldiff.DiffWithOptions(source, target, diffOpts)

	out, err := merge.ApplySafe(source, target, entries, merge.TargetRight, merge.Options{
		TransferUsers: opts.TransferUsers,
		TransferCerts: opts.TransferCerts,
		TransferCAs:   opts.TransferCAs,
	})
	if err != nil {
		return nil, classifyMergeError(err)
	}
	out.Tag = to

	transform.MergeInterfaceSettings(out, source, target, nil)
	if removed := transform.PruneMissingInterfaces(out, target); len(removed) > 0 {
		log.Info("pruned interfaces missing from target", "interfaces", removed)
	}

	var logicalMap map[string]string
	if to == "opnsense" {
		logicalMap = transform.NormalizeOpnsenseAssignments(out)
	}
	if len(logicalMap) > 0 {
		transform.RewriteLogicalRefs(out, logicalMap)
	}

	if removed := transform.PruneIncompatibleSections(out, to, target); len(removed) > 0 {
		log.Info("pruned target-incompatible sections", "sections", removed)
	}
	transform.RewriteDeviceRefs(out, source, target, nil)

	if to == "opnsense" {
		transform.PrunePfBlockerFloatingRules(out)
		transform.NormalizeOpnsenseVlanIfNames(out)
		transform.NormalizeOpnsenseWireGuardIfNames(out)
		transform.NormalizeBridgesForOpnsense(out)
		transform.NormalizeIfGroupsForOpnsense(out)
	} else {
		transform.NormalizeBridgesForPfSense(out)
		transform.NormalizeIfGroupsForPfSense(out)
	}

	if opts.LanIP != "" {
		if err := transform.ApplyLanIP(out, opts.LanIP); err != nil {
			return nil, classifyLanError(err)
		}
	}

	if to == "pfsense" && effectiveBackend == dhcp.BackendKea {
		seedPfSenseKeaFromSource(out, source)
	}

	if to == "opnsense" && effectiveBackend == dhcp.BackendKea {
		stats, err := dhcp.MigrateISCToKea(out, source)
		switch {
		case err == nil:
			finalBackend := effectiveBackend
			if migrationHasFatal(stats) {
				finalBackend = dhcp.BackendISC
				warn("Kea migration skipped due to fatal errors; falling back to ISC backend")
			}
			preserveLegacyIPv6 := finalBackend == dhcp.BackendKea && len(stats.PreservedDHCPv6Ifaces) > 0
			dhcp.EnforceOutputBackend(out, finalBackend, to, preserveLegacyIPv6)
			effectiveBackend = finalBackend
			for _, w := range stats.Warnings {
				warn("%s", w.Message)
			}
			result.MigrationStats = stats
			result.PreservedLegacyIPv6 = preserveLegacyIPv6
		case opts.Backend == dhcp.RequestedAuto:
			warn("Kea migration failed in auto mode (%v); falling back to ISC backend", err)
			effectiveBackend = dhcp.BackendISC
			dhcp.EnforceOutputBackend(out, effectiveBackend, to, false)
		default:
			return nil, classify(KindMigrationFatal, err)
		}
	} else {
		dhcp.EnforceOutputBackend(out, effectiveBackend, to, false)
	}

	if effectiveBackend == dhcp.BackendISC &&
		sourceBackend.Mode == detect.BackendKea &&
		!dhcp.HasLegacyData(source) {
		return nil, classifyf(KindKeaOnlySourceDowngrade,
			"cannot convert Kea-only source to %s ISC without source legacy DHCP data; use --backend kea or provide ISC-backed source",
			platformLabel(to))
	}

	if opts.DisableDHCP {
		dhcp.DisableAll(out)
	}

	result.Output = out
	result.Backend = effectiveBackend
	result.Summary = Summarize(out)
	return result, nil
}

// ResolveFromPlatform returns the source platform name, auto-detecting
// from the root tag when the flag was empty or "auto".
func ResolveFromPlatform(platform string, node *xmltree.Node) (string, error) {
	switch platform {
	case "pfsense", "opnsense":
		return platform, nil
	case "", "auto":
		switch detect.Config(node) {
		case detect.PfSense:
			return "pfsense", nil
		case detect.OpnSense:
			return "opnsense", nil
		}
		return "", classifyf(KindInvalidInput, "unable to auto-detect platform from root tag")
	}
	return "", classifyf(KindInvalidInput, "invalid platform %q (want pfsense or opnsense)", platform)
}

// NormalizeToPlatform validates the target platform flag, which must
// be explicit.
func NormalizeToPlatform(platform string) (string, error) {
	switch platform {
	case "pfsense", "opnsense":
		return platform, nil
	case "", "auto":
		return "", classifyf(KindInvalidInput, "--to cannot be auto; specify pfsense or opnsense")
	}
	return "", classifyf(KindInvalidInput, "invalid platform %q (want pfsense or opnsense)", platform)
}

func platformLabel(platform string) string {
	if platform == "opnsense" {
		return "OPNsense"
	}
	return "pfSense"
}

func migrationHasFatal(stats *dhcp.KeaMigrationStats) bool {
	for _, w := range stats.Warnings {
		if w.Severity == dhcp.SeverityError {
			return true
		}
	}
	return false
}

func classifyMergeError(err error) error {
	switch err.(type) {
	case *merge.UnsupportedPathError:
		return classify(KindUnsupportedMergePath, err)
	case *merge.ParentNotFoundError:
		return classify(KindParentNotFound, err)
	}
	return classify(KindUnknown, fmt.Errorf("failed while applying safe conversion merge: %w", err))
}

func classifyLanError(err error) error {
	if errors.Is(err, transform.ErrLanIPConflict) {
		return classify(KindLanOverrideConflict, err)
	}
	return classify(KindInvalidInput, err)
}

// seedPfSenseKeaFromSource copies the source's Kea subtree (either the
// flat <kea> or the nested OPNsense.Kea) to the output root as <kea>,
// replacing any existing one.
func seedPfSenseKeaFromSource(out, source *xmltree.Node) {
	sourceKea := source.Child("kea")
	if sourceKea == nil {
		sourceKea = source.Find("OPNsense", "Kea")
	}
	if sourceKea == nil {
		return
	}
	clone := sourceKea.Clone()
	clone.Tag = "kea"
	out.RetainChildren(func(c *xmltree.Node) bool { return c.Tag != "kea" })
	out.Append(clone)
}
