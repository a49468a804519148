package convert

import (
	"errors"
	"fmt"
)

// Kind categorizes conversion failures so callers can branch on the
// failure class without parsing message text.
type Kind int

const (
	// KindUnknown is any error the pipeline did not classify.
	KindUnknown Kind = iota
	// KindInvalidInput covers unparseable inputs, undetectable
	// dialects, an auto target, and same-platform conversions.
	KindInvalidInput
	// KindBaselineRejected means the target baseline's root tag does
	// not match the requested target platform.
	KindBaselineRejected
	// KindBackendUnready means the target baseline lacks structures
	// the effective DHCP backend needs.
	KindBackendUnready
	// KindIncompatibleInterfaces means a source interface has no
	// target counterpart and is not virtual-backed.
	KindIncompatibleInterfaces
	// KindUnsupportedMergePath means a diff path could not be split
	// for insertion.
	KindUnsupportedMergePath
	// KindParentNotFound means an insertion parent was absent from
	// the output tree.
	KindParentNotFound
	// KindMigrationFatal means the ISC to Kea migration hit a
	// condition it cannot recover from.
	KindMigrationFatal
	// KindKeaOnlySourceDowngrade means an ISC output was requested
	// from a Kea-only source with no legacy data to migrate.
	KindKeaOnlySourceDowngrade
	// KindLanOverrideConflict means the requested LAN IP collides
	// with another interface.
	KindLanOverrideConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindBaselineRejected:
		return "baseline_rejected"
	case KindBackendUnready:
		return "backend_unready"
	case KindIncompatibleInterfaces:
		return "incompatible_interfaces"
	case KindUnsupportedMergePath:
		return "unsupported_merge_path"
	case KindParentNotFound:
		return "parent_not_found"
	case KindMigrationFatal:
		return "migration_fatal"
	case KindKeaOnlySourceDowngrade:
		return "kea_only_source_downgrade"
	case KindLanOverrideConflict:
		return "lan_override_conflict"
	}
	return "unknown"
}

// Error is a classified conversion failure wrapping the underlying
// cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func classifyf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification from an error chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
