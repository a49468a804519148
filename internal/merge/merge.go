// Package merge applies the safe, insert-only half of a structural
// diff onto one of the two configs, then runs the dialect section
// passes so the inserted material lands in the shape the destination
// expects.
package merge

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/transform"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

// Target selects which side the merged output is built from.
type Target int

const (
	// TargetLeft builds output from the left tree and inserts nodes
	// that exist only on the right.
	TargetLeft Target = iota
	// TargetRight builds output from the right tree and inserts nodes
	// that exist only on the left.
	TargetRight
)

// Options controls merge-time transfer of dependency-backed sections.
type Options struct {
	TransferUsers bool
	TransferCerts bool
	TransferCAs   bool
}

// DefaultOptions enables every dependency transfer.
func DefaultOptions() Options {
	return Options{TransferUsers: true, TransferCerts: true, TransferCAs: true}
}

// UnsupportedPathError marks a diff path the merge could not interpret.
type UnsupportedPathError struct {
	Path string
}

func (e *UnsupportedPathError) Error() string {
	return fmt.Sprintf("unsupported diff path for merge: %s", e.Path)
}

// ParentNotFoundError marks an insertion whose parent path is absent
// from the target tree.
type ParentNotFoundError struct {
	Path string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent path not found in target tree: %s", e.Path)
}

// ApplySafe clones the target side, inserts the diff entries present
// only on the other side, transfers missing OpenVPN dependencies, and
// finally runs the shared-section sync and the dialect passes against
// the output root. Modified and structural entries are never applied;
// safe merge only adds.
func ApplySafe(left, right *xmltree.Node, entries []xmldiff.Entry, target Target, options Options) (*xmltree.Node, error) {
	var out *xmltree.Node
	switch target {
	case TargetLeft:
		out = left.Clone()
	default:
		out = right.Clone()
	}

	for _, entry := range entries {
		insert := (target == TargetRight && entry.Kind == xmldiff.OnlyLeft) ||
			(target == TargetLeft && entry.Kind == xmldiff.OnlyRight)
		if !insert {
			continue
		}
		parentPath, ok := xmltree.SplitParentPath(entry.Path)
		if !ok {
			return nil, &UnsupportedPathError{Path: entry.Path}
		}
		parent := out
		if parentPath != left.Tag && parentPath != right.Tag {
			normalized := xmltree.NormalizeRootPath(parentPath, out.Tag, left.Tag, right.Tag)
			parent = xmltree.FindByPath(out, normalized)
			if parent == nil {
				return nil, &ParentNotFoundError{Path: parentPath}
			}
		}
		parent.Append(entry.Node.Clone())
	}

	applyOpenVPNDependencyTransfer(out, left, right, target, options)

	source, baseline := left, right
	if target == TargetLeft {
		source, baseline = right, left
	}
	transform.SyncSharedTopLevelSections(out, source)
	switch out.Tag {
	case "opnsense":
		for _, pair := range transform.Pairs() {
			pair.ToOpnsense(out, source, baseline)
		}
	case "pfsense":
		for _, pair := range transform.Pairs() {
			pair.ToPfSense(out, source, baseline)
		}
	}

	return out, nil
}
