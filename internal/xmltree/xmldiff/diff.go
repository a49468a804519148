// Package xmldiff computes categorized structural deltas between two
// configuration trees. Repeated sibling elements match either by a
// declared key field (alias by name, rule by tracker) or positionally.
package xmldiff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// Kind classifies a single diff entry.
type Kind int

const (
	// Identical means the node exists in both trees with equal content.
	Identical Kind = iota
	// Modified means text or attributes differ at the same path.
	Modified
	// OnlyLeft means the node exists only in the left tree.
	OnlyLeft
	// OnlyRight means the node exists only in the right tree.
	OnlyRight
	// Structural means a tag mismatch at the same path.
	Structural
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Identical:
		return "identical"
	case Modified:
		return "modified"
	case OnlyLeft:
		return "only_left"
	case OnlyRight:
		return "only_right"
	case Structural:
		return "structural"
	}
	return "unknown"
}

// Entry is a single diff outcome for a node path.
type Entry struct {
	Kind Kind
	Path string
	// Left and Right carry local signatures for Modified entries.
	Left  string
	Right string
	// Node is a snapshot for OnlyLeft and OnlyRight entries.
	Node *xmltree.Node
	// Description explains Structural entries.
	Description string
}

// Options configures diff behavior.
type Options struct {
	// IncludeIdentical emits Identical rows for unchanged subtrees.
	IncludeIdentical bool
	// MaxDepth limits recursion. Negative means unlimited.
	MaxDepth int
	// KeyFields maps a repeated tag to the child tag used as its match key.
	KeyFields map[string]string
	// IgnorePaths lists suffix-style path patterns to skip.
	IgnorePaths []string
}

// DefaultOptions returns the zero configuration with unlimited depth.
func DefaultOptions() Options {
	return Options{MaxDepth: -1}
}

// Diff compares two trees with default options.
func Diff(left, right *xmltree.Node) []Entry {
	return DiffWithOptions(left, right, DefaultOptions())
}

// DiffWithOptions compares two trees with custom options.
func DiffWithOptions(left, right *xmltree.Node, opts Options) []Entry {
	d := differ{opts: opts}
	d.node(left, right, left.Tag, 0)
	return d.out
}

type differ struct {
	opts Options
	out  []Entry
}

func (d *differ) node(left, right *xmltree.Node, path string, depth int) {
	if d.ignored(path) {
		return
	}
	if d.opts.MaxDepth >= 0 && depth > d.opts.MaxDepth {
		return
	}

	start := len(d.out)

	if left.Tag != right.Tag {
		d.out = append(d.out, Entry{
			Kind:        Structural,
			Path:        path,
			Description: fmt.Sprintf("tag mismatch: left=%q right=%q", left.Tag, right.Tag),
		})
		d.children(left, right, path, depth)
		return
	}

	if !attrsMatch(left, right) || normalizeText(left.Text) != normalizeText(right.Text) {
		d.out = append(d.out, Entry{
			Kind:  Modified,
			Path:  path,
			Left:  localSignature(left),
			Right: localSignature(right),
		})
	}

	d.children(left, right, path, depth)

	if d.opts.IncludeIdentical && len(d.out) == start {
		d.out = append(d.out, Entry{Kind: Identical, Path: path})
	}
}

func (d *differ) children(left, right *xmltree.Node, path string, depth int) {
	var tags []string
	seen := map[string]bool{}
	for _, c := range left.Children {
		if !seen[c.Tag] {
			seen[c.Tag] = true
			tags = append(tags, c.Tag)
		}
	}
	for _, c := range right.Children {
		if !seen[c.Tag] {
			seen[c.Tag] = true
			tags = append(tags, c.Tag)
		}
	}

	for _, tag := range tags {
		leftNodes := left.All(tag)
		rightNodes := right.All(tag)
		if key, ok := d.opts.KeyFields[tag]; ok {
			d.matchByKey(tag, key, leftNodes, rightNodes, path, depth)
		} else {
			d.matchByIndex(tag, leftNodes, rightNodes, path, depth)
		}
	}
}

func (d *differ) matchByIndex(tag string, leftNodes, rightNodes []*xmltree.Node, parentPath string, depth int) {
	max := len(leftNodes)
	if len(rightNodes) > max {
		max = len(rightNodes)
	}
	for i := 0; i < max; i++ {
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, i+1)
		switch {
		case i < len(leftNodes) && i < len(rightNodes):
			d.node(leftNodes[i], rightNodes[i], childPath, depth+1)
		case i < len(leftNodes):
			d.out = append(d.out, Entry{Kind: OnlyLeft, Path: childPath, Node: leftNodes[i].Clone()})
		default:
			d.out = append(d.out, Entry{Kind: OnlyRight, Path: childPath, Node: rightNodes[i].Clone()})
		}
	}
}

func (d *differ) matchByKey(tag, keyField string, leftNodes, rightNodes []*xmltree.Node, parentPath string, depth int) {
	rightKeys := make([]string, len(rightNodes))
	rightHasKey := make([]bool, len(rightNodes))
	for i, n := range rightNodes {
		rightKeys[i], rightHasKey[i] = n.PathText(keyField)
	}

	usedRight := map[int]bool{}

	for leftIdx, leftNode := range leftNodes {
		leftKey, leftHasKey := leftNode.PathText(keyField)
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, leftIdx+1)
		if leftHasKey {
			childPath = fmt.Sprintf("%s.%s[%s]", parentPath, tag, leftKey)
		}

		matched := -1
		if leftHasKey {
			for idx := range rightNodes {
				if usedRight[idx] {
					continue
				}
				if rightHasKey[idx] && rightKeys[idx] == leftKey {
					matched = idx
					break
				}
			}
		}

		if matched >= 0 {
			usedRight[matched] = true
			d.node(leftNode, rightNodes[matched], childPath, depth+1)
			continue
		}

		// Positional fallback for unkeyed leftovers.
		if leftIdx < len(rightNodes) && !usedRight[leftIdx] {
			usedRight[leftIdx] = true
			d.node(leftNode, rightNodes[leftIdx], childPath, depth+1)
			continue
		}

		d.out = append(d.out, Entry{Kind: OnlyLeft, Path: childPath, Node: leftNode.Clone()})
	}

	for rightIdx, rightNode := range rightNodes {
		if usedRight[rightIdx] {
			continue
		}
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, rightIdx+1)
		if rightHasKey[rightIdx] {
			childPath = fmt.Sprintf("%s.%s[%s]", parentPath, tag, rightKeys[rightIdx])
		}
		d.out = append(d.out, Entry{Kind: OnlyRight, Path: childPath, Node: rightNode.Clone()})
	}
}

func (d *differ) ignored(path string) bool {
	for _, ignore := range d.opts.IgnorePaths {
		if path == ignore ||
			strings.HasSuffix(path, "."+ignore) ||
			strings.Contains(path, "."+ignore+"[") ||
			path == ignore+"[1]" {
			return true
		}
	}
	return false
}

func normalizeText(text string) string {
	return strings.TrimSpace(text)
}

func attrsMatch(left, right *xmltree.Node) bool {
	if len(left.Attrs) != len(right.Attrs) {
		return false
	}
	for _, a := range left.Attrs {
		v, ok := right.Attr(a.Key)
		if !ok || v != a.Value {
			return false
		}
	}
	return true
}

func localSignature(n *xmltree.Node) string {
	pairs := make([]string, 0, len(n.Attrs))
	for _, a := range n.Attrs {
		pairs = append(pairs, fmt.Sprintf("%s=%q", a.Key, a.Value))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("attributes={%s}, text=%q", strings.Join(pairs, ", "), normalizeText(n.Text))
}
