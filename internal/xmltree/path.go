package xmltree

import (
	"strconv"
	"strings"
)

// Paths are dotted tag sequences as produced by the differ, for example
// root.system.user[alice] or root.filter.rule[3]. A bracketed selector
// disambiguates repeated sibling tags either positionally (1-based) or
// by key-field value.

// SplitParentPath splits a diff path into its parent portion and leaf
// segment. Returns ok=false when the path has no parent (a bare root).
// The split respects bracketed selectors, which may contain dots.
func SplitParentPath(path string) (parent string, ok bool) {
	depth := 0
	last := -1
	for i, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				last = i
			}
		}
	}
	if last < 0 {
		return "", false
	}
	return path[:last], true
}

// NormalizeRootPath rewrites the leading segment of path to outTag when
// it names either input root. Merge paths originate from the source or
// target tree; the output tree may carry the other dialect's root tag.
func NormalizeRootPath(path, outTag, leftTag, rightTag string) string {
	seg, rest := firstSegment(path)
	base := segmentTag(seg)
	if base == leftTag || base == rightTag {
		if rest == "" {
			return outTag
		}
		return outTag + "." + rest
	}
	return path
}

// FindByPath resolves a diff path against root and returns the target
// node, or nil when any segment cannot be resolved. The first segment
// must match the root tag.
func FindByPath(root *Node, path string) *Node {
	seg, rest := firstSegment(path)
	if segmentTag(seg) != root.Tag {
		return nil
	}
	cur := root
	for rest != "" {
		seg, rest = firstSegment(rest)
		cur = resolveSegment(cur, seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func firstSegment(path string) (seg, rest string) {
	depth := 0
	for i, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				return path[:i], path[i+1:]
			}
		}
	}
	return path, ""
}

func segmentTag(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i]
	}
	return seg
}

func segmentSelector(seg string) string {
	i := strings.IndexByte(seg, '[')
	if i < 0 || !strings.HasSuffix(seg, "]") {
		return ""
	}
	return seg[i+1 : len(seg)-1]
}

// resolveSegment finds the child named by a path segment. A numeric
// selector picks the n-th same-tag child (1-based); a key selector
// matches a child whose direct child text equals the key.
func resolveSegment(parent *Node, seg string) *Node {
	tag := segmentTag(seg)
	sel := segmentSelector(seg)
	matches := parent.All(tag)
	if len(matches) == 0 {
		return nil
	}
	if sel == "" {
		return matches[0]
	}
	if idx, err := strconv.Atoi(sel); err == nil {
		if idx >= 1 && idx <= len(matches) {
			return matches[idx-1]
		}
		return nil
	}
	for _, m := range matches {
		for _, c := range m.Children {
			if c.TrimText() == sel {
				return m
			}
		}
	}
	return nil
}
