package report

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// collectTopSections lists unique top-level section tags, excluding
// the version marker.
func collectTopSections(root *xmltree.Node) []string {
	seen := map[string]bool{}
	var out []string
	for _, child := range root.Children {
		if child.Tag == "version" || seen[child.Tag] {
			continue
		}
		seen[child.Tag] = true
		out = append(out, child.Tag)
	}
	sort.Strings(out)
	return out
}

// normalizeSection lowercases and strips non-alphanumerics for
// cross-platform name comparison.
func normalizeSection(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 128 && (unicode.IsDigit(r) || unicode.IsLetter(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// normalizeTag additionally singularizes a trailing s so aliases and
// alias compare equal.
func normalizeTag(name string) string {
	s := normalizeSection(name)
	if len(s) > 1 && strings.HasSuffix(s, "s") {
		s = s[:len(s)-1]
	}
	return s
}

// findAliasPaths returns every path where an aliases or Alias section
// appears, since the two dialects nest them differently.
func findAliasPaths(root *xmltree.Node) []string {
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if node.Tag == "aliases" || node.Tag == "Alias" {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, path+"."+child.Tag)
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

// findPathsByCanonicalTag finds all paths whose normalized singular
// tag matches the target, for moved-section detection.
func findPathsByCanonicalTag(root *xmltree.Node, target string) []string {
	targetNorm := normalizeTag(target)
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if normalizeTag(node.Tag) == targetNorm {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, path+"."+child.Tag)
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

// isFuzzyRenameCandidate reports whether two section names look
// related: equal or containing normalized forms, or a shared token of
// four or more characters.
func isFuzzyRenameCandidate(left, right string) bool {
	l := normalizeTag(left)
	r := normalizeTag(right)
	if l == r || strings.Contains(l, r) || strings.Contains(r, l) {
		return true
	}
	rTokens := map[string]bool{}
	for _, t := range splitTokens(r) {
		rTokens[t] = true
	}
	for _, t := range splitTokens(l) {
		if len(t) >= 4 && rTokens[t] {
			return true
		}
	}
	return false
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
}
