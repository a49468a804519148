// Package xmltree provides the generic XML tree model shared by the
// converter, the differ, and the advisory commands. The model is
// deliberately small: a tag, ordered attributes, optional text, and an
// ordered child list. Sibling order is semantically significant in
// firewall configs (rule evaluation order, DHCP pool order), so nothing
// here sorts or deduplicates children.
package xmltree

import "strings"

// Attr is a single XML attribute. Attribute order is preserved.
type Attr struct {
	Key   string
	Value string
}

// Node is a generic XML element.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// New returns an empty element with the given tag.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// NewText returns an element with the given tag and text content.
func NewText(tag, text string) *Node {
	return &Node{Tag: tag, Text: text}
}

// Child returns the first child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// All returns every child with the given tag, in document order.
func (n *Node) All(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Find walks first-match children along path and returns the terminal
// node, or nil if any segment is missing.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, tag := range path {
		cur = cur.Child(tag)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// PathText walks path and returns the terminal node's text. The second
// return is false when any segment is missing. An empty path returns
// the node's own text.
func (n *Node) PathText(path ...string) (string, bool) {
	node := n.Find(path...)
	if node == nil {
		return "", false
	}
	return node.Text, true
}

// TrimText returns the node's text with surrounding whitespace removed.
func (n *Node) TrimText() string {
	return strings.TrimSpace(n.Text)
}

// ChildText returns the trimmed text of the first child with the given
// tag, or "" when the child is absent.
func (n *Node) ChildText(tag string) string {
	c := n.Child(tag)
	if c == nil {
		return ""
	}
	return c.TrimText()
}

// HasChild reports whether a child with the given tag exists.
func (n *Node) HasChild(tag string) bool {
	return n.Child(tag) != nil
}

// Append adds children at the end of the child list.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// EnsureChild returns the first child with the given tag, creating and
// appending it when missing.
func (n *Node) EnsureChild(tag string) *Node {
	if c := n.Child(tag); c != nil {
		return c
	}
	c := New(tag)
	n.Children = append(n.Children, c)
	return c
}

// EnsurePath walks path, creating any missing segment, and returns the
// terminal node.
func (n *Node) EnsurePath(path ...string) *Node {
	cur := n
	for _, tag := range path {
		cur = cur.EnsureChild(tag)
	}
	return cur
}

// SetChildText updates the text of the first child with the given tag,
// creating the child when missing.
func (n *Node) SetChildText(tag, text string) {
	n.EnsureChild(tag).Text = text
}

// RemoveChildren drops every child with the given tag.
func (n *Node) RemoveChildren(tag string) {
	n.RetainChildren(func(c *Node) bool { return c.Tag != tag })
}

// RetainChildren keeps only the children for which keep returns true.
func (n *Node) RetainChildren(keep func(*Node) bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	n.Children = kept
}

// ReplaceChildren removes every child with node's tag and appends node
// in their place at the end of the child list.
func (n *Node) ReplaceChildren(node *Node) {
	n.RemoveChildren(node.Tag)
	n.Children = append(n.Children, node)
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr updates the named attribute in place, appending it when new.
func (n *Node) SetAttr(key, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// HasAttr reports whether the named attribute exists.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// DeleteAttr removes the named attribute when present.
func (n *Node) DeleteAttr(key string) {
	kept := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attrs = kept
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = make([]Attr, len(n.Attrs))
		copy(out.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports deep equality. Attributes compare as unordered sets,
// text compares trimmed; child order matters.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Tag != o.Tag || strings.TrimSpace(n.Text) != strings.TrimSpace(o.Text) {
		return false
	}
	if !attrsEqual(n.Attrs, o.Attrs) {
		return false
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]string, len(a))
	for _, attr := range a {
		am[attr.Key] = attr.Value
	}
	for _, attr := range b {
		v, ok := am[attr.Key]
		if !ok || v != attr.Value {
			return false
		}
	}
	return true
}
