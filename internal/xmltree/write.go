package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
)

// Write serializes the tree with two-space indentation. Child order and
// attribute order are preserved exactly as stored.
func Write(n *Node) []byte {
	var buf bytes.Buffer
	writeNode(&buf, n, 0)
	return buf.Bytes()
}

// WriteFile serializes the tree and writes it to path.
func WriteFile(n *Node, path string) error {
	if err := os.WriteFile(path, Write(n), 0o644); err != nil {
		return fmt.Errorf("failed to write XML file: %w", err)
	}
	return nil
}

func writeNode(buf *bytes.Buffer, n *Node, depth int) {
	indent(buf, depth)
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		escape(buf, a.Value)
		buf.WriteByte('"')
	}

	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	if n.Text != "" {
		escape(buf, n.Text)
	}
	if len(n.Children) > 0 {
		for _, c := range n.Children {
			buf.WriteByte('\n')
			writeNode(buf, c, depth+1)
		}
		buf.WriteByte('\n')
		indent(buf, depth)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}

func indent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

func escape(buf *bytes.Buffer, s string) {
	xml.EscapeText(buf, []byte(s))
}
