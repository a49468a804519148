package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed indicates a structural problem in the input document.
var ErrMalformed = errors.New("malformed XML")

// Parse reads XML bytes into a Node tree. Whitespace-only character
// data is dropped; meaningful text is kept verbatim. Comments,
// processing instructions, and the XML declaration are ignored.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var stack []*Node
	var root *Node

	attach := func(n *Node) error {
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			return nil
		}
		if root != nil {
			return fmt.Errorf("%w: multiple top-level elements found", ErrMalformed)
		}
		root = n
		return nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := New(t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Key: a.Name.Local, Value: a.Value})
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: closing tag without open tag", ErrMalformed)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := attach(n); err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			cur := stack[len(stack)-1]
			cur.Text += text
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element at end of document", ErrMalformed)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element found", ErrMalformed)
	}
	return root, nil
}

// ParseFile reads and parses an XML file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML file: %w", err)
	}
	return Parse(data)
}
