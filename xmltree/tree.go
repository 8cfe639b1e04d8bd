// Package xmltree is a small navigable element tree over encoding/xml.
//
// Only the queries the importer needs are provided: first child by tag, all
// children by tag, flattened text, and a named child's text or integer
// value. Namespaces are dropped; tags are matched on their local name.
package xmltree

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node

	// set only for text nodes, whose Tag is empty
	text string
}

func (n *Node) IsText() bool {
	return n.Tag == ""
}

// Parse reads a whole document and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var root *Node
	var stack []*Node
	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decoding xml")
		}
		switch t := token.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("decoding xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{text: string(t)})
		}
	}
	if root == nil {
		return nil, errors.New("decoding xml: no root element")
	}
	return root, nil
}

// Elements returns the element children of n in document order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	res := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsText() {
			res = append(res, c)
		}
	}
	return res
}

// Find returns the first child element with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func (n *Node) FindAll(tag string) []*Node {
	if n == nil {
		return nil
	}
	var res []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			res = append(res, c)
		}
	}
	return res
}

// Has reports whether n has a child element with the given tag.
func (n *Node) Has(tag string) bool {
	return n.Find(tag) != nil
}

// Text is the concatenation of all text below n.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return n.text
	}
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	for _, c := range n.Children {
		if c.IsText() {
			sb.WriteString(c.text)
		} else {
			c.collectText(sb)
		}
	}
}

func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

func (n *Node) HasAttr(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.Attrs[name]
	return ok
}

// ChildText returns the trimmed text of the first child named tag.
func (n *Node) ChildText(tag string) (string, bool) {
	c := n.Find(tag)
	if c == nil {
		return "", false
	}
	return strings.TrimSpace(c.Text()), true
}

// ChildInt parses the first child named tag as an integer. Decimal values
// such as "2.0" are truncated.
func (n *Node) ChildInt(tag string) (int, bool) {
	s, ok := n.ChildText(tag)
	if !ok {
		return 0, false
	}
	return parseInt(s)
}

func (n *Node) ChildFloat(tag string) (float64, bool) {
	s, ok := n.ChildText(tag)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (n *Node) AttrInt(name string) (int, bool) {
	if !n.HasAttr(name) {
		return 0, false
	}
	return parseInt(strings.TrimSpace(n.Attrs[name]))
}

func (n *Node) AttrFloat(name string) (float64, bool) {
	if !n.HasAttr(name) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(n.Attrs[name]), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(s string) (int, bool) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
