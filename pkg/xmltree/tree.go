// Package xmltree parses NETCONF reply documents into a generic element tree
// and renders that tree as indented XML or as nested key/value data.
package xmltree

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one element of a parsed document. Name is the local name and
// Prefix the prefix it was written with. Space is the resolved namespace URI
// (or the raw prefix when it was never declared).
type Node struct {
	Name     string
	Prefix   string
	Space    string
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// frame is one open element during parsing.
type frame struct {
	node *Node
	raw  xml.Name
	ns   map[string]string // prefix -> URI in scope; "" is the default
	text *strings.Builder
}

// Parse decodes data into a tree rooted at the document element. Namespaces
// are resolved here rather than by the decoder so the written prefixes
// survive.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Node
		stack []frame
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, errors.New("parsing document: multiple root elements")
			}
			ns := map[string]string{"xml": xmlNamespace}
			if len(stack) > 0 {
				ns = stack[len(stack)-1].ns
			}
			ns = declare(ns, t.Attr)

			n := &Node{
				Name:   t.Name.Local,
				Prefix: t.Name.Space,
				Space:  resolve(ns, t.Name.Space),
				Attrs:  append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, frame{node: n, raw: t.Name, ns: ns, text: &strings.Builder{}})
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parsing document: unexpected end element </%s>", qualified(t.Name))
			}
			top := stack[len(stack)-1]
			if top.raw != t.Name {
				return nil, fmt.Errorf("parsing document: element <%s> closed by </%s>", qualified(top.raw), qualified(t.Name))
			}
			top.node.Text = strings.TrimSpace(top.text.String())
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("parsing document: no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("parsing document: element <%s> not closed", qualified(stack[len(stack)-1].raw))
	}
	return root, nil
}

// declare returns the scope after the element's xmlns attributes. The
// parent scope is copied only when something is declared.
func declare(parent map[string]string, attrs []xml.Attr) map[string]string {
	var scope map[string]string
	for _, a := range attrs {
		if !isNamespaceDecl(a) {
			continue
		}
		if scope == nil {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
		}
		if a.Name.Space == "xmlns" {
			scope[a.Name.Local] = a.Value
		} else {
			scope[""] = a.Value
		}
	}
	if scope == nil {
		return parent
	}
	return scope
}

func resolve(scope map[string]string, prefix string) string {
	if uri, ok := scope[prefix]; ok {
		return uri
	}
	return prefix
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// QName returns the element name as written, prefix included.
func (n *Node) QName() string {
	if n.Prefix == "" {
		return n.Name
	}
	return n.Prefix + ":" + n.Name
}

// Child returns the first child element with the given local name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child element with the given local name, in
// document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find walks a path of local names below n. Returns nil if any step is missing.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, p := range path {
		cur = cur.Child(p)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// ChildText returns the text of the named child and whether it exists.
func (n *Node) ChildText(name string) (string, bool) {
	c := n.Child(name)
	if c == nil {
		return "", false
	}
	return c.Text, true
}

// Attr returns the value of an attribute by local name. Namespace
// declarations are not attributes for this purpose.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if isNamespaceDecl(a) {
			continue
		}
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Map converts the tree into nested maps keyed by element name as written,
// the way xmltodict does: attributes become "@name" keys, repeated siblings
// become slices, and text-only elements collapse to their string value (nil
// when empty).
func (n *Node) Map() map[string]any {
	return map[string]any{n.QName(): plain(n.value())}
}

// JSON renders the same structure as Map, keeping document order for
// attributes and elements.
func (n *Node) JSON(indent string) ([]byte, error) {
	return json.MarshalIndent(object{{n.QName(), n.value()}}, "", indent)
}

// object is an ordered JSON object.
type object []member

type member struct {
	key string
	val any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.val)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n *Node) value() any {
	if len(n.Children) == 0 && len(n.Attrs) == 0 {
		if n.Text == "" {
			return nil
		}
		return n.Text
	}

	obj := make(object, 0, len(n.Attrs)+len(n.Children)+1)
	for _, a := range n.Attrs {
		obj = append(obj, member{"@" + attrKey(a), a.Value})
	}
	seen := make(map[string]int, len(n.Children))
	for _, c := range n.Children {
		key := c.QName()
		i, ok := seen[key]
		if !ok {
			seen[key] = len(obj)
			obj = append(obj, member{key, c.value()})
			continue
		}
		// A repeated sibling turns the first occurrence into a list in place.
		if list, isList := obj[i].val.([]any); isList {
			obj[i].val = append(list, c.value())
		} else {
			obj[i].val = []any{obj[i].val, c.value()}
		}
	}
	if n.Text != "" {
		obj = append(obj, member{"#text", n.Text})
	}
	return obj
}

// plain converts ordered objects into maps.
func plain(v any) any {
	switch t := v.(type) {
	case object:
		m := make(map[string]any, len(t))
		for _, mem := range t {
			m[mem.key] = plain(mem.val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}

func isNamespaceDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

func attrKey(a xml.Attr) string {
	return qualified(a.Name)
}
