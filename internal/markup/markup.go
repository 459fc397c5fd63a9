// Package markup models documentation markup as a tree of named elements
// with attributes. Trees are produced by parsing XML documentation files and
// consumed by the cross-reference resolver.
package markup

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is an Element or a Text run.
type Node interface {
	node()
}

// Text is character data between elements.
type Text string

func (Text) node() {}

// Attr is a single attribute.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Element is a named markup element.
type Element struct {
	Name     string `json:"name"`
	Attrs    []Attr `json:"attrs,omitempty"`
	Children []Node `json:"-"`
}

func (*Element) node() {}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the element children.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the first descendant element with the name, depth-first.
func (e *Element) Find(name string) *Element {
	var found *Element
	e.Walk(func(el *Element) bool {
		if found != nil {
			return false
		}
		if el != e && el.Name == name {
			found = el
			return false
		}
		return true
	})
	return found
}

// Text returns the concatenated character data of the subtree with
// whitespace runs collapsed.
func (e *Element) Text() string {
	var b strings.Builder
	var collect func(*Element)
	collect = func(el *Element) {
		for _, c := range el.Children {
			switch n := c.(type) {
			case Text:
				b.WriteString(string(n))
			case *Element:
				collect(n)
			}
		}
	}
	collect(e)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Walk visits e and its descendants in document order. Returning false from
// fn skips the children of the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			el.Walk(fn)
		}
	}
}

// Parse reads a single XML document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var stack []*Element
	var root *Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("failed to parse markup: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, Text(string(t)))
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("failed to parse markup: no root element")
	}
	return root, nil
}

// ParseString parses markup held in a string.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}
