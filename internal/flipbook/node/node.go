// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package node provides small builders over golang.org/x/net/html trees.
//
// The flipbook engine produces visual trees as [*html.Node] values. Layout
// strategies, mini-games, the page renderer and the viewport all compose trees
// with these helpers and serialise them with [Render].
package node

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a single attribute key/value pair.
type Attr = html.Attribute

// El creates a detached element node with the given attributes and children.
// Nil children are skipped so optional sections can be passed inline.
func El(tag atom.Atom, attrs []Attr, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag.String(),
		DataAtom: tag,
		Attr:     attrs,
	}
	Append(n, children...)
	return n
}

// Div is shorthand for a div with a class attribute.
func Div(class string, children ...*html.Node) *html.Node {
	return El(atom.Div, Attrs("class", class), children...)
}

// Text creates a text node. The serialiser escapes its content.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attrs builds an attribute list from alternating key/value strings.
// Pairs with an empty value are dropped.
func Attrs(kv ...string) []Attr {
	attrs := make([]Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		attrs = append(attrs, Attr{Key: kv[i], Val: kv[i+1]})
	}
	return attrs
}

// Append attaches children to parent, skipping nil entries.
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		parent.AppendChild(child)
	}
	return parent
}

// Get returns the value of an attribute, or "" if absent.
func Get(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Set replaces (or adds) an attribute on n.
func Set(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, Attr{Key: key, Val: value})
}

// AddClass appends a class name to the node's class attribute.
func AddClass(n *html.Node, class string) {
	current := Get(n, "class")
	if current == "" {
		Set(n, "class", class)
		return
	}
	Set(n, "class", current+" "+class)
}

// Style joins CSS declarations, skipping empty ones.
func Style(declarations ...string) string {
	kept := make([]string, 0, len(declarations))
	for _, d := range declarations {
		if strings.TrimSpace(d) != "" {
			kept = append(kept, d)
		}
	}
	return strings.Join(kept, "; ")
}

// # Traversal

// Find returns every element in the tree (including root) matching pred, in document order.
func Find(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return found
}

// HasClass reports whether n lists class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Get(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// ByClass is a [Find] predicate matching a class name.
func ByClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return HasClass(n, class) }
}

// # Serialisation

// Write serialises n as HTML.
func Write(w io.Writer, n *html.Node) error {
	if n == nil {
		return nil
	}
	return html.Render(w, n)
}

// Render serialises n to a string. A nil node renders as "".
func Render(n *html.Node) string {
	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
