// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package node

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// richTextPolicy is the allow-list applied to author markup (page title/text).
// It extends the UGC policy with the inline formatting a rich-text editor emits.
var richTextPolicy = newRichTextPolicy()

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	policy.AllowStyles(
		"color", "background-color", "text-align", "font-size", "font-weight",
		"font-style", "text-decoration", "line-height", "font-family",
	).Globally()
	policy.AllowElements("mark", "u", "s", "span")
	return policy
}

// Sanitize applies the rich-text allow-list to raw author markup.
func Sanitize(raw string) string {
	return richTextPolicy.Sanitize(raw)
}

// Markup sanitises raw author markup and parses it into detached nodes.
// Blank input yields no nodes.
func Markup(raw string) []*html.Node {
	clean := strings.TrimSpace(Sanitize(raw))
	if clean == "" {
		return nil
	}

	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(clean), context)
	if err != nil {
		// The tokenizer is lenient; fall back to plain text rather than losing content.
		return []*html.Node{Text(PlainText(raw))}
	}
	return nodes
}

var richTextPolicyStrip = bluemonday.StrictPolicy()

// MarkupInto sanitises raw markup into a new element of the given tag and class.
// It returns nil when the markup is blank so callers can skip the section.
func MarkupInto(tag atom.Atom, class, raw string) *html.Node {
	nodes := Markup(raw)
	if len(nodes) == 0 {
		return nil
	}
	return El(tag, Attrs("class", class), nodes...)
}

// PlainText strips all markup, returning the visible text only.
func PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(richTextPolicyStrip.Sanitize(raw)))
}
