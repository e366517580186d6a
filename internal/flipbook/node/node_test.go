// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/flipbook/node"
)

func TestEl_RenderAndSkipNil(t *testing.T) {
	n := node.El(atom.Div, node.Attrs("class", "page", "style", ""),
		node.Text("Hola <mundo>"),
		nil,
	)
	assert.Equal(t, `<div class="page">Hola &lt;mundo&gt;</div>`, node.Render(n))
}

func TestAddClassAndFind(t *testing.T) {
	child := node.Div("a")
	root := node.Div("root", child)
	node.AddClass(child, "b")

	found := node.Find(root, node.ByClass("b"))
	assert.Len(t, found, 1)
	assert.True(t, node.HasClass(found[0], "a"))
}

/*
TestMarkup_Sanitizes verifies the trust boundary for author rich text.
*/
func TestMarkup_Sanitizes(t *testing.T) {
	out := node.Render(node.MarkupInto(atom.Div, "text", `<p style="text-align: center">Hola <strong>niños</strong></p><script>alert(1)</script><img src=x onerror="alert(1)">`))

	assert.Contains(t, out, "<strong>niños</strong>")
	assert.Contains(t, out, "text-align: center")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
}

func TestMarkup_Blank(t *testing.T) {
	assert.Nil(t, node.MarkupInto(atom.Div, "text", "   "))
	assert.Nil(t, node.MarkupInto(atom.Div, "text", "<script>x()</script>"))
	assert.Equal(t, "", node.Render(nil))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Había una vez", node.PlainText("<h1>Había <em>una</em> vez</h1>"))
}
