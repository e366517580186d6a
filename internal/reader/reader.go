// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reader serves the reading surfaces of a book.

Surfaces:

  - Document: a server-rendered flipbook HTML page for a viewport size.
  - Session: a websocket conversation driving one [viewport.Viewport] (flips, resizes,
    mini-game moves) and replying with rendered state.
  - Authoring helpers: single-page render, layout picker and theme catalogue.
*/
package reader

import (
	"context"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/viewport"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800

	// EmptyBookMessage replaces the flip widget for books with fewer than two pages.
	EmptyBookMessage = "Este libro necesita al menos dos páginas para hojearse."
)

// BookSource loads one of the owner's books with its pages.
type BookSource interface {
	GetBook(context context.Context, ownerID, id string) (*book.Book, error)
}

/*
WriteDocument serialises a complete reader page around a rendered flip widget.

Parameters:
  - w: io.Writer
  - b: *book.Book (Title and id only)
  - view: *viewport.Viewport (Mode and engine attributes)
  - widget: *html.Node (Result of [viewport.Viewport.Render]; nil for short books)
*/
func WriteDocument(w io.Writer, b *book.Book, view *viewport.Viewport, widget *html.Node) error {
	if widget == nil {
		widget = node.El(atom.P, node.Attrs("class", "reader-empty"), node.Text(EmptyBookMessage))
	}

	head := node.El(atom.Head, nil,
		node.El(atom.Meta, node.Attrs("charset", "utf-8")),
		node.El(atom.Meta, node.Attrs("name", "viewport", "content", "width=device-width, initial-scale=1")),
		node.El(atom.Title, nil, node.Text(b.Title)),
	)

	controls := node.El(atom.Nav, node.Attrs("class", "reader-controls"),
		node.El(atom.Button, node.Attrs("type", "button", "data-action", "prev"), node.Text("Anterior")),
		node.El(atom.Span, node.Attrs("class", "reader-position"),
			node.Text(strconv.Itoa(view.Current()+1)+" / "+strconv.Itoa(view.PageCount())),
		),
		node.El(atom.Button, node.Attrs("type", "button", "data-action", "next"), node.Text("Siguiente")),
	)

	main := node.El(atom.Main, node.Attrs(
		"class", "reader reader-"+string(view.Mode()),
		"data-book", b.ID,
		"data-engine", view.EngineKey(),
	),
		node.El(atom.H1, node.Attrs("class", "reader-title"), node.Text(b.Title)),
		widget,
		controls,
	)

	document := &html.Node{Type: html.DocumentNode}
	document.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	document.AppendChild(node.El(atom.Html, node.Attrs("lang", "es"), head, node.El(atom.Body, nil, main)))

	return html.Render(w, document)
}
