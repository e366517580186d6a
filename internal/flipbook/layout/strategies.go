// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package layout

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/flipbook/game"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
)

// PlaceholderCaption is shown by image layouts whose page has no image.
const PlaceholderCaption = "Sin imagen"

// # Shared Pieces

func root(id page.LayoutID, children ...*html.Node) *html.Node {
	return node.El(atom.Div, node.Attrs("class", "layout", "data-layout", string(id)), children...)
}

func title(p page.Page) *html.Node {
	return node.MarkupInto(atom.Div, "page-title", p.Title)
}

func text(p page.Page) *html.Node {
	return node.MarkupInto(atom.Div, "page-text", p.Text)
}

// copyBlock groups title and text; nil when both are blank.
func copyBlock(class string, p page.Page) *html.Node {
	t, b := title(p), text(p)
	if t == nil && b == nil {
		return nil
	}
	return node.Div(class, t, b)
}

// Sources that are not absolute URLs (javascript:, data:, relative paths) degrade to the placeholder.
func img(src, class string) *html.Node {
	if !theme.IsURL(src) {
		return placeholder()
	}
	return node.El(atom.Img, node.Attrs("src", src, "alt", "", "class", class, "loading", "lazy"))
}

// placeholder is the explicit "no image" glyph and caption.
func placeholder() *html.Node {
	return node.Div("image-placeholder",
		node.El(atom.Span, node.Attrs("class", "image-placeholder-glyph", "aria-hidden", "true"), node.Text("🖼")),
		node.El(atom.P, node.Attrs("class", "image-placeholder-caption"), node.Text(PlaceholderCaption)),
	)
}

// half renders an image slot that stays blank (but present) without an image.
func half(p page.Page, class string) *html.Node {
	slot := node.Div(class)
	if p.HasImage() {
		node.Append(slot, img(p.Image, "page-image"))
	} else {
		node.AddClass(slot, "is-empty")
	}
	return slot
}

// # Strategies

type cover struct{}

func (cover) Layout() page.LayoutID { return page.LayoutCover }

func (cover) Render(p page.Page) *html.Node {
	return root(page.LayoutCover, copyBlock("cover-copy text-shadow", p))
}

type textCenter struct{}

func (textCenter) Layout() page.LayoutID { return page.LayoutTextCenter }

func (textCenter) Render(p page.Page) *html.Node {
	return root(page.LayoutTextCenter, copyBlock("center-copy", p))
}

// imageFull fills the page with the image. Title and text are not drawn: the
// layout-specific arrangement wins over generic copy.
type imageFull struct{}

func (imageFull) Layout() page.LayoutID { return page.LayoutImageFull }

func (imageFull) Render(p page.Page) *html.Node {
	if !p.HasImage() {
		return root(page.LayoutImageFull, placeholder())
	}
	return root(page.LayoutImageFull, img(p.Image, "page-image page-image-full"))
}

// imageText covers both side-by-side layouts.
type imageText struct {
	id         page.LayoutID
	imageFirst bool
}

func (strategy imageText) Layout() page.LayoutID { return strategy.id }

func (strategy imageText) Render(p page.Page) *html.Node {
	image := half(p, "half half-image")
	words := node.Div("half half-text", title(p), text(p))

	if strategy.imageFirst {
		return root(strategy.id, node.Div("columns", image, words))
	}
	return root(strategy.id, node.Div("columns", words, image))
}

type splitTopBottom struct{}

func (splitTopBottom) Layout() page.LayoutID { return page.LayoutSplitTopBottom }

func (splitTopBottom) Render(p page.Page) *html.Node {
	return root(page.LayoutSplitTopBottom,
		half(p, "split-top"),
		node.Div("split-bottom", title(p), text(p)),
	)
}

// centerImageDownText draws the image in the middle with only the text beneath it.
type centerImageDownText struct{}

func (centerImageDownText) Layout() page.LayoutID { return page.LayoutCenterImageDownText }

func (centerImageDownText) Render(p page.Page) *html.Node {
	return root(page.LayoutCenterImageDownText,
		half(p, "center-image"),
		node.Div("center-text", text(p)),
	)
}

type interactive struct{}

func (interactive) Layout() page.LayoutID { return page.LayoutInteractive }

func (interactive) Render(p page.Page) *html.Node {
	out := root(page.LayoutInteractive, copyBlock("interactive-copy", p))

	switch {
	case p.InteractiveGame != "":
		node.Append(out, game.Embed(p.InteractiveGame, game.Input{
			Image: p.Image,
			Items: p.Items,
		}))

	case p.HasItems():
		list := node.Div("interactive-items")
		for i, item := range p.Items {
			node.Append(list, node.El(atom.Button,
				node.Attrs("type", "button", "class", "interactive-item", "data-index", strconv.Itoa(i)),
				node.Text(node.PlainText(item)),
			))
		}
		node.Append(out, list)
	}

	return out
}
