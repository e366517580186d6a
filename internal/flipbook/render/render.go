// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package render composes a complete page: themed frame, layout content and an optional
animation controller.

Core Responsibility:

  - Steps: Background, border, layout and animation are resolved by independent,
    overridable functions on [Renderer].
  - Animation: The controller's visible/hidden state is driven solely by isActive.
  - Padding: Pages with a custom background render flush; default pages are padded.
*/
package render

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/flipbook/layout"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
)

// Animation controller states.
const (
	StateHidden  = "hidden"
	StateVisible = "visible"
)

// Frame classes applied by the padding rule.
const (
	ClassPadded = "page-padded"
	ClassFlush  = "page-flush"
)

// # Steps

type (
	// BackgroundFunc resolves a page's background token.
	BackgroundFunc func(value string) theme.Background

	// BorderFunc resolves a border token to a CSS radius.
	BorderFunc func(token string) string

	// LayoutFunc resolves a layout id to a strategy. It must never return nil.
	LayoutFunc func(id string) layout.Strategy

	// AnimateFunc wraps content in an animation controller, or returns it unchanged
	// when the token names no animation.
	AnimateFunc func(content *html.Node, animation string, active bool) *html.Node
)

// Renderer renders pages. Each step may be replaced independently; the zero value is
// not usable, construct with [New].
type Renderer struct {
	Background BackgroundFunc
	Border     BorderFunc
	Layout     LayoutFunc
	Animate    AnimateFunc
}

// New returns a renderer wired to the theme and the layout registry.
func New() *Renderer {
	return &Renderer{
		Background: theme.ResolveBackground,
		Border:     theme.ResolveBorder,
		Layout:     layout.Resolve,
		Animate:    Animate,
	}
}

// Render draws p as a page frame.
//
// Missing optional fields never fail; a nil page returns [page.ErrNilPage].
func (renderer *Renderer) Render(p *page.Page, isActive bool) (*html.Node, error) {
	if p == nil {
		return nil, page.ErrNilPage
	}

	// Work on a private copy so no step can reach the caller's items.
	current := p.Clone()

	// 1. Background
	background := renderer.Background(current.Background)

	// 2. Border
	radius := renderer.Border(current.BorderOrDefault())

	// 3. Layout
	strategy := renderer.Layout(current.Layout)
	content := strategy.Render(current)

	// 4. Animation
	if current.Animation != "" {
		content = renderer.Animate(content, current.Animation, isActive)
	}

	// 5. Padding rule
	spacing := ClassPadded
	if background.Custom {
		spacing = ClassFlush
	}

	font := ""
	if family, ok := theme.ResolveFont(current.Font); ok {
		font = "font-family: " + family
	}

	frame := node.El(atom.Div, node.Attrs(
		"class", "page "+spacing,
		"data-layout", string(strategy.Layout()),
		"style", node.Style(
			background.CSS(),
			"border-radius: "+radius,
			font,
			"overflow: hidden",
		),
	), content)

	return frame, nil
}

// RenderHTML renders p and serialises it to w.
func (renderer *Renderer) RenderHTML(w io.Writer, p *page.Page, isActive bool) error {
	frame, err := renderer.Render(p, isActive)
	if err != nil {
		return err
	}
	return node.Write(w, frame)
}

// Animate is the default animation step. Unknown tokens leave content unwrapped.
// The controller starts hidden and is visible only while the page is active.
func Animate(content *html.Node, animation string, active bool) *html.Node {
	class, ok := theme.ResolveAnimation(animation)
	if !ok {
		return content
	}

	return node.El(atom.Div, node.Attrs(
		"class", "page-animation "+class,
		"data-animation", animation,
		"data-state", StateFor(active),
	), content)
}

// StateFor maps the active flag to a controller state.
func StateFor(active bool) string {
	if active {
		return StateVisible
	}
	return StateHidden
}
