// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package render_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dast-sv/lectoflip/internal/flipbook/layout"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
)

func TestRender_NilPage(t *testing.T) {
	_, err := render.New().Render(nil, true)
	assert.ErrorIs(t, err, page.ErrNilPage)
}

/*
TestRender_PaddingRule checks that custom backgrounds render flush while the default
background is padded.
*/
func TestRender_PaddingRule(t *testing.T) {
	tests := []struct {
		name       string
		background string
		class      string
	}{
		{"default", "", render.ClassPadded},
		{"explicit_blanco", "blanco", render.ClassPadded},
		{"unknown_falls_back_to_default", "magenta", render.ClassPadded},
		{"palette", "celeste", render.ClassFlush},
		{"image", "https://cdn.example.com/bg.png", render.ClassFlush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := render.New().Render(&page.Page{Text: "x", Background: tt.background}, true)
			require.NoError(t, err)
			assert.True(t, node.HasClass(frame, tt.class))
		})
	}
}

func TestRender_BorderAndFont(t *testing.T) {
	frame, err := render.New().Render(&page.Page{Border: "rounded", Font: "serif"}, false)
	require.NoError(t, err)

	style := node.Get(frame, "style")
	assert.Contains(t, style, "border-radius: 12px")
	assert.Contains(t, style, "Georgia")

	square, err := render.New().Render(&page.Page{}, false)
	require.NoError(t, err)
	assert.Contains(t, node.Get(square, "style"), "border-radius: 0")
}

/*
TestRender_AnimationDrivenByActive verifies the controller is hidden when inactive,
visible when active, and absent when no animation is set.
*/
func TestRender_AnimationDrivenByActive(t *testing.T) {
	p := &page.Page{Text: "Hola", Animation: "fadeIn"}
	renderer := render.New()

	hidden, err := renderer.Render(p, false)
	require.NoError(t, err)
	controllers := node.Find(hidden, node.ByClass("page-animation"))
	require.Len(t, controllers, 1)
	assert.Equal(t, render.StateHidden, node.Get(controllers[0], "data-state"))

	visible, err := renderer.Render(p, true)
	require.NoError(t, err)
	controllers = node.Find(visible, node.ByClass("page-animation"))
	require.Len(t, controllers, 1)
	assert.Equal(t, render.StateVisible, node.Get(controllers[0], "data-state"))

	plain, err := renderer.Render(&page.Page{Text: "Hola"}, true)
	require.NoError(t, err)
	assert.Empty(t, node.Find(plain, node.ByClass("page-animation")))
}

func TestRender_UnknownLayoutFallsBack(t *testing.T) {
	frame, err := render.New().Render(&page.Page{Layout: "Nope", Text: "Cuerpo"}, true)
	require.NoError(t, err)
	assert.Equal(t, string(page.LayoutTextCenter), node.Get(frame, "data-layout"))
}

/*
TestRender_StepsAreOverridable replaces every step and verifies the renderer calls
them in order.
*/
func TestRender_StepsAreOverridable(t *testing.T) {
	var calls []string

	renderer := render.New()
	renderer.Background = func(value string) theme.Background {
		calls = append(calls, "background")
		return theme.ResolveBackground("menta")
	}
	renderer.Border = func(token string) string {
		calls = append(calls, "border")
		return "3px"
	}
	renderer.Layout = func(id string) layout.Strategy {
		calls = append(calls, "layout")
		return layout.Resolve(string(page.LayoutImageFull))
	}
	renderer.Animate = func(content *html.Node, animation string, active bool) *html.Node {
		calls = append(calls, "animate")
		return content
	}

	frame, err := renderer.Render(&page.Page{Animation: "zoomIn"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"background", "border", "layout", "animate"}, calls)
	assert.Contains(t, node.Get(frame, "style"), "border-radius: 3px")
	assert.Contains(t, node.Render(frame), layout.PlaceholderCaption)
}

func TestRender_DoesNotMutate(t *testing.T) {
	p := &page.Page{Items: []string{"a", "b"}, InteractiveGame: "quiz", Layout: string(page.LayoutInteractive)}
	before := p.Clone()

	_, err := render.New().Render(p, true)
	require.NoError(t, err)
	assert.Equal(t, before, *p)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.New().RenderHTML(&buf, &page.Page{Title: "Uno"}, true))
	assert.Contains(t, buf.String(), `class="page page-padded"`)
	assert.Contains(t, buf.String(), "Uno")
}

func TestAnimator_ReplayOnRevisit(t *testing.T) {
	animator := render.NewAnimator()

	state, plays := animator.Observe(2, false)
	assert.Equal(t, render.StateHidden, state)
	assert.Equal(t, 0, plays)

	state, plays = animator.Observe(2, true)
	assert.Equal(t, render.StateVisible, state)
	assert.Equal(t, 1, plays)

	// Staying active does not replay.
	_, plays = animator.Observe(2, true)
	assert.Equal(t, 1, plays)

	animator.Observe(2, false)
	_, plays = animator.Observe(2, true)
	assert.Equal(t, 2, plays)

	animator.Reset()
	_, plays = animator.Observe(2, true)
	assert.Equal(t, 1, plays)
}
