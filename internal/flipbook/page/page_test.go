// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
)

/*
TestDecode_RejectsNonStringLayout verifies that structural errors are surfaced.
*/
func TestDecode_RejectsNonStringLayout(t *testing.T) {
	_, err := page.Decode([]byte(`{"layout": 42, "title": "Hola"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, page.ErrInvalidPage)

	_, err = page.DecodeList([]byte(`[{"layout": "CoverLayout"}, {"layout": ["x"]}]`))
	assert.ErrorIs(t, err, page.ErrInvalidPage)
}

/*
TestDecode_UnknownLayoutIsNotAStructuralError keeps unknown ids renderable.
*/
func TestDecode_UnknownLayoutIsNotAStructuralError(t *testing.T) {
	p, err := page.Decode([]byte(`{"layout": "MadeUpLayout", "interactiveGame": "quiz", "items": ["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, "MadeUpLayout", p.Layout)
	assert.Equal(t, "quiz", p.InteractiveGame)
	assert.Equal(t, []string{"a", "b"}, p.Items)
}

/*
TestPage_Defaults covers the background and border fallbacks.
*/
func TestPage_Defaults(t *testing.T) {
	p := page.Page{Background: "  ", Border: ""}
	assert.Equal(t, page.DefaultBackground, p.BackgroundOrDefault())
	assert.Equal(t, page.DefaultBorder, p.BorderOrDefault())

	p = page.Page{Background: "celeste", Border: "rounded"}
	assert.Equal(t, "celeste", p.BackgroundOrDefault())
	assert.Equal(t, "rounded", p.BorderOrDefault())
}

/*
TestPage_CloneDoesNotAlias ensures renderers cannot mutate the caller's items.
*/
func TestPage_CloneDoesNotAlias(t *testing.T) {
	original := page.Page{Items: []string{"uno", "dos"}}
	clone := original.Clone()
	clone.Items[0] = "changed"

	assert.Equal(t, "uno", original.Items[0])
}

func TestImagePage(t *testing.T) {
	p := page.ImagePage("blob:http://localhost/blobs/1")
	assert.Equal(t, string(page.LayoutImageFull), p.Layout)
	assert.Equal(t, "blanco", p.Background)
	assert.True(t, p.HasImage())
	assert.False(t, p.HasTitle())
}
