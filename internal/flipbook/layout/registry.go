// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package layout maps layout identifiers to rendering strategies.

The registry is a static table built once when the package loads. It has no
registration API: the set of layouts is closed and known at compile time.

Core Responsibility:

  - Resolution: [Resolve] always yields a usable [Strategy]; unknown ids fall back to TextCenter.
  - Gating: [IsValidLayoutID] and [CanUseLayoutOnPage] drive the layout picker and save-time validation.
  - Rendering: Each strategy is a pure function of a page value to a visual tree.
*/
package layout

import (
	"golang.org/x/net/html"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
)

// Strategy renders one layout.
//
// Implementations receive the page by value and must not retain or mutate it.
type Strategy interface {
	Layout() page.LayoutID
	Render(p page.Page) *html.Node
}

// # Registry

// order is the picker order; it also defines the registry contents.
var order = []Strategy{
	cover{},
	textCenter{},
	imageFull{},
	imageText{id: page.LayoutImageLeftTextRight, imageFirst: true},
	imageText{id: page.LayoutTextLeftImageRight, imageFirst: false},
	splitTopBottom{},
	centerImageDownText{},
	interactive{},
}

var registry = func() map[page.LayoutID]Strategy {
	table := make(map[page.LayoutID]Strategy, len(order))
	for _, strategy := range order {
		table[strategy.Layout()] = strategy
	}
	return table
}()

var fallback = registry[page.DefaultLayout]

// Resolve returns the strategy for id, or the shared TextCenter strategy when id is
// unknown. It never returns nil.
func Resolve(id string) Strategy {
	if strategy, ok := registry[page.LayoutID(id)]; ok {
		return strategy
	}
	return fallback
}

// IsValidLayoutID reports whether id names a registered layout.
func IsValidLayoutID(id string) bool {
	_, ok := registry[page.LayoutID(id)]
	return ok
}

// CanUseLayoutOnPage enforces placement rules. pageNumber is 1-based.
// The cover layout is only legal on page 1; every other combination is allowed.
func CanUseLayoutOnPage(id string, pageNumber int) bool {
	if page.LayoutID(id) == page.LayoutCover {
		return pageNumber == 1
	}
	return true
}

// # Picker

// Descriptor is one entry of the layout picker.
type Descriptor struct {
	ID      page.LayoutID `json:"id"`
	Label   string        `json:"label"`
	Enabled bool          `json:"enabled"`
}

var labels = map[page.LayoutID]string{
	page.LayoutCover:               "Portada",
	page.LayoutTextCenter:          "Texto centrado",
	page.LayoutImageFull:           "Imagen completa",
	page.LayoutImageLeftTextRight:  "Imagen izquierda, texto derecha",
	page.LayoutTextLeftImageRight:  "Texto izquierda, imagen derecha",
	page.LayoutSplitTopBottom:      "Imagen arriba, texto abajo",
	page.LayoutCenterImageDownText: "Imagen centrada con texto",
	page.LayoutInteractive:         "Interactiva",
}

// Descriptors lists every layout in picker order, disabling the ones that cannot be
// used on the given 1-based page number.
func Descriptors(pageNumber int) []Descriptor {
	descriptors := make([]Descriptor, 0, len(order))
	for _, strategy := range order {
		id := strategy.Layout()
		descriptors = append(descriptors, Descriptor{
			ID:      id,
			Label:   labels[id],
			Enabled: CanUseLayoutOnPage(string(id), pageNumber),
		})
	}
	return descriptors
}
