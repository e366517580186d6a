// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package viewport drives the page-flip presentation of a book.

A [Viewport] owns the current page index and the widget size. On desktop it shows the
cover alone followed by two-page spreads; on mobile it shows one page at a time.

Core Responsibility:

  - Navigation: next/prev are no-ops at the bounds; flip jumps directly or is rejected.
  - Ordering: Flips are serialised; every successful flip emits exactly one [FlipEvent].
  - Remount: A desktop↔mobile switch recreates the engine, observable as a new [Viewport.EngineKey].
  - Rendering: Active pages (the visible spread) render with isActive set.
*/
package viewport

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
)

// ErrPageOutOfRange rejects a flip to an index outside the book.
var ErrPageOutOfRange = errors.New("viewport: page out of range")

// FlipEvent describes one completed flip.
type FlipEvent struct {
	From   int   `json:"from"`
	To     int   `json:"to"`
	Mode   Mode  `json:"mode"`
	Active []int `json:"active"`
}

// Option configures a [Viewport].
type Option func(*Viewport)

// WithFixedSize pins the page size and bypasses responsive sizing. Mode detection
// still follows the viewport width on resize.
func WithFixedSize(width, height int) Option {
	return func(v *Viewport) {
		if width > 0 && height > 0 {
			v.fixed = &geom.Size{Width: width, Height: height}
			v.size = *v.fixed
		}
	}
}

// WithStartPage opens the book at index. Out-of-range values are ignored.
func WithStartPage(index int) Option {
	return func(v *Viewport) {
		if index >= 0 && index < len(v.pages) {
			v.current = index
		}
	}
}

// WithViewportSize sizes the widget for an initial viewport.
func WithViewportSize(width, height int) Option {
	return func(v *Viewport) {
		v.resize(width, height)
	}
}

// Viewport is safe for concurrent use. Flips are applied one at a time.
type Viewport struct {
	// flipMu serialises whole flip operations including listener notification.
	flipMu sync.Mutex

	mu         sync.RWMutex
	pages      []page.Page
	profile    Profile
	fixed      *geom.Size
	mode       Mode
	size       geom.Size
	current    int
	generation int
	listeners  []func(FlipEvent)
	animator   *render.Animator
}

// New creates a viewport over a private copy of pages.
func New(pages []page.Page, profile Profile, opts ...Option) *Viewport {
	owned := make([]page.Page, len(pages))
	for i, p := range pages {
		owned[i] = p.Clone()
	}

	v := &Viewport{
		pages:      owned,
		profile:    profile,
		mode:       ModeDesktop,
		size:       geom.ClampMin(profile.Base, profile.Min),
		generation: 1,
		animator:   render.NewAnimator(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// # Sizing

// Resize recomputes mode and size for a new viewport. It reports whether the mode
// flipped, in which case the engine was recreated and [Viewport.EngineKey] changed.
func (v *Viewport) Resize(width, height int) bool {
	v.flipMu.Lock()
	defer v.flipMu.Unlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resize(width, height)
}

func (v *Viewport) resize(width, height int) bool {
	mode, size := FitBox(v.profile, width, height)
	if v.fixed != nil {
		size = *v.fixed
	}
	v.size = size

	if mode == v.mode {
		return false
	}

	// Two-page and one-page engines are not interchangeable: recreate.
	v.mode = mode
	v.generation++
	v.animator.Reset()
	return true
}

// # Navigation

// Next advances one spread (desktop) or one page (mobile). At the end it is a no-op.
func (v *Viewport) Next() (bool, error) {
	return v.step(func(current, count int, mode Mode) int {
		if mode == ModeMobile {
			return current + 1
		}
		start := spreadStart(current)
		if start == 0 {
			return 1
		}
		return start + 2
	})
}

// Prev goes back one spread (desktop) or one page (mobile). At the start it is a no-op.
func (v *Viewport) Prev() (bool, error) {
	return v.step(func(current, count int, mode Mode) int {
		if mode == ModeMobile {
			return current - 1
		}
		start := spreadStart(current)
		if start <= 1 {
			return start - 1
		}
		return start - 2
	})
}

// step applies a relative move; targets outside the book are boundary no-ops.
func (v *Viewport) step(target func(current, count int, mode Mode) int) (bool, error) {
	v.flipMu.Lock()
	defer v.flipMu.Unlock()

	v.mu.RLock()
	to := target(v.current, len(v.pages), v.mode)
	inRange := to >= 0 && to < len(v.pages)
	v.mu.RUnlock()

	if !inRange {
		return false, nil
	}
	return v.flip(to), nil
}

// Flip jumps to index. Out-of-range targets are rejected with [ErrPageOutOfRange];
// flipping to the current page is a no-op.
func (v *Viewport) Flip(index int) (bool, error) {
	v.flipMu.Lock()
	defer v.flipMu.Unlock()

	v.mu.RLock()
	count := len(v.pages)
	v.mu.RUnlock()

	if index < 0 || index >= count {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, count)
	}
	return v.flip(index), nil
}

// flip must be called with flipMu held.
func (v *Viewport) flip(to int) bool {
	v.mu.Lock()
	from := v.current
	if from == to {
		v.mu.Unlock()
		return false
	}
	v.current = to
	event := FlipEvent{From: from, To: to, Mode: v.mode, Active: v.activePages()}
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
	return true
}

// OnFlip registers a listener called once per successful flip, in flip order.
// Listeners may read the viewport but must not flip it.
func (v *Viewport) OnFlip(listener func(FlipEvent)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, listener)
}

// # State

func (v *Viewport) Current() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

func (v *Viewport) Mode() Mode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

func (v *Viewport) Size() geom.Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

func (v *Viewport) PageCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.pages)
}

// EngineKey identifies the current flip engine instance. It changes on every remount.
func (v *Viewport) EngineKey() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return string(v.mode) + "-" + strconv.Itoa(v.generation)
}

// ActivePages lists the visible page indexes: the spread on desktop, the current page
// on mobile.
func (v *Viewport) ActivePages() []int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.activePages()
}

func (v *Viewport) activePages() []int {
	if len(v.pages) == 0 {
		return nil
	}
	if v.mode == ModeMobile {
		return []int{v.current}
	}

	start := spreadStart(v.current)
	if start == 0 {
		return []int{0}
	}
	if start+1 < len(v.pages) {
		return []int{start, start + 1}
	}
	return []int{start}
}

// spreadStart is the left page of the desktop spread holding index.
// The cover (0) stands alone; spreads then pair (1,2), (3,4), …
func spreadStart(index int) int {
	if index <= 0 {
		return 0
	}
	if index%2 == 1 {
		return index
	}
	return index - 1
}

// # Rendering

// Render draws the book widget. Books with fewer than two pages render nothing.
func (v *Viewport) Render(renderer *render.Renderer) (*html.Node, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.pages) < 2 {
		return nil, nil
	}

	active := make(map[int]bool)
	for _, index := range v.activePages() {
		active[index] = true
	}

	bookWidth := v.size.Width
	if v.mode == ModeDesktop {
		bookWidth *= 2
	}

	book := node.El(atom.Div, node.Attrs(
		"class", "flipbook flipbook-"+string(v.mode),
		"data-engine", string(v.mode)+"-"+strconv.Itoa(v.generation),
		"data-current", strconv.Itoa(v.current),
		"data-pages", strconv.Itoa(len(v.pages)),
		"style", node.Style(
			fmt.Sprintf("width: %dpx", bookWidth),
			fmt.Sprintf("height: %dpx", v.size.Height),
		),
	))

	for i := range v.pages {
		isActive := active[i]
		frame, err := renderer.Render(&v.pages[i], isActive)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}

		_, plays := v.animator.Observe(i, isActive)
		slot := node.El(atom.Div, node.Attrs(
			"class", "flip-page",
			"data-index", strconv.Itoa(i),
			"data-active", strconv.FormatBool(isActive),
			"data-play", strconv.Itoa(plays),
			"style", node.Style(
				fmt.Sprintf("width: %dpx", v.size.Width),
				fmt.Sprintf("height: %dpx", v.size.Height),
			),
		), frame)
		node.Append(book, slot)
	}

	return book, nil
}
