// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package render

import "sync"

// Animator remembers the controller state of every page across renders so a page that
// is revisited replays its animation.
type Animator struct {
	mu     sync.Mutex
	states map[int]*animation
}

type animation struct {
	visible bool
	plays   int
}

// NewAnimator returns an animator with every page hidden.
func NewAnimator() *Animator {
	return &Animator{states: make(map[int]*animation)}
}

// Observe records the active flag of page index and returns its controller state and
// how many times it has become visible. A hidden → visible transition counts as a play.
func (animator *Animator) Observe(index int, active bool) (string, int) {
	animator.mu.Lock()
	defer animator.mu.Unlock()

	state, ok := animator.states[index]
	if !ok {
		state = &animation{}
		animator.states[index] = state
	}

	if active && !state.visible {
		state.plays++
	}
	state.visible = active

	return StateFor(active), state.plays
}

// Reset forgets every page, e.g. when the flip engine is recreated.
func (animator *Animator) Reset() {
	animator.mu.Lock()
	defer animator.mu.Unlock()
	animator.states = make(map[int]*animation)
}
