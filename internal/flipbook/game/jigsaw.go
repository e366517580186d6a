// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package game

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
)

// # Grid

const (
	DefaultGrid = 3
	MinGrid     = 2
	MaxGrid     = 6
)

// DefaultBoard is the embed size used when no container size is known.
var DefaultBoard = geom.Size{Width: 480, Height: 480}

// ParseGrid reads an "RxC" token (e.g. "3x4"). Anything unreadable yields the default
// 3×3 grid; values are clamped to [MinGrid, MaxGrid].
func ParseGrid(token string) (rows, cols int) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(token)), "x")
	if len(parts) != 2 {
		return DefaultGrid, DefaultGrid
	}

	r, errR := strconv.Atoi(strings.TrimSpace(parts[0]))
	c, errC := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errR != nil || errC != nil {
		return DefaultGrid, DefaultGrid
	}
	return clampGrid(r), clampGrid(c)
}

func clampGrid(n int) int {
	return max(MinGrid, min(MaxGrid, n))
}

// BoardSize fits a board of the image's aspect ratio into the container.
// A zero aspect is treated as square.
func BoardSize(container geom.Size, aspect float64) geom.Size {
	if aspect <= 0 {
		aspect = 1
	}
	return geom.Fit(container.Width, container.Height, aspect)
}

// # State Machine

// Jigsaw is a sliding-swap puzzle: every slot holds exactly one piece, and placing a
// piece into a slot swaps it with the slot's occupant. Piece i belongs in slot i.
type Jigsaw struct {
	rows, cols int
	slots      []int // slot → piece
	moves      int
}

// NewJigsaw shuffles rows×cols pieces deterministically from seed.
// The initial arrangement is never already solved.
func NewJigsaw(rows, cols int, seed uint64) (*Jigsaw, error) {
	if rows < MinGrid || cols < MinGrid || rows > MaxGrid || cols > MaxGrid {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidGame, rows, cols)
	}

	count := rows * cols
	slots := make([]int, count)
	for i := range slots {
		slots[i] = i
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(count, func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })

	jigsaw := &Jigsaw{rows: rows, cols: cols, slots: slots}
	if jigsaw.Solved() {
		slots[0], slots[1] = slots[1], slots[0]
	}
	return jigsaw, nil
}

// Place moves piece into slot, swapping with the piece already there.
// Placing a piece onto its own slot is a no-op and does not count as a move.
func (jigsaw *Jigsaw) Place(piece, slot int) error {
	count := len(jigsaw.slots)
	if piece < 0 || piece >= count || slot < 0 || slot >= count {
		return fmt.Errorf("%w: piece %d slot %d", ErrOutOfRange, piece, slot)
	}

	from := jigsaw.SlotOf(piece)
	if from == slot {
		return nil
	}
	if jigsaw.Solved() {
		return fmt.Errorf("%w: puzzle already solved", ErrWrongState)
	}

	jigsaw.slots[from], jigsaw.slots[slot] = jigsaw.slots[slot], jigsaw.slots[from]
	jigsaw.moves++
	return nil
}

// SlotOf returns the slot currently holding piece.
func (jigsaw *Jigsaw) SlotOf(piece int) int {
	for slot, p := range jigsaw.slots {
		if p == piece {
			return slot
		}
	}
	return -1
}

// Solved reports whether every piece sits in its home slot.
func (jigsaw *Jigsaw) Solved() bool {
	for slot, p := range jigsaw.slots {
		if slot != p {
			return false
		}
	}
	return true
}

// Slots returns a copy of the slot → piece arrangement.
func (jigsaw *Jigsaw) Slots() []int { return append([]int(nil), jigsaw.slots...) }

func (jigsaw *Jigsaw) Moves() int { return jigsaw.moves }

func (jigsaw *Jigsaw) Grid() (rows, cols int) { return jigsaw.rows, jigsaw.cols }

// PieceRect is the drawing geometry of one piece on a board of a given size.
type PieceRect struct {
	Piece int
	Slot  int

	// Left/Top locate the slot on the board.
	Left, Top int

	// OffsetX/OffsetY shift the shared background image so the piece shows its own tile.
	OffsetX, OffsetY int

	Width, Height int
}

// Rects lays every piece out on a board of the given size, in slot order.
func (jigsaw *Jigsaw) Rects(board geom.Size) []PieceRect {
	pieceW := board.Width / jigsaw.cols
	pieceH := board.Height / jigsaw.rows

	rects := make([]PieceRect, 0, len(jigsaw.slots))
	for slot, piece := range jigsaw.slots {
		rects = append(rects, PieceRect{
			Piece:   piece,
			Slot:    slot,
			Left:    (slot % jigsaw.cols) * pieceW,
			Top:     (slot / jigsaw.cols) * pieceH,
			OffsetX: -(piece % jigsaw.cols) * pieceW,
			OffsetY: -(piece / jigsaw.cols) * pieceH,
			Width:   pieceW,
			Height:  pieceH,
		})
	}
	return rects
}
