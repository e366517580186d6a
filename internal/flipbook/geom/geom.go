// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package geom holds the integer box arithmetic shared by the flip viewport and the
// mini-games: aspect-preserving fits and minimum clamps.
package geom

import "math"

// Size is a pixel box.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether either dimension is unset.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Aspect returns width/height, or 0 for a degenerate box.
func (s Size) Aspect() float64 {
	if s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Fit returns the largest box with the given aspect (width/height) that fits in
// maxWidth×maxHeight.
//
// Height is the first binding constraint: the box takes the full available height and
// derives its width. If that width overflows, width becomes the binding constraint and
// the height is derived from it instead. Both branches keep the aspect ratio.
func Fit(maxWidth, maxHeight int, aspect float64) Size {
	if maxWidth <= 0 || maxHeight <= 0 || aspect <= 0 {
		return Size{}
	}

	height := float64(maxHeight)
	width := height * aspect

	if width > float64(maxWidth) {
		width = float64(maxWidth)
		height = width / aspect
	}

	return Size{Width: int(math.Floor(width)), Height: int(math.Floor(height))}
}

// ClampMin grows s to at least min in both dimensions while keeping its aspect ratio.
func ClampMin(s Size, min Size) Size {
	if s.Width >= min.Width && s.Height >= min.Height {
		return s
	}

	aspect := s.Aspect()
	if aspect <= 0 {
		return min
	}

	// Scale up by whichever dimension is furthest below its minimum.
	scale := math.Max(float64(min.Width)/float64(s.Width), float64(min.Height)/float64(s.Height))
	return Size{
		Width:  int(math.Ceil(float64(s.Width) * scale)),
		Height: int(math.Ceil(float64(s.Height) * scale)),
	}
}
