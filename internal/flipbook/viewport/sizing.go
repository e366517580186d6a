// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package viewport

import (
	"math"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
)

// Mode is the paging presentation.
type Mode string

const (
	// ModeDesktop shows the cover alone, then two-page spreads.
	ModeDesktop Mode = "desktop"

	// ModeMobile shows a single page at a time ("portrait" mode).
	ModeMobile Mode = "mobile"
)

// Profile parameterises the book widget. The reader and the authoring preview share
// one viewport and differ only by profile.
type Profile struct {
	// Base is the preferred size of one page; only its aspect ratio matters.
	Base geom.Size

	// ReservedChrome is subtracted from the viewport height (toolbars, navigation).
	ReservedChrome int

	// ReservedMargin is subtracted from the viewport width.
	ReservedMargin int

	// Min keeps a desktop page from collapsing.
	Min geom.Size

	// MobileFraction of the viewport width is used in mobile mode, capped at MobileMaxWidth.
	MobileFraction float64
	MobileMaxWidth int

	// MobileBreakpoint is the viewport width below which mobile mode applies.
	MobileBreakpoint int
}

var (
	// ReaderProfile sizes the full-screen reader.
	ReaderProfile = Profile{
		Base:             geom.Size{Width: 600, Height: 700},
		ReservedChrome:   160,
		ReservedMargin:   80,
		Min:              geom.Size{Width: 300, Height: 390},
		MobileFraction:   0.85,
		MobileMaxWidth:   480,
		MobileBreakpoint: 768,
	}

	// PreviewProfile sizes the embedded import/edit preview. Its base is 3:4 until the
	// real page dimensions are known.
	PreviewProfile = Profile{
		Base:             geom.Size{Width: 300, Height: 400},
		ReservedChrome:   280,
		ReservedMargin:   160,
		Min:              geom.Size{Width: 300, Height: 390},
		MobileFraction:   0.85,
		MobileMaxWidth:   420,
		MobileBreakpoint: 768,
	}
)

// WithPageAspect returns a copy whose base page has the given dimensions.
// Non-positive sizes leave the profile unchanged.
func (profile Profile) WithPageAspect(width, height int) Profile {
	if width <= 0 || height <= 0 {
		return profile
	}
	profile.Base = geom.Size{Width: width, Height: height}
	return profile
}

// DetectMode chooses mobile below the profile's breakpoint.
func DetectMode(profile Profile, viewportWidth int) Mode {
	if viewportWidth < profile.MobileBreakpoint {
		return ModeMobile
	}
	return ModeDesktop
}

// DesktopSize returns the page size for a two-page spread that fits the viewport minus
// the reserved chrome and margin.
//
// Height binds first; when the derived spread width overflows, width binds instead. The
// aspect ratio is preserved in both branches and the result is clamped to the profile
// minimum.
func DesktopSize(profile Profile, viewportWidth, viewportHeight int) geom.Size {
	availableHeight := viewportHeight - profile.ReservedChrome
	availableWidth := (viewportWidth - profile.ReservedMargin) / 2

	size := geom.Fit(availableWidth, availableHeight, profile.Base.Aspect())
	if size.IsZero() {
		return profile.Min
	}
	return geom.ClampMin(size, profile.Min)
}

// MobileSize takes a fraction of the viewport width, capped at the profile maximum;
// the height follows from the base ratio.
func MobileSize(profile Profile, viewportWidth int) geom.Size {
	width := int(math.Floor(float64(viewportWidth) * profile.MobileFraction))
	if profile.MobileMaxWidth > 0 {
		width = min(width, profile.MobileMaxWidth)
	}

	aspect := profile.Base.Aspect()
	if width <= 0 || aspect <= 0 {
		return profile.Min
	}

	return geom.Size{
		Width:  width,
		Height: int(math.Floor(float64(width) / aspect)),
	}
}

// FitBox detects the mode for the viewport and sizes one page accordingly.
func FitBox(profile Profile, viewportWidth, viewportHeight int) (Mode, geom.Size) {
	mode := DetectMode(profile, viewportWidth)
	if mode == ModeMobile {
		return mode, MobileSize(profile, viewportWidth)
	}
	return mode, DesktopSize(profile, viewportWidth, viewportHeight)
}
