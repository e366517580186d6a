// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package page defines the canonical in-memory representation of one book page.

Every other flipbook component (layout strategies, the page renderer, the flip
viewport, the PDF importer and the book store) exchanges this value type.

Core Responsibility:

  - Layout: A closed enumeration of [LayoutID] values selecting a rendering strategy.
  - Content: Optional rich-text title/text, image, background, font, border and animation tokens.
  - Decoding: Structural validation of incoming JSON (a non-string layout is rejected).
*/
package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// # Layout Identifiers

// LayoutID selects the rendering strategy of a [Page].
type LayoutID string

const (
	LayoutCover               LayoutID = "CoverLayout"
	LayoutTextCenter          LayoutID = "TextCenterLayout"
	LayoutImageFull           LayoutID = "ImageFullLayout"
	LayoutImageLeftTextRight  LayoutID = "ImageLeftTextRightLayout"
	LayoutTextLeftImageRight  LayoutID = "TextLeftImageRightLayout"
	LayoutSplitTopBottom      LayoutID = "SplitTopBottomLayout"
	LayoutCenterImageDownText LayoutID = "CenterImageDownTextLayout"
	LayoutInteractive         LayoutID = "InteractiveLayout"
)

// DefaultLayout is used when a page carries an unknown or empty layout identifier.
const DefaultLayout = LayoutTextCenter

// # Content Defaults

const (
	// DefaultBackground is the neutral white palette entry.
	DefaultBackground = "blanco"

	// DefaultBorder renders pages without rounded corners.
	DefaultBorder = "square"
)

// # Errors

var (
	// ErrNilPage is returned when a renderer receives no page at all.
	ErrNilPage = errors.New("page: nil page")

	// ErrInvalidPage is returned when a page payload is structurally invalid
	// (e.g. the layout field is not a string).
	ErrInvalidPage = errors.New("page: structurally invalid page")
)

// # Page Entity

// Page is one unit of book content.
//
// Title and Text hold author-supplied markup. They are treated as untrusted and
// sanitised both when a book is saved and when a page is rendered.
type Page struct {
	Layout          string   `json:"layout"`
	Title           string   `json:"title,omitempty"`
	Text            string   `json:"text,omitempty"`
	Image           string   `json:"image,omitempty"`
	Background      string   `json:"background,omitempty"`
	Font            string   `json:"font,omitempty"`
	Border          string   `json:"border,omitempty"`
	Animation       string   `json:"animation,omitempty"`
	InteractiveGame string   `json:"interactiveGame,omitempty"`
	Items           []string `json:"items,omitempty"`
}

// ImagePage builds the image-backed page shape produced by PDF imports.
func ImagePage(imageURL string) Page {
	return Page{
		Layout:     string(LayoutImageFull),
		Image:      imageURL,
		Background: DefaultBackground,
	}
}

// Clone returns a deep copy so that callers never share the Items backing array.
func (p Page) Clone() Page {
	clone := p
	if p.Items != nil {
		clone.Items = append([]string(nil), p.Items...)
	}
	return clone
}

// HasTitle reports whether the page carries a non-blank title.
func (p Page) HasTitle() bool { return strings.TrimSpace(p.Title) != "" }

// HasText reports whether the page carries non-blank body text.
func (p Page) HasText() bool { return strings.TrimSpace(p.Text) != "" }

// HasImage reports whether the page references an image.
func (p Page) HasImage() bool { return strings.TrimSpace(p.Image) != "" }

// HasItems reports whether the page carries at least one selectable entry.
func (p Page) HasItems() bool { return len(p.Items) > 0 }

// BackgroundOrDefault returns the background token, defaulting to "blanco".
func (p Page) BackgroundOrDefault() string {
	if strings.TrimSpace(p.Background) == "" {
		return DefaultBackground
	}
	return p.Background
}

// BorderOrDefault returns the border token, defaulting to "square".
func (p Page) BorderOrDefault() string {
	if strings.TrimSpace(p.Border) == "" {
		return DefaultBorder
	}
	return p.Border
}

// # Decoding

// Decode parses a single page from JSON.
//
// Any structural mismatch (a layout that is not a string, items that are not a list
// of strings, malformed JSON) is reported as [ErrInvalidPage].
func Decode(raw []byte) (Page, error) {
	var p Page
	if err := json.Unmarshal(raw, &p); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	return p, nil
}

// DecodeList parses an ordered list of pages from JSON.
func DecodeList(raw []byte) ([]Page, error) {
	var pages []Page
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	return pages, nil
}
