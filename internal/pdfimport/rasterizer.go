// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
)

// # Rasterisation Contracts

// Document is an opened PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Title returns the document title from its metadata, or "".
	Title() string

	// PageSize returns the size of page index (0-based) in points.
	PageSize(index int) (geom.Size, error)

	// Render rasterises page index (0-based).
	Render(index int) (image.Image, error)

	Close() error
}

// Rasterizer opens PDF documents.
type Rasterizer interface {
	Open(data []byte) (Document, error)
}

// # MuPDF Implementation

// DefaultDPI balances legibility of scanned text against image weight.
const DefaultDPI = 110.0

// FitzRasterizer renders pages with MuPDF through go-fitz.
type FitzRasterizer struct {
	dpi float64
}

// NewFitzRasterizer constructs a [FitzRasterizer]. A non-positive dpi selects [DefaultDPI].
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{dpi: dpi}
}

func (rasterizer *FitzRasterizer) Open(data []byte) (Document, error) {
	document, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &fitzDocument{document: document, dpi: rasterizer.dpi}, nil
}

// fitzDocument serialises access: a MuPDF context is not safe for concurrent use.
type fitzDocument struct {
	mu       sync.Mutex
	document *fitz.Document
	dpi      float64
}

func (document *fitzDocument) PageCount() int {
	document.mu.Lock()
	defer document.mu.Unlock()
	return document.document.NumPage()
}

func (document *fitzDocument) Title() string {
	document.mu.Lock()
	defer document.mu.Unlock()
	return strings.TrimSpace(document.document.Metadata()["title"])
}

func (document *fitzDocument) PageSize(index int) (geom.Size, error) {
	document.mu.Lock()
	defer document.mu.Unlock()

	bounds, err := document.document.Bound(index)
	if err != nil {
		return geom.Size{}, fmt.Errorf("%w: page %d: %v", ErrUnreadable, index+1, err)
	}
	return geom.Size{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func (document *fitzDocument) Render(index int) (image.Image, error) {
	document.mu.Lock()
	defer document.mu.Unlock()

	raster, err := document.document.ImageDPI(index, document.dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, index+1, err)
	}
	return raster, nil
}

func (document *fitzDocument) Close() error {
	document.mu.Lock()
	defer document.mu.Unlock()
	return document.document.Close()
}
