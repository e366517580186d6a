// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pdfimport converts an uploaded PDF into an ordered list of image-backed pages.

The same pipeline feeds every flow that starts from a PDF: creating a book, appending
pages to a book under edit, and previewing a document before it is saved.

# Pipeline

 1. [ValidateUpload] rejects non-PDF files and files over the size ceiling.
 2. [Extractor] rasterises every page in order, storing each image as a transient blob.
 3. [Jobs] tracks the extraction state and owns the resulting [Batch] of blob URLs.
 4. [Handler] exposes the jobs over HTTP, including a flipbook preview and the final save.

Every blob URL created for a job is revoked exactly once: on reset, replacement,
discard, successful save, expiry, or shutdown.
*/
package pdfimport

import (
	"errors"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
)

// # Errors

var (
	// ErrNotPDF is returned when the uploaded bytes are not a PDF document.
	ErrNotPDF = errors.New("pdfimport: not a pdf document")

	// ErrEmptyDocument is returned for PDFs without a single page.
	ErrEmptyDocument = errors.New("pdfimport: document has no pages")

	// ErrUnreadable wraps rasteriser failures on corrupt documents.
	ErrUnreadable = errors.New("pdfimport: unreadable document")
)

// # Extraction Output

// ExtractedPage is the transient precursor of a persisted page.
type ExtractedPage struct {
	Number        int    `json:"number"`
	ImageURL      string `json:"imageUrl"`
	BackgroundURL string `json:"backgroundUrl"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// Result is the outcome of one successful extraction.
type Result struct {
	Title     string          `json:"title"`
	PageCount int             `json:"pageCount"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Extracted []ExtractedPage `json:"pages"`

	// Batch owns every blob URL referenced by Extracted.
	Batch *Batch `json:"-"`
}

// Pages converts the extracted images into full-bleed image pages on the default background.
func (result *Result) Pages() []page.Page {
	pages := make([]page.Page, 0, len(result.Extracted))
	for _, extracted := range result.Extracted {
		pages = append(pages, page.ImagePage(extracted.ImageURL))
	}
	return pages
}

// Size returns the measured page size of the document.
func (result *Result) Size() geom.Size {
	return geom.Size{Width: result.Width, Height: result.Height}
}

// # Progress

// Stage names one step of an extraction in progress.
type Stage string

const (
	// StagePageCount is reported once, as soon as the document is opened.
	StagePageCount Stage = "page_count"

	// StageDimensions is reported once, after the first page is rasterised.
	StageDimensions Stage = "dimensions"

	// StagePage is reported after each page ("current of total").
	StagePage Stage = "page"
)

// Progress describes how far an extraction has come.
type Progress struct {
	Stage   Stage `json:"stage"`
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Width   int   `json:"width,omitempty"`
	Height  int   `json:"height,omitempty"`
}

// ProgressFunc receives progress notifications. It runs on the extracting goroutine.
type ProgressFunc func(Progress)
