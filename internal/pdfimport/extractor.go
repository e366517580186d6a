// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
)

const (
	// DefaultMaxWidth caps the width of extracted page images.
	DefaultMaxWidth = 1400

	jpegQuality = 85
)

// Extractor rasterises PDF documents page by page into transient blobs.
type Extractor struct {
	rasterizer Rasterizer
	blobs      blob.Store
	maxWidth   int
	logger     *slog.Logger
}

// NewExtractor constructs an [Extractor]. A non-positive maxWidth selects [DefaultMaxWidth].
func NewExtractor(rasterizer Rasterizer, blobs blob.Store, maxWidth int, logger *slog.Logger) *Extractor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Extractor{rasterizer: rasterizer, blobs: blobs, maxWidth: maxWidth, logger: logger}
}

/*
Extract converts data into one image per page.

Description: Pages are processed strictly in order; page k+1 is rasterised only once
page k is stored. onProgress (optional) hears the page count first, then the
dimensions of the first page, then "current of total" after each page. On any failure
the partial batch is released before returning, so the caller owns nothing.

Parameters:
  - context: context.Context (checked between pages)
  - data: []byte (PDF contents)
  - onProgress: ProgressFunc

Returns:
  - *Result: Extracted pages and the [Batch] owning their URLs
  - error: ErrNotPDF, ErrEmptyDocument, ErrUnreadable or storage failures
*/
func (extractor *Extractor) Extract(context context.Context, data []byte, onProgress ProgressFunc) (*Result, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	// 1. Open
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	document, err := extractor.rasterizer.Open(data)
	if err != nil {
		if errors.Is(err, ErrUnreadable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() {
		if closeErr := document.Close(); closeErr != nil {
			extractor.logger.Warn("pdf_close_failed", slog.Any("error", closeErr))
		}
	}()

	// 2. Page count
	total := document.PageCount()
	if total <= 0 {
		return nil, ErrEmptyDocument
	}
	onProgress(Progress{Stage: StagePageCount, Total: total})

	result := &Result{
		Title:     document.Title(),
		PageCount: total,
		Extracted: make([]ExtractedPage, 0, total),
		Batch:     NewBatch(extractor.blobs),
	}

	// 3. Pages, sequentially
	for index := 0; index < total; index++ {
		extracted, err := extractor.extractPage(context, document, result.Batch, index)
		if err != nil {
			extractor.releaseOnFailure(result.Batch, index, err)
			return nil, err
		}

		if index == 0 {
			result.Width, result.Height = extracted.Width, extracted.Height
			onProgress(Progress{Stage: StageDimensions, Total: total, Width: result.Width, Height: result.Height})
		}

		result.Extracted = append(result.Extracted, *extracted)
		onProgress(Progress{Stage: StagePage, Current: index + 1, Total: total})
	}

	return result, nil
}

func (extractor *Extractor) extractPage(context context.Context, document Document, batch *Batch, index int) (*ExtractedPage, error) {
	if err := context.Err(); err != nil {
		return nil, err
	}

	raster, err := document.Render(index)
	if err != nil {
		return nil, err
	}
	raster = extractor.downscale(raster)

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, flatten(raster), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("pdfimport: encode page %d: %w", index+1, err)
	}

	url, err := extractor.blobs.Put(context, encoded.Bytes(), constants.MimeJPEG)
	if err != nil {
		return nil, fmt.Errorf("pdfimport: store page %d: %w", index+1, err)
	}
	if err := batch.Track(context, url); err != nil {
		return nil, err
	}

	bounds := raster.Bounds()
	return &ExtractedPage{
		Number:        index + 1,
		ImageURL:      url,
		BackgroundURL: url,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}, nil
}

// downscale shrinks rasters wider than the configured maximum, preserving aspect.
func (extractor *Extractor) downscale(source image.Image) image.Image {
	bounds := source.Bounds()
	if bounds.Dx() <= extractor.maxWidth || bounds.Dx() == 0 {
		return source
	}

	height := bounds.Dy() * extractor.maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}

	target := image.NewRGBA(image.Rect(0, 0, extractor.maxWidth, height))
	draw.CatmullRom.Scale(target, target.Bounds(), source, bounds, draw.Src, nil)
	return target
}

// flatten paints the raster on white; JPEG has no alpha channel.
func flatten(source image.Image) image.Image {
	bounds := source.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), source, bounds.Min, draw.Over)
	return canvas
}

func (extractor *Extractor) releaseOnFailure(batch *Batch, index int, cause error) {
	extractor.logger.Warn("pdf_extraction_failed",
		slog.Int("page", index+1),
		slog.Int("released", batch.Len()),
		slog.Any("error", cause),
	)

	// The request context may already be cancelled; revocation must still run.
	if err := batch.Release(context.Background()); err != nil {
		extractor.logger.Error("pdf_batch_release_failed", slog.Any("error", err))
	}
}
