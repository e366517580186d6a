// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport_test

import (
	"context"
	"image"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
)

/*
TestValidateUpload checks that each rejection carries its own status.
*/
func TestValidateUpload(t *testing.T) {
	const max = 1 << 20

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		status      int
	}{
		{"valid_pdf", "cuento.pdf", "application/pdf", samplePDF, 0},
		{"valid_by_extension", "cuento.PDF", "", samplePDF, 0},
		{"octet_stream_with_pdf_extension", "cuento.pdf", "application/octet-stream", samplePDF, 0},
		{"image_type", "foto.png", "image/png", []byte("\x89PNG"), http.StatusUnsupportedMediaType},
		{"renamed_text_file", "notas.pdf", "application/pdf", []byte("hello"), http.StatusUnsupportedMediaType},
		{"too_large", "grande.pdf", "application/pdf", make([]byte, max+1), http.StatusRequestEntityTooLarge},
		{"empty", "vacio.pdf", "application/pdf", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pdfimport.ValidateUpload(tt.filename, tt.contentType, tt.data, max)
			if tt.status == 0 {
				assert.NoError(t, err)
				return
			}
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, tt.status, appError.HTTPStatus)
		})
	}
}

/*
TestExtract_ThreePages covers the import contract: page count first, dimensions after the
first raster, then one progress event per page, and image pages on the default background.
*/
func TestExtract_ThreePages(t *testing.T) {
	store := newCountingStore()
	rasterizer := &fakeRasterizer{pages: 3, size: image.Pt(60, 80), title: "El bosque"}
	extractor := pdfimport.NewExtractor(rasterizer, store, 0, discardLogger())

	var events []pdfimport.Progress
	result, err := extractor.Extract(context.Background(), samplePDF, func(progress pdfimport.Progress) {
		events = append(events, progress)
	})
	require.NoError(t, err)

	require.Len(t, events, 5)
	assert.Equal(t, pdfimport.Progress{Stage: pdfimport.StagePageCount, Total: 3}, events[0])
	assert.Equal(t, pdfimport.StageDimensions, events[1].Stage)
	assert.Equal(t, 60, events[1].Width)
	assert.Equal(t, 80, events[1].Height)
	for i, event := range events[2:] {
		assert.Equal(t, pdfimport.StagePage, event.Stage)
		assert.Equal(t, i+1, event.Current)
		assert.Equal(t, 3, event.Total)
	}

	assert.Equal(t, "El bosque", result.Title)
	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, 3, result.Batch.Len())

	pages := result.Pages()
	require.Len(t, pages, 3)
	for _, p := range pages {
		assert.Equal(t, string(page.LayoutImageFull), p.Layout)
		assert.NotEmpty(t, p.Image)
		assert.Equal(t, "blanco", p.Background)
	}

	// Every page image is a live JPEG blob.
	id, ok := blob.ParseURL(result.Extracted[0].ImageURL)
	require.True(t, ok)
	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", stored.ContentType)
}

func TestExtract_DownscalesWidePages(t *testing.T) {
	store := newCountingStore()
	rasterizer := &fakeRasterizer{pages: 2, size: image.Pt(400, 200)}
	extractor := pdfimport.NewExtractor(rasterizer, store, 100, discardLogger())

	result, err := extractor.Extract(context.Background(), samplePDF, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 50, result.Height)
	assert.Equal(t, 100, result.Extracted[1].Width)
}

/*
TestExtract_FailureReleasesPartialBatch checks that a broken page leaves nothing behind.
*/
func TestExtract_FailureReleasesPartialBatch(t *testing.T) {
	store := newCountingStore()
	rasterizer := &fakeRasterizer{pages: 4, size: image.Pt(10, 10), failAt: 3}
	extractor := pdfimport.NewExtractor(rasterizer, store, 0, discardLogger())

	result, err := extractor.Extract(context.Background(), samplePDF, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBrokenPage)
	assert.Nil(t, result)

	assert.Equal(t, 2, store.totalRevokes())
	assert.Equal(t, 0, store.Len())
}

func TestExtract_RejectsBadInput(t *testing.T) {
	store := newCountingStore()

	_, err := pdfimport.NewExtractor(&fakeRasterizer{pages: 1, size: image.Pt(1, 1)}, store, 0, discardLogger()).
		Extract(context.Background(), []byte("not a pdf"), nil)
	assert.ErrorIs(t, err, pdfimport.ErrNotPDF)

	_, err = pdfimport.NewExtractor(&fakeRasterizer{pages: 0}, store, 0, discardLogger()).
		Extract(context.Background(), samplePDF, nil)
	assert.ErrorIs(t, err, pdfimport.ErrEmptyDocument)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "mi cuento final", pdfimport.TitleFromFilename("/tmp/mi_cuento-final.pdf"))
	assert.Equal(t, "Untitled", pdfimport.TitleFromFilename(".pdf"))
}
