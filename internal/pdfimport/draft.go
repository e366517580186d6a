// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
)

// Saver persists a finished import. Implemented by the book service.
type Saver interface {

	/*
		SaveImport stores the draft as a new book, or appends it to draft.BookID.

		Returns:
		  - string: ID of the book that received the pages
		  - error: Validation, storage or persistence failures
	*/
	SaveImport(context context.Context, ownerID string, draft *Draft) (string, error)
}

// Draft is an extracted document with its page images loaded, ready to persist.
type Draft struct {
	BookID      string
	Title       string
	Description string
	Filename    string
	Source      []byte
	Pages       []DraftPage
}

// DraftPage pairs the page shape with the image bytes it will point at once stored.
type DraftPage struct {
	Page        page.Page
	Image       []byte
	ContentType string
}

// NewDraft loads every extracted image from blobs. The checkout stays owned by its job.
func NewDraft(context context.Context, blobs blob.Store, checkout *Checkout) (*Draft, error) {
	if checkout == nil || checkout.Result == nil {
		return nil, ErrJobNotReady
	}

	draft := &Draft{
		Title:    checkout.Result.Title,
		Filename: checkout.Filename,
		Source:   checkout.Source,
		Pages:    make([]DraftPage, 0, len(checkout.Result.Extracted)),
	}
	if draft.Title == "" {
		draft.Title = TitleFromFilename(checkout.Filename)
	}

	pages := checkout.Result.Pages()
	for index, extracted := range checkout.Result.Extracted {
		id, ok := blob.ParseURL(extracted.ImageURL)
		if !ok {
			return nil, fmt.Errorf("pdfimport: page %d has no blob url", extracted.Number)
		}
		stored, err := blobs.Get(context, id)
		if err != nil {
			return nil, fmt.Errorf("pdfimport: load page %d: %w", extracted.Number, err)
		}
		draft.Pages = append(draft.Pages, DraftPage{
			Page:        pages[index],
			Image:       stored.Data,
			ContentType: stored.ContentType,
		})
	}

	return draft, nil
}

// TitleFromFilename turns "mi_cuento-final.pdf" into "mi cuento final".
func TitleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	title := strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	}), " ")
	if title == "" {
		return "Untitled"
	}
	return title
}
