// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package book manages authored flipbooks: their metadata, their ordered pages and their
soft-delete lifecycle.

Core Responsibility:

  - Authoring: Books are created empty, from page lists, or from PDF imports.
  - Pages: Ordered [page.Page] records, validated loudly when saved.
  - Trash: Soft-deleted books stay restorable until the retention window purges them.

Pages are validated when saved (unknown layouts, a cover past page 1, or transient
blob images are rejected) and sanitised before storage. Rendering stays lenient on
top of that and degrades anything unexpected to defaults.
*/
package book

import (
	"time"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/pkg/pointer"
)

// # Field Names

const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldCoverURL     = "coverUrl"
	FieldPages        = "pages"
	FieldReadingLevel = "readingLevel"
	FieldAuthors      = "authors"
	FieldCategories   = "categories"
	FieldGenres       = "genres"
	FieldTags         = "tags"
	FieldValues       = "values"
	FieldPageNumber   = "pageNumber"
)

// # Limits

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
	MaxPageTextLen    = 20000
	MaxPages          = 500
	MaxListEntries    = 20
	MaxItems          = 12
)

// ReadingLevels is the closed set of audience levels.
var ReadingLevels = []string{"", "inicial", "primaria", "secundaria", "adulto"}

// # Entities

// Book is an authored flipbook.
type Book struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"ownerId"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description"`
	CoverURL     string      `json:"coverUrl"`
	PDFURL       string      `json:"pdfUrl"`
	Authors      []string    `json:"authors"`
	Categories   []string    `json:"categories"`
	Genres       []string    `json:"genres"`
	Tags         []string    `json:"tags"`
	Values       []string    `json:"values"`
	ReadingLevel string      `json:"readingLevel"`
	Pages        []page.Page `json:"pages,omitempty"`
	PageCount    int         `json:"pageCount"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	DeletedAt    *time.Time  `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the book is in the trash.
func (book *Book) IsDeleted() bool {
	return book.DeletedAt != nil
}

// Metadata is a partial update. Nil fields are left unchanged.
type Metadata struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	CoverURL     *string   `json:"coverUrl"`
	Authors      *[]string `json:"authors"`
	Categories   *[]string `json:"categories"`
	Genres       *[]string `json:"genres"`
	Tags         *[]string `json:"tags"`
	Values       *[]string `json:"values"`
	ReadingLevel *string   `json:"readingLevel"`
}

// Apply copies the set fields of patch onto book.
func (patch Metadata) Apply(book *Book) {
	book.Title = pointer.Fallback(patch.Title, book.Title)
	book.Description = pointer.Fallback(patch.Description, book.Description)
	book.CoverURL = pointer.Fallback(patch.CoverURL, book.CoverURL)
	book.Authors = pointer.Fallback(patch.Authors, book.Authors)
	book.Categories = pointer.Fallback(patch.Categories, book.Categories)
	book.Genres = pointer.Fallback(patch.Genres, book.Genres)
	book.Tags = pointer.Fallback(patch.Tags, book.Tags)
	book.Values = pointer.Fallback(patch.Values, book.Values)
	book.ReadingLevel = pointer.Fallback(patch.ReadingLevel, book.ReadingLevel)
}

// Expired identifies a trashed book whose retention window has passed.
type Expired struct {
	ID      string
	OwnerID string
}
