// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/pkg/pagination"
	"github.com/dast-sv/lectoflip/pkg/pointer"
)

var firstPage = pagination.Params{Page: 1, Limit: 20}

// requireFieldError asserts a 400 carrying a detail for field.
func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	var fields []string
	for _, detail := range appErr.Details {
		fields = append(fields, detail.Field)
	}
	assert.Contains(t, fields, field)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

/*
TestService_CreateBook_RejectsInvalidPages covers the authoring-time checks.

Rendering tolerates all of these; saving refuses them so the author gets the error.
*/
func TestService_CreateBook_RejectsInvalidPages(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(b *book.Book)
		field string
	}{
		{"missing title", func(b *book.Book) { b.Title = "  " }, "title"},
		{"no pages", func(b *book.Book) { b.Pages = nil }, "pages"},
		{"unknown layout", func(b *book.Book) { b.Pages[1].Layout = "PosterLayout" }, "pages[1].layout"},
		{"cover after page one", func(b *book.Book) { b.Pages[1].Layout = string(page.LayoutCover) }, "pages[1].layout"},
		{"unsaved blob image", func(b *book.Book) { b.Pages[0].Image = "blob:http://localhost/blobs/x" }, "pages[0].image"},
		{"relative image", func(b *book.Book) { b.Pages[0].Image = "cover.jpg" }, "pages[0].image"},
		{"unknown background", func(b *book.Book) { b.Pages[1].Background = "fucsia" }, "pages[1].background"},
		{"unknown border", func(b *book.Book) { b.Pages[1].Border = "zigzag" }, "pages[1].border"},
		{"unknown font", func(b *book.Book) { b.Pages[1].Font = "gothic" }, "pages[1].font"},
		{"unknown animation", func(b *book.Book) { b.Pages[1].Animation = "spin" }, "pages[1].animation"},
		{"unknown reading level", func(b *book.Book) { b.ReadingLevel = "doctorado" }, "readingLevel"},
		{"quiz with one option", func(b *book.Book) {
			b.Pages[1] = page.Page{Layout: string(page.LayoutInteractive), InteractiveGame: "quiz", Items: []string{"*Sí"}}
		}, "pages[1].interactiveGame"},
		{"jigsaw without image", func(b *book.Book) {
			b.Pages[1] = page.Page{Layout: string(page.LayoutInteractive), InteractiveGame: "jigsaw"}
		}, "pages[1].interactiveGame"},
		{"unknown game", func(b *book.Book) {
			b.Pages[1] = page.Page{Layout: string(page.LayoutInteractive), InteractiveGame: "memory"}
		}, "pages[1].interactiveGame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newServiceFixture(t)
			input := validBook()
			tt.edit(input)

			_, err := fixture.service.CreateBook(context.Background(), owner, input)
			requireFieldError(t, err, tt.field)
			assert.Empty(t, fixture.repo.books)
		})
	}
}

func TestService_CreateBook_Normalizes(t *testing.T) {
	fixture := newServiceFixture(t)
	input := validBook()
	input.Title = "  ¡Mi Primer Libro!  "
	input.Tags = []string{" animales ", "", "animales", "<b>mar</b>"}
	input.Pages[1].Text = `<p onclick="x()">Hola <script>alert(1)</script><strong>mundo</strong></p>`
	input.Pages = append(input.Pages, page.Page{
		Layout:          string(page.LayoutInteractive),
		Title:           "¿Qué animal ladra?",
		InteractiveGame: "quiz",
		Items:           []string{"Gato", "*Perro", "  "},
	})

	created, err := fixture.service.CreateBook(context.Background(), owner, input)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, "¡Mi Primer Libro!", created.Title)
	assert.Equal(t, "mi-primer-libro", created.Slug)
	assert.Equal(t, []string{"animales", "mar"}, created.Tags)

	text := created.Pages[1].Text
	assert.NotContains(t, text, "script")
	assert.NotContains(t, text, "onclick")
	assert.Contains(t, text, "<strong>mundo</strong>")

	assert.Equal(t, page.DefaultBackground, created.Pages[1].Background)
	assert.Equal(t, page.DefaultBorder, created.Pages[1].Border)
	assert.Equal(t, []string{"Gato", "*Perro"}, created.Pages[2].Items)

	stored, err := fixture.service.GetBook(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Pages, 3)
}

func TestService_GetBook_HidesOtherOwners(t *testing.T) {
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(context.Background(), owner, validBook())
	require.NoError(t, err)

	_, err = fixture.service.GetBook(context.Background(), stranger, created.ID)
	requireStatus(t, err, http.StatusNotFound)

	_, err = fixture.service.ReplacePages(context.Background(), stranger, created.ID, validBook().Pages)
	requireStatus(t, err, http.StatusNotFound)
}

/*
TestService_UpdateMetadata covers partial patches, re-slugging and validation.
*/
func TestService_UpdateMetadata(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	updated, err := fixture.service.UpdateMetadata(ctx, owner, created.ID, book.Metadata{
		Title:   pointer.To("  El Búho Sabio "),
		Authors: pointer.To([]string{" Ana ", "", "Luis"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "El Búho Sabio", updated.Title)
	assert.Equal(t, "el-buho-sabio", updated.Slug)
	assert.Equal(t, []string{"Ana", "Luis"}, updated.Authors)
	assert.Equal(t, created.Description, updated.Description)

	_, err = fixture.service.UpdateMetadata(ctx, owner, created.ID, book.Metadata{Title: pointer.To(" ")})
	requireFieldError(t, err, book.FieldTitle)

	_, err = fixture.service.UpdateMetadata(ctx, owner, created.ID, book.Metadata{ReadingLevel: pointer.To("doctorado")})
	requireFieldError(t, err, book.FieldReadingLevel)
}

func TestService_PageEditing(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	// Append
	appended, err := fixture.service.AppendPages(ctx, owner, created.ID, []page.Page{
		{Layout: string(page.LayoutImageFull), Image: "https://cdn.example.com/3.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, appended.PageCount)

	_, err = fixture.service.AppendPages(ctx, owner, created.ID, []page.Page{{Layout: string(page.LayoutCover)}})
	requireFieldError(t, err, "pages[3].layout")

	// Update
	updated, err := fixture.service.UpdatePage(ctx, owner, created.ID, 2, page.Page{
		Layout: string(page.LayoutSplitTopBottom), Text: "Fin", Animation: "fadeIn",
	})
	require.NoError(t, err)
	assert.Equal(t, "fadeIn", updated.Pages[1].Animation)

	_, err = fixture.service.UpdatePage(ctx, owner, created.ID, 9, page.Page{Layout: string(page.LayoutTextCenter)})
	requireStatus(t, err, http.StatusNotFound)

	// Remove
	require.NoError(t, fixture.service.RemovePage(ctx, owner, created.ID, 2))
	stored, err := fixture.service.GetBook(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Pages, 2)
	assert.Equal(t, string(page.LayoutImageFull), stored.Pages[1].Layout)

	// Replace
	replaced, err := fixture.service.ReplacePages(ctx, owner, created.ID, []page.Page{{Layout: string(page.LayoutTextCenter), Text: "Solo"}})
	require.NoError(t, err)
	assert.Equal(t, 1, replaced.PageCount)

	err = fixture.service.RemovePage(ctx, owner, created.ID, 1)
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

/*
TestService_SaveImport_ThreePages saves an extracted three-page PDF as a new book.

Every page becomes an image-backed page with a permanent URL, the first page doubles
as the cover and the source PDF is kept.
*/
func TestService_SaveImport_ThreePages(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	image := pngBytes(t)

	draft := &pdfimport.Draft{
		Title:    "Cuento importado",
		Filename: "cuento.pdf",
		Source:   []byte("%PDF-1.7\n% sample\n"),
	}
	for i := 0; i < 3; i++ {
		draft.Pages = append(draft.Pages, pdfimport.DraftPage{
			Page:        page.ImagePage("blob:http://localhost:8080/blobs/page"),
			Image:       image,
			ContentType: "image/png",
		})
	}

	bookID, err := fixture.service.SaveImport(ctx, owner, draft)
	require.NoError(t, err)

	saved, err := fixture.service.GetBook(ctx, owner, bookID)
	require.NoError(t, err)
	require.Len(t, saved.Pages, 3)

	for i, p := range saved.Pages {
		assert.Equal(t, string(page.LayoutImageFull), p.Layout)
		assert.True(t, strings.HasPrefix(p.Image, "http://localhost:8080/files/"+owner+"/"+bookID+"/page-00"), p.Image)
		assert.Contains(t, p.Image, []string{"page-001", "page-002", "page-003"}[i])
	}
	assert.Equal(t, saved.Pages[0].Image, saved.CoverURL)
	assert.True(t, strings.HasSuffix(saved.PDFURL, ".pdf"))
	assert.Equal(t, "cuento-importado", saved.Slug)

	entries, err := os.ReadDir(filepath.Join(fixture.root, owner, bookID))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestService_SaveImport_AppendsToExistingBook(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	draft := &pdfimport.Draft{
		BookID: created.ID,
		Pages:  []pdfimport.DraftPage{{Page: page.ImagePage(""), Image: pngBytes(t)}},
	}

	bookID, err := fixture.service.SaveImport(ctx, owner, draft)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bookID)

	stored, err := fixture.service.GetBook(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Pages, 3)
	assert.Contains(t, stored.Pages[2].Image, "page-003")
	assert.Equal(t, "https://cdn.example.com/cover.jpg", stored.Pages[0].Image)
}

func TestService_SaveImport_CleansUpFiles(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.repo.createErr = errors.New("database offline")

	draft := &pdfimport.Draft{
		Title: "Roto",
		Pages: []pdfimport.DraftPage{{Page: page.ImagePage(""), Image: pngBytes(t)}},
	}

	_, err := fixture.service.SaveImport(context.Background(), owner, draft)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(fixture.root, owner))
	if err == nil {
		assert.Empty(t, entries)
	} else {
		assert.True(t, os.IsNotExist(err))
	}
}

/*
TestService_SaveImport_AppendFailureRemovesUploads checks that a failed append leaves
only the files the book still references. The book's second page already points at a
page-003 object with the same content the draft carries, so that key must survive.
*/
func TestService_SaveImport_AppendFailureRemovesUploads(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)

	input := validBook()
	input.Pages = append(input.Pages, page.Page{Layout: string(page.LayoutTextCenter), Text: "Fin"})
	created, err := fixture.service.CreateBook(ctx, owner, input)
	require.NoError(t, err)
	_, err = fixture.service.UploadPageImage(ctx, owner, created.ID, 3, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	require.NoError(t, fixture.service.RemovePage(ctx, owner, created.ID, 2))

	directory := filepath.Join(fixture.root, owner, created.ID)
	before, err := os.ReadDir(directory)
	require.NoError(t, err)
	require.Len(t, before, 1)

	tests := []struct {
		name      string
		appendErr error
		images    [][]byte
	}{
		{"repository failure", errors.New("database offline"), [][]byte{pngBytes(t), pngSized(t, 6, 5)}},
		{"storage failure", nil, [][]byte{pngSized(t, 7, 7), []byte("plain text")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture.repo.appendErr = tt.appendErr
			t.Cleanup(func() { fixture.repo.appendErr = nil })

			draft := &pdfimport.Draft{BookID: created.ID}
			for _, data := range tt.images {
				draft.Pages = append(draft.Pages, pdfimport.DraftPage{Page: page.ImagePage(""), Image: data})
			}
			_, err := fixture.service.SaveImport(ctx, owner, draft)
			require.Error(t, err)

			after, err := os.ReadDir(directory)
			require.NoError(t, err)
			require.Len(t, after, 1)
			assert.Equal(t, before[0].Name(), after[0].Name())

			stored, err := fixture.service.GetBook(ctx, owner, created.ID)
			require.NoError(t, err)
			require.Len(t, stored.Pages, 2)
			assert.Contains(t, stored.Pages[1].Image, before[0].Name())
		})
	}
}

func TestService_SaveImport_RejectsNonImages(t *testing.T) {
	fixture := newServiceFixture(t)
	draft := &pdfimport.Draft{
		Title: "Texto",
		Pages: []pdfimport.DraftPage{{Page: page.ImagePage(""), Image: []byte("plain text")}},
	}

	_, err := fixture.service.SaveImport(context.Background(), owner, draft)
	requireStatus(t, err, http.StatusUnsupportedMediaType)
	assert.Empty(t, fixture.repo.books)
}

/*
TestService_TrashLifecycle walks soft delete, trash listing, restore and purge.
*/
func TestService_TrashLifecycle(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	_, err = fixture.service.UploadCover(ctx, owner, created.ID, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)

	// Purge refuses active books.
	requireStatus(t, fixture.service.PurgeBook(ctx, owner, created.ID), http.StatusConflict)

	require.NoError(t, fixture.service.DeleteBook(ctx, owner, created.ID))

	active, total, err := fixture.service.ListBooks(ctx, owner, firstPage)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, active)

	trashed, total, err := fixture.service.ListTrash(ctx, owner, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, created.ID, trashed[0].ID)

	// Trashed books stay readable but not editable.
	stored, err := fixture.service.GetBook(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted())
	_, err = fixture.service.ReplacePages(ctx, owner, created.ID, validBook().Pages)
	requireStatus(t, err, http.StatusConflict)

	restored, err := fixture.service.RestoreBook(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Len(t, restored.Pages, 2)

	_, err = fixture.service.RestoreBook(ctx, owner, created.ID)
	requireStatus(t, err, http.StatusConflict)

	// Purge removes the row and the stored files.
	require.NoError(t, fixture.service.DeleteBook(ctx, owner, created.ID))
	require.NoError(t, fixture.service.PurgeBook(ctx, owner, created.ID))

	_, err = fixture.service.GetBook(ctx, owner, created.ID)
	requireStatus(t, err, http.StatusNotFound)
	_, err = os.Stat(filepath.Join(fixture.root, owner, created.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)

	old, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)
	recent, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)
	kept, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	fixture.repo.now = func() time.Time { return time.Now().Add(-40 * 24 * time.Hour) }
	require.NoError(t, fixture.service.DeleteBook(ctx, owner, old.ID))
	fixture.repo.now = time.Now
	require.NoError(t, fixture.service.DeleteBook(ctx, owner, recent.ID))

	purged, err := fixture.service.PurgeExpired(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	assert.NotContains(t, fixture.repo.books, old.ID)
	assert.Contains(t, fixture.repo.books, recent.ID)
	assert.Contains(t, fixture.repo.books, kept.ID)
}

func TestService_UploadPageImage(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	created, err := fixture.service.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	updated, err := fixture.service.UploadPageImage(ctx, owner, created.ID, 2, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Contains(t, updated.Pages[1].Image, "/files/"+owner+"/"+created.ID+"/page-002-")

	_, err = fixture.service.UploadPageImage(ctx, owner, created.ID, 2, strings.NewReader("not an image"))
	requireStatus(t, err, http.StatusUnsupportedMediaType)

	_, err = fixture.service.UploadPageImage(ctx, owner, created.ID, 5, bytes.NewReader(pngBytes(t)))
	requireStatus(t, err, http.StatusNotFound)
}
