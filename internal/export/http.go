// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package export

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	requestutil "github.com/dast-sv/lectoflip/internal/platform/request"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
)

// BookSource loads one of the owner's books with its pages.
type BookSource interface {
	GetBook(context context.Context, ownerID, id string) (*book.Book, error)
}

// Handler serves book downloads.
type Handler struct {
	books   BookSource
	builder *Builder
}

// NewHandler constructs an export [Handler].
func NewHandler(books BookSource, builder *Builder) *Handler {
	return &Handler{books: books, builder: builder}
}

// RegisterBookRoutes adds the export routes to a router mounted at /books.
func (handler *Handler) RegisterBookRoutes(router chi.Router) {
	router.Get("/{id}/export.epub", handler.exportEPUB)
}

/*
GET /api/v1/books/{id}/export.epub.

Response:
  - 200: application/epub+zip attachment named after the book slug
  - 404: Unknown, foreign or trashed book
*/
func (handler *Handler) exportEPUB(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	b, err := handler.books.GetBook(request.Context(), ownerID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if b.IsDeleted() {
		respond.Error(writer, request, apperr.NotFound("Book"))
		return
	}

	var document bytes.Buffer
	if err := handler.builder.EPUB(request.Context(), b, &document); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	filename := b.Slug
	if filename == "" {
		filename = "libro"
	}
	respond.Attachment(writer, constants.MimeEPUB, filename+".epub", document.Bytes())
}
