// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	requestutil "github.com/dast-sv/lectoflip/internal/platform/request"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
	"github.com/dast-sv/lectoflip/internal/platform/validate"
	"github.com/dast-sv/lectoflip/pkg/pagination"
)

// FormFieldImage is the multipart field carrying cover and page images.
const FormFieldImage = "image"

// # Handler Implementation

// Handler exposes the authoring API. Every route acts on the authenticated user's books.
type Handler struct {
	service *Service
}

// NewHandler constructs a book [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a standalone book router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

// RegisterRoutes adds the authoring routes to a router mounted at /books.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listBooks)
	router.Post("/", handler.createBook)
	router.Get("/trash", handler.listTrash)

	router.Get("/{id}", handler.getBook)
	router.Patch("/{id}", handler.updateMetadata)
	router.Delete("/{id}", handler.deleteBook)
	router.Post("/{id}/restore", handler.restoreBook)
	router.Delete("/{id}/purge", handler.purgeBook)
	router.Post("/{id}/cover", handler.uploadCover)

	// Pages
	router.Put("/{id}/pages", handler.replacePages)
	router.Post("/{id}/pages", handler.appendPages)
	router.Patch("/{id}/pages/{number}", handler.updatePage)
	router.Delete("/{id}/pages/{number}", handler.removePage)
	router.Post("/{id}/pages/{number}/image", handler.uploadPageImage)
}

// # Lookups

/*
GET /api/v1/books.

Description: Lists the caller's active books, newest first. Pages are omitted.

Response:
  - 200: []Book with pagination meta
*/
func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	books, total, err := handler.service.ListBooks(request.Context(), ownerID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/books/trash.

Description: Lists the caller's soft-deleted books, most recently deleted first.
*/
func (handler *Handler) listTrash(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	books, total, err := handler.service.ListTrash(request.Context(), ownerID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/books/{id}.

Response:
  - 200: Book with pages (deletedAt set when trashed)
  - 404: ErrNotFound
*/
func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.GetBook(request.Context(), ownerID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

// # Authoring

/*
POST /api/v1/books.

Request:
  - Body: Book (title and pages required)

Response:
  - 201: Book
  - 400: ErrInvalidJSON / ValidationError with per-page details
*/
func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Book
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.CreateBook(request.Context(), ownerID, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, book)
}

/*
PATCH /api/v1/books/{id}.

Request:
  - Body: Metadata (absent fields are left unchanged)
*/
func (handler *Handler) updateMetadata(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Metadata
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UpdateMetadata(request.Context(), ownerID, requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
PUT /api/v1/books/{id}/pages.

Description: The editor's save. Replaces every page in one transaction.

Request:
  - Body: []Page

Response:
  - 200: Book
  - 400: ValidationError (unknown layout, cover past page 1, unsaved blob image...)
  - 409: Book is in the trash
*/
func (handler *Handler) replacePages(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var pages []page.Page
	if err := requestutil.DecodeJSON(request, &pages); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.ReplacePages(request.Context(), ownerID, requestutil.ID(request, "id"), pages)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
POST /api/v1/books/{id}/pages.

Description: Appends pages after the current last page.
*/
func (handler *Handler) appendPages(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var pages []page.Page
	if err := requestutil.DecodeJSON(request, &pages); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.AppendPages(request.Context(), ownerID, requestutil.ID(request, "id"), pages)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, book)
}

/*
PATCH /api/v1/books/{id}/pages/{number}.

Request:
  - Body: Page (replaces the page at the 1-based number)
*/
func (handler *Handler) updatePage(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	number, err := pageNumber(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var p page.Page
	if err := requestutil.DecodeJSON(request, &p); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UpdatePage(request.Context(), ownerID, requestutil.ID(request, "id"), number, p)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
DELETE /api/v1/books/{id}/pages/{number}.

Description: Removes a page; later pages move up by one.

Response:
  - 204: No Content
  - 422: Removing the only page
*/
func (handler *Handler) removePage(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	number, err := pageNumber(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RemovePage(request.Context(), ownerID, requestutil.ID(request, "id"), number); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Uploads

/*
POST /api/v1/books/{id}/cover.

Request:
  - image: multipart JPEG, PNG, WebP or GIF

Response:
  - 200: Book with the new coverUrl
  - 413 / 415: Size or type rejected
*/
func (handler *Handler) uploadCover(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := requestutil.FormFile(writer, request, FormFieldImage, constants.MaxImageBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UploadCover(request.Context(), ownerID, requestutil.ID(request, "id"), bytes.NewReader(upload.Data))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
POST /api/v1/books/{id}/pages/{number}/image.

Description: Stores an image and sets it on the page, replacing any previous one.
*/
func (handler *Handler) uploadPageImage(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	number, err := pageNumber(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := requestutil.FormFile(writer, request, FormFieldImage, constants.MaxImageBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UploadPageImage(request.Context(), ownerID, requestutil.ID(request, "id"), number, bytes.NewReader(upload.Data))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

// # Trash

/*
DELETE /api/v1/books/{id}.

Description: Moves the book to the trash. It can be restored until it is purged.
*/
func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteBook(request.Context(), ownerID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// POST /api/v1/books/{id}/restore.
func (handler *Handler) restoreBook(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.RestoreBook(request.Context(), ownerID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
DELETE /api/v1/books/{id}/purge.

Description: Permanently deletes a trashed book, its pages and its stored files.

Response:
  - 204: No Content
  - 409: The book is not in the trash
*/
func (handler *Handler) purgeBook(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PurgeBook(request.Context(), ownerID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func pageNumber(request *http.Request) (int, error) {
	number, err := strconv.Atoi(requestutil.Param(request, "number"))
	if err != nil || number < 1 {
		return 0, validate.RequiredError(FieldPageNumber, "Must be a positive page number")
	}
	return number, nil
}
