// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/flipbook/viewport"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	requestutil "github.com/dast-sv/lectoflip/internal/platform/request"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
	"github.com/dast-sv/lectoflip/pkg/convert"
)

const (
	// FormFieldFile is the multipart field carrying the PDF.
	FormFieldFile = "file"

	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// # Handler Implementation

// Handler exposes import jobs over HTTP. Every route requires an authenticated user.
type Handler struct {
	jobs     *Jobs
	blobs    blob.Store
	saver    Saver
	renderer *render.Renderer
	maxBytes int64
	logger   *slog.Logger
}

// NewHandler constructs an import [Handler].
func NewHandler(jobs *Jobs, blobs blob.Store, saver Saver, maxBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		jobs:     jobs,
		blobs:    blobs,
		saver:    saver,
		renderer: render.New(),
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Routes returns the import router, mounted under /imports.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.createImport)
	router.Get("/{id}", handler.getImport)
	router.Put("/{id}", handler.replaceImport)
	router.Post("/{id}/reset", handler.resetImport)
	router.Get("/{id}/preview", handler.previewImport)
	router.Post("/{id}/save", handler.saveImport)
	router.Delete("/{id}", handler.discardImport)
	return router
}

// # Job Lifecycle

/*
POST /api/v1/imports.

Description: Validates a PDF upload and starts extracting it in the background.

Request:
  - file: multipart PDF (at most PDF_MAX_BYTES)

Response:
  - 202: Snapshot: Job in the extracting state
  - 413: PAYLOAD_TOO_LARGE: File over the ceiling
  - 415: UNSUPPORTED_MEDIA_TYPE: Not a PDF
*/
func (handler *Handler) createImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := handler.readUpload(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.jobs.Start(ownerID, upload.Filename, upload.Data)
	if err != nil {
		respond.Error(writer, request, mapError(err))
		return
	}

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: view})
}

/*
GET /api/v1/imports/{id}.

Description: Polls a job. While extracting, progress reports the page count first,
then the measured dimensions, then "current of total".

Response:
  - 200: Snapshot
  - 404: Unknown or expired job
*/
func (handler *Handler) getImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.jobs.Get(ownerID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, mapError(err))
		return
	}

	respond.OK(writer, view)
}

/*
PUT /api/v1/imports/{id}.

Description: Replaces the job's document. Pages of the previous document are released
before the new extraction starts.

Response:
  - 202: Snapshot
  - 409: CONFLICT: The job is still extracting or saving
*/
func (handler *Handler) replaceImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := handler.readUpload(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.jobs.Replace(request.Context(), ownerID, requestutil.ID(request, "id"), upload.Filename, upload.Data)
	if err != nil && view.ID == "" {
		respond.Error(writer, request, mapError(err))
		return
	}
	if err != nil {
		handler.logger.WarnContext(request.Context(), "pdf_import_release_failed", slog.Any("error", err))
	}

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: view})
}

/*
POST /api/v1/imports/{id}/reset.

Description: Retry affordance after a failure: releases any pages and returns the job to idle.
*/
func (handler *Handler) resetImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.jobs.Reset(request.Context(), ownerID, requestutil.ID(request, "id"))
	if err != nil && view.ID == "" {
		respond.Error(writer, request, mapError(err))
		return
	}
	if err != nil {
		handler.logger.WarnContext(request.Context(), "pdf_import_release_failed", slog.Any("error", err))
	}

	respond.OK(writer, view)
}

/*
DELETE /api/v1/imports/{id}.

Description: Cancels the import and releases its pages.

Response:
  - 204: Released
  - 409: CONFLICT: Extraction still running (there is no mid-flight cancel)
*/
func (handler *Handler) discardImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.jobs.Discard(request.Context(), ownerID, requestutil.ID(request, "id")); err != nil {
		if errors.Is(err, ErrUnknownJob) || errors.Is(err, ErrJobBusy) {
			respond.Error(writer, request, mapError(err))
			return
		}
		handler.logger.WarnContext(request.Context(), "pdf_import_release_failed", slog.Any("error", err))
	}

	respond.NoContent(writer)
}

// # Preview

/*
GET /api/v1/imports/{id}/preview.

Description: Renders the extracted pages as a flipbook using the preview profile.
Until extraction finishes, a placeholder sized from the page count (3:4 until the
first page is measured) is returned instead.

Request:
  - vw, vh: int (Viewport size, default 1280x800)

Response:
  - 200: text/html fragment
*/
func (handler *Handler) previewImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.jobs.Get(ownerID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, mapError(err))
		return
	}

	query := request.URL.Query()
	viewportWidth := convert.ToPositiveIntD(query.Get("vw"), defaultViewportWidth)
	viewportHeight := convert.ToPositiveIntD(query.Get("vh"), defaultViewportHeight)

	var fragment bytes.Buffer
	if err := writePreview(&fragment, handler.renderer, view, viewportWidth, viewportHeight); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.HTML(writer, http.StatusOK, fragment.Bytes())
}

// writePreview renders the flipbook for a ready job, or a sized placeholder otherwise.
func writePreview(buffer *bytes.Buffer, renderer *render.Renderer, view Snapshot, viewportWidth, viewportHeight int) error {
	profile := viewport.PreviewProfile.WithPageAspect(view.Width, view.Height)

	if view.State != StateReady && view.State != StateSaving {
		mode, size := viewport.FitBox(profile, viewportWidth, viewportHeight)
		return node.Write(buffer, pendingPreview(view, mode, size.Width, size.Height))
	}

	pages := make([]page.Page, 0, len(view.Pages))
	for _, extracted := range view.Pages {
		pages = append(pages, page.ImagePage(blob.HTTPURL(extracted.ImageURL)))
	}

	book, err := viewport.New(pages, profile, viewport.WithViewportSize(viewportWidth, viewportHeight)).Render(renderer)
	if err != nil || book == nil {
		return err
	}
	return node.Write(buffer, book)
}

func pendingPreview(view Snapshot, mode viewport.Mode, width, height int) *html.Node {
	label := "Preparando documento"
	switch {
	case view.State == StateFailed:
		label = view.Error
	case view.State == StateIdle:
		label = "Sin documento"
	case view.Progress.Total > 0:
		label = fmt.Sprintf("Procesando página %d de %d", view.Progress.Current, view.Progress.Total)
	}

	return node.El(atom.Div, node.Attrs(
		"class", "import-preview import-preview-pending flipbook-"+string(mode),
		"data-state", string(view.State),
		"data-pages", strconv.Itoa(view.PageCount),
		"style", node.Style(
			fmt.Sprintf("width: %dpx", width),
			fmt.Sprintf("height: %dpx", height),
		),
	), node.El(atom.P, node.Attrs("class", "import-preview-label"), node.Text(label)))
}

// # Save

// saveImportRequest optionally names the book, or targets an existing one.
type saveImportRequest struct {
	BookID      string `json:"bookId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

/*
POST /api/v1/imports/{id}/save.

Description: Persists the extracted pages as a new book, or appends them to bookId.
On success the job's blobs are released. On failure the job returns to ready so the
save can be retried without extracting again.

Response:
  - 201: {bookId}
  - 409: CONFLICT: Job busy
  - 422: UNPROCESSABLE: Job has no extracted pages
*/
func (handler *Handler) saveImport(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input saveImportRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	id := requestutil.ID(request, "id")
	checkout, err := handler.jobs.BeginSave(ownerID, id)
	if err != nil {
		respond.Error(writer, request, mapError(err))
		return
	}

	bookID, err := handler.persist(request, ownerID, checkout, input)
	if err != nil {
		handler.jobs.AbortSave(ownerID, id)
		respond.Error(writer, request, err)
		return
	}

	if err := handler.jobs.Complete(request.Context(), ownerID, id); err != nil {
		handler.logger.WarnContext(request.Context(), "pdf_import_release_failed", slog.String("job_id", id), slog.Any("error", err))
	}

	respond.Created(writer, map[string]string{"bookId": bookID})
}

func (handler *Handler) persist(request *http.Request, ownerID string, checkout *Checkout, input saveImportRequest) (string, error) {
	draft, err := NewDraft(request.Context(), handler.blobs, checkout)
	if err != nil {
		return "", apperr.Unprocessable("The extracted pages are no longer available; import the PDF again")
	}

	draft.BookID = input.BookID
	draft.Description = input.Description
	if input.Title != "" {
		draft.Title = input.Title
	}

	return handler.saver.SaveImport(request.Context(), ownerID, draft)
}

// # Helpers

func (handler *Handler) readUpload(writer http.ResponseWriter, request *http.Request) (*requestutil.Upload, error) {
	upload, err := requestutil.FormFile(writer, request, FormFieldFile, handler.maxBytes)
	if err != nil {
		return nil, err
	}
	if err := ValidateUpload(upload.Filename, upload.ContentType, upload.Data, handler.maxBytes); err != nil {
		return nil, err
	}
	return upload, nil
}

// mapError translates job errors into API errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownJob):
		return apperr.NotFound("Import")
	case errors.Is(err, ErrJobBusy):
		return apperr.Conflict("The import is still being processed")
	case errors.Is(err, ErrJobNotReady):
		return apperr.Unprocessable("The import has no extracted pages to save")
	case errors.Is(err, ErrJobsClosed):
		return apperr.ServiceUnavailable("The server is shutting down")
	default:
		return err
	}
}
