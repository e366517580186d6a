// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	requestutil "github.com/dast-sv/lectoflip/internal/platform/request"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
)

// Handler serves stored blobs.
type Handler struct {
	store Store
}

// NewHandler constructs a blob [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns a [chi.Router] serving GET /{id}.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}", handler.getBlob)
	return router
}

/*
GET /blobs/{id}.

Description: Streams a transient blob (typically an extracted PDF page image).

Response:
  - 200: raw bytes with the stored Content-Type
  - 404: ErrNotFound: revoked, expired or unknown blob
*/
func (handler *Handler) getBlob(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	stored, err := handler.store.Get(request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUnknownBlob) {
			respond.Error(writer, request, apperr.NotFound("Blob"))
			return
		}
		respond.Error(writer, request, err)
		return
	}

	header := writer.Header()
	header.Set("Content-Type", stored.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(stored.Data)))
	header.Set("Cache-Control", "private, max-age=300")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(stored.Data)
}
