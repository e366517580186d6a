// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/platform/ctxutil"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
)

type handlerFixture struct {
	*serviceFixture
	router chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	fixture := newServiceFixture(t)
	return &handlerFixture{
		serviceFixture: fixture,
		router:         book.NewHandler(fixture.service).Routes(),
	}
}

func (fixture *handlerFixture) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, target, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.OwnerClaims{OwnerID: owner, Name: "ana"}))

	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBook(t *testing.T, recorder *httptest.ResponseRecorder) book.Book {
	t.Helper()
	var envelope struct {
		Data book.Book `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(book.FormFieldImage, "dibujo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

const createBody = `{
	"title": "El faro",
	"pages": [
		{"layout": "CoverLayout", "title": "El faro"},
		{"layout": "TextCenterLayout", "text": "<p>Una noche de tormenta</p>", "background": "noche"}
	]
}`

/*
TestHandler_BookLifecycle drives the authoring API end to end.
*/
func TestHandler_BookLifecycle(t *testing.T) {
	fixture := newHandlerFixture(t)

	created := fixture.do(t, http.MethodPost, "/", strings.NewReader(createBody), "application/json")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := decodeBook(t, created).ID

	// Metadata
	patched := fixture.do(t, http.MethodPatch, "/"+id, strings.NewReader(`{"description":"Un cuento corto","readingLevel":"primaria"}`), "application/json")
	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())
	assert.Equal(t, "primaria", decodeBook(t, patched).ReadingLevel)
	assert.Equal(t, "El faro", decodeBook(t, patched).Title)

	// Pages
	appended := fixture.do(t, http.MethodPost, "/"+id+"/pages", strings.NewReader(`[{"layout":"ImageFullLayout","image":"https://cdn.example.com/faro.jpg"}]`), "application/json")
	require.Equal(t, http.StatusCreated, appended.Code, appended.Body.String())
	assert.Equal(t, 3, decodeBook(t, appended).PageCount)

	invalid := fixture.do(t, http.MethodPut, "/"+id+"/pages", strings.NewReader(`[{"layout":"TextCenterLayout"},{"layout":"CoverLayout"}]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Contains(t, invalid.Body.String(), "pages[1].layout")

	image, contentType := multipartImage(t, pngBytes(t))
	uploaded := fixture.do(t, http.MethodPost, "/"+id+"/pages/3/image", image, contentType)
	require.Equal(t, http.StatusOK, uploaded.Code, uploaded.Body.String())
	assert.Contains(t, decodeBook(t, uploaded).Pages[2].Image, "/files/")

	removed := fixture.do(t, http.MethodDelete, "/"+id+"/pages/2", nil, "")
	assert.Equal(t, http.StatusNoContent, removed.Code)

	badNumber := fixture.do(t, http.MethodDelete, "/"+id+"/pages/zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, badNumber.Code)

	fetched := fixture.do(t, http.MethodGet, "/"+id, nil, "")
	require.Equal(t, http.StatusOK, fetched.Code)
	assert.Len(t, decodeBook(t, fetched).Pages, 2)

	listed := fixture.do(t, http.MethodGet, "/?page=1&limit=10", nil, "")
	require.Equal(t, http.StatusOK, listed.Code)
	assert.Contains(t, listed.Body.String(), id)
	assert.Contains(t, listed.Body.String(), `"meta"`)
}

/*
TestHandler_TrashAndRestore soft-deletes a book, finds it in the trash and restores it
with its pages intact.
*/
func TestHandler_TrashAndRestore(t *testing.T) {
	fixture := newHandlerFixture(t)

	created := fixture.do(t, http.MethodPost, "/", strings.NewReader(createBody), "application/json")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := decodeBook(t, created).ID

	conflict := fixture.do(t, http.MethodDelete, "/"+id+"/purge", nil, "")
	assert.Equal(t, http.StatusConflict, conflict.Code)

	deleted := fixture.do(t, http.MethodDelete, "/"+id, nil, "")
	require.Equal(t, http.StatusNoContent, deleted.Code)

	active := fixture.do(t, http.MethodGet, "/", nil, "")
	assert.NotContains(t, active.Body.String(), id)

	trash := fixture.do(t, http.MethodGet, "/trash", nil, "")
	require.Equal(t, http.StatusOK, trash.Code)
	assert.Contains(t, trash.Body.String(), id)

	trashed := fixture.do(t, http.MethodGet, "/"+id, nil, "")
	require.Equal(t, http.StatusOK, trashed.Code)
	assert.NotNil(t, decodeBook(t, trashed).DeletedAt)

	restored := fixture.do(t, http.MethodPost, "/"+id+"/restore", nil, "")
	require.Equal(t, http.StatusOK, restored.Code, restored.Body.String())
	assert.Nil(t, decodeBook(t, restored).DeletedAt)
	assert.Len(t, decodeBook(t, restored).Pages, 2)

	require.Equal(t, http.StatusNoContent, fixture.do(t, http.MethodDelete, "/"+id, nil, "").Code)
	purged := fixture.do(t, http.MethodDelete, "/"+id+"/purge", nil, "")
	assert.Equal(t, http.StatusNoContent, purged.Code)

	missing := fixture.do(t, http.MethodGet, "/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	malformed := fixture.do(t, http.MethodGet, "/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, malformed.Code)
}

func TestHandler_RequiresAuthentication(t *testing.T) {
	fixture := newHandlerFixture(t)

	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
