// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/layout"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
	"github.com/dast-sv/lectoflip/internal/flipbook/viewport"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	requestutil "github.com/dast-sv/lectoflip/internal/platform/request"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
	"github.com/dast-sv/lectoflip/pkg/convert"
)

// # Connection Limits

const (
	maxMessageBytes = 1 << 10
	maxPageBytes    = 1 << 20
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
)

// # Handler Implementation

// Handler serves the reader surfaces. Book routes act on the authenticated owner's books.
type Handler struct {
	books    BookSource
	renderer *render.Renderer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

/*
NewHandler constructs a reader [Handler].

Parameters:
  - books: BookSource
  - checkOrigin: func(*http.Request) bool (Websocket origin policy; nil allows same-origin only)
  - logger: *slog.Logger
*/
func NewHandler(books BookSource, checkOrigin func(*http.Request) bool, logger *slog.Logger) *Handler {
	return &Handler{
		books:    books,
		renderer: render.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// RegisterBookRoutes adds the reading routes to a router mounted at /books.
func (handler *Handler) RegisterBookRoutes(router chi.Router) {
	router.Get("/{id}/read", handler.readBook)
	router.Get("/{id}/session", handler.openSession)
}

// Routes returns the authoring helpers: /render/page, /layouts and /theme.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/render/page", handler.renderPage)
	router.Get("/layouts", handler.listLayouts)
	router.Get("/theme", handler.getTheme)
	return router
}

// readable loads an active book of the caller.
func (handler *Handler) readable(request *http.Request) (*book.Book, error) {
	ownerID, err := requestutil.RequiredOwnerID(request)
	if err != nil {
		return nil, err
	}

	b, err := handler.books.GetBook(request.Context(), ownerID, requestutil.ID(request, "id"))
	if err != nil {
		return nil, err
	}
	if b.IsDeleted() {
		return nil, apperr.NotFound("Book")
	}
	return b, nil
}

// viewportQuery reads width, height and the 1-based page from the query string.
func viewportQuery(request *http.Request) (width, height, start int) {
	query := request.URL.Query()
	width = convert.ToPositiveIntD(query.Get("width"), defaultViewportWidth)
	height = convert.ToPositiveIntD(query.Get("height"), defaultViewportHeight)
	start = convert.ToPositiveIntD(query.Get("page"), 1) - 1
	return width, height, start
}

// # Reading

/*
GET /api/v1/books/{id}/read.

Description: Renders the book as a complete flipbook HTML document sized for the
given viewport. Books with fewer than two pages render an explanatory note.

Request:
  - width, height: int (Viewport size, default 1280x800)
  - page: int (1-based page to open at)

Response:
  - 200: text/html document
  - 404: Unknown, foreign or trashed book
*/
func (handler *Handler) readBook(writer http.ResponseWriter, request *http.Request) {
	b, err := handler.readable(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	width, height, start := viewportQuery(request)
	view := viewport.New(b.Pages, viewport.ReaderProfile,
		viewport.WithViewportSize(width, height),
		viewport.WithStartPage(start),
	)

	widget, err := view.Render(handler.renderer)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	var document bytes.Buffer
	if err := WriteDocument(&document, b, view, widget); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.HTML(writer, http.StatusOK, document.Bytes())
}

/*
GET /api/v1/books/{id}/session.

Description: Upgrades to a websocket that drives one viewport. The first server
message is the initial state. Messages are handled one at a time in arrival order.

Request:
  - width, height, page: as for /read
  - access_token: JWT (browsers cannot set headers on websocket upgrades)
*/
func (handler *Handler) openSession(writer http.ResponseWriter, request *http.Request) {
	b, err := handler.readable(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	width, height, start := viewportQuery(request)
	session := NewSession(b, handler.renderer, width, height, start)

	conn, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		handler.logger.WarnContext(request.Context(), "reader_upgrade_failed", slog.Any("error", err))
		return
	}

	handler.logger.InfoContext(request.Context(), "reader_session_opened", slog.String("book_id", b.ID))
	handler.serve(conn, session)
}

// serve runs the read loop of one connection until the client leaves.
func (handler *Handler) serve(conn *websocket.Conn, session *Session) {
	done := make(chan struct{})
	defer func() {
		close(done)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Keep-alive. Control frames may be written concurrently with the read loop's writes.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	initial, err := session.Snapshot(false)
	if err != nil {
		initial = errorReply(err.Error())
	}
	if err := writeReply(conn, initial); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				handler.logger.Warn("reader_session_closed", slog.Any("error", err))
			}
			return
		}

		var message Message
		replies := []Reply{errorReply("malformed message")}
		if json.Unmarshal(raw, &message) == nil {
			replies = session.Handle(message)
		}

		for _, reply := range replies {
			if err := writeReply(conn, reply); err != nil {
				return
			}
		}
	}
}

func writeReply(conn *websocket.Conn, reply Reply) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(reply)
}

// # Authoring Helpers

/*
POST /api/v1/render/page.

Description: Renders one page for the editor preview. The page is sanitised and
rendered exactly as the reader would; unknown layouts fall back silently.

Request:
  - Body: Page
  - active: bool (default true; false renders the hidden animation state)

Response:
  - 200: text/html fragment
  - 400: Structurally invalid page
*/
func (handler *Handler) renderPage(writer http.ResponseWriter, request *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxPageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.PayloadTooLarge("Page payload too large"))
			return
		}
		respond.Error(writer, request, err)
		return
	}

	p, err := page.Decode(raw)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid page payload"))
		return
	}

	active := convert.ToBoolD(request.URL.Query().Get("active"), true)

	var fragment bytes.Buffer
	if err := handler.renderer.RenderHTML(&fragment, &p, active); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.HTML(writer, http.StatusOK, fragment.Bytes())
}

/*
GET /api/v1/layouts.

Description: Layout picker entries for a 1-based page number; the cover layout is
disabled past page 1.
*/
func (handler *Handler) listLayouts(writer http.ResponseWriter, request *http.Request) {
	pageNumber := convert.ToPositiveIntD(request.URL.Query().Get("page"), 1)
	respond.OK(writer, layout.Descriptors(pageNumber))
}

// GET /api/v1/theme.
func (handler *Handler) getTheme(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, theme.Keys())
}
