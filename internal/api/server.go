// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api mounts the flipbook handlers on one chi router behind the shared
middleware chain.

Route map:

	/health, /ready                    probes
	/files/*, /blobs/{id}              stored objects and transient page images
	/api/v1/books/...                  authoring, trash, reader session, EPUB export
	/api/v1/imports/...                PDF import jobs
	/api/v1/layouts, /api/v1/preview   public layout catalogue and page previews
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/export"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
	"github.com/dast-sv/lectoflip/internal/platform/config"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/internal/platform/middleware"
	"github.com/dast-sv/lectoflip/internal/reader"
	"github.com/dast-sv/lectoflip/internal/storage"
)

// # Server Definitions

// Server owns the [http.Server] built by [NewServer].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc

	// Books handles authoring, uploads and the trash.
	Books *book.Handler

	// Reader serves the flipbook document, the reading session and authoring previews.
	Reader *reader.Handler

	// Export produces EPUB downloads.
	Export *export.Handler

	// Imports runs PDF extraction jobs.
	Imports *pdfimport.Handler

	// Blobs streams transient page images.
	Blobs *blob.Handler

	// Files serves permanently stored covers, page images and PDFs.
	Files http.Handler
}

// # Server Initialization

// NewServer builds the router. context stops the rate limiter's eviction loop.
//
// The request timeout only wraps bounded routes: websocket sessions, PDF imports and
// EPUB exports outlive it.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	bounded := chimw.Timeout(constants.GlobalRequestTimeout)

	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.With(bounded).Handle(storage.PathPrefix+"*", h.Files)
	r.With(bounded).Mount("/blobs", h.Blobs.Routes())

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/books", func(books chi.Router) {
			books.Use(middleware.RequireAuth)
			books.Group(func(crud chi.Router) {
				crud.Use(bounded)
				h.Books.RegisterRoutes(crud)
			})
			h.Reader.RegisterBookRoutes(books)
			h.Export.RegisterBookRoutes(books)
		})
		api.With(middleware.RequireAuth).Mount("/imports", h.Imports.Routes())
		api.With(bounded).Mount("/", h.Reader.Routes())
	})

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// OriginPolicy returns the websocket origin check matching the CORS rules: any origin
// in development, otherwise requests without an Origin or ending in the allowed suffix.
func OriginPolicy(cfg middleware.AppConfig) func(*http.Request) bool {
	return func(request *http.Request) bool {
		origin := request.Header.Get(constants.HeaderOrigin)
		if origin == "" || cfg.IsDevelopment() {
			return true
		}
		return cfg.OriginSuffix() != "" && strings.HasSuffix(origin, cfg.OriginSuffix())
	}
}

// # Server Lifecycle

// ListenAndServe blocks until the server stops; after Shutdown it returns
// [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	s.log.Info("server_listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for in-flight
// requests. Hijacked websocket connections are not waited for.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
