// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds the fixed values of the service: server timing, rate limits,
// upload ceilings and media types, header names and storage prefixes.
package constants

import "time"

// # Metadata

const (
	AppName    = "lectoflip-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout bounds reading a whole request; a PDF of MaxPDFBytes must
	// arrive within it.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout bounds writing a response, EPUB downloads included.
	DefaultWriteTimeout = 60 * time.Second

	DefaultIdleTimeout       = 120 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline of bounded routes (CRUD, previews, files).
	// Websocket sessions, imports and exports are not bounded by it.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds draining requests and then closing import jobs.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS and DefaultRateLimitBurst size the per-IP token bucket. The
	// editor's live preview posts a page render on most keystrokes.
	DefaultRateLimitRPS   = 100.0
	DefaultRateLimitBurst = 150

	RateLimitCleanupInterval = 1 * time.Minute
	RateLimitClientTTL       = 3 * time.Minute
)

// # Uploads

const (
	// MaxPDFBytes is the default ceiling for PDF imports (50 MiB).
	MaxPDFBytes = 50 << 20

	// MaxImageBytes bounds cover and page image uploads.
	MaxImageBytes = 10 << 20

	// MultipartMemory is the in-memory part of a parsed multipart form.
	MultipartMemory = 8 << 20

	// MultipartOverhead is the framing allowed on top of an uploaded file.
	MultipartOverhead = 1 << 20

	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimeEPUB = "application/epub+zip"
	MimeHTML = "text/html; charset=utf-8"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
)

// # Authentication

// AuthIssuer is the 'iss' claim of owner tokens.
const AuthIssuer = "lectoflip.app"

// # Storage

const (
	// SchemaCore is the Postgres schema holding books and pages.
	SchemaCore = "core"

	// RedisPrefixBlob prefixes the Redis hash of each transient blob.
	RedisPrefixBlob = "lectoflip:blob:"
)
