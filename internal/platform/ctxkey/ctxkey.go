// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed context keys shared by middleware, handlers and
// the response writer.
package ctxkey

// key is unexported so values set here never collide with another package's keys,
// even one using the same string.
type key string

const (
	// KeyRequestID holds the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyClaims holds the verified token claims ([sec.OwnerClaims]) of the book owner.
	KeyClaims key = "claims"

	// KeyLogger holds the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
