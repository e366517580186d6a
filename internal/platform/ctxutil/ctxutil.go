// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil reads and writes the per-request values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/dast-sv/lectoflip/internal/platform/ctxkey"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the request ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request-scoped logger, or [slog.Default] when none is set.
// Background work (extractions, purges) logs through the default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// # Ownership

// WithAuthUser returns a new context carrying verified token claims.
func WithAuthUser(ctx context.Context, claims *sec.OwnerClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClaims, claims)
}

// GetAuthUser returns the verified claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.OwnerClaims {
	claims, _ := ctx.Value(ctxkey.KeyClaims).(*sec.OwnerClaims)
	return claims
}

// OwnerID returns the id every book, import job and file is scoped to.
func OwnerID(ctx context.Context) (string, bool) {
	claims := GetAuthUser(ctx)
	if claims == nil || claims.OwnerID == "" {
		return "", false
	}
	return claims.OwnerID, true
}
