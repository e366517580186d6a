// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr maps pgx errors onto [apperr.AppError] values so repositories never
// leak SQL details to clients.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dast-sv/lectoflip/internal/platform/apperr"
)

// ErrNotFound is returned for missing rows and for ids Postgres cannot parse.
var ErrNotFound = apperr.NotFound("Resource")

// Wrap classifies err for the client; action prefixes the message and the wrapped cause.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations the client can act on
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Conflict(action + ": resource already exists")
		case pgerrcode.ForeignKeyViolation:
			return apperr.Unprocessable(action + ": referenced resource does not exist")
		case pgerrcode.InvalidTextRepresentation:
			return ErrNotFound
		case pgerrcode.QueryCanceled:
			return apperr.ServiceUnavailable(action + ": query timed out")
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// WrapRow is [Wrap] for single-row queries: a missing row becomes a NotFound naming
// resource.
func WrapRow(err error, resource, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}
	return Wrap(err, action)
}
