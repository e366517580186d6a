// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid issues the identifiers of books, import jobs, blobs and requests.

Identifiers are version 7 UUIDs: time ordered, so new books land at the end of the
primary key index.
*/
package uuid

import "github.com/google/uuid"

// New returns a new UUIDv7 string. It panics only if the system entropy source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s is a canonical UUID, so malformed path ids never reach
// the database.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuid.Validate(s) == nil
}
