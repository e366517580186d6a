// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob holds transient binary objects behind revocable URLs.

PDF extraction rasterises every page into an image that must be previewable before
the book is saved. Those images live here, addressed by URLs of the form
"blob:<base>/blobs/<id>", until their owner revokes them or their TTL expires.

# Core Responsibility

  - Storage: [Store] puts, fetches and revokes blobs (Redis in production, memory in tests).
  - Addressing: [URLFor] and [ParseURL] map between ids and blob URLs.
  - Serving: [Handler] streams a blob over HTTP so the URL can be used as an image source.
*/
package blob

import (
	"context"
	"errors"
	"strings"
)

// ErrUnknownBlob is returned for ids that were never stored, were revoked, or expired.
var ErrUnknownBlob = errors.New("blob: unknown blob")

// Scheme prefixes every blob URL.
const Scheme = "blob:"

const pathSegment = "/blobs/"

// Blob is one stored object.
type Blob struct {
	ID          string
	ContentType string
	Data        []byte
}

// Store keeps transient blobs.
type Store interface {

	/*
		Put stores data and returns its blob URL.

		Parameters:
		  - context: context.Context
		  - data: []byte
		  - contentType: string (MIME type served back on Get)

		Returns:
		  - string: blob URL
		  - error: Storage failures
	*/
	Put(context context.Context, data []byte, contentType string) (string, error)

	/*
		Get fetches a blob by id.

		Returns:
		  - *Blob: Stored object
		  - error: ErrUnknownBlob if absent
	*/
	Get(context context.Context, id string) (*Blob, error)

	/*
		Revoke releases the blob behind a URL. Revoking an unknown URL is not an error.
	*/
	Revoke(context context.Context, url string) error
}

// URLFor builds the blob URL for id under the public base URL.
func URLFor(base, id string) string {
	return Scheme + strings.TrimRight(base, "/") + pathSegment + id
}

// ParseURL extracts the id from a blob URL.
func ParseURL(url string) (string, bool) {
	if !strings.HasPrefix(url, Scheme) {
		return "", false
	}

	index := strings.LastIndex(url, pathSegment)
	if index < 0 {
		return "", false
	}

	id := url[index+len(pathSegment):]
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// HTTPURL converts a blob URL to the plain HTTP URL that serves it.
func HTTPURL(url string) string {
	return strings.TrimPrefix(url, Scheme)
}
