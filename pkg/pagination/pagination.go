// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page/limit query parameters for list endpoints and builds
// the meta block of paginated responses.
package pagination

import (
	"net/http"

	"github.com/dast-sv/lectoflip/pkg/convert"
)

const (
	// DefaultLimit fills a four-column shelf of book covers.
	DefaultLimit = 24

	// MaxLimit bounds a single page of results.
	MaxLimit = 96

	// DefaultPage is the first page (1-indexed).
	DefaultPage = 1
)

// Params holds the parsed page and limit from a request's query string.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for [Params.Page] and [Params.Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block of list responses.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewMeta computes the page count for total items.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// FromRequest reads "page" and "limit". Missing or invalid values fall back to the
// defaults; a limit above [MaxLimit] is clamped to it.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	return Params{
		Page:  convert.ToPositiveIntD(query.Get("page"), DefaultPage),
		Limit: min(convert.ToPositiveIntD(query.Get("limit"), DefaultLimit), MaxLimit),
	}
}
