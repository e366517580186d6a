// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"time"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
)

// # Book & Page Data Access

// Repository defines the data access contract for books and their pages.
//
// Page numbers are 1-based and contiguous; every page mutation keeps them so.
type Repository interface {

	/*
		Create persists a book and its pages atomically.

		Parameters:
		  - context: context.Context
		  - book: *Book (ID, OwnerID and Pages already set)

		Returns:
		  - error: Storage failure
	*/
	Create(context context.Context, book *Book) error

	/*
		FindByID returns a book with its pages, trashed or not.

		Returns:
		  - *Book: Hydrated book
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Book, error)

	/*
		List returns the owner's active books, most recently updated first, without pages.

		Returns:
		  - []*Book: Page of books
		  - int: Total active books
		  - error: Storage failure
	*/
	List(context context.Context, ownerID string, limit, offset int) ([]*Book, int, error)

	/*
		ListTrash returns the owner's soft-deleted books, most recently deleted first.
	*/
	ListTrash(context context.Context, ownerID string, limit, offset int) ([]*Book, int, error)

	/*
		UpdateMetadata overwrites the descriptive fields of an active book.

		Returns:
		  - error: apperr.NotFound if the book is missing or trashed
	*/
	UpdateMetadata(context context.Context, book *Book) error

	/*
		ReplacePages swaps the whole page list of an active book atomically.
	*/
	ReplacePages(context context.Context, bookID string, pages []page.Page) error

	/*
		AppendPages adds pages after the last one.

		Returns:
		  - int: New page count
		  - error: Storage failure
	*/
	AppendPages(context context.Context, bookID string, pages []page.Page) (int, error)

	/*
		UpdatePage overwrites one page in place.

		Returns:
		  - error: apperr.NotFound if the page does not exist
	*/
	UpdatePage(context context.Context, bookID string, number int, p page.Page) error

	/*
		RemovePage deletes one page and renumbers the ones after it.
	*/
	RemovePage(context context.Context, bookID string, number int) error

	/*
		SoftDelete moves an active book to the trash.
	*/
	SoftDelete(context context.Context, id string) error

	/*
		Restore brings a trashed book back.
	*/
	Restore(context context.Context, id string) error

	/*
		HardDelete removes a book and its pages permanently.
	*/
	HardDelete(context context.Context, id string) error

	/*
		ListExpired returns trashed books deleted before cutoff.
	*/
	ListExpired(context context.Context, cutoff time.Time, limit int) ([]Expired, error)
}
