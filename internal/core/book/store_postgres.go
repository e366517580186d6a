// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/database/schema"
	"github.com/dast-sv/lectoflip/internal/platform/dberr"
)

// # PostgreSQL Repository

// bookRepository implements [Repository] using pgx.
type bookRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed book store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &bookRepository{pool: pool}
}

// bookSelect lists the book columns in scan order, followed by the page count.
var bookSelect = fmt.Sprintf(`
	b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s,
	b.%s, b.%s, b.%s, b.%s, b.%s, b.%s,
	b.%s, b.%s, b.%s,
	(SELECT COUNT(*) FROM %s p WHERE p.%s = b.%s) AS pagecount`,
	schema.CoreBook.ID, schema.CoreBook.OwnerID, schema.CoreBook.Title, schema.CoreBook.Slug,
	schema.CoreBook.Description, schema.CoreBook.CoverURL, schema.CoreBook.PDFURL,
	schema.CoreBook.Authors, schema.CoreBook.Categories, schema.CoreBook.Genres,
	schema.CoreBook.Tags, schema.CoreBook.Values, schema.CoreBook.ReadingLevel,
	schema.CoreBook.CreatedAt, schema.CoreBook.UpdatedAt, schema.CoreBook.DeletedAt,
	schema.CoreBookPage.Table, schema.CoreBookPage.BookID, schema.CoreBook.ID,
)

// pageInsert inserts one page; arguments follow [pageArgs].
var pageInsert = fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	schema.CoreBookPage.Table, strings.Join(schema.CoreBookPage.Columns(), ", "))

func scanBook(row pgx.Row) (*Book, error) {
	var book Book
	err := row.Scan(
		&book.ID, &book.OwnerID, &book.Title, &book.Slug,
		&book.Description, &book.CoverURL, &book.PDFURL,
		&book.Authors, &book.Categories, &book.Genres,
		&book.Tags, &book.Values, &book.ReadingLevel,
		&book.CreatedAt, &book.UpdatedAt, &book.DeletedAt,
		&book.PageCount,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func pageArgs(bookID string, number int, p page.Page) []any {
	return []any{
		bookID, number, p.Layout, p.Title, p.Text, p.Image,
		p.Background, p.Font, p.Border, p.Animation, p.InteractiveGame, nonNil(p.Items),
	}
}

// nonNil keeps TEXT[] NOT NULL columns from receiving NULL.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// # Book Lifecycle

/*
Create persists a book and its pages in one transaction.

Description: The book row is inserted first, then every page is queued in a single
batch so a 500-page import costs one round-trip.
*/
func (repository *bookRepository) Create(context context.Context, book *Book) error {

	// 1. Transaction
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	// 2. Book row
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s, %s
	`,
		schema.CoreBook.Table,
		schema.CoreBook.ID, schema.CoreBook.OwnerID, schema.CoreBook.Title, schema.CoreBook.Slug,
		schema.CoreBook.Description, schema.CoreBook.CoverURL, schema.CoreBook.PDFURL,
		schema.CoreBook.Authors, schema.CoreBook.Categories, schema.CoreBook.Genres,
		schema.CoreBook.Tags, schema.CoreBook.Values, schema.CoreBook.ReadingLevel,
		schema.CoreBook.CreatedAt, schema.CoreBook.UpdatedAt,
	)

	err = transaction.QueryRow(context, query,
		book.ID, book.OwnerID, book.Title, book.Slug,
		book.Description, book.CoverURL, book.PDFURL,
		nonNil(book.Authors), nonNil(book.Categories), nonNil(book.Genres),
		nonNil(book.Tags), nonNil(book.Values), book.ReadingLevel,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres: create book")
	}

	// 3. Pages
	if err := insertPages(context, transaction, book.ID, 1, book.Pages); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit book: %w", err)
	}

	book.PageCount = len(book.Pages)
	return nil
}

/*
FindByID returns a book with its ordered pages.

Description: Trashed books are returned too; callers read [Book.DeletedAt].
*/
func (repository *bookRepository) FindByID(context context.Context, id string) (*Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s b WHERE b.%s = $1`, bookSelect, schema.CoreBook.Table, schema.CoreBook.ID)

	book, err := scanBook(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.WrapRow(err, "Book", "postgres: find book")
	}

	pages, err := repository.listPages(context, id)
	if err != nil {
		return nil, err
	}
	book.Pages = pages
	book.PageCount = len(pages)

	return book, nil
}

func (repository *bookRepository) listPages(context context.Context, bookID string) ([]page.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`,
		schema.CoreBookPage.Layout, schema.CoreBookPage.Title, schema.CoreBookPage.Text,
		schema.CoreBookPage.ImageURL, schema.CoreBookPage.Background, schema.CoreBookPage.Font,
		schema.CoreBookPage.Border, schema.CoreBookPage.Animation, schema.CoreBookPage.InteractiveGame,
		schema.CoreBookPage.Items,
		schema.CoreBookPage.Table,
		schema.CoreBookPage.BookID,
		schema.CoreBookPage.PageNumber,
	)

	rows, err := repository.pool.Query(context, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []page.Page{}
	for rows.Next() {
		var p page.Page
		err := rows.Scan(&p.Layout, &p.Title, &p.Text, &p.Image, &p.Background, &p.Font,
			&p.Border, &p.Animation, &p.InteractiveGame, &p.Items)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan page: %w", err)
		}
		if len(p.Items) == 0 {
			p.Items = nil
		}
		pages = append(pages, p)
	}

	return pages, rows.Err()
}

// List returns active books.
func (repository *bookRepository) List(context context.Context, ownerID string, limit, offset int) ([]*Book, int, error) {
	return repository.list(context, ownerID, false, limit, offset)
}

// ListTrash returns soft-deleted books.
func (repository *bookRepository) ListTrash(context context.Context, ownerID string, limit, offset int) ([]*Book, int, error) {
	return repository.list(context, ownerID, true, limit, offset)
}

func (repository *bookRepository) list(context context.Context, ownerID string, trashed bool, limit, offset int) ([]*Book, int, error) {
	deletedFilter, orderBy := "IS NULL", schema.CoreBook.UpdatedAt
	if trashed {
		deletedFilter, orderBy = "IS NOT NULL", schema.CoreBook.DeletedAt
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s b
		WHERE b.%s = $1 AND b.%s %s
		ORDER BY b.%s DESC, b.%s DESC
		LIMIT $2 OFFSET $3
	`,
		bookSelect,
		schema.CoreBook.Table,
		schema.CoreBook.OwnerID, schema.CoreBook.DeletedAt, deletedFilter,
		orderBy, schema.CoreBook.ID,
	)

	rows, err := repository.pool.Query(context, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list books: %w", err)
	}
	defer rows.Close()

	books := []*Book{}
	var total int
	for rows.Next() {
		var book Book
		err := rows.Scan(
			&book.ID, &book.OwnerID, &book.Title, &book.Slug,
			&book.Description, &book.CoverURL, &book.PDFURL,
			&book.Authors, &book.Categories, &book.Genres,
			&book.Tags, &book.Values, &book.ReadingLevel,
			&book.CreatedAt, &book.UpdatedAt, &book.DeletedAt,
			&book.PageCount, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan book: %w", err)
		}
		books = append(books, &book)
	}

	return books, total, rows.Err()
}

/*
UpdateMetadata overwrites the descriptive fields of an active book.
*/
func (repository *bookRepository) UpdateMetadata(context context.Context, book *Book) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = $2, %s = $3, %s = $4,
			%s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = $10, %s = NOW()
		WHERE %s = $11 AND %s IS NULL
		RETURNING %s
	`,
		schema.CoreBook.Table,
		schema.CoreBook.Title, schema.CoreBook.Slug, schema.CoreBook.Description, schema.CoreBook.CoverURL,
		schema.CoreBook.Authors, schema.CoreBook.Categories, schema.CoreBook.Genres,
		schema.CoreBook.Tags, schema.CoreBook.Values, schema.CoreBook.ReadingLevel, schema.CoreBook.UpdatedAt,
		schema.CoreBook.ID, schema.CoreBook.DeletedAt,
		schema.CoreBook.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		book.Title, book.Slug, book.Description, book.CoverURL,
		nonNil(book.Authors), nonNil(book.Categories), nonNil(book.Genres),
		nonNil(book.Tags), nonNil(book.Values), book.ReadingLevel,
		book.ID,
	).Scan(&book.UpdatedAt)
	if err != nil {
		return dberr.WrapRow(err, "Book", "postgres: update book")
	}

	return nil
}

// # Page Management

/*
ReplacePages swaps the whole page list in one transaction.
*/
func (repository *bookRepository) ReplacePages(context context.Context, bookID string, pages []page.Page) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	// 1. Lock the active book
	if err := lockActive(context, transaction, bookID); err != nil {
		return err
	}

	// 2. Drop the old pages
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.CoreBookPage.Table, schema.CoreBookPage.BookID)
	if _, err := transaction.Exec(context, query, bookID); err != nil {
		return fmt.Errorf("postgres: failed to clear pages: %w", err)
	}

	// 3. Insert the new ones
	if err := insertPages(context, transaction, bookID, 1, pages); err != nil {
		return err
	}

	if err := touch(context, transaction, bookID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit pages: %w", err)
	}
	return nil
}

/*
AppendPages numbers the new pages after the current last page.
*/
func (repository *bookRepository) AppendPages(context context.Context, bookID string, pages []page.Page) (int, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	if err := lockActive(context, transaction, bookID); err != nil {
		return 0, err
	}

	var last int
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = $1`,
		schema.CoreBookPage.PageNumber, schema.CoreBookPage.Table, schema.CoreBookPage.BookID)
	if err := transaction.QueryRow(context, query, bookID).Scan(&last); err != nil {
		return 0, fmt.Errorf("postgres: failed to read last page: %w", err)
	}

	if err := insertPages(context, transaction, bookID, last+1, pages); err != nil {
		return 0, err
	}

	if err := touch(context, transaction, bookID); err != nil {
		return 0, err
	}

	if err := transaction.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres: failed to commit pages: %w", err)
	}
	return last + len(pages), nil
}

/*
UpdatePage overwrites one page in place.
*/
func (repository *bookRepository) UpdatePage(context context.Context, bookID string, number int, p page.Page) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	if err := lockActive(context, transaction, bookID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = $10, %s = $11, %s = $12
		WHERE %s = $1 AND %s = $2
	`,
		schema.CoreBookPage.Table,
		schema.CoreBookPage.Layout, schema.CoreBookPage.Title, schema.CoreBookPage.Text,
		schema.CoreBookPage.ImageURL, schema.CoreBookPage.Background, schema.CoreBookPage.Font,
		schema.CoreBookPage.Border, schema.CoreBookPage.Animation, schema.CoreBookPage.InteractiveGame,
		schema.CoreBookPage.Items,
		schema.CoreBookPage.BookID, schema.CoreBookPage.PageNumber,
	)

	result, err := transaction.Exec(context, query, pageArgs(bookID, number, p)...)
	if err != nil {
		return fmt.Errorf("postgres: failed to update page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Page")
	}

	if err := touch(context, transaction, bookID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit page: %w", err)
	}
	return nil
}

/*
RemovePage deletes one page and closes the gap.

Description: The primary key is deferred, so shifting the following pages down by one
inside the transaction never trips on a transient duplicate.
*/
func (repository *bookRepository) RemovePage(context context.Context, bookID string, number int) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	if err := lockActive(context, transaction, bookID); err != nil {
		return err
	}

	// 1. Delete
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.CoreBookPage.Table, schema.CoreBookPage.BookID, schema.CoreBookPage.PageNumber)
	result, err := transaction.Exec(context, query, bookID, number)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Page")
	}

	// 2. Renumber
	query = fmt.Sprintf(`UPDATE %s SET %s = %s - 1 WHERE %s = $1 AND %s > $2`,
		schema.CoreBookPage.Table,
		schema.CoreBookPage.PageNumber, schema.CoreBookPage.PageNumber,
		schema.CoreBookPage.BookID, schema.CoreBookPage.PageNumber)
	if _, err := transaction.Exec(context, query, bookID, number); err != nil {
		return fmt.Errorf("postgres: failed to renumber pages: %w", err)
	}

	if err := touch(context, transaction, bookID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit page removal: %w", err)
	}
	return nil
}

// # Trash

/*
SoftDelete stamps deletedat on an active book.
*/
func (repository *bookRepository) SoftDelete(context context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW(), %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.CoreBook.Table, schema.CoreBook.DeletedAt, schema.CoreBook.UpdatedAt,
		schema.CoreBook.ID, schema.CoreBook.DeletedAt)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}
	return nil
}

/*
Restore clears deletedat on a trashed book.
*/
func (repository *bookRepository) Restore(context context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = NOW() WHERE %s = $1 AND %s IS NOT NULL`,
		schema.CoreBook.Table, schema.CoreBook.DeletedAt, schema.CoreBook.UpdatedAt,
		schema.CoreBook.ID, schema.CoreBook.DeletedAt)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to restore book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Trashed book")
	}
	return nil
}

/*
HardDelete removes the book row; pages go with it through ON DELETE CASCADE.
*/
func (repository *bookRepository) HardDelete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.CoreBook.Table, schema.CoreBook.ID)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to purge book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}
	return nil
}

/*
ListExpired returns trashed books whose deletion predates cutoff, oldest first.
*/
func (repository *bookRepository) ListExpired(context context.Context, cutoff time.Time, limit int) ([]Expired, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s FROM %s
		WHERE %s IS NOT NULL AND %s < $1
		ORDER BY %s ASC
		LIMIT $2
	`,
		schema.CoreBook.ID, schema.CoreBook.OwnerID, schema.CoreBook.Table,
		schema.CoreBook.DeletedAt, schema.CoreBook.DeletedAt,
		schema.CoreBook.DeletedAt,
	)

	rows, err := repository.pool.Query(context, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list expired books: %w", err)
	}
	defer rows.Close()

	var expired []Expired
	for rows.Next() {
		var entry Expired
		if err := rows.Scan(&entry.ID, &entry.OwnerID); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan expired book: %w", err)
		}
		expired = append(expired, entry)
	}
	return expired, rows.Err()
}

// # Transaction Helpers

// lockActive takes a row lock on an active book, serialising page edits per book.
func lockActive(context context.Context, transaction pgx.Tx, bookID string) error {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL FOR UPDATE`,
		schema.CoreBook.ID, schema.CoreBook.Table, schema.CoreBook.ID, schema.CoreBook.DeletedAt)

	var id string
	if err := transaction.QueryRow(context, query, bookID).Scan(&id); err != nil {
		return dberr.WrapRow(err, "Book", "postgres: lock book")
	}
	return nil
}

func touch(context context.Context, transaction pgx.Tx, bookID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1`,
		schema.CoreBook.Table, schema.CoreBook.UpdatedAt, schema.CoreBook.ID)
	if _, err := transaction.Exec(context, query, bookID); err != nil {
		return fmt.Errorf("postgres: failed to touch book: %w", err)
	}
	return nil
}

// insertPages queues every page in one batch, numbering from first.
func insertPages(context context.Context, transaction pgx.Tx, bookID string, first int, pages []page.Page) error {
	if len(pages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, p := range pages {
		batch.Queue(pageInsert, pageArgs(bookID, first+i, p)...)
	}

	results := transaction.SendBatch(context, batch)
	for i := range pages {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return dberr.Wrap(err, fmt.Sprintf("postgres: insert page %d", first+i))
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("postgres: failed to close page batch: %w", err)
	}
	return nil
}
