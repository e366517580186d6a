// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dast-sv/lectoflip/internal/flipbook/game"
	"github.com/dast-sv/lectoflip/internal/flipbook/layout"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/validate"
	"github.com/dast-sv/lectoflip/internal/storage"
	"github.com/dast-sv/lectoflip/pkg/pagination"
	"github.com/dast-sv/lectoflip/pkg/slice"
	"github.com/dast-sv/lectoflip/pkg/slug"
	"github.com/dast-sv/lectoflip/pkg/uuid"
)

// purgeBatchSize bounds one ListExpired round.
const purgeBatchSize = 100

// # Service Layer

// Service orchestrates the authoring lifecycle of books.
type Service struct {
	repo    Repository
	storage storage.Uploader
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a new [Service].
func NewService(repo Repository, uploader storage.Uploader, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: uploader,
		logger:  logger,
		now:     time.Now,
	}
}

// # Lookups

// ListBooks returns the owner's active books.
func (service *Service) ListBooks(context context.Context, ownerID string, params pagination.Params) ([]*Book, int, error) {
	return service.repo.List(context, ownerID, params.Limit, params.Offset())
}

// ListTrash returns the owner's soft-deleted books.
func (service *Service) ListTrash(context context.Context, ownerID string, params pagination.Params) ([]*Book, int, error) {
	return service.repo.ListTrash(context, ownerID, params.Limit, params.Offset())
}

/*
GetBook returns one of the owner's books with its pages.

Description: Trashed books are returned with DeletedAt set so the trash view can show
them. Books of other owners are reported as missing.
*/
func (service *Service) GetBook(context context.Context, ownerID, id string) (*Book, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Book")
	}
	book, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != ownerID {
		return nil, apperr.NotFound("Book")
	}
	return book, nil
}

// editable returns an owned, active book.
func (service *Service) editable(context context.Context, ownerID, id string) (*Book, error) {
	book, err := service.GetBook(context, ownerID, id)
	if err != nil {
		return nil, err
	}
	if book.IsDeleted() {
		return nil, apperr.Conflict("Restore the book from the trash before editing it")
	}
	return book, nil
}

// # Authoring

/*
CreateBook validates, sanitises and persists a new book.

Parameters:
  - context: context.Context
  - ownerID: string (Authenticated author)
  - input: *Book (Metadata and pages; identity fields are ignored)

Returns:
  - *Book: The persisted book
  - error: Validation or persistence errors
*/
func (service *Service) CreateBook(context context.Context, ownerID string, input *Book) (*Book, error) {
	book := &Book{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		CoverURL:     strings.TrimSpace(input.CoverURL),
		Authors:      cleanList(input.Authors),
		Categories:   cleanList(input.Categories),
		Genres:       cleanList(input.Genres),
		Tags:         cleanList(input.Tags),
		Values:       cleanList(input.Values),
		ReadingLevel: strings.TrimSpace(input.ReadingLevel),
		Pages:        NormalizePages(input.Pages),
	}
	book.Slug = slugFor(book.Title)

	// 1. Validation
	validator := &validate.Validator{}
	validateMetadata(validator, book)
	validatePages(validator, book.Pages)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Persistence
	if err := service.repo.Create(context, book); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "book_created",
		slog.String("book_id", book.ID),
		slog.Int("pages", len(book.Pages)),
	)
	return book, nil
}

/*
UpdateMetadata applies a partial metadata patch to an active book.
*/
func (service *Service) UpdateMetadata(context context.Context, ownerID, id string, patch Metadata) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(book)
	book.Title = strings.TrimSpace(book.Title)
	book.Description = strings.TrimSpace(book.Description)
	book.CoverURL = strings.TrimSpace(book.CoverURL)
	book.Authors = cleanList(book.Authors)
	book.Categories = cleanList(book.Categories)
	book.Genres = cleanList(book.Genres)
	book.Tags = cleanList(book.Tags)
	book.Values = cleanList(book.Values)
	book.ReadingLevel = strings.TrimSpace(book.ReadingLevel)
	if patch.Title != nil {
		book.Slug = slugFor(book.Title)
	}

	validator := &validate.Validator{}
	validateMetadata(validator, book)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.UpdateMetadata(context, book); err != nil {
		return nil, err
	}
	return book, nil
}

/*
ReplacePages swaps the whole page list of an active book.

Description: This is the editor's save. Every page is validated; an unknown layout or
a cover past page 1 rejects the whole save and nothing is written.
*/
func (service *Service) ReplacePages(context context.Context, ownerID, id string, pages []page.Page) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	pages = NormalizePages(pages)
	validator := &validate.Validator{}
	validatePages(validator, pages)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.ReplacePages(context, book.ID, pages); err != nil {
		return nil, err
	}

	book.Pages = pages
	book.PageCount = len(pages)
	return book, nil
}

/*
AppendPages adds pages after the last page of an active book.
*/
func (service *Service) AppendPages(context context.Context, ownerID, id string, pages []page.Page) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	pages = NormalizePages(pages)
	combined := append(slices.Clone(book.Pages), pages...)

	validator := &validate.Validator{}
	validator.Custom(FieldPages, len(pages) == 0, "At least one page is required")
	validatePages(validator, combined)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.AppendPages(context, book.ID, pages); err != nil {
		return nil, err
	}

	book.Pages = combined
	book.PageCount = len(combined)
	return book, nil
}

/*
UpdatePage overwrites one page (1-based number) of an active book.
*/
func (service *Service) UpdatePage(context context.Context, ownerID, id string, number int, p page.Page) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > len(book.Pages) {
		return nil, apperr.NotFound("Page")
	}

	book.Pages[number-1] = NormalizePages([]page.Page{p})[0]

	validator := &validate.Validator{}
	validatePages(validator, book.Pages)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.UpdatePage(context, book.ID, number, book.Pages[number-1]); err != nil {
		return nil, err
	}
	return book, nil
}

/*
RemovePage deletes one page of an active book. A book keeps at least one page.
*/
func (service *Service) RemovePage(context context.Context, ownerID, id string, number int) error {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return err
	}
	if number < 1 || number > len(book.Pages) {
		return apperr.NotFound("Page")
	}
	if len(book.Pages) == 1 {
		return apperr.Unprocessable("A book needs at least one page")
	}

	// Removing page 1 must not promote a later page into an invalid position.
	remaining := slices.Delete(slices.Clone(book.Pages), number-1, number)
	validator := &validate.Validator{}
	validatePages(validator, remaining)
	if err := validator.Err(); err != nil {
		return err
	}

	return service.repo.RemovePage(context, book.ID, number)
}

// # Uploads

/*
UploadCover stores a cover image and points the book at it.
*/
func (service *Service) UploadCover(context context.Context, ownerID, id string, reader io.Reader) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	upload, err := service.storage.UploadImage(context, reader, ownerID, book.ID, storage.RoleCover)
	if err != nil {
		return nil, storageError(err)
	}

	book.CoverURL = upload.URL
	if err := service.repo.UpdateMetadata(context, book); err != nil {
		return nil, err
	}
	return book, nil
}

/*
UploadPageImage stores an image for one page and sets it as that page's image.
*/
func (service *Service) UploadPageImage(context context.Context, ownerID, id string, number int, reader io.Reader) (*Book, error) {
	book, err := service.editable(context, ownerID, id)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > len(book.Pages) {
		return nil, apperr.NotFound("Page")
	}

	upload, err := service.storage.UploadImage(context, reader, ownerID, book.ID, storage.PageRole(number))
	if err != nil {
		return nil, storageError(err)
	}

	book.Pages[number-1].Image = upload.URL
	if err := service.repo.UpdatePage(context, book.ID, number, book.Pages[number-1]); err != nil {
		return nil, err
	}
	return book, nil
}

// # PDF Imports

/*
SaveImport persists an extracted PDF: as a new book, or appended to draft.BookID.

Description: Page images move from transient blobs to permanent storage. A new book
also keeps its source PDF and uses the first page as cover. If persisting a new book
fails, the files already stored for it are removed.

Returns:
  - string: ID of the book that received the pages
  - error: Validation, storage or persistence failures
*/
func (service *Service) SaveImport(context context.Context, ownerID string, draft *pdfimport.Draft) (string, error) {
	if draft.BookID != "" {
		return draft.BookID, service.appendImport(context, ownerID, draft)
	}

	book := &Book{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
	}
	book.Slug = slugFor(book.Title)

	validator := &validate.Validator{}
	validateMetadata(validator, book)
	validator.Custom(FieldPages, len(draft.Pages) == 0, "At least one page is required")
	validator.MaxCount(FieldPages, len(draft.Pages), MaxPages, "pages")
	if err := validator.Err(); err != nil {
		return "", err
	}

	// 1. Files
	pages, _, err := service.storeDraft(context, ownerID, book.ID, 1, draft)
	if err != nil {
		service.discardFiles(context, ownerID, book.ID)
		return "", err
	}
	if len(draft.Source) > 0 {
		upload, err := service.storage.UploadPDF(context, bytes.NewReader(draft.Source), ownerID, book.ID)
		if err != nil {
			service.discardFiles(context, ownerID, book.ID)
			return "", storageError(err)
		}
		book.PDFURL = upload.URL
	}
	book.Pages = pages
	book.CoverURL = pages[0].Image

	// 2. Rows
	if err := service.repo.Create(context, book); err != nil {
		service.discardFiles(context, ownerID, book.ID)
		return "", err
	}

	service.logger.InfoContext(context, "book_imported",
		slog.String("book_id", book.ID),
		slog.String("filename", draft.Filename),
		slog.Int("pages", len(pages)),
	)
	return book.ID, nil
}

func (service *Service) appendImport(context context.Context, ownerID string, draft *pdfimport.Draft) error {
	book, err := service.editable(context, ownerID, draft.BookID)
	if err != nil {
		return err
	}
	if len(book.Pages)+len(draft.Pages) > MaxPages {
		return validate.RequiredError(FieldPages, fmt.Sprintf("Maximum %d pages", MaxPages))
	}

	pages, uploads, err := service.storeDraft(context, ownerID, book.ID, len(book.Pages)+1, draft)
	if err != nil {
		service.discardUploads(context, book, uploads)
		return err
	}

	if _, err := service.repo.AppendPages(context, book.ID, pages); err != nil {
		service.discardUploads(context, book, uploads)
		return err
	}

	service.logger.InfoContext(context, "book_import_appended",
		slog.String("book_id", book.ID),
		slog.Int("pages", len(pages)),
	)
	return nil
}

// storeDraft uploads every page image and returns the pages pointing at permanent URLs.
// On failure the uploads made so far are still returned.
func (service *Service) storeDraft(context context.Context, ownerID, bookID string, firstNumber int, draft *pdfimport.Draft) ([]page.Page, []storage.Upload, error) {
	pages := make([]page.Page, 0, len(draft.Pages))
	uploads := make([]storage.Upload, 0, len(draft.Pages))
	for i, drafted := range draft.Pages {
		upload, err := service.storage.UploadImage(context, bytes.NewReader(drafted.Image), ownerID, bookID, storage.PageRole(firstNumber+i))
		if err != nil {
			return nil, uploads, storageError(err)
		}
		uploads = append(uploads, upload)
		p := drafted.Page.Clone()
		p.Image = upload.URL
		pages = append(pages, p)
	}
	return pages, uploads, nil
}

// discardUploads removes objects stored for pages that never reached book. Keys still
// referenced by the book are kept, since identical content maps to the same key.
func (service *Service) discardUploads(context context.Context, book *Book, uploads []storage.Upload) {
	referenced := map[string]bool{book.CoverURL: true, book.PDFURL: true}
	for _, p := range book.Pages {
		referenced[p.Image] = true
	}

	for _, upload := range uploads {
		if referenced[upload.URL] {
			continue
		}
		if err := service.storage.Delete(context, upload.Key); err != nil {
			service.logger.WarnContext(context, "book_upload_cleanup_failed",
				slog.String("book_id", book.ID),
				slog.String("key", upload.Key),
				slog.Any("error", err),
			)
		}
	}
}

func (service *Service) discardFiles(context context.Context, ownerID, bookID string) {
	if err := service.storage.DeleteBook(context, ownerID, bookID); err != nil {
		service.logger.WarnContext(context, "book_files_cleanup_failed",
			slog.String("book_id", bookID),
			slog.Any("error", err),
		)
	}
}

// # Trash

// DeleteBook moves a book to the trash.
func (service *Service) DeleteBook(context context.Context, ownerID, id string) error {
	if _, err := service.editable(context, ownerID, id); err != nil {
		return err
	}
	return service.repo.SoftDelete(context, id)
}

// RestoreBook brings a trashed book back with its pages untouched.
func (service *Service) RestoreBook(context context.Context, ownerID, id string) (*Book, error) {
	book, err := service.GetBook(context, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !book.IsDeleted() {
		return nil, apperr.Conflict("The book is not in the trash")
	}

	if err := service.repo.Restore(context, id); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, id)
}

/*
PurgeBook permanently deletes a trashed book and its files.
*/
func (service *Service) PurgeBook(context context.Context, ownerID, id string) error {
	book, err := service.GetBook(context, ownerID, id)
	if err != nil {
		return err
	}
	if !book.IsDeleted() {
		return apperr.Conflict("Move the book to the trash before deleting it permanently")
	}

	return service.purge(context, Expired{ID: book.ID, OwnerID: book.OwnerID})
}

func (service *Service) purge(context context.Context, target Expired) error {
	if err := service.storage.DeleteBook(context, target.OwnerID, target.ID); err != nil {
		return fmt.Errorf("book: delete files of %s: %w", target.ID, err)
	}
	return service.repo.HardDelete(context, target.ID)
}

/*
PurgeExpired permanently deletes books that have been in the trash longer than retention.

Returns:
  - int: Number of books purged
  - error: Joined failures; one failing book does not stop the others
*/
func (service *Service) PurgeExpired(context context.Context, retention time.Duration) (int, error) {
	cutoff := service.now().Add(-retention)

	purged := 0
	var errs []error
	for {
		expired, err := service.repo.ListExpired(context, cutoff, purgeBatchSize)
		if err != nil {
			return purged, errors.Join(append(errs, err)...)
		}

		progressed := false
		for _, target := range expired {
			if err := service.purge(context, target); err != nil {
				errs = append(errs, err)
				continue
			}
			purged++
			progressed = true
		}

		// Stop on a short page, or when a whole page failed and would be listed again.
		if len(expired) < purgeBatchSize || !progressed {
			break
		}
	}

	return purged, errors.Join(errs...)
}

/*
RunPurger calls [Service.PurgeExpired] every interval until context is cancelled.
*/
func (service *Service) RunPurger(context context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			return
		case <-ticker.C:
			purged, err := service.PurgeExpired(context, retention)
			if err != nil {
				service.logger.ErrorContext(context, "trash_purge_failed", slog.Any("error", err))
			}
			if purged > 0 {
				service.logger.InfoContext(context, "trash_purged", slog.Int("books", purged))
			}
		}
	}
}

// # Validation & Normalisation

/*
NormalizePages sanitises author markup and fills render defaults.

Description: Title and text keep the rich-text allow-list; items are reduced to plain
text. Empty backgrounds and borders are stored as their defaults.
*/
func NormalizePages(pages []page.Page) []page.Page {
	normalized := make([]page.Page, 0, len(pages))
	for _, raw := range pages {
		p := raw.Clone()
		p.Layout = strings.TrimSpace(p.Layout)
		p.Title = strings.TrimSpace(node.Sanitize(p.Title))
		p.Text = strings.TrimSpace(node.Sanitize(p.Text))
		p.Image = strings.TrimSpace(p.Image)
		p.Background = p.BackgroundOrDefault()
		p.Border = p.BorderOrDefault()
		p.Font = strings.TrimSpace(p.Font)
		p.Animation = strings.TrimSpace(p.Animation)
		p.InteractiveGame = strings.TrimSpace(p.InteractiveGame)

		p.Items = slice.Filter(slice.Map(p.Items, node.PlainText), func(item string) bool { return item != "" })
		normalized = append(normalized, p)
	}
	return normalized
}

func validateMetadata(validator *validate.Validator, book *Book) {
	validator.Required(FieldTitle, book.Title).MaxLen(FieldTitle, book.Title, MaxTitleLen)
	validator.MaxLen(FieldDescription, book.Description, MaxDescriptionLen)
	validator.URL(FieldCoverURL, book.CoverURL)
	validator.OneOf(FieldReadingLevel, book.ReadingLevel, ReadingLevels...)
	lists := []struct {
		field  string
		values []string
	}{
		{FieldAuthors, book.Authors},
		{FieldCategories, book.Categories},
		{FieldGenres, book.Genres},
		{FieldTags, book.Tags},
		{FieldValues, book.Values},
	}
	for _, list := range lists {
		validator.MaxCount(list.field, len(list.values), MaxListEntries, "entries")
	}
}

// validatePages rejects content that would only degrade silently at render time.
func validatePages(validator *validate.Validator, pages []page.Page) {
	validator.Custom(FieldPages, len(pages) == 0, "At least one page is required")
	validator.MaxCount(FieldPages, len(pages), MaxPages, "pages")

	catalogue := theme.Keys()
	validator.Each(FieldPages, len(pages), func(index int, field string) {
		p := pages[index]

		// Layout
		switch {
		case !layout.IsValidLayoutID(p.Layout):
			validator.Custom(field+".layout", true, "Unknown layout")
		case !layout.CanUseLayoutOnPage(p.Layout, index+1):
			validator.Custom(field+".layout", true, "The cover layout is only allowed on the first page")
		}

		// Content
		validator.MaxLen(field+".title", p.Title, MaxPageTextLen)
		validator.MaxLen(field+".text", p.Text, MaxPageTextLen)
		if strings.HasPrefix(p.Image, "blob:") {
			validator.Custom(field+".image", true, "Upload the image before saving")
		} else {
			validator.URL(field+".image", p.Image)
		}

		// Theme tokens
		validator.Custom(field+".background",
			!theme.IsPaletteKey(p.Background) && !isPersistentURL(p.Background),
			"Must be a palette colour or an image URL")
		validator.Custom(field+".border", !slices.Contains(catalogue.Borders, p.Border), "Unknown border")
		if p.Font != "" {
			validator.Custom(field+".font", !slices.Contains(catalogue.Fonts, p.Font), "Unknown font")
		}
		if p.Animation != "" {
			validator.Custom(field+".animation", !slices.Contains(catalogue.Animations, p.Animation), "Unknown animation")
		}

		// Interactive content
		validator.MaxCount(field+".items", len(p.Items), MaxItems, "items")
		if p.InteractiveGame != "" {
			validator.Custom(field+".interactiveGame", gameError(p) != nil, "The game content is incomplete")
		}
	})
}

// gameError reports why the page's game could not start.
func gameError(p page.Page) error {
	kind, ok := game.ParseKind(p.InteractiveGame)
	if !ok {
		return game.ErrUnknownGame
	}

	input := game.Input{Image: p.Image, Items: p.Items}
	switch kind {
	case game.KindQuiz:
		_, err := game.NewQuizFor(input)
		return err
	case game.KindJigsaw:
		_, err := game.NewJigsawFor(input)
		return err
	}
	return game.ErrUnknownGame
}

func isPersistentURL(value string) bool {
	return strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://")
}

// cleanList trims entries, drops blanks and duplicates, and keeps first-seen order.
func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		value = node.PlainText(value)
		if value == "" || slices.Contains(cleaned, value) {
			continue
		}
		cleaned = append(cleaned, value)
	}
	return cleaned
}

func slugFor(title string) string {
	if generated := slug.From(title); generated != "" {
		return generated
	}
	return "libro"
}

// storageError maps storage failures to API errors.
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperr.UnsupportedMediaType("Unsupported file type")
	case errors.Is(err, storage.ErrTooLarge):
		return apperr.PayloadTooLarge("The file is too large")
	case errors.Is(err, storage.ErrInvalidKey):
		return apperr.ValidationError("Invalid file location")
	default:
		return err
	}
}
