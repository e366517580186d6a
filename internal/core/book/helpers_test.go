// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/storage"
)

const (
	owner    = "0190f7a6-0000-7000-8000-000000000001"
	stranger = "0190f7a6-0000-7000-8000-000000000002"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	return pngSized(t, 4, 3)
}

func pngSized(t *testing.T, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buffer.Bytes()
}

// memoryRepository implements book.Repository over a map. It copies on the way in
// and out so tests observe persisted state only.
type memoryRepository struct {
	mu        sync.Mutex
	books     map[string]*book.Book
	now       func() time.Time
	createErr error
	appendErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{books: make(map[string]*book.Book), now: time.Now}
}

func clone(source *book.Book) *book.Book {
	copied := *source
	copied.Pages = make([]page.Page, 0, len(source.Pages))
	for _, p := range source.Pages {
		copied.Pages = append(copied.Pages, p.Clone())
	}
	copied.PageCount = len(copied.Pages)
	if source.DeletedAt != nil {
		deletedAt := *source.DeletedAt
		copied.DeletedAt = &deletedAt
	}
	return &copied
}

func (repository *memoryRepository) Create(_ context.Context, b *book.Book) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.createErr != nil {
		return repository.createErr
	}
	b.CreatedAt = repository.now()
	b.UpdatedAt = b.CreatedAt
	b.PageCount = len(b.Pages)
	repository.books[b.ID] = clone(b)
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*book.Book, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.books[id]
	if !ok {
		return nil, apperr.NotFound("Book")
	}
	return clone(stored), nil
}

func (repository *memoryRepository) filter(ownerID string, trashed bool, limit, offset int) ([]*book.Book, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var matched []*book.Book
	for _, stored := range repository.books {
		if stored.OwnerID == ownerID && stored.IsDeleted() == trashed {
			listed := clone(stored)
			listed.Pages = nil
			matched = append(matched, listed)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= total {
		return []*book.Book{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (repository *memoryRepository) List(_ context.Context, ownerID string, limit, offset int) ([]*book.Book, int, error) {
	return repository.filter(ownerID, false, limit, offset)
}

func (repository *memoryRepository) ListTrash(_ context.Context, ownerID string, limit, offset int) ([]*book.Book, int, error) {
	return repository.filter(ownerID, true, limit, offset)
}

func (repository *memoryRepository) active(id string) (*book.Book, error) {
	stored, ok := repository.books[id]
	if !ok || stored.IsDeleted() {
		return nil, apperr.NotFound("Book")
	}
	return stored, nil
}

func (repository *memoryRepository) UpdateMetadata(_ context.Context, b *book.Book) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, err := repository.active(b.ID)
	if err != nil {
		return err
	}
	pages := stored.Pages
	*stored = *clone(b)
	stored.Pages = pages
	stored.UpdatedAt = repository.now()
	return nil
}

func (repository *memoryRepository) ReplacePages(_ context.Context, bookID string, pages []page.Page) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, err := repository.active(bookID)
	if err != nil {
		return err
	}
	stored.Pages = clone(&book.Book{Pages: pages}).Pages
	return nil
}

func (repository *memoryRepository) AppendPages(_ context.Context, bookID string, pages []page.Page) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.appendErr != nil {
		return 0, repository.appendErr
	}
	stored, err := repository.active(bookID)
	if err != nil {
		return 0, err
	}
	first := len(stored.Pages) + 1
	stored.Pages = append(stored.Pages, clone(&book.Book{Pages: pages}).Pages...)
	return first, nil
}

func (repository *memoryRepository) UpdatePage(_ context.Context, bookID string, number int, p page.Page) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, err := repository.active(bookID)
	if err != nil {
		return err
	}
	if number < 1 || number > len(stored.Pages) {
		return apperr.NotFound("Page")
	}
	stored.Pages[number-1] = p.Clone()
	return nil
}

func (repository *memoryRepository) RemovePage(_ context.Context, bookID string, number int) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, err := repository.active(bookID)
	if err != nil {
		return err
	}
	if number < 1 || number > len(stored.Pages) {
		return apperr.NotFound("Page")
	}
	stored.Pages = slices.Delete(stored.Pages, number-1, number)
	return nil
}

func (repository *memoryRepository) SoftDelete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, err := repository.active(id)
	if err != nil {
		return err
	}
	deletedAt := repository.now()
	stored.DeletedAt = &deletedAt
	return nil
}

func (repository *memoryRepository) Restore(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.books[id]
	if !ok || !stored.IsDeleted() {
		return apperr.NotFound("Trashed book")
	}
	stored.DeletedAt = nil
	return nil
}

func (repository *memoryRepository) HardDelete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if _, ok := repository.books[id]; !ok {
		return apperr.NotFound("Book")
	}
	delete(repository.books, id)
	return nil
}

func (repository *memoryRepository) ListExpired(_ context.Context, cutoff time.Time, limit int) ([]book.Expired, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var expired []book.Expired
	for _, stored := range repository.books {
		if stored.IsDeleted() && stored.DeletedAt.Before(cutoff) && len(expired) < limit {
			expired = append(expired, book.Expired{ID: stored.ID, OwnerID: stored.OwnerID})
		}
	}
	return expired, nil
}

type serviceFixture struct {
	service *book.Service
	repo    *memoryRepository
	files   *storage.DiskStore
	root    string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	root := t.TempDir()
	files, err := storage.NewDiskStore(root, "http://localhost:8080", 1<<20, 1<<20)
	require.NoError(t, err)

	repo := newMemoryRepository()
	return &serviceFixture{
		service: book.NewService(repo, files, discardLogger()),
		repo:    repo,
		files:   files,
		root:    root,
	}
}

// validBook is the smallest book the service accepts.
func validBook() *book.Book {
	return &book.Book{
		Title: "El viaje",
		Pages: []page.Page{
			{Layout: string(page.LayoutCover), Title: "El viaje", Image: "https://cdn.example.com/cover.jpg"},
			{Layout: string(page.LayoutTextCenter), Text: "Había una vez"},
		},
	}
}
