// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage keeps the permanent files of a book: its cover, page images and source PDF.

Objects are content-addressed. The key of every object embeds a blake2b digest of its
bytes, so re-uploading identical content under the same role is idempotent and URLs can
be cached forever.

Layout on disk:

	<root>/<ownerID>/<bookID>/<role>-<digest>.<ext>
*/
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/dast-sv/lectoflip/internal/platform/constants"
)

// # Errors

var (
	// ErrInvalidKey is returned for owner, book or role segments that are not path-safe.
	ErrInvalidKey = errors.New("storage: invalid object key")

	// ErrUnsupportedType is returned for content that is not an accepted image or PDF.
	ErrUnsupportedType = errors.New("storage: unsupported content type")

	// ErrTooLarge is returned when content exceeds the per-kind ceiling.
	ErrTooLarge = errors.New("storage: object too large")
)

// PathPrefix is where stored objects are served.
const PathPrefix = "/files/"

// Roles name the objects of a book.
const (
	RoleCover  = "cover"
	RoleSource = "source"
)

// PageRole is the role of the image of page number (1-based).
func PageRole(number int) string {
	return fmt.Sprintf("page-%03d", number)
}

// segmentPattern accepts UUIDs, slugs and roles.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// imageExtensions maps accepted image types to file extensions.
var imageExtensions = map[string]string{
	constants.MimeJPEG: ".jpg",
	constants.MimePNG:  ".png",
	constants.MimeWebP: ".webp",
	"image/gif":        ".gif",
}

// # Contract

// Upload describes a stored object.
type Upload struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Uploader stores book files.
type Uploader interface {

	/*
		UploadImage stores an image under the given role of a book.

		Returns:
		  - Upload: Public URL and key
		  - error: ErrInvalidKey, ErrUnsupportedType, ErrTooLarge or I/O failures
	*/
	UploadImage(context context.Context, reader io.Reader, ownerID, bookID, role string) (Upload, error)

	/*
		UploadPDF stores the source document of a book.
	*/
	UploadPDF(context context.Context, reader io.Reader, ownerID, bookID string) (Upload, error)

	/*
		Delete removes one object by its key. A missing object is not an error.

		Returns:
		  - error: ErrInvalidKey or I/O failures
	*/
	Delete(context context.Context, key string) error

	/*
		DeleteBook removes every object of a book. Deleting a book without objects is not an error.
	*/
	DeleteBook(context context.Context, ownerID, bookID string) error
}

// # Disk Implementation

// DiskStore implements [Uploader] on the local filesystem.
type DiskStore struct {
	root          string
	baseURL       string
	maxImageBytes int64
	maxPDFBytes   int64
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root, baseURL string, maxImageBytes, maxPDFBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &DiskStore{
		root:          root,
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxImageBytes: maxImageBytes,
		maxPDFBytes:   maxPDFBytes,
	}, nil
}

func (store *DiskStore) UploadImage(context context.Context, reader io.Reader, ownerID, bookID, role string) (Upload, error) {
	data, err := readLimited(reader, store.maxImageBytes)
	if err != nil {
		return Upload{}, err
	}

	contentType := http.DetectContentType(data)
	extension, ok := imageExtensions[contentType]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return store.put(context, data, contentType, extension, ownerID, bookID, role)
}

func (store *DiskStore) UploadPDF(context context.Context, reader io.Reader, ownerID, bookID string) (Upload, error) {
	data, err := readLimited(reader, store.maxPDFBytes)
	if err != nil {
		return Upload{}, err
	}
	if http.DetectContentType(data) != constants.MimePDF {
		return Upload{}, fmt.Errorf("%w: expected pdf", ErrUnsupportedType)
	}

	return store.put(context, data, constants.MimePDF, ".pdf", ownerID, bookID, RoleSource)
}

func (store *DiskStore) Delete(context context.Context, key string) error {
	target, ok := store.keyPath(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := context.Err(); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (store *DiskStore) DeleteBook(context context.Context, ownerID, bookID string) error {
	if !segmentPattern.MatchString(ownerID) || !segmentPattern.MatchString(bookID) {
		return ErrInvalidKey
	}
	if err := context.Err(); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(store.root, ownerID, bookID)); err != nil {
		return fmt.Errorf("storage: delete book %s: %w", bookID, err)
	}
	return nil
}

// Ping reports whether the root directory is still present.
func (store *DiskStore) Ping() error {
	info, err := os.Stat(store.root)
	if err != nil {
		return fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: root %s is not a directory", store.root)
	}
	return nil
}

// Handler serves stored objects. Mount it at [PathPrefix]; directory listings are refused.
func (store *DiskStore) Handler() http.Handler {
	files := http.StripPrefix(strings.TrimSuffix(PathPrefix, "/"), http.FileServer(http.Dir(store.root)))
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if strings.HasSuffix(request.URL.Path, "/") {
			http.NotFound(writer, request)
			return
		}
		writer.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(writer, request)
	})
}

// Resolve maps a URL issued by this store to the file holding it.
// URLs of other hosts, unsafe keys and missing files report false.
func (store *DiskStore) Resolve(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, store.baseURL+PathPrefix)
	if !ok {
		return "", false
	}

	target, ok := store.keyPath(key)
	if !ok {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return target, true
}

// keyPath maps an object key of the form owner/book/file to its path under root.
func (store *DiskStore) keyPath(key string) (string, bool) {
	segments := strings.Split(key, "/")
	if len(segments) != 3 || !segmentPattern.MatchString(segments[0]) || !segmentPattern.MatchString(segments[1]) {
		return "", false
	}
	if segments[2] == "" || strings.HasPrefix(segments[2], ".") || strings.ContainsAny(segments[2], `\`) {
		return "", false
	}
	return filepath.Join(store.root, segments[0], segments[1], segments[2]), true
}

// put writes data atomically under its content-addressed key.
func (store *DiskStore) put(context context.Context, data []byte, contentType, extension, ownerID, bookID, role string) (Upload, error) {
	for _, segment := range []string{ownerID, bookID, role} {
		if !segmentPattern.MatchString(segment) {
			return Upload{}, fmt.Errorf("%w: %q", ErrInvalidKey, segment)
		}
	}
	if err := context.Err(); err != nil {
		return Upload{}, err
	}

	key := path.Join(ownerID, bookID, role+"-"+Digest(data)+extension)
	target := filepath.Join(store.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Upload{}, fmt.Errorf("storage: create directory: %w", err)
	}

	temporary, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Upload{}, fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return Upload{}, fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := temporary.Close(); err != nil {
		return Upload{}, fmt.Errorf("storage: close %s: %w", key, err)
	}
	if err := os.Chmod(temporary.Name(), 0o644); err != nil {
		return Upload{}, fmt.Errorf("storage: chmod %s: %w", key, err)
	}
	if err := os.Rename(temporary.Name(), target); err != nil {
		return Upload{}, fmt.Errorf("storage: commit %s: %w", key, err)
	}

	return Upload{
		URL:         store.baseURL + PathPrefix + key,
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Digest returns the hex blake2b-256 prefix used in object keys.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func readLimited(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
