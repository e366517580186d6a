// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
)

var errBrokenPage = errors.New("broken page")

// samplePDF carries the signature the validators look for.
var samplePDF = []byte("%PDF-1.7\n% sample\n")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRasterizer produces solid rasters without MuPDF.
type fakeRasterizer struct {
	pages  int
	size   image.Point
	title  string
	failAt int // 1-based page that fails to render; 0 never fails
	gate   chan struct{}
}

func (rasterizer *fakeRasterizer) Open([]byte) (pdfimport.Document, error) {
	return &fakeDocument{rasterizer: rasterizer}, nil
}

type fakeDocument struct {
	rasterizer *fakeRasterizer
	closed     bool
}

func (document *fakeDocument) PageCount() int { return document.rasterizer.pages }
func (document *fakeDocument) Title() string  { return document.rasterizer.title }

func (document *fakeDocument) PageSize(int) (geom.Size, error) {
	return geom.Size{Width: document.rasterizer.size.X, Height: document.rasterizer.size.Y}, nil
}

func (document *fakeDocument) Render(index int) (image.Image, error) {
	if document.rasterizer.gate != nil {
		<-document.rasterizer.gate
	}
	if document.rasterizer.failAt == index+1 {
		return nil, errBrokenPage
	}
	raster := image.NewRGBA(image.Rect(0, 0, document.rasterizer.size.X, document.rasterizer.size.Y))
	for y := 0; y < document.rasterizer.size.Y; y++ {
		for x := 0; x < document.rasterizer.size.X; x++ {
			raster.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	return raster, nil
}

func (document *fakeDocument) Close() error {
	document.closed = true
	return nil
}

// countingStore records every URL it hands out and how often each is revoked.
type countingStore struct {
	*blob.MemoryStore
	mu      sync.Mutex
	created []string
	revoked map[string]int

	// While held is non-nil, Revoke signals entered once and waits for held to close.
	held    chan struct{}
	entered chan struct{}
	signal  sync.Once
}

func newCountingStore() *countingStore {
	return &countingStore{
		MemoryStore: blob.NewMemoryStore("http://localhost:8080", time.Hour),
		revoked:     map[string]int{},
	}
}

func (store *countingStore) Put(context context.Context, data []byte, contentType string) (string, error) {
	url, err := store.MemoryStore.Put(context, data, contentType)
	if err == nil {
		store.mu.Lock()
		store.created = append(store.created, url)
		store.mu.Unlock()
	}
	return url, err
}

func (store *countingStore) Revoke(context context.Context, url string) error {
	store.mu.Lock()
	held, entered := store.held, store.entered
	store.mu.Unlock()
	if held != nil {
		store.signal.Do(func() { close(entered) })
		<-held
	}

	store.mu.Lock()
	store.revoked[url]++
	store.mu.Unlock()
	return store.MemoryStore.Revoke(context, url)
}

// holdRevokes blocks revocations until resume is called; entered closes when the first
// revocation starts waiting.
func (store *countingStore) holdRevokes() (entered <-chan struct{}, resume func()) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.held = make(chan struct{})
	store.entered = make(chan struct{})
	store.signal = sync.Once{}
	held := store.held
	return store.entered, func() {
		store.mu.Lock()
		store.held = nil
		store.mu.Unlock()
		close(held)
	}
}

// createdURLs returns every URL the store has handed out.
func (store *countingStore) createdURLs() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]string(nil), store.created...)
}

func (store *countingStore) revokeCount(url string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.revoked[url]
}

func (store *countingStore) totalRevokes() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	total := 0
	for _, count := range store.revoked {
		total += count
	}
	return total
}
