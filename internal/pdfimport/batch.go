// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dast-sv/lectoflip/internal/blob"
)

// Batch is a set of blob URLs created together and released together.
//
// Release revokes each tracked URL exactly once; later calls are no-ops. URLs tracked
// after a release are revoked immediately so that nothing outlives its batch.
type Batch struct {
	mu       sync.Mutex
	store    blob.Store
	urls     []string
	released bool
}

// NewBatch creates an empty batch over store.
func NewBatch(store blob.Store) *Batch {
	return &Batch{store: store}
}

// Track adds url to the batch.
func (batch *Batch) Track(context context.Context, url string) error {
	batch.mu.Lock()
	if !batch.released {
		batch.urls = append(batch.urls, url)
		batch.mu.Unlock()
		return nil
	}
	batch.mu.Unlock()

	return batch.store.Revoke(context, url)
}

// URLs returns a copy of the tracked URLs in insertion order.
func (batch *Batch) URLs() []string {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	return append([]string(nil), batch.urls...)
}

// Len reports the number of tracked URLs.
func (batch *Batch) Len() int {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	return len(batch.urls)
}

// Released reports whether [Batch.Release] has run.
func (batch *Batch) Released() bool {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	return batch.released
}

/*
Release revokes every tracked URL.

Returns:
  - error: Joined revoke failures. The batch counts as released regardless, since a
    blob that failed to revoke still expires with its TTL.
*/
func (batch *Batch) Release(context context.Context) error {
	batch.mu.Lock()
	if batch.released {
		batch.mu.Unlock()
		return nil
	}
	batch.released = true
	urls := batch.urls
	batch.urls = nil
	batch.mu.Unlock()

	var errs []error
	for _, url := range urls {
		if err := batch.store.Revoke(context, url); err != nil {
			errs = append(errs, fmt.Errorf("revoke %s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}
