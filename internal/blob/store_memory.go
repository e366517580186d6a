// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dast-sv/lectoflip/pkg/uuid"
)

// MemoryStore implements [Store] in process memory. It backs single-node deployments
// without Redis and the tests.
type MemoryStore struct {
	items   *cache.Cache
	baseURL string
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl.
func NewMemoryStore(baseURL string, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items:   cache.New(ttl, ttl*2),
		baseURL: baseURL,
	}
}

func (store *MemoryStore) Put(_ context.Context, data []byte, contentType string) (string, error) {
	id := uuid.New()
	stored := &Blob{ID: id, ContentType: contentType, Data: append([]byte(nil), data...)}
	store.items.SetDefault(id, stored)
	return URLFor(store.baseURL, id), nil
}

func (store *MemoryStore) Get(_ context.Context, id string) (*Blob, error) {
	value, ok := store.items.Get(id)
	if !ok {
		return nil, ErrUnknownBlob
	}
	return value.(*Blob), nil
}

func (store *MemoryStore) Revoke(_ context.Context, url string) error {
	if id, ok := ParseURL(url); ok {
		store.items.Delete(id)
	}
	return nil
}

// Len reports the number of live blobs.
func (store *MemoryStore) Len() int {
	return store.items.ItemCount()
}
