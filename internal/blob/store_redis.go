// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/pkg/uuid"
)

const (
	fieldContentType = "type"
	fieldData        = "data"
)

// RedisStore implements [Store] with one Redis hash per blob, expiring after a TTL.
type RedisStore struct {
	client  *redis.Client
	baseURL string
	ttl     time.Duration
}

// NewRedisStore creates a Redis-backed blob store.
func NewRedisStore(client *redis.Client, baseURL string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, baseURL: baseURL, ttl: ttl}
}

func (store *RedisStore) key(id string) string {
	return constants.RedisPrefixBlob + id
}

/*
Put writes the blob and its TTL in one transaction.

Parameters:
  - context: context.Context
  - data: []byte
  - contentType: string

Returns:
  - string: blob URL
  - error: Storage failures
*/
func (store *RedisStore) Put(context context.Context, data []byte, contentType string) (string, error) {
	id := uuid.New()
	key := store.key(id)

	_, err := store.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.HSet(context, key, fieldContentType, contentType, fieldData, data)
		pipe.Expire(context, key, store.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis_blob_put_failed: %w", err)
	}

	return URLFor(store.baseURL, id), nil
}

/*
Get reads a blob hash.

Returns:
  - *Blob: Stored object
  - error: ErrUnknownBlob if the hash is absent or expired
*/
func (store *RedisStore) Get(context context.Context, id string) (*Blob, error) {
	fields, err := store.client.HGetAll(context, store.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_blob_get_failed: %w", err)
	}

	// HGETALL on a missing key yields an empty map rather than redis.Nil.
	data, ok := fields[fieldData]
	if !ok {
		return nil, ErrUnknownBlob
	}

	return &Blob{
		ID:          id,
		ContentType: fields[fieldContentType],
		Data:        []byte(data),
	}, nil
}

// Revoke deletes the hash behind url.
func (store *RedisStore) Revoke(context context.Context, url string) error {
	id, ok := ParseURL(url)
	if !ok {
		return nil
	}

	if err := store.client.Del(context, store.key(id)).Err(); err != nil {
		return fmt.Errorf("redis_blob_revoke_failed: %w", err)
	}
	return nil
}
