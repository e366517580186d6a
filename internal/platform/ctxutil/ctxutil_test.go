// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dast-sv/lectoflip/internal/platform/ctxutil"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
)

func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies the fallback to the default logger.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, logger, ctxutil.GetLogger(ctxutil.WithLogger(ctx, logger)))
}

/*
TestContext_OwnerID covers anonymous, empty and verified claims.
*/
func TestContext_OwnerID(t *testing.T) {
	tests := []struct {
		name   string
		claims *sec.OwnerClaims
		owner  string
		ok     bool
	}{
		{name: "anonymous"},
		{name: "claims without id", claims: &sec.OwnerClaims{Name: "ana"}},
		{name: "verified owner", claims: &sec.OwnerClaims{OwnerID: "owner-1", Name: "ana"}, owner: "owner-1", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.claims != nil {
				ctx = ctxutil.WithAuthUser(ctx, tt.claims)
			}
			owner, ok := ctxutil.OwnerID(ctx)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
