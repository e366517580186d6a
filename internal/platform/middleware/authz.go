// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/internal/platform/ctxutil"
	"github.com/dast-sv/lectoflip/internal/platform/respond"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
)

// accessTokenParam carries the token on websocket upgrades, where browsers cannot
// set an Authorization header.
const accessTokenParam = "access_token"

// TokenVerifier defines the interface needed to verify tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.OwnerClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Read 'Authorization: Bearer <token>' (or ?access_token= on websocket upgrades).
//  2. If absent, the request proceeds as anonymous.
//  3. If present, verify it via [TokenVerifier].
//  4. Inject [*sec.OwnerClaims] and an owner-tagged logger into the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			tokenStr, present, valid := bearerToken(request)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if !present {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			if !valid {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			// Handler logs of this request carry the owner from here on.
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("owner_id", claims.OwnerID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken reports the token, whether one was supplied, and whether it was well formed.
func bearerToken(request *http.Request) (string, bool, bool) {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		if isWebsocketUpgrade(request) {
			if token := request.URL.Query().Get(accessTokenParam); token != "" {
				return token, true, true
			}
		}
		return "", false, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", true, false
	}
	return parts[1], true, true
}

func isWebsocketUpgrade(request *http.Request) bool {
	return strings.EqualFold(request.Header.Get("Upgrade"), "websocket")
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
