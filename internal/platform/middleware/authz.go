// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Archivum API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/constants"
	"github.com/taibuivan/archivum/internal/platform/ctxutil"
	"github.com/taibuivan/archivum/internal/platform/respond"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify bearer tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// IdentityResolver turns verified credentials into a caller [identity.Identity].
//
// Tier and group membership always come from the identity store, never from
// the token itself.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (identity.Identity, error)
	Authenticate(ctx context.Context, name, password string) (identity.Identity, error)
	Anonymous(ctx context.Context) (identity.Identity, error)
}

// Authenticate resolves the caller of every request and injects it into the context.
//
// # Flow
//  1. No 'Authorization' header: the caller is anonymous.
//  2. 'Bearer <token>': verify via [TokenVerifier], then resolve the subject.
//  3. 'Basic <credentials>': check name/password against the identity store.
//  4. Inject [identity.Identity] into the request context for downstream use.
func Authenticate(verifier TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			var (
				caller identity.Identity
				err    error
			)

			switch {
			// ── 1. Anonymous Access ───────────────────────────────────────────
			case authHeader == "":
				caller, err = resolver.Anonymous(ctx)

			// ── 2. Bearer Token ───────────────────────────────────────────────
			case hasScheme(authHeader, "bearer"):
				caller, err = resolveBearer(ctx, verifier, resolver, authHeader[len("bearer "):])

			// ── 3. Basic Credentials ──────────────────────────────────────────
			case hasScheme(authHeader, "basic"):
				name, password, ok := request.BasicAuth()
				if !ok {
					err = apperr.Unauthorized("Invalid authorization format")
					break
				}
				caller, err = resolver.Authenticate(ctx, name, password)

			default:
				err = apperr.Unauthorized("Invalid authorization format")
			}

			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx = ctxutil.WithIdentity(ctx, caller)
			if !caller.IsAnonymous() {
				logger := ctxutil.GetLogger(ctx).With(slog.String("user_id", caller.UserID.String()))
				ctx = ctxutil.WithLogger(ctx, logger)
			}
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

func resolveBearer(ctx context.Context, verifier TokenVerifier, resolver IdentityResolver, token string) (identity.Identity, error) {
	claims, err := verifier.VerifyToken(strings.TrimSpace(token))
	if err != nil {
		return identity.Identity{}, apperr.Unauthorized("Invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.Identity{}, apperr.Unauthorized("Invalid token subject")
	}

	caller, err := resolver.Resolve(ctx, userID)
	if apperr.HasCode(err, "NOT_FOUND") {
		return identity.Identity{}, apperr.Unauthorized("Unknown user")
	}
	return caller, err
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) && header[len(scheme)] == ' '
}

// RequireAuth blocks anonymous requests.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		caller, ok := ctxutil.GetIdentity(request.Context())
		if !ok || caller.IsAnonymous() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireTier blocks requests whose caller is below the required tier.
//
// # Flow
//  1. Anonymous callers are rejected with HTTP 401 Unauthorized.
//  2. Callers below tier are rejected with HTTP 403 Forbidden.
func RequireTier(tier sec.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			caller, ok := ctxutil.GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if !ok || caller.IsAnonymous() {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !caller.Tier.AtLeast(tier) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
