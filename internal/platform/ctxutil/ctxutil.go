// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
//
// Only transport code reads these values. Core operations receive the caller
// identity as an explicit parameter.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Caller Identity

// WithIdentity returns a new context carrying the resolved caller.
func WithIdentity(ctx context.Context, caller identity.Identity) context.Context {
	return context.WithValue(ctx, ctxkey.KeyIdentity, caller)
}

// GetIdentity retrieves the resolved caller. The second result is false when
// no authentication middleware ran for this request.
func GetIdentity(ctx context.Context) (identity.Identity, bool) {
	caller, ok := ctx.Value(ctxkey.KeyIdentity).(identity.Identity)
	return caller, ok
}
