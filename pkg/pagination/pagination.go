// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how offset-based navigation is requested via query parameters
// and how the resulting metadata is delivered in the API response envelope.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 10
	// MaxLimit is the upper bound for items per page to prevent unbounded result sets.
	MaxLimit = 500
)

// Params holds the parsed offset and limit from a request's query string.
type Params struct {
	Offset int
	Limit  int
}

// Clamp bounds the limit to maxLimit. Offsets are left untouched.
func (p Params) Clamp(maxLimit int) Params {
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// NewMeta constructs pagination metadata for a response.
func NewMeta(params Params, total int) Meta {
	return Meta{Offset: params.Offset, Limit: params.Limit, Total: total}
}

// FromRequest parses "offset" and "limit" query parameters from an HTTP request.
//
// # Validation
//
// Missing values fall back to 0 and defaultLimit. Non-integer or negative
// values are rejected, limits above maxLimit are clamped.
func FromRequest(r *http.Request, defaultLimit, maxLimit int) (Params, error) {
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		return Params{}, err
	}

	limit, err := parseIntParam(r, "limit", defaultLimit)
	if err != nil {
		return Params{}, err
	}

	return Params{Offset: offset, Limit: limit}.Clamp(maxLimit), nil
}

// parseIntParam parses a single non-negative integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("pagination: %s must be a non-negative integer, got %q", key, raw)
	}

	return n, nil
}
