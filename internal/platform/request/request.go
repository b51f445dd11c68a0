// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/ctxutil"
	"github.com/taibuivan/archivum/internal/platform/validate"
	"github.com/taibuivan/archivum/pkg/pagination"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
UUIDParam retrieves and parses a named UUID URL parameter.

Returns:
  - uuid.UUID: Parsed identifier
  - error: Validation error naming the parameter
*/
func UUIDParam(request *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(request, name))
	if err != nil {
		return uuid.Nil, validate.RequiredError(name, "Must be a valid UUID")
	}
	return id, nil
}

/*
IntParam retrieves and parses a named non-negative integer URL parameter.

Values must fit the 32-bit integer columns they are compared against.
*/
func IntParam(request *http.Request, name string) (int, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 32)
	if err != nil || value < 0 {
		return 0, validate.RequiredError(name, "Must be a non-negative 32-bit integer")
	}
	return int(value), nil
}

/*
Page parses offset/limit query parameters, clamping the limit to maxLimit.
*/
func Page(request *http.Request, defaultLimit, maxLimit int) (pagination.Params, error) {
	params, err := pagination.FromRequest(request, defaultLimit, maxLimit)
	if err != nil {
		return pagination.Params{}, apperr.ValidationError(err.Error())
	}
	return params, nil
}

/*
Caller returns the identity resolved by the authentication middleware.

Routes mounted without that middleware see a zero-value (anonymous, public tier) caller.
*/
func Caller(request *http.Request) identity.Identity {
	caller, _ := ctxutil.GetIdentity(request.Context())
	return caller
}

/*
RequiredCaller ensures the request is authenticated and returns the caller.

Returns:
  - identity.Identity: The signed-in caller
  - error: apperr.Unauthorized if the caller is anonymous
*/
func RequiredCaller(request *http.Request) (identity.Identity, error) {
	caller := Caller(request)
	if caller.IsAnonymous() {
		return identity.Identity{}, apperr.Unauthorized("Authentication required")
	}
	return caller, nil
}
