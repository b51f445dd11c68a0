// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/dberr"
)

/*
TestWrap verifies the classification of database errors into application errors.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "no rows", err: pgx.ErrNoRows, code: "NOT_FOUND", status: http.StatusNotFound},
		{name: "unique", err: &pgconn.PgError{Code: dberr.CodeUniqueViolation}, code: "CONFLICT", status: http.StatusConflict},
		{name: "foreign key", err: &pgconn.PgError{Code: dberr.CodeForeignKeyViolation}, code: "CONFLICT", status: http.StatusConflict},
		{name: "check", err: &pgconn.PgError{Code: dberr.CodeCheckViolation}, code: "CONFLICT", status: http.StatusConflict},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), code: "NOT_FOUND", status: http.StatusNotFound},
		{name: "unknown", err: errors.New("connection reset"), code: "INTERNAL_ERROR", status: http.StatusInternalServerError},
		{name: "already classified", err: apperr.Forbidden("no"), code: "FORBIDDEN", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := apperr.As(dberr.Wrap(tt.err, "test"))
			if assert.NotNil(t, wrapped) {
				assert.Equal(t, tt.code, wrapped.Code)
				assert.Equal(t, tt.status, wrapped.HTTPStatus)
			}
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "test"))
}

/*
TestClassifiers covers the SQLSTATE helpers used by the version allocator.
*/
func TestClassifiers(t *testing.T) {
	pkey := &pgconn.PgError{Code: dberr.CodeUniqueViolation, ConstraintName: "media_pkey"}

	assert.True(t, dberr.IsUniqueViolation(pkey, ""))
	assert.True(t, dberr.IsUniqueViolation(fmt.Errorf("insert: %w", pkey), "media_pkey"))
	assert.False(t, dberr.IsUniqueViolation(pkey, "series_pkey"))
	assert.False(t, dberr.IsUniqueViolation(errors.New("x"), ""))

	assert.True(t, dberr.IsRetryable(&pgconn.PgError{Code: dberr.CodeSerializationFailure}))
	assert.True(t, dberr.IsRetryable(&pgconn.PgError{Code: dberr.CodeDeadlockDetected}))
	assert.False(t, dberr.IsRetryable(pkey))

	assert.Equal(t, "", dberr.Code(errors.New("x")))
}
