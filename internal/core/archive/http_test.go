// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/core/archive"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/ctxutil"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// serve runs one request against the media routes as caller.
func serve(t *testing.T, f *fixture, caller identity.Identity, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	routes := archive.NewHandler(f.service, entity.ClassMedia, 10, 500).Routes()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request = request.WithContext(ctxutil.WithIdentity(request.Context(), caller))

	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)
	return recorder
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"meta"`
	Code string `json:"code"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestHandler_WriteAndRead drives a version chain through the HTTP layer.
*/
func TestHandler_WriteAndRead(t *testing.T) {
	f := newFixture(5)
	owner := member(sec.TierEditor)

	recorder := serve(t, f, owner, http.MethodPost, "/", `{"title":"Field notes","language":"en","visible":true,"published":true}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created entity.Header
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &created))
	assert.Equal(t, 0, created.Version)
	assert.Equal(t, owner.UserID, created.Owner)

	recorder = serve(t, f, owner, http.MethodPost, "/"+created.ID.String(), `{"title":"Field notes, revised","language":"en","visible":true,"parent_version":0}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var revised entity.Header
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &revised))
	assert.Equal(t, created.ID, revised.ID)
	assert.Equal(t, 1, revised.Version)

	t.Run("latest", func(t *testing.T) {
		recorder := serve(t, f, owner, http.MethodGet, "/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var record entity.MediaObject
		require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &record))
		assert.Equal(t, "Field notes, revised", record.Title)
	})

	t.Run("specific version", func(t *testing.T) {
		recorder := serve(t, f, owner, http.MethodGet, "/"+created.ID.String()+"/0", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var record entity.MediaObject
		require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &record))
		assert.Equal(t, "Field notes", record.Title)
	})

	t.Run("versions", func(t *testing.T) {
		recorder := serve(t, f, owner, http.MethodGet, "/"+created.ID.String()+"/versions", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 2, decode(t, recorder).Meta.Total)
	})

	t.Run("latest published flag", func(t *testing.T) {
		recorder := serve(t, f, owner, http.MethodGet, "/?latest&published=true", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 0, decode(t, recorder).Meta.Total, "newest version is a draft")
	})

	t.Run("anonymous write", func(t *testing.T) {
		recorder := serve(t, f, identity.Identity{}, http.MethodPost, "/", `{"title":"x","language":"en"}`)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestHandler_Rejections verifies malformed requests are reported as client errors.
*/
func TestHandler_Rejections(t *testing.T) {
	f := newFixture(5)
	caller := member(sec.TierEditor)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{name: "bad flag", method: http.MethodGet, target: "/?latest=maybe", status: http.StatusBadRequest},
		{name: "negative offset", method: http.MethodGet, target: "/?offset=-1", status: http.StatusBadRequest},
		{name: "bad search", method: http.MethodGet, target: "/?q=eq:nope:1", status: http.StatusBadRequest},
		{name: "asc and desc", method: http.MethodGet, target: "/?asc=title&desc=title", status: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, target: "/not-a-uuid", status: http.StatusBadRequest},
		{name: "bad version", method: http.MethodGet, target: "/" + uuid.NewString() + "/x", status: http.StatusBadRequest},
		{name: "version above 32 bits", method: http.MethodGet, target: "/" + uuid.NewString() + "/3000000000", status: http.StatusBadRequest},
		{name: "search integer above 32 bits", method: http.MethodGet, target: "/?q=eq:version:3000000000", status: http.StatusBadRequest},
		{name: "missing record", method: http.MethodGet, target: "/" + uuid.NewString(), status: http.StatusNotFound},
		{name: "unknown body field", method: http.MethodPost, target: "/", body: `{"title":"x","language":"en","color":"red"}`, status: http.StatusBadRequest},
		{name: "delete as editor", method: http.MethodDelete, target: "/" + uuid.NewString(), status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(t, f, caller, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
		})
	}
}

/*
TestHandler_Delete verifies administrator deletes and the Gone response.
*/
func TestHandler_Delete(t *testing.T) {
	f := newFixture(5)
	admin := member(sec.TierAdministrator)

	header, err := f.store.CreateVersion(t.Context(), media(uuid.Nil, admin.UserID, "doomed", true), nil, nil)
	require.NoError(t, err)

	recorder := serve(t, f, admin, http.MethodDelete, "/"+header.ID.String()+"/0", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = serve(t, f, admin, http.MethodDelete, "/"+header.ID.String(), "")
	assert.Equal(t, http.StatusGone, recorder.Code)
	assert.Equal(t, "NOTHING_MATCHED", decode(t, recorder).Code)
}
