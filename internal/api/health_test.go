// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/api"
)

func healthy(context.Context) error { return nil }

func broken(context.Context) error { return errors.New("connection refused") }

/*
TestReadiness verifies that only the database gates readiness.
*/
func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		deps       api.HealthDependencies
		wantStatus int
		wantState  string
	}{
		{name: "all healthy", deps: api.HealthDependencies{CheckDatabase: healthy, CheckCache: healthy}, wantStatus: http.StatusOK, wantState: "ready"},
		{name: "cache down", deps: api.HealthDependencies{CheckDatabase: healthy, CheckCache: broken}, wantStatus: http.StatusOK, wantState: "ready"},
		{name: "database down", deps: api.HealthDependencies{CheckDatabase: broken, CheckCache: healthy}, wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
		{name: "no cache configured", deps: api.HealthDependencies{CheckDatabase: healthy}, wantStatus: http.StatusOK, wantState: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			liveness, readiness := api.NewHealthHandlers(tt.deps, logger)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)

			var body struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Data.Status)

			recorder = httptest.NewRecorder()
			liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, recorder.Code)
		})
	}
}
