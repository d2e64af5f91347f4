package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pokedex/internal/catalog"
	"pokedex/internal/config"
	"pokedex/internal/httpx"
	"pokedex/internal/ingest"
	"pokedex/internal/platform/pokeapi"
	"pokedex/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, ready readinessFunc) http.Handler {
	t.Helper()
	upstream := testutil.NewFakePokeAPI(t, testutil.Bulbasaur())
	client := pokeapi.NewClient("test", 0, 0, pokeapi.WithBaseURL(upstream.URL))
	svc := catalog.NewService(client, catalog.Config{PageSize: 1}, zap.NewNop())

	limiter := httpx.NewRateLimitMiddleware(1000, 1000)
	t.Cleanup(limiter.Stop)

	cfg := config.Config{CORSOrigins: []string{"*"}}
	warm := ingest.NewHTTPHandler(ingest.NewService(svc, nil, ingest.Config{Pages: 1}, zap.NewNop()), "s3cret")
	return newRouter(cfg, zap.NewNop(), ready, limiter, catalog.NewHTTPHandler(svc, zap.NewNop()), warm)
}

func alwaysReady(context.Context) error { return nil }

func TestV1Routing(t *testing.T) {
	router := newTestRouter(t, alwaysReady)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/pokemon?page=1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

		var body struct {
			Data []map[string]any `json:"data"`
			Meta map[string]any   `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Data, 2)
		assert.Equal(t, "bulbasaur", body.Data[0]["name"])
		assert.Equal(t, false, body.Meta["has_more"])
	})

	t.Run("detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/pokemon/Bulbasaur", nil))

		resp := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, resp.Code, http.StatusOK)
		data, _ := resp.Body["data"].(map[string]any)
		assert.Equal(t, "bulbasaur", data["name"])
		assert.Len(t, data["evolution_lines"], 1)
	})

	t.Run("unknown pokemon", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/pokemon/missingno", nil))

		resp := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, resp.Code, http.StatusNotFound)
		assert.Equal(t, "NOT_FOUND", resp.ErrorCode())
	})

	t.Run("unversioned path", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pokemon", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("warm job requires secret", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/jobs/warm", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/internal/jobs/warm", nil)
		r.Header.Set("X-Internal-Secret", "s3cret")
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/pokemon", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(t, alwaysReady).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(t, alwaysReady).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		notReady := func(context.Context) error { return errors.New("db down") }
		w := httptest.NewRecorder()
		newTestRouter(t, notReady).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
