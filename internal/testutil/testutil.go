package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// BaseURLPlaceholder in a FakePokeAPI body is replaced by the server URL.
const BaseURLPlaceholder = "{{base}}"

// FakePokeAPI serves fixed JSON bodies keyed by path ("/pokemon/bulbasaur").
// Trailing slashes are ignored; unknown paths return 404.
type FakePokeAPI struct {
	*httptest.Server
	hits atomic.Int64
}

func NewFakePokeAPI(t testing.TB, routes map[string]string) *FakePokeAPI {
	t.Helper()
	f := &FakePokeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		body, ok := routes[strings.TrimSuffix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.ReplaceAll(body, BaseURLPlaceholder, f.URL))
	}))
	t.Cleanup(f.Close)
	return f
}

// Hits is the number of requests served so far.
func (f *FakePokeAPI) Hits() int64 {
	return f.hits.Load()
}

// Bulbasaur is a small three-stage catalog used across package tests.
func Bulbasaur() map[string]string {
	return map[string]string{
		"/pokemon": `{"count":2,"next":null,"results":[
			{"name":"bulbasaur","url":"{{base}}/pokemon/bulbasaur/"},
			{"name":"ivysaur","url":"{{base}}/pokemon/ivysaur/"}]}`,
		"/pokemon/bulbasaur": `{"id":1,"name":"bulbasaur","base_experience":64,"height":7,"weight":69,
			"sprites":{"front_default":"f1.png","back_default":"b1.png"},
			"types":[{"slot":1,"type":{"name":"grass"}},{"slot":2,"type":{"name":"poison"}}],
			"abilities":[{"is_hidden":false,"slot":1,"ability":{"name":"overgrow"}},{"is_hidden":true,"slot":3,"ability":{"name":"chlorophyll"}}],
			"species":{"name":"bulbasaur","url":"{{base}}/pokemon-species/bulbasaur/"}}`,
		"/pokemon/ivysaur": `{"id":2,"name":"ivysaur","types":[{"slot":1,"type":{"name":"grass"}}],
			"species":{"name":"ivysaur","url":"{{base}}/pokemon-species/ivysaur/"}}`,
		"/pokemon-species/bulbasaur": `{"id":1,"name":"bulbasaur","evolution_chain":{"url":"{{base}}/evolution-chain/1/"}}`,
		"/pokemon-species/ivysaur":   `{"id":2,"name":"ivysaur","evolution_chain":{"url":"{{base}}/evolution-chain/1/"}}`,
		"/evolution-chain/1": `{"id":1,"chain":{"species":{"name":"bulbasaur"},"evolves_to":[
			{"species":{"name":"ivysaur"},"evolves_to":[{"species":{"name":"venusaur"},"evolves_to":[]}]}]}}`,
	}
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse decodes a recorded JSON envelope.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// ErrorCode returns error.code from a JSON error envelope, or "".
func (r RecordResponse) ErrorCode() string {
	e, ok := r.Body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}
