package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joestump/devhub/internal/api"
	"github.com/joestump/devhub/internal/seed"
	"github.com/joestump/devhub/internal/store"
	"github.com/joestump/devhub/internal/testutil"
)

// Tokens from the embedded seed document.
const (
	aliceToken = "alice-token-7f3a"
	bobToken   = "bob-token-91c2"
)

// testEnv holds the stores and router for API integration tests.
type testEnv struct {
	Router http.Handler
	Stores *store.Stores
}

// newTestEnv creates a migrated in-memory database loaded with the embedded
// seed and wires the full API router over it. mutate may adjust Deps.
func newTestEnv(t *testing.T, mutate func(*api.Deps)) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	stores := store.New(db)

	doc, err := seed.Default()
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if _, err := seed.Apply(context.Background(), stores, doc); err != nil {
		t.Fatalf("apply seed: %v", err)
	}

	deps := api.Deps{
		Stores:         stores,
		AllowedOrigins: []string{"*"},
	}
	if mutate != nil {
		mutate(&deps)
	}
	return &testEnv{Router: api.NewRouter(deps), Stores: stores}
}

// do serves one request and returns the recorder.
func (env *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorder body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
