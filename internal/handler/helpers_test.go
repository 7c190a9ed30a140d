package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/handler"
	"github.com/msomdec/result-processing/internal/observability"
	"github.com/msomdec/result-processing/internal/repository/sqlite"
	"github.com/msomdec/result-processing/internal/service"
)

const testTokenSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	db      *sqlite.DB
	tokens  *service.TokenService
	metrics *observability.Metrics
	srv     *httptest.Server
}

func newTestOptions(t *testing.T) (handler.Options, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return handler.Options{
		Tokens:    service.NewTokenService(testTokenSecret, 0),
		Authority: service.NewRoleAuthority(db.Users(), nil),
		Directory: service.NewUserDirectory(db.Users(), nil),
		Ledger:    service.NewResultLedger(db.Results()),
		Metrics:   observability.NewMetrics(),
	}, db
}

func newTestEnv(t *testing.T, mutate func(*handler.Options)) *testEnv {
	t.Helper()
	opts, db := newTestOptions(t)
	if mutate != nil {
		mutate(&opts)
	}

	srv := httptest.NewServer(handler.NewRouter(opts))
	t.Cleanup(srv.Close)

	return &testEnv{db: db, tokens: opts.Tokens, metrics: opts.Metrics, srv: srv}
}

func (e *testEnv) tokenFor(t *testing.T, email string) string {
	t.Helper()
	token, err := e.tokens.Issue(domain.Claims{"email": email})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

// do sends a request with an optional JSON body and bearer token and
// returns the status code and raw body.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func decodeObject(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return obj
}

func decodeArray(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return arr
}
