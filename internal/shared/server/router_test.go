package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docdash-backend/internal/shared/auth"
	"docdash-backend/internal/shared/config"
	localstore "docdash-backend/internal/shared/storage/object/local"
	"docdash-backend/internal/shared/telemetry"
)

func newTestRouter(t *testing.T) (*gin.Engine, *localstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(io.Discard)
	verifier, err := auth.NewVerifier(auth.VerifierConfig{Secret: "router-secret"})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	store := localstore.New(t.TempDir(), "http://localhost:8080/storage")
	r := NewRouter(RouterDeps{
		Config:    config.Config{CORSAllowOrigin: []string{"http://localhost:3000"}},
		Verifier:  verifier,
		BlobStore: store,
	})
	return r, store
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || !body["ok"] {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "documents_uploaded_total") {
		t.Fatalf("unexpected metrics response %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStorageServesBlobs(t *testing.T) {
	r, store := newTestRouter(t)
	if err := store.Put(t.Context(), "user_1/doc.pdf", "application/pdf", []byte("%PDF")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/storage/user_1/doc.pdf", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "%PDF" {
		t.Fatalf("expected blob, got %d %q", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/storage/user_1/missing.pdf", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStorageServesRecordedContentType(t *testing.T) {
	r, store := newTestRouter(t)
	if err := store.Put(t.Context(), "user_1/scan", "image/png", []byte("\x89PNG")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(t.Context(), "user_1/legacy.pdf", "", []byte("%PDF")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/storage/user_1/scan", nil))
	if ct := resp.Header().Get("Content-Type"); resp.Code != http.StatusOK || ct != "image/png" {
		t.Fatalf("expected stored type image/png, got %d %q", resp.Code, ct)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/storage/user_1/legacy.pdf", nil))
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected extension fallback, got %q", ct)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/storage/.meta/user_1/scan", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("sidecar must not be served, got %d", resp.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected readiness to be public, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/upload", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
