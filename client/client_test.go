package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newFakeAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var lists atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Unauthorized"}`)
			return
		}
		lists.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":[{"id":1,"document_id":"d1","name":"a.pdf","type":"Uncategorized","fileFormat":"PDF","size":"1.0 KB","folder":"Uncategorized","uploadDate":"2026-01-01T00:00:00Z","publicUrl":"http://x/a.pdf","processingStatus":"uploaded","confidenceScore":null}],"pagination":{"page":`+r.URL.Query().Get("page")+`,"limit":10,"total":1,"totalPages":1}}`)
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		f, fh, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"No file provided"}`)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if strings.Contains(string(data), "limit") {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":"Too many requests","retryAfterMs":2000}`)
			return
		}
		io.WriteString(w, `{"success":true,"data":{"id":5,"path":"u/d.txt","originalName":"`+fh.Filename+`","documentId":"d","workspaceId":"u","userId":"u"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &lists
}

func TestFilesCachedUntilUpload(t *testing.T) {
	srv, lists := newFakeAPI(t)
	c := New(srv.URL, "tok")
	ctx := context.Background()
	p := FilesParams{Page: 1, Limit: 10}

	page, err := c.Files(ctx, p)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Name != "a.pdf" || page.Pagination.Total != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if _, err := c.Files(ctx, p); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if lists.Load() != 1 {
		t.Fatalf("expected cached second call, server saw %d", lists.Load())
	}

	if _, err := c.Files(ctx, FilesParams{Page: 2, Limit: 10}); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if lists.Load() != 2 {
		t.Fatalf("expected distinct params to fetch, server saw %d", lists.Load())
	}

	up, err := c.Upload(ctx, "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.ID == nil || *up.ID != 5 || up.OriginalName != "notes.txt" {
		t.Fatalf("unexpected upload: %+v", up)
	}

	if _, err := c.Files(ctx, p); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if lists.Load() != 3 {
		t.Fatalf("expected refetch after upload, server saw %d", lists.Load())
	}
}

func TestFilesUnauthorized(t *testing.T) {
	srv, _ := newFakeAPI(t)
	c := New(srv.URL, "wrong", WithHTTPClient(srv.Client()))

	_, err := c.Files(context.Background(), FilesParams{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUploadRateLimited(t *testing.T) {
	srv, lists := newFakeAPI(t)
	c := New(srv.URL, "tok")
	ctx := context.Background()
	c.Files(ctx, FilesParams{Page: 1})

	_, err := c.Upload(ctx, "x.txt", strings.NewReader("over limit"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.RetryAfter.Seconds() != 2 || apiErr.Message != "Too many requests" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}

	c.Files(ctx, FilesParams{Page: 1})
	if lists.Load() != 1 {
		t.Fatalf("failed upload must not invalidate cache, server saw %d", lists.Load())
	}
}
