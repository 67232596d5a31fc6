package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"docdash-backend/internal/processing"
	"docdash-backend/internal/shared/auth"
	"docdash-backend/internal/shared/storage/object"
	localstore "docdash-backend/internal/shared/storage/object/local"
	"docdash-backend/internal/shared/telemetry"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	requests []processing.Request
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, req processing.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(context.Context, Document) (Document, error) {
	return Document{}, errors.New("insert failed")
}

type countingStore struct {
	object.ObjectStore
	puts int
}

func (s *countingStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	s.puts++
	return s.ObjectStore.Put(ctx, key, contentType, data)
}

type recordingCache struct {
	NopCache
	invalidated []string
}

func (c *recordingCache) Invalidate(ctx context.Context, workspaceID string) {
	c.invalidated = append(c.invalidated, workspaceID)
}

func newTestService(t *testing.T) (*Service, *countingStore, *recordingDispatcher) {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	store := &countingStore{ObjectStore: localstore.New(t.TempDir(), "http://localhost:8080/storage")}
	disp := &recordingDispatcher{}
	svc := &Service{
		Store:          store,
		Repo:           NewMemoryRepo(),
		Processing:     disp,
		MaxUploadBytes: 10 << 20,
		NewID:          func() string { return "6f1c0d3e-0000-4000-8000-000000000001" },
		Now:            func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	return svc, store, disp
}

func TestUploadStoresUnderWorkspace(t *testing.T) {
	svc, store, disp := newTestService(t)
	cache := &recordingCache{}
	svc.Cache = cache

	res, err := svc.Upload(context.Background(), UploadInput{
		Identity:     auth.Identity{UserID: "user_1", OrgID: "org_1"},
		OriginalName: "Invoice_Q3.PDF",
		ContentType:  "application/pdf",
		Data:         []byte("%PDF-1.7"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	doc := res.Document
	if doc.FilePath != "org_1/6f1c0d3e-0000-4000-8000-000000000001.pdf" {
		t.Fatalf("unexpected path: %s", doc.FilePath)
	}
	if !strings.Contains(doc.FilePath, doc.DocumentID) {
		t.Fatalf("storage key does not embed document id")
	}
	if doc.FileExtension != "pdf" || doc.FileType != "application/pdf" {
		t.Fatalf("unexpected type metadata: %s %s", doc.FileExtension, doc.FileType)
	}
	if doc.ProcessingStatus != StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.ProcessingStatus)
	}
	if doc.PublicURL != "http://localhost:8080/storage/org_1/6f1c0d3e-0000-4000-8000-000000000001.pdf" {
		t.Fatalf("unexpected public url: %s", doc.PublicURL)
	}
	if res.RowID == nil || *res.RowID != 1 {
		t.Fatalf("expected row id 1, got %v", res.RowID)
	}
	if store.puts != 1 {
		t.Fatalf("expected one storage write, got %d", store.puts)
	}
	if len(disp.requests) != 1 {
		t.Fatalf("expected one processing request, got %d", len(disp.requests))
	}
	want := processing.Request{DocumentID: doc.DocumentID, FilePath: doc.FilePath, WorkspaceID: "org_1"}
	if disp.requests[0] != want {
		t.Fatalf("unexpected processing request: %+v", disp.requests[0])
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "org_1" {
		t.Fatalf("expected org_1 listing invalidated, got %v", cache.invalidated)
	}
}

func TestUploadPersonalWorkspaceAndNoExtension(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Upload(context.Background(), UploadInput{
		Identity:     auth.Identity{UserID: "user_1"},
		OriginalName: "README",
		Data:         []byte("hello world"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Document.FilePath != "user_1/6f1c0d3e-0000-4000-8000-000000000001" {
		t.Fatalf("unexpected path: %s", res.Document.FilePath)
	}
	if res.Document.FileType != "text/plain; charset=utf-8" {
		t.Fatalf("expected sniffed content type, got %q", res.Document.FileType)
	}
}

func TestUploadRejectsOversizeWithoutWriting(t *testing.T) {
	svc, store, _ := newTestService(t)
	svc.MaxUploadBytes = 8

	_, err := svc.Upload(context.Background(), UploadInput{
		Identity:     auth.Identity{UserID: "user_1"},
		OriginalName: "big.bin",
		Data:         make([]byte, 9),
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("expected no storage write, got %d", store.puts)
	}
}

func TestUploadMetadataFailureStillSucceeds(t *testing.T) {
	svc, store, disp := newTestService(t)
	svc.Repo = failingRepo{NewMemoryRepo()}

	res, err := svc.Upload(context.Background(), UploadInput{
		Identity:     auth.Identity{UserID: "user_1"},
		OriginalName: "a.txt",
		Data:         []byte("a"),
	})
	if err != nil {
		t.Fatalf("expected success despite metadata failure, got %v", err)
	}
	if res.RowID != nil {
		t.Fatalf("expected nil row id, got %d", *res.RowID)
	}
	if store.puts != 1 {
		t.Fatalf("blob should still be stored")
	}
	if len(disp.requests) != 0 {
		t.Fatalf("expected no processing request without a row")
	}
	if res.Document.UploadedAt.IsZero() {
		t.Fatalf("expected upload timestamp")
	}
}

func TestUploadStorageConflictFails(t *testing.T) {
	svc, _, disp := newTestService(t)
	in := UploadInput{Identity: auth.Identity{UserID: "user_1"}, OriginalName: "a.txt", Data: []byte("a")}

	if _, err := svc.Upload(context.Background(), in); err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	_, err := svc.Upload(context.Background(), in)
	if !errors.Is(err, ErrStorageFailed) || !errors.Is(err, object.ErrAlreadyExists) {
		t.Fatalf("expected storage conflict, got %v", err)
	}
	if len(disp.requests) != 1 {
		t.Fatalf("expected only the first upload to notify, got %d", len(disp.requests))
	}
}

type countingRepo struct {
	*MemoryRepo
	lists int
}

func (r *countingRepo) List(ctx context.Context, ws string, q ListQuery) (ListResult, error) {
	r.lists++
	return r.MemoryRepo.List(ctx, ws, q)
}

type mapCache struct {
	NopCache
	pages map[string]ListResult
}

func (c *mapCache) Get(ctx context.Context, ws string, q ListQuery) (ListResult, CacheSlot, bool) {
	slot := CacheSlot{WorkspaceID: ws, Key: ws + "|" + q.CacheKey()}
	res, ok := c.pages[slot.Key]
	return res, slot, ok
}

func (c *mapCache) Set(ctx context.Context, slot CacheSlot, res ListResult) {
	c.pages[slot.Key] = res
}

func (c *mapCache) Invalidate(ctx context.Context, ws string) {
	c.pages = map[string]ListResult{}
}

func TestListUsesCacheUntilUpload(t *testing.T) {
	svc, _, _ := newTestService(t)
	repo := &countingRepo{MemoryRepo: NewMemoryRepo()}
	svc.Repo = repo
	svc.Cache = &mapCache{pages: map[string]ListResult{}}
	ids := []string{"id-1", "id-2"}
	svc.NewID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	ctx := context.Background()
	q := ListQuery{Page: 1, Limit: 10, SortBy: SortUploadDate, SortOrder: "desc"}
	identity := auth.Identity{UserID: "user_1"}

	if _, err := svc.Upload(ctx, UploadInput{Identity: identity, OriginalName: "a.txt", Data: []byte("a")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	first, _ := svc.List(ctx, "user_1", q)
	second, _ := svc.List(ctx, "user_1", q)
	if repo.lists != 1 {
		t.Fatalf("expected cached second list, repo called %d times", repo.lists)
	}
	if first.Total != 1 || second.Total != 1 {
		t.Fatalf("unexpected totals %d %d", first.Total, second.Total)
	}

	if _, err := svc.Upload(ctx, UploadInput{Identity: identity, OriginalName: "b.txt", Data: []byte("b")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	third, _ := svc.List(ctx, "user_1", q)
	if repo.lists != 2 {
		t.Fatalf("expected refetch after upload, repo called %d times", repo.lists)
	}
	if third.Total != 2 {
		t.Fatalf("expected fresh total 2, got %d", third.Total)
	}
}

type brokenRepo struct{ MemoryRepo }

func (*brokenRepo) List(context.Context, string, ListQuery) (ListResult, error) {
	return ListResult{}, errors.New("relation documents does not exist")
}

func TestListWrapsQueryFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Repo = &brokenRepo{}

	_, err := svc.List(context.Background(), "user_1", ListQuery{Page: 1, Limit: 10})
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

type racingRepo struct {
	*MemoryRepo
	lists  int
	during func()
}

func (r *racingRepo) List(ctx context.Context, ws string, q ListQuery) (ListResult, error) {
	r.lists++
	res, err := r.MemoryRepo.List(ctx, ws, q)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return res, err
}

func TestListDoesNotCacheAcrossConcurrentUpload(t *testing.T) {
	svc, _, _ := newTestService(t)
	repo := &racingRepo{MemoryRepo: NewMemoryRepo()}
	svc.Repo = repo
	svc.Cache = NewRedisCache(newFakeRedis(), time.Minute)
	ctx := context.Background()
	q := ListQuery{Page: 1, Limit: 10, SortBy: SortUploadDate, SortOrder: "desc"}

	repo.during = func() {
		if _, err := svc.Upload(ctx, UploadInput{
			Identity:     auth.Identity{UserID: "user_1"},
			OriginalName: "late.txt",
			Data:         []byte("x"),
		}); err != nil {
			t.Errorf("Upload: %v", err)
		}
	}
	first, err := svc.List(ctx, "user_1", q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if first.Total != 0 {
		t.Fatalf("expected the first listing to predate the upload, got %d", first.Total)
	}

	second, err := svc.List(ctx, "user_1", q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if second.Total != 1 {
		t.Fatalf("expected the upload to be visible, got total %d", second.Total)
	}
	if repo.lists != 2 {
		t.Fatalf("expected a second repository read, got %d", repo.lists)
	}
}
