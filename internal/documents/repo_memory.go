package documents

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo for dev and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	docs   []Document
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{now: func() time.Time { return time.Now().UTC() }}
}

// Create assigns an ID and upload time, rejecting duplicate document ids.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.DocumentID == doc.DocumentID {
			return Document{}, ErrInvalidInput
		}
	}
	r.nextID++
	doc.ID = r.nextID
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = r.now()
	}
	r.docs = append(r.docs, doc)
	return doc, nil
}

// List filters, sorts, and pages the workspace's documents the same way the
// Postgres query does. NULL category/folder sort after every value.
func (r *MemoryRepo) List(ctx context.Context, workspaceID string, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}

	term := strings.ToLower(q.Search)
	r.mu.RLock()
	matched := make([]Document, 0)
	for _, doc := range r.docs {
		if doc.WorkspaceID != workspaceID {
			continue
		}
		if q.Category != "" && (doc.Category == nil || *doc.Category != q.Category) {
			continue
		}
		if term != "" && !containsFold(doc.OriginalName, term) && (doc.FolderPath == nil || !containsFold(*doc.FolderPath, term)) {
			continue
		}
		matched = append(matched, doc)
	}
	r.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b Document) int {
		c := compareBy(q.SortBy, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Descending() {
			return -c
		}
		return c
	})

	total := len(matched)
	start := q.Offset()
	if start < 0 || start >= total {
		return ListResult{Documents: []Document{}, Total: total}, nil
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > total || end < start {
		end = total
	}
	return ListResult{Documents: matched[start:end], Total: total}, nil
}

func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

func compareBy(sortBy string, a, b Document) int {
	switch sortBy {
	case SortName:
		return strings.Compare(a.OriginalName, b.OriginalName)
	case SortSize:
		return cmp.Compare(a.FileSize, b.FileSize)
	case SortType:
		return compareNullable(a.Category, b.Category)
	case SortFolder:
		return compareNullable(a.FolderPath, b.FolderPath)
	default:
		return a.UploadedAt.Compare(b.UploadedAt)
	}
}

func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return strings.Compare(*a, *b)
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
