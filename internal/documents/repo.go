package documents

import "context"

// DocumentsRepo defines persistence operations for documents. Every read is
// scoped to a single workspace.
type DocumentsRepo interface {
	// Create inserts doc and returns it with the store-assigned ID and UploadedAt.
	Create(ctx context.Context, doc Document) (Document, error)
	List(ctx context.Context, workspaceID string, q ListQuery) (ListResult, error)
}
