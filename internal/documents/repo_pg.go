package documents

import (
	"context"
	"database/sql"
	"fmt"

	"docdash-backend/internal/shared/storage/db/query"
)

const documentsTable = "documents"

var listColumns = []string{
	"id",
	"document_id",
	"workspace_id",
	"user_id",
	"original_name",
	"file_name",
	"file_path",
	"public_url",
	"file_size",
	"file_type",
	"file_extension",
	"category",
	"folder_path",
	"processing_status",
	"confidence_score",
	"uploaded_at",
	"processed_at",
}

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document and returns the store-assigned id and upload time.
func (r *PGRepo) Create(ctx context.Context, doc Document) (Document, error) {
	const stmt = `
INSERT INTO documents (
    document_id,
    workspace_id,
    user_id,
    original_name,
    file_name,
    file_path,
    public_url,
    file_size,
    file_type,
    file_extension,
    processing_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, uploaded_at`

	status := doc.ProcessingStatus
	if status == "" {
		status = StatusUploaded
	}

	err := r.DB.QueryRowContext(
		ctx,
		stmt,
		doc.DocumentID,
		doc.WorkspaceID,
		doc.UserID,
		doc.OriginalName,
		doc.FileName,
		doc.FilePath,
		doc.PublicURL,
		doc.FileSize,
		doc.FileType,
		doc.FileExtension,
		status,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document %s: %w", doc.DocumentID, err)
	}
	doc.ProcessingStatus = status
	return doc, nil
}

// List returns one page of the workspace's documents and the exact filtered count.
func (r *PGRepo) List(ctx context.Context, workspaceID string, q ListQuery) (ListResult, error) {
	b := query.NewBuilder(documentsTable, listColumns...).
		WhereEquals("workspace_id", workspaceID).
		WhereSearch(q.Search, "original_name", "folder_path")
	if q.Category != "" {
		b.WhereEquals("category", q.Category)
	}
	b.OrderBy(q.Descending(), q.SortColumn(), "id")

	countSQL, countArgs := b.BuildCount()
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := b.BuildPage(q.Page, q.Limit)
	rows, err := r.DB.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, q.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate documents: %w", err)
	}
	return ListResult{Documents: docs, Total: total}, nil
}

func scanDocument(rows *sql.Rows) (Document, error) {
	var doc Document
	var category sql.NullString
	var folder sql.NullString
	var confidence sql.NullFloat64
	var processedAt sql.NullTime
	err := rows.Scan(
		&doc.ID,
		&doc.DocumentID,
		&doc.WorkspaceID,
		&doc.UserID,
		&doc.OriginalName,
		&doc.FileName,
		&doc.FilePath,
		&doc.PublicURL,
		&doc.FileSize,
		&doc.FileType,
		&doc.FileExtension,
		&category,
		&folder,
		&doc.ProcessingStatus,
		&confidence,
		&doc.UploadedAt,
		&processedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if category.Valid {
		doc.Category = &category.String
	}
	if folder.Valid {
		doc.FolderPath = &folder.String
	}
	if confidence.Valid {
		doc.ConfidenceScore = &confidence.Float64
	}
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
