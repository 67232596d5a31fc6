package documents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docdash-backend/internal/processing"
	"docdash-backend/internal/shared/auth"
	"docdash-backend/internal/shared/metrics"
	"docdash-backend/internal/shared/storage/object"
	"docdash-backend/internal/shared/telemetry"
	"docdash-backend/internal/shared/util"
)

// ProcessingDispatcher hands stored documents to the processing service
// without blocking the caller.
type ProcessingDispatcher interface {
	Dispatch(ctx context.Context, req processing.Request)
}

// Service contains business logic for documents.
type Service struct {
	Store          object.ObjectStore
	Repo           DocumentsRepo
	Cache          ListCache
	Processing     ProcessingDispatcher
	MaxUploadBytes int64

	Now   func() time.Time
	NewID func() string
}

// UploadInput is one file received from a verified caller.
type UploadInput struct {
	Identity     auth.Identity
	OriginalName string
	ContentType  string
	Data         []byte
}

// UploadResult is the stored document. RowID is nil when the blob was stored
// but the metadata insert failed.
type UploadResult struct {
	Document Document
	RowID    *int64
}

// Upload stores the blob at {workspace}/{document_id}.{ext}, records the
// metadata row, and triggers processing. A failed metadata insert is logged
// and the upload still succeeds; the blob is left in place.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	workspaceID := in.Identity.WorkspaceID()
	if workspaceID == "" || in.Identity.UserID == "" {
		return UploadResult{}, invalid("caller identity required")
	}
	size := int64(len(in.Data))
	if s.MaxUploadBytes > 0 && size > s.MaxUploadBytes {
		return UploadResult{}, ErrFileTooLarge
	}

	originalName := util.DisplayName(in.OriginalName)
	documentID := s.newID()
	ext := util.FileExtension(originalName)
	fileName := documentID
	if ext != "" {
		fileName = documentID + "." + ext
	}
	filePath := workspaceID + "/" + fileName

	contentType := in.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(in.Data)
	}

	if err := s.Store.Put(ctx, filePath, contentType, in.Data); err != nil {
		metrics.IncDocumentsUploadFailed()
		return UploadResult{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	doc := Document{
		DocumentID:       documentID,
		WorkspaceID:      workspaceID,
		UserID:           in.Identity.UserID,
		OriginalName:     originalName,
		FileName:         fileName,
		FilePath:         filePath,
		PublicURL:        s.Store.PublicURL(filePath),
		FileSize:         size,
		FileType:         contentType,
		FileExtension:    ext,
		ProcessingStatus: StatusUploaded,
	}

	metrics.IncDocumentsUploaded()
	metrics.ObserveUploadBytes(size)

	created, err := s.Repo.Create(ctx, doc)
	if err != nil {
		metrics.IncMetadataInsertFailed()
		telemetry.Error("documents.metadata_insert_failed", map[string]any{
			"document_id":  documentID,
			"workspace_id": workspaceID,
			"file_path":    filePath,
			"error":        err.Error(),
		})
		doc.UploadedAt = s.now()
		return UploadResult{Document: doc}, nil
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id":  documentID,
		"workspace_id": workspaceID,
		"user_id":      doc.UserID,
		"file_path":    filePath,
		"size":         size,
	})

	s.cache().Invalidate(ctx, workspaceID)
	if s.Processing != nil {
		s.Processing.Dispatch(ctx, processing.Request{
			DocumentID:  documentID,
			FilePath:    filePath,
			WorkspaceID: workspaceID,
		})
	}

	id := created.ID
	return UploadResult{Document: created, RowID: &id}, nil
}

// List returns one page of the workspace's documents.
func (s *Service) List(ctx context.Context, workspaceID string, q ListQuery) (ListResult, error) {
	if workspaceID == "" {
		return ListResult{}, invalid("workspace required")
	}
	cached, slot, ok := s.cache().Get(ctx, workspaceID, q)
	if ok {
		return cached, nil
	}

	start := time.Now()
	res, err := s.Repo.List(ctx, workspaceID, q)
	metrics.ObserveListDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	s.cache().Set(ctx, slot, res)
	return res, nil
}

func (s *Service) cache() ListCache {
	if s.Cache == nil {
		return NopCache{}
	}
	return s.Cache
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
