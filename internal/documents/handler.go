package documents

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docdash-backend/internal/shared/server/middleware"
	"docdash-backend/internal/shared/server/respond"
)

// multipartOverhead is allowed on top of the file limit for boundaries and headers.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	MaxPageSize    int
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, maxPageSize int) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, MaxPageSize: maxPageSize}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/files", h.list)
}

func (h *Handler) upload(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	tooLarge := sizeLimitMessage(h.MaxUploadBytes)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusBadRequest, tooLarge, err)
			return
		}
		respond.Error(c, http.StatusBadRequest, "No file provided", err)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, tooLarge, nil)
		return
	}

	data, err := readFile(fileHeader, h.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			respond.Error(c, http.StatusBadRequest, tooLarge, nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Upload failed", err)
		return
	}

	res, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		Identity:     identity,
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusBadRequest, tooLarge, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "Upload failed", err)
		}
		return
	}

	c.Set("documentId", res.Document.DocumentID)
	respond.OK(c, toUploadResponse(res))
}

func (h *Handler) list(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	q, err := ParseListQuery(c.Request.URL.Query(), h.MaxPageSize)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			respond.Error(c, http.StatusBadRequest, vErr.Message, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "Invalid query", err)
		return
	}

	res, err := h.Svc.List(c.Request.Context(), identity.WorkspaceID(), q)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "Failed to fetch documents", err)
		return
	}

	respond.OK(c, ListResponse{
		Success: true,
		Data:    toViews(res.Documents),
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      res.Total,
			TotalPages: TotalPages(res.Total, q.Limit),
		},
	})
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func sizeLimitMessage(limit int64) string {
	var label string
	switch {
	case limit >= 1<<20 && limit%(1<<20) == 0:
		label = fmt.Sprintf("%dMB", limit>>20)
	case limit >= 1<<10 && limit%(1<<10) == 0:
		label = fmt.Sprintf("%dKB", limit>>10)
	default:
		label = fmt.Sprintf("%d bytes", limit)
	}
	return fmt.Sprintf("File size exceeds %s limit", label)
}
