package documents

import "time"

// DocumentView is the listing representation of a document.
type DocumentView struct {
	ID               int64     `json:"id"`
	DocumentID       string    `json:"document_id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	FileFormat       string    `json:"fileFormat"`
	Size             string    `json:"size"`
	Folder           string    `json:"folder"`
	UploadDate       time.Time `json:"uploadDate"`
	PublicURL        string    `json:"publicUrl"`
	ProcessingStatus string    `json:"processingStatus"`
	ConfidenceScore  *float64  `json:"confidenceScore"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListResponse struct {
	Success    bool           `json:"success"`
	Data       []DocumentView `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// UploadData describes a stored upload. ID is null when the metadata row
// could not be written.
type UploadData struct {
	ID           *int64    `json:"id"`
	Path         string    `json:"path"`
	PublicURL    string    `json:"publicUrl"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	DocumentID   string    `json:"documentId"`
	WorkspaceID  string    `json:"workspaceId"`
	UserID       string    `json:"userId"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type UploadResponse struct {
	Success bool       `json:"success"`
	Data    UploadData `json:"data"`
}

func toUploadResponse(res UploadResult) UploadResponse {
	doc := res.Document
	return UploadResponse{
		Success: true,
		Data: UploadData{
			ID:           res.RowID,
			Path:         doc.FilePath,
			PublicURL:    doc.PublicURL,
			OriginalName: doc.OriginalName,
			Size:         doc.FileSize,
			Type:         doc.FileType,
			DocumentID:   doc.DocumentID,
			WorkspaceID:  doc.WorkspaceID,
			UserID:       doc.UserID,
			UploadedAt:   doc.UploadedAt,
		},
	}
}
