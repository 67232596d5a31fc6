package documents

import "time"

// Processing status values. The external processor advances them; nothing
// here enforces transitions.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// Document is the metadata row for one uploaded file.
type Document struct {
	ID               int64      `json:"id"`
	DocumentID       string     `json:"document_id"`
	WorkspaceID      string     `json:"workspace_id"`
	UserID           string     `json:"user_id"`
	OriginalName     string     `json:"original_name"`
	FileName         string     `json:"file_name"`
	FilePath         string     `json:"file_path"`
	PublicURL        string     `json:"public_url"`
	FileSize         int64      `json:"file_size"`
	FileType         string     `json:"file_type"`
	FileExtension    string     `json:"file_extension"`
	Category         *string    `json:"category"`
	FolderPath       *string    `json:"folder_path"`
	ProcessingStatus string     `json:"processing_status"`
	ConfidenceScore  *float64   `json:"confidence_score"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	ProcessedAt      *time.Time `json:"processed_at"`
}

// ListResult is one page of documents plus the filtered total.
type ListResult struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
