package documents

import (
	"strconv"
	"strings"
)

const uncategorized = "Uncategorized"

// FormatFileSize renders a byte count as "{n} B", "{x.x} KB" or "{x.x} MB".
func FormatFileSize(n int64) string {
	switch {
	case n < 1024:
		return strconv.FormatInt(n, 10) + " B"
	case n < 1024*1024:
		return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64) + " KB"
	default:
		return strconv.FormatFloat(float64(n)/(1024*1024), 'f', 1, 64) + " MB"
	}
}

func toView(doc Document) DocumentView {
	return DocumentView{
		ID:               doc.ID,
		DocumentID:       doc.DocumentID,
		Name:             doc.OriginalName,
		Type:             orDefault(doc.Category, uncategorized),
		FileFormat:       strings.ToUpper(doc.FileExtension),
		Size:             FormatFileSize(doc.FileSize),
		Folder:           orDefault(doc.FolderPath, uncategorized),
		UploadDate:       doc.UploadedAt,
		PublicURL:        doc.PublicURL,
		ProcessingStatus: doc.ProcessingStatus,
		ConfidenceScore:  doc.ConfidenceScore,
	}
}

func toViews(docs []Document) []DocumentView {
	out := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toView(doc))
	}
	return out
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
