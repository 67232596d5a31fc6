package processing

import (
	"encoding/json"
	"errors"
	"strings"
)

// Request asks the processing service to pick up a stored document.
type Request struct {
	DocumentID  string `json:"document_id"`
	FilePath    string `json:"file_path"`
	WorkspaceID string `json:"workspace_id"`
}

var errIncompleteRequest = errors.New("processing request requires document_id, file_path and workspace_id")

// Validate reports whether every field is set.
func (r Request) Validate() error {
	if strings.TrimSpace(r.DocumentID) == "" || strings.TrimSpace(r.FilePath) == "" || strings.TrimSpace(r.WorkspaceID) == "" {
		return errIncompleteRequest
	}
	return nil
}

// EncodeRequest returns the JSON representation of a request.
func EncodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

// DecodeRequest parses a JSON payload into a Request.
func DecodeRequest(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}
