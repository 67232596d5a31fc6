package processing

import (
	"context"

	"docdash-backend/internal/shared/telemetry"
)

// Notifier hands a stored document to the processing service. Delivery is a
// single attempt; callers decide what to do with the error.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
	Close() error
}

// NopNotifier drops every request. Used when processing is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, req Request) error {
	telemetry.Info("processing.disabled", map[string]any{
		"document_id":  req.DocumentID,
		"workspace_id": req.WorkspaceID,
	})
	return nil
}

func (NopNotifier) Close() error { return nil }
