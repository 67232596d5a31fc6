package processing

import (
	"context"
	"sync"
	"time"

	"docdash-backend/internal/shared/metrics"
	"docdash-backend/internal/shared/telemetry"
)

const defaultDispatchTimeout = 30 * time.Second

// Dispatcher fires notifications in the background, detached from the
// request that triggered them. Failures are logged and counted, never retried.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wraps notifier. A non-positive timeout uses 30s.
func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{notifier: notifier, timeout: timeout}
}

// Dispatch returns immediately. Request cancellation does not stop delivery,
// but the request context's values (request id) are kept for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) {
	if err := req.Validate(); err != nil {
		metrics.IncNotifyFailed()
		telemetry.Error("processing.notify_failed", map[string]any{
			"document_id": req.DocumentID,
			"error":       err.Error(),
		})
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		callCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		start := time.Now()
		if err := d.notifier.Notify(callCtx, req); err != nil {
			metrics.IncNotifyFailed()
			telemetry.Error("processing.notify_failed", map[string]any{
				"document_id":  req.DocumentID,
				"workspace_id": req.WorkspaceID,
				"file_path":    req.FilePath,
				"error":        err.Error(),
			})
			return
		}
		metrics.IncNotifySent()
		telemetry.Info("processing.notify_sent", map[string]any{
			"document_id":  req.DocumentID,
			"workspace_id": req.WorkspaceID,
			"duration_ms":  float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the underlying notifier.
func (d *Dispatcher) Close() error {
	return d.notifier.Close()
}
