package processing

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"docdash-backend/internal/shared/config"
	"docdash-backend/internal/shared/telemetry"
)

type recordingNotifier struct {
	mu       sync.Mutex
	requests []Request
	ctxErrs  []error
	err      error
	release  chan struct{}
}

func (r *recordingNotifier) Notify(ctx context.Context, req Request) error {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

func TestDispatchSurvivesRequestCancellation(t *testing.T) {
	telemetry.SetOutput(io.Discard)
	rec := &recordingNotifier{release: make(chan struct{})}
	d := NewDispatcher(rec, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, Request{DocumentID: "doc-1", FilePath: "ws/doc-1.pdf", WorkspaceID: "ws"})
	cancel()
	close(rec.release)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.requests) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rec.requests))
	}
	if rec.ctxErrs[0] != nil {
		t.Fatalf("notification context was cancelled with the request: %v", rec.ctxErrs[0])
	}
}

func TestDispatchDoesNotRetry(t *testing.T) {
	telemetry.SetOutput(io.Discard)
	rec := &recordingNotifier{err: errors.New("connection refused")}
	d := NewDispatcher(rec, time.Second)

	d.Dispatch(context.Background(), Request{DocumentID: "doc-1", FilePath: "ws/doc-1.pdf", WorkspaceID: "ws"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.requests) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(rec.requests))
	}
}

func TestDispatchSkipsIncompleteRequest(t *testing.T) {
	telemetry.SetOutput(io.Discard)
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, time.Second)

	d.Dispatch(context.Background(), Request{DocumentID: "doc-1"})
	_ = d.Wait(context.Background())

	if len(rec.requests) != 0 {
		t.Fatalf("expected no notification for incomplete request")
	}
}

func TestWaitHonoursDeadline(t *testing.T) {
	telemetry.SetOutput(io.Discard)
	rec := &recordingNotifier{release: make(chan struct{})}
	defer close(rec.release)
	d := NewDispatcher(rec, time.Minute)

	d.Dispatch(context.Background(), Request{DocumentID: "d", FilePath: "w/d", WorkspaceID: "w"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewNotifierSelectsNone(t *testing.T) {
	n, err := NewNotifier(context.Background(), config.ProcessingConfig{Notifier: "none"}, "")
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if _, ok := n.(NopNotifier); !ok {
		t.Fatalf("expected NopNotifier, got %T", n)
	}
	if _, err := NewNotifier(context.Background(), config.ProcessingConfig{Notifier: "carrier-pigeon"}, ""); err == nil {
		t.Fatalf("expected error for unknown notifier")
	}
}

func TestNewNotifierHTTPWithoutURLIsDisabled(t *testing.T) {
	telemetry.SetOutput(io.Discard)
	n, err := NewNotifier(context.Background(), config.ProcessingConfig{Notifier: "http"}, "")
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if _, ok := n.(NopNotifier); !ok {
		t.Fatalf("expected NopNotifier, got %T", n)
	}
}
