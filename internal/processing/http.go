package processing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// HTTPConfig configures the webhook notifier. When TokenURL is set, requests
// carry a bearer token obtained with the client-credentials grant.
type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// HTTPNotifier posts requests to {BaseURL}/process.
type HTTPNotifier struct {
	client   *http.Client
	endpoint string
}

// NewHTTPNotifier builds an HTTPNotifier.
func NewHTTPNotifier(ctx context.Context, cfg HTTPConfig) (*HTTPNotifier, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("PROCESSING_SERVICE_URL is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if strings.TrimSpace(cfg.TokenURL) != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, client)
		authed := cc.Client(tokenCtx)
		authed.Timeout = client.Timeout
		client = authed
	}

	return &HTTPNotifier{client: client, endpoint: base + "/process"}, nil
}

// Notify sends one POST. Any non-2xx response is an error.
func (n *HTTPNotifier) Notify(ctx context.Context, req Request) error {
	payload, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode processing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build processing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post %s: %w", n.endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("processing service returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *HTTPNotifier) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

var _ Notifier = (*HTTPNotifier)(nil)
