// Package client is a Go client for the document API with the listing cache
// and input debouncing the library UI relies on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const filesKeyPrefix = "files|"

// FilesParams selects one listing page. Zero values are omitted.
type FilesParams struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	SortBy    string
	SortOrder string
}

func (p FilesParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder)
	}
	return v
}

func (p FilesParams) cacheKey() string {
	return filesKeyPrefix + p.values().Encode()
}

type Document struct {
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

type FilesPage struct {
	Data       []Document `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Upload struct {
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

// APIError is a non-2xx response.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

var ErrUnauthorized = errors.New("unauthorized")

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCacheTimes overrides the listing cache freshness and retention.
func WithCacheTimes(staleTime, gcTime time.Duration) Option {
	return func(c *Client) { c.files = NewQueryCache[FilesPage](staleTime, gcTime) }
}

// Client talks to the document API on behalf of one signed-in user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	files   *QueryCache[FilesPage]
}

// New builds a Client. token is the identity-provider session token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		files:   NewQueryCache[FilesPage](DefaultStaleTime, DefaultGCTime),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Files returns a listing page, served from cache while fresh.
func (c *Client) Files(ctx context.Context, p FilesParams) (FilesPage, error) {
	return c.files.Get(ctx, p.cacheKey(), func(ctx context.Context) (FilesPage, error) {
		return c.fetchFiles(ctx, p)
	})
}

// InvalidateFiles forces the next Files call of every parameter set to refetch.
func (c *Client) InvalidateFiles() {
	c.files.Invalidate(filesKeyPrefix)
}

func (c *Client) fetchFiles(ctx context.Context, p FilesParams) (FilesPage, error) {
	u := c.baseURL + "/api/files"
	if q := p.values().Encode(); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return FilesPage{}, err
	}
	var page FilesPage
	if err := c.do(req, &page); err != nil {
		return FilesPage{}, err
	}
	return page, nil
}

// Upload sends one file and invalidates cached listings on success.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (Upload, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return Upload{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return Upload{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return Upload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return Upload{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Data Upload `json:"data"`
	}
	if err := c.do(req, &out); err != nil {
		return Upload{}, err
	}
	c.InvalidateFiles()
	return out.Data, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
