// Package boothclient talks to the photo API on behalf of a kiosk.
package boothclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"
)

const defaultTimeout = 30 * time.Second

var ErrNotFound = errors.New("photo not found")

// Photo mirrors the API's photo record
type Photo struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Filter     string    `json:"filter"`
	Background string    `json:"background"`
	FilePath   string    `json:"filePath"`
	PhotoURLs  []string  `json:"photoUrls"`
	QRCode     string    `json:"qrCode"`
	ShareID    string    `json:"shareId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter is one entry of GET /api/filters
type Filter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadRequest carries finished frames in capture order
type UploadRequest struct {
	Type       string
	Filter     string
	Background string
	Frames     [][]byte
}

// APIError is a non-2xx answer from the API
type APIError struct {
	Status  int             `json:"-"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("photo api error: status=%d message=%s errors=%s", e.Status, e.Message, e.Errors)
	}
	return fmt.Sprintf("photo api error: status=%d message=%s", e.Status, e.Message)
}

// Is makes 404 answers match ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client represents the photo API HTTP client.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
}

// NewClient creates a new photo API client.
func NewClient(baseURL string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload posts frames as multipart photos parts
func (c *Client) Upload(ctx context.Context, u UploadRequest) (*Photo, error) {
	if len(u.Frames) == 0 {
		return nil, errors.New("photo api request error: no frames")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{"type": u.Type, "filter": u.Filter, "background": u.Background}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("photo api request error: %w", err)
		}
	}
	for i, frame := range u.Frames {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename="frame-%d.jpg"`, i+1))
		h.Set("Content-Type", http.DetectContentType(frame))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("photo api request error: %w", err)
		}
		if _, err := part.Write(frame); err != nil {
			return nil, fmt.Errorf("photo api request error: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("photo api request error: %w", err)
	}

	var p Photo
	if err := c.do(ctx, http.MethodPost, "/api/photos", mw.FormDataContentType(), &body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every photo, newest first
func (c *Client) List(ctx context.Context) ([]Photo, error) {
	var photos []Photo
	if err := c.do(ctx, http.MethodGet, "/api/photos", "", nil, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// Get returns one photo; a missing id matches ErrNotFound
func (c *Client) Get(ctx context.Context, id int64) (*Photo, error) {
	var p Photo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/photos/%d", id), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a photo and its files
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/photos/%d", id), "", nil, nil)
}

// Filters lists the filters the API accepts
func (c *Client) Filters(ctx context.Context) ([]Filter, error) {
	var filters []Filter
	if err := c.do(ctx, http.MethodGet, "/api/filters", "", nil, &filters); err != nil {
		return nil, err
	}
	return filters, nil
}

// ResolveURL turns an API path such as /uploads/x.jpg into an absolute URL
func (c *Client) ResolveURL(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return c.baseURL + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("photo api request error: client is nil")
	}
	if strings.TrimSpace(c.baseURL) == "" {
		return fmt.Errorf("photo api config error: base_url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("photo api request error: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("photo api read error: status=%d: %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("photo api decode error: %w", err)
	}
	return nil
}

func classifyRequestError(ctx context.Context, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("photo api timeout: %w", err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("photo api network error: %w", err)
	}
	return fmt.Errorf("photo api request error: %w", err)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}
