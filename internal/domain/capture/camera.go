package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// maxFrameSize bounds a snapshot read from any source
const maxFrameSize = 20 << 20

// readFrame reads a whole snapshot, rejecting anything over limit bytes
func readFrame(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = maxFrameSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFrameTooLarge, limit)
	}
	return data, nil
}

// FileCamera reads the latest snapshot written by an external capture tool
type FileCamera struct {
	Path     string
	MaxBytes int64 // maxFrameSize when zero
}

func (c FileCamera) Capture(ctx context.Context) ([]byte, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return readFrame(f, c.MaxBytes)
}

// HTTPCamera fetches a still from an IP camera endpoint such as /snapshot.jpg
type HTTPCamera struct {
	URL      string
	Client   *http.Client
	MaxBytes int64 // maxFrameSize when zero
}

// NewHTTPCamera creates a camera with a bounded request timeout
func NewHTTPCamera(url string) *HTTPCamera {
	return &HTTPCamera{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPCamera) Capture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot request returned status %d", resp.StatusCode)
	}

	return readFrame(resp.Body, c.MaxBytes)
}
