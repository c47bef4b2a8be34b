package fetch

import (
	"context"
		"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 20 << 20
)

// Client downloads images over plain HTTP.
// It implements ai.ImageFetcher.
type Client struct {
	http     *http.Client
	maxBytes int64
}

func New(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Client{http: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

// Fetch GETs url and returns its body. Non-2xx answers are errors.
func (c *Client) Fetch(ctx context.Context, url string) (ai.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ai.Image{}, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ai.Image{}, fmt.Errorf("download %s: %w", summarize(url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ai.Image{}, fmt.Errorf("download %s: http status %d", summarize(url), resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return ai.Image{}, fmt.Errorf("read download body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return ai.Image{}, fmt.Errorf("download %s: body exceeds %d bytes", summarize(url), c.maxBytes)
	}

	return ai.Image{Data: data, ContentType: sniff(resp.Header.Get("Content-Type"), data)}, nil
}

// sniff keeps the declared type when it is an image type, otherwise it
// detects the type from the bytes.
func sniff(declared string, data []byte) string {
	if ct := mediaType(declared); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return mediaType(mimetype.Detect(data).String())
}

func mediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]))
	}
	return mt
}

// summarize keeps log lines short; signed URLs can be very long.
func summarize(url string) string {
	const max = 80
	if len(url) <= max {
		return url
	}
	return url[:max] + "..."
}

var _ ai.ImageFetcher = (*Client)(nil)
