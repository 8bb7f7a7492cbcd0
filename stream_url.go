package livemd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// StreamURL fetches Markdown over HTTP(S) and renders it incrementally as
// the response body arrives.
func (s *Streamer) StreamURL(ctx context.Context, url string) error {
	return s.StreamURLClient(ctx, http.DefaultClient, url)
}

// StreamURLClient is StreamURL with a caller-supplied HTTP client.
func (s *Streamer) StreamURLClient(ctx context.Context, client *http.Client, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("stream url: empty URL")
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("stream url: build request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("stream url: unsupported scheme %q", req.URL.Scheme)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("stream url: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream url: status %s", resp.Status)
	}
	return s.streamFrom(ctx, resp.Body)
}

// isURL reports whether arg names an HTTP(S) resource rather than a file.
func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}
