package guide

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source loads a guide index.
type Source interface {
	Load(ctx context.Context) (*Index, error)
}

// HTTPSource fetches the guide CSV from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource constructs an HTTPSource with a bounded client timeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    strings.TrimSpace(url),
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Load fetches and parses the guide.
func (s *HTTPSource) Load(ctx context.Context) (*Index, error) {
	if s.URL == "" {
		return nil, &LoadError{Source: "http", Err: fmt.Errorf("guide url is empty")}
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &LoadError{Source: s.URL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: s.URL, Err: fmt.Errorf("fetch: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &LoadError{Source: s.URL, Err: fmt.Errorf("fetch: http status %d", resp.StatusCode)}
	}
	return Parse(s.URL, resp.Body)
}

// FileSource reads the guide CSV from the local filesystem.
type FileSource struct {
	Path string
}

// Load reads and parses the guide.
func (s FileSource) Load(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}
	defer f.Close()
	return Parse(s.Path, f)
}
