// Package dataset fetches flat JSON arrays of records and keeps the most
// recent good copy in memory.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// Source returns the full current contents of one dataset.
type Source[T any] interface {
	FetchAll(ctx context.Context) ([]T, error)
}

// RawSource is implemented by sources that can hand back the undecoded body,
// which lets a Snapshot persist it for offline starts.
type RawSource interface {
	FetchRaw(ctx context.Context) ([]byte, error)
}

// maxBodySize bounds a dataset download.
const maxBodySize = 32 << 20

func decodeArray[T any](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// HTTPSource GETs a fixed URL that serves a JSON array. There is no auth and
// no pagination.
type HTTPSource[T any] struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

type HTTPOption func(*httpOptions)

type httpOptions struct {
	client  *http.Client
	limiter *rate.Limiter
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = c }
}

// WithRateLimit spaces fetches to at most perSecond requests per second.
// Zero disables limiting.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(o *httpOptions) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewHTTPSource[T any](url string, opts ...HTTPOption) *HTTPSource[T] {
	o := httpOptions{client: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &HTTPSource[T]{url: url, client: o.client, limiter: o.limiter}
}

func (s *HTTPSource[T]) String() string { return s.url }

func (s *HTTPSource[T]) FetchAll(ctx context.Context) ([]T, error) {
	data, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeArray[T](data)
}

func (s *HTTPSource[T]) FetchRaw(ctx context.Context) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close dataset response body", "url", s.url, "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", s.url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.url, err)
	}
	return data, nil
}

// FSSource reads a JSON array from a file system, typically the embedded
// default assets.
type FSSource[T any] struct {
	fsys fs.FS
	name string
}

func NewFSSource[T any](fsys fs.FS, name string) *FSSource[T] {
	return &FSSource[T]{fsys: fsys, name: name}
}

func (s *FSSource[T]) String() string { return s.name }

func (s *FSSource[T]) FetchAll(ctx context.Context) ([]T, error) {
	data, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeArray[T](data)
}

func (s *FSSource[T]) FetchRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.name, err)
	}
	return data, nil
}
