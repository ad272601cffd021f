package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/logging"
)

const placesJSON = `[
	{"organization":"Habitat ReStore","category":"Furniture","type":"resell","latitude":"43.25","longitude":"-79.87"},
	{"organization":"Bike Kitchen","category":"Bicycles","type":"repair","latitude":"43.26","longitude":"-79.86"}
]`

func TestHTTPSourceFetchAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(placesJSON))
	}))
	defer server.Close()

	src := NewHTTPSource[domain.Place](server.URL)
	places, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Habitat ReStore", places[0].Organization)
	assert.Equal(t, domain.Coordinate("-79.86"), places[1].Longitude)
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}},
		{"not an array", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"places":[]}`))
		}},
		{"truncated", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"organization":`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPSource[domain.Place](server.URL).FetchAll(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestHTTPSourceNullIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	places, err := NewHTTPSource[domain.Place](server.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
}

func TestHTTPSourceRateLimitHonoursContext(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	src := NewHTTPSource[domain.Place](server.URL, WithRateLimit(0.001))
	_, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	// The bucket is now empty for ~1000s, so the second call must give up
	// when its context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = src.FetchAll(ctx)
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFSSource(t *testing.T) {
	fsys := fstest.MapFS{
		"data/ideas.json": {Data: []byte(`[{"id":1,"name":"Tin can lanterns","category":"Videos"}]`)},
	}

	ideas, err := NewFSSource[domain.Idea](fsys, "data/ideas.json").FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, domain.NumberID(1), ideas[0].ID)

	_, err = NewFSSource[domain.Idea](fsys, "data/missing.json").FetchAll(context.Background())
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte(`[{"id":"e1","name":"Swap meet"}]`), 0600))

	events, err := NewFileSource[domain.Event](dir, "events.json").FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.StringID("e1"), events[0].ID)

	_, err = NewFileSource[domain.Event](dir, "nope.json").FetchAll(context.Background())
	assert.Error(t, err)
}

func TestFileSourceRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileSource[domain.Event](dir, "../../etc/passwd").FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
}

func TestTouches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	assert.True(t, touches(fsnotify.Event{Name: path, Op: fsnotify.Write}, path))
	assert.True(t, touches(fsnotify.Event{Name: path, Op: fsnotify.Create}, path))
	assert.True(t, touches(fsnotify.Event{Name: path, Op: fsnotify.Write | fsnotify.Chmod}, path))
	assert.False(t, touches(fsnotify.Event{Name: path, Op: fsnotify.Chmod}, path))
	assert.False(t, touches(fsnotify.Event{Name: path + ".swp", Op: fsnotify.Write}, path))
}

func TestFileSourceWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watcher test in short mode")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	src := NewFileSource[domain.Event](dir, "events.json")
	require.NoError(t, src.Watch(ctx, logging.Discard(), func() { changes.Add(1) }))

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0600))
	assert.Eventually(t, func() bool { return changes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}
