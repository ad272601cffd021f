package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads a JSON array from a file under a base directory. Names
// that escape the directory are rejected.
type FileSource[T any] struct {
	dir  string
	name string
}

func NewFileSource[T any](dir, name string) *FileSource[T] {
	return &FileSource[T]{dir: dir, name: name}
}

func (s *FileSource[T]) String() string { return filepath.Join(s.dir, s.name) }

func (s *FileSource[T]) FetchAll(ctx context.Context) ([]T, error) {
	data, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeArray[T](data)
}

func (s *FileSource[T]) FetchRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := safeJoin(s.dir, s.name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset file %s not found", s.name)
		}
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return data, nil
}

// Watch calls onChange whenever the file is written, created or renamed into
// place, until ctx is done. The directory is watched rather than the file so
// editors that replace the file atomically are seen.
func (s *FileSource[T]) Watch(ctx context.Context, logger *slog.Logger, onChange func()) error {
	path, err := safeJoin(s.dir, s.name)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if touches(ev, path) {
					logger.Debug("dataset file changed", "path", path, "op", ev.Op.String())
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("dataset watcher error", "path", path, "error", err)
			}
		}
	}()
	return nil
}

// touches reports whether ev changes the contents at path.
func touches(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// safeJoin resolves name relative to dir and rejects directory traversal.
func safeJoin(dir, name string) (string, error) {
	absBase, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
