package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// configMapDataLink is the symlink kubelet swaps on configmap updates
const configMapDataLink = "..data"

// fileWatchDebounce coalesces the burst of events editors emit on save
const fileWatchDebounce = 100 * time.Millisecond

// FileSource reads the users document from the local filesystem
type FileSource struct {
	filePath string
	logger   *slog.Logger
}

// NewFileSource creates a new file-based source.
// The token parameter is accepted but ignored for file sources (for factory compatibility)
func NewFileSource(filePath string, token string, logger *slog.Logger) *FileSource {
	if token != "" {
		logger.Warn("Storage token provided but file source does not use authentication",
			"file_path", filePath)
	}

	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// Fetch reads the whole file
func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sourceError("file", KindNotFound, err)
		}
		return nil, sourceError("file", KindBackend, err)
	}

	f.logger.Debug("Users file read",
		"file_path", f.filePath,
		"size_bytes", len(data))

	return data, nil
}

// Watch reports changes to the users file.
// The parent directory is watched so atomic renames by editors are still
// observed. Kubernetes configmap mounts swap the ..data symlink instead of
// touching the file, so events on ..data count as changes too.
func (f *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(f.filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	target := filepath.Clean(f.filePath)
	dataLink := filepath.Join(dir, configMapDataLink)
	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer watcher.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if name := filepath.Clean(event.Name); name != target && name != dataLink {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(fileWatchDebounce)
				} else {
					debounce.Reset(fileWatchDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				select {
				case changes <- struct{}{}:
				default:
					// a change is already pending
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("Users file watcher error",
					"file_path", f.filePath,
					"error", err)
			}
		}
	}()

	f.logger.Info("Watching users file for changes", "file_path", f.filePath)
	return changes, nil
}

// String returns the file path
func (f *FileSource) String() string {
	return "file://" + f.filePath
}

// Close is a no-op for file sources; watchers stop with their context
func (f *FileSource) Close() error {
	return nil
}
