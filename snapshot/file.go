package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
)

// SessionToken in a file path is replaced by the session id
const SessionToken = "{session}"

// FilePublisher writes each record's JSON to a file, replacing it atomically
// so a reader never observes a partial document.
type FilePublisher struct {
	Pattern string
}

// NewFilePublisher creates a publisher writing to pattern, which may
// contain SessionToken.
func NewFilePublisher(pattern string) *FilePublisher {
	return &FilePublisher{Pattern: pattern}
}

// PathFor resolves the file of a session
func (f *FilePublisher) PathFor(sessionID string) string {
	return strings.ReplaceAll(f.Pattern, SessionToken, sessionID)
}

// Publish writes rec.Data to the session's file
func (f *FilePublisher) Publish(rec Record) error {
	path := f.PathFor(rec.SessionID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create snapshot dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(rec.Data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp snapshot")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace snapshot %s", path)
	}
	return nil
}

// Watch calls fn with the file's contents now (if it exists) and after
// every replacement, until ctx is done. The parent directory is watched
// because publishers replace the file rather than write into it.
func Watch(ctx context.Context, path string, fn func(data []byte)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	if data, err := os.ReadFile(abs); err == nil {
		fn(data)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				// Replaced between the event and the read; the next event carries it
				continue
			}
			fn(data)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("Snapshot watcher error", logger.FieldPath, abs, logger.FieldError, err)
		}
	}
}
