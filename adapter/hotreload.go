package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/srediag/quicklaunch/internal/logging"
)

// DefaultSettle is how long the watcher waits after the last write before
// reading the file.
const DefaultSettle = 100 * time.Millisecond

// SettingsWatcher reloads a settings file whenever its contents change on
// disk.
// The directory is watched rather than the file, since saves replace the
// file by rename.
type SettingsWatcher struct {
	path     string
	settle   time.Duration
	onChange func(doc []byte)
	log      *logging.Logger
	w        *fsnotify.Watcher
	last     []byte
}

// NewSettingsWatcher watches path. onChange receives the new file contents
// and is called from the watcher's goroutine.
func NewSettingsWatcher(path string, onChange func(doc []byte), log *logging.Logger) (*SettingsWatcher, error) {
	if onChange == nil {
		return nil, errors.New("settings watcher needs a callback")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &SettingsWatcher{
		path:     filepath.Clean(path),
		settle:   DefaultSettle,
		onChange: onChange,
		log:      log,
		w:        w,
	}, nil
}

// Run delivers changes until ctx is done, then closes the watcher.
func (s *SettingsWatcher) Run(ctx context.Context) error {
	defer s.w.Close() //nolint:errcheck

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				s.log.Tracef("settings event %s", ev)
				timer.Reset(s.settle)
			}
		case err, ok := <-s.w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("settings watcher: %v", err)
		case <-timer.C:
			s.reload()
		}
	}
}

func (s *SettingsWatcher) reload() {
	doc, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnf("settings reload: %v", err)
		}
		return
	}
	// Saving the settings writes the file again; identical contents are not
	// delivered twice.
	if s.last != nil && bytes.Equal(doc, s.last) {
		return
	}
	s.last = doc
	s.log.Debugf("settings reloaded from %s", s.path)
	s.onChange(doc)
}
