package world

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors the world-settings document and calls a callback when it
// changes, so a running server picks up edits without a restart. It uses
// polling (not fsnotify) to keep dependencies minimal.
//
// The document is allowed to be absent: the watcher starts with no settings,
// reports the file's appearance as a change from nil, and its removal as a
// change to nil.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Settings)

	mu       sync.Mutex
	current  *Settings
	done     chan struct{}
	stopOnce sync.Once

	// last known file state for change detection
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher creates a watcher for the world-settings document at path. It
// loads the document immediately and starts polling in a background
// goroutine. A missing file is not an error; [Watcher.Current] returns nil
// until the file appears.
func NewWatcher(path string, onChange func(old, new *Settings), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	ws, hash, mtime, err := w.loadAndHash()
	switch {
	case errors.Is(err, os.ErrNotExist):
		// The document may be created later; start with no world.
	case err != nil:
		return nil, fmt.Errorf("world: watcher initial load: %w", err)
	default:
		w.current = ws
		w.lastHash = hash
		w.lastMtime = mtime
	}

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded settings, or nil when the
// document does not exist.
func (w *Watcher) Current() *Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// poll runs in a background goroutine, checking the document periodically.
func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check stats the document and, if it has changed, swaps the current
// settings and calls onChange.
func (w *Watcher) check() {
	// Quick mtime check first to avoid hashing unchanged files.
	info, err := os.Stat(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.handleRemoved()
			return
		}
		slog.Warn("world watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	// Mtime changed, read and hash.
	ws, hash, newMtime, err := w.loadAndHash()
	if err != nil {
		slog.Warn("world watcher: failed to load settings", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()

	if hash == w.lastHash {
		// File was touched but content is identical.
		w.lastMtime = newMtime
		w.mu.Unlock()
		return
	}

	old := w.current
	w.current = ws
	w.lastHash = hash
	w.lastMtime = newMtime
	w.mu.Unlock()

	slog.Info("world watcher: settings reloaded", "path", w.path, "title", ws.Title)

	// Invoke the callback outside the lock so it can safely call Current().
	if w.onChange != nil {
		w.onChange(old, ws)
	}
}

// handleRemoved clears the current settings when the document is deleted.
func (w *Watcher) handleRemoved() {
	w.mu.Lock()
	if w.current == nil {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = nil
	w.lastHash = [sha256.Size]byte{}
	w.lastMtime = time.Time{}
	w.mu.Unlock()

	slog.Info("world watcher: settings file removed", "path", w.path)

	if w.onChange != nil {
		w.onChange(old, nil)
	}
}

// loadAndHash reads the document and returns the parsed settings alongside
// the file's SHA-256 hash and modification time.
func (w *Watcher) loadAndHash() (*Settings, [sha256.Size]byte, time.Time, error) {
	var zeroHash [sha256.Size]byte

	f, err := os.Open(w.path)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	content := string(data)
	ws := &Settings{
		Path:    w.path,
		Title:   titleOf(w.path, content),
		Content: content,
	}
	return ws, sha256.Sum256(data), info.ModTime(), nil
}
