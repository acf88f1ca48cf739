package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the default debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// maxQueueSize is the buffer size for the work queue channel. Large
// enough to absorb a producer burst without blocking the debounce
// flush, while bounding memory.
const maxQueueSize = 200

// pollDefault is the default polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// SpoolWatcher watches a directory for new .ndjson files using fsnotify.
// Files are handed to a single consumer in name order: producers encode
// arrival order in the file name, and one consumer keeps records in
// arrival order at the destination. There is deliberately no worker
// pool here.
type SpoolWatcher struct {
	spool    string
	handler  func(path string)
	debounce time.Duration
}

// NewSpoolWatcher creates a watcher for the spool directory.
func NewSpoolWatcher(spool string, handler func(path string)) *SpoolWatcher {
	return &SpoolWatcher{
		spool:    spool,
		handler:  handler,
		debounce: debounceDefault,
	}
}

// Run watches the spool for new .ndjson files. Blocks until ctx is cancelled.
func (w *SpoolWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.spool); err != nil {
		return err
	}

	// ready collects file paths that passed debounce. A single timer
	// resets on each event; when it fires, all accumulated paths flush
	// sorted into the work queue. No per-file goroutines.
	var mu sync.Mutex
	ready := make(map[string]bool)

	// Work queue consumed by the single ordered consumer.
	queue := make(chan string, maxQueueSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range queue {
			w.handler(path)
		}
	}()

	// flush moves all ready paths into the work queue in name order.
	flush := func() {
		mu.Lock()
		batch := make([]string, 0, len(ready))
		for p := range ready {
			batch = append(batch, p)
		}
		ready = make(map[string]bool)
		mu.Unlock()

		sort.Strings(batch)
		for _, p := range batch {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}

	// Single debounce timer, reset on each event. Initialized as
	// stopped; the first event starts it.
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	defer func() {
		debounceTimer.Stop()
		flush()
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isSpoolFile(event.Name) {
				continue
			}

			mu.Lock()
			ready[event.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		}
	}
}

// PollWatcher watches a directory for new .ndjson files using polling.
// Used as a fallback when fsnotify is unavailable (e.g., NFS).
type PollWatcher struct {
	spool    string
	handler  func(path string)
	interval time.Duration
	seen     map[string]bool
}

// NewPollWatcher creates a polling-based watcher.
func NewPollWatcher(spool string, handler func(path string), interval time.Duration) *PollWatcher {
	if interval == 0 {
		interval = pollDefault
	}
	return &PollWatcher{
		spool:    spool,
		handler:  handler,
		interval: interval,
		seen:     make(map[string]bool),
	}
}

// Run polls the spool directory. Blocks until ctx is cancelled.
func (w *PollWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan handles new .ndjson files in name order. ReadDir returns entries
// sorted by name. The seen set is rebuilt from the current listing each
// round, so names of removed files can be reused by producers.
func (w *PollWatcher) scan() {
	entries, err := os.ReadDir(w.spool)
	if err != nil {
		return
	}
	current := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.spool, e.Name())
		if !isSpoolFile(path) {
			continue
		}
		current[path] = true
		if w.seen[path] {
			continue
		}
		w.handler(path)
	}
	w.seen = current
}

// ScanExisting processes spool files already present, in name order.
// Called at startup to drain files that arrived while the daemon was
// down.
func ScanExisting(spool string, handler func(path string)) error {
	entries, err := os.ReadDir(spool)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(spool, e.Name())
		if isSpoolFile(path) {
			handler(path)
		}
	}
	return nil
}

// isSpoolFile returns true if the file is a .ndjson file (not a .tmp
// partial write).
func isSpoolFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".ndjson") && !strings.HasSuffix(name, ".tmp")
}
