// Package monitor turns filesystem notifications under a root directory into
// recorded events. It watches directories recursively with fsnotify, filters
// each notification against the current scope, classifies it and hands it to
// a Recorder.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"rw-go/internal/rw"
)

// DefaultQueueSize is used when Config.QueueSize is not positive.
const DefaultQueueSize = 1024

// Config configures a Monitor.
type Config struct {
	// Root is the directory watched when no includes are set. Must exist.
	Root string

	// StorageDir holds the database. Nothing beneath it or LogDir is
	// recorded, otherwise every insert or log line would produce another event.
	StorageDir string
	LogDir     string

	// QueueSize bounds the notifications waiting for the recorder.
	QueueSize int

	// Clock stamps metadata lookups. Nil uses the wall clock.
	Clock rw.Clock
}

// Stats are running totals since the monitor was created.
type Stats struct {
	Observed uint64 // notifications received from the watcher
	Recorded uint64 // events handed to the recorder
	Filtered uint64 // notifications discarded by scope, ignore or self-exclusion
	Watches  int    // directories currently watched
}

// Monitor watches the filesystem while the RunState says it should.
// Start and Stop are safe to call from any goroutine; Run drives them
// from RunState changes.
type Monitor struct {
	cfg    Config
	state  *rw.RunState
	rec    rw.Recorder
	res    rw.MetadataResolver
	logger rw.Logger

	mu      sync.Mutex // guards the fields below and serialises Start/Stop
	running bool
	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
	scope   *rw.Scope // scope the current watches were built for

	dirsMu sync.Mutex
	dirs   map[string]struct{}
	gone   map[string]struct{} // watched directories seen disappearing

	observed   atomic.Uint64
	recorded   atomic.Uint64
	filtered   atomic.Uint64
	addFailure atomic.Bool
}

// New creates a stopped Monitor. It returns rw.ErrRootMissing when cfg.Root
// is not an existing directory.
func New(cfg Config, state *rw.RunState, rec rw.Recorder, res rw.MetadataResolver, logger rw.Logger) (*Monitor, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rw.ErrRootMissing, cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", rw.ErrRootMissing, cfg.Root)
	}

	cfg.Root = filepath.Clean(cfg.Root)
	if cfg.StorageDir != "" {
		cfg.StorageDir = filepath.Clean(cfg.StorageDir)
	}
	if cfg.LogDir != "" {
		cfg.LogDir = filepath.Clean(cfg.LogDir)
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = rw.RealClock{}
	}

	return &Monitor{
		cfg:    cfg,
		state:  state,
		rec:    rec,
		res:    res,
		logger: logger.With("component", "monitor"),
		dirs:   make(map[string]struct{}),
		gone:   make(map[string]struct{}),
	}, nil
}

// Running reports whether the monitor is currently watching.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	m.dirsMu.Lock()
	watches := len(m.dirs)
	m.dirsMu.Unlock()

	return Stats{
		Observed: m.observed.Load(),
		Recorded: m.recorded.Load(),
		Filtered: m.filtered.Load(),
		Watches:  watches,
	}
}

// Start begins watching with the current scope. It is a no-op when already running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	scope := m.state.Scope()
	m.dirsMu.Lock()
	m.dirs = make(map[string]struct{})
	m.gone = make(map[string]struct{})
	m.dirsMu.Unlock()
	m.addFailure.Store(false)

	for _, root := range m.watchRoots(scope) {
		m.watchTree(w, scope, root, nil)
	}

	queue := make(chan fsnotify.Event, m.cfg.QueueSize)
	stop := make(chan struct{})

	m.watcher = w
	m.stop = stop
	m.scope = scope
	m.running = true

	m.wg.Add(2)
	go m.pump(w, queue, stop)
	go m.consume(w, queue, stop)

	m.logger.Info("monitor started", "root", m.cfg.Root, "watches", m.Stats().Watches)
	return nil
}

// Stop stops watching. An event already being handled completes; queued
// events are discarded. It is a no-op when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stop)

	if err := m.watcher.Close(); err != nil {
		m.logger.Warn("closing watcher", "error", err)
	}
	m.wg.Wait()
	m.watcher = nil
	m.scope = nil

	m.logger.Info("monitor stopped", "observed", m.observed.Load(), "recorded", m.recorded.Load())
}

// Run reconciles the monitor with state until ctx is done, then stops it.
// Toggling running starts or stops watching; a scope change while running
// rebuilds the watch set.
func (m *Monitor) Run(ctx context.Context) error {
	changes, cancel := m.state.Subscribe()
	defer cancel()

	m.reconcile()
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return nil
		case <-changes:
			m.reconcile()
		}
	}
}

func (m *Monitor) reconcile() {
	want := m.state.Running()

	m.mu.Lock()
	running := m.running
	builtFor := m.scope
	m.mu.Unlock()

	switch {
	case want && !running:
		if err := m.Start(); err != nil {
			m.logger.Error("monitor start failed", "error", err)
		}
	case !want && running:
		m.Stop()
	case want && running && builtFor != m.state.Scope():
		m.logger.Info("scope changed, rebuilding watches")
		m.Stop()
		if err := m.Start(); err != nil {
			m.logger.Error("monitor restart failed", "error", err)
		}
	}
}

// watchRoots returns the directories to walk: the includes that lie within
// the root, or the root itself when there are no includes.
func (m *Monitor) watchRoots(scope *rw.Scope) []string {
	if len(scope.Includes) == 0 {
		return []string{m.cfg.Root}
	}
	var roots []string
	for _, in := range scope.Includes {
		if !rw.Contains(m.cfg.Root, in) {
			m.logger.Warn("include outside root ignored", "include", in, "root", m.cfg.Root)
			continue
		}
		roots = append(roots, filepath.Clean(in))
	}
	return roots
}

// watchTree adds root and every directory below it to w, skipping the
// storage directory, excluded or ignored subtrees and unreadable directories.
// When found is non-nil it is called for every entry below root that the
// walk reaches, directories after their watch is in place.
func (m *Monitor) watchTree(w *fsnotify.Watcher, scope *rw.Scope, root string, found func(path string, isDir bool)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if found != nil {
				found(path, false)
			}
			return nil
		}
		if m.skipDir(scope, path) {
			return filepath.SkipDir
		}
		if m.watched(path) {
			if found != nil && path != root {
				found(path, true)
			}
			return nil
		}
		if err := w.Add(path); err != nil {
			// Usually the OS watch limit; report the first one loudly.
			if m.addFailure.CompareAndSwap(false, true) {
				m.logger.Warn("cannot watch directory", "path", path, "error", err)
			} else {
				m.logger.Debug("cannot watch directory", "path", path, "error", err)
			}
			return filepath.SkipDir
		}
		m.remember(path)
		if found != nil && path != root {
			found(path, true)
		}
		return nil
	})
	if err != nil {
		m.logger.Warn("walking watch root", "root", root, "error", err)
	}
}

func (m *Monitor) skipDir(scope *rw.Scope, path string) bool {
	if m.selfOwned(path) {
		return true
	}
	for _, ex := range scope.Excludes {
		if rw.Contains(ex, path) {
			return true
		}
	}
	return path != m.cfg.Root && scope.Ignored(path)
}

func (m *Monitor) selfOwned(path string) bool {
	for _, dir := range []string{m.cfg.StorageDir, m.cfg.LogDir} {
		if dir != "" && rw.Contains(dir, path) {
			return true
		}
	}
	return false
}

// pump moves notifications from the watcher into the bounded queue.
func (m *Monitor) pump(w *fsnotify.Watcher, queue chan<- fsnotify.Event, stop <-chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			m.observed.Add(1)
			select {
			case queue <- ev:
			case <-stop:
				return
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				m.logger.Warn("watcher queue overflowed, events were lost", "error", err)
				continue
			}
			m.logger.Error("watcher error", "error", err)
		}
	}
}

// consume is the single writer: it handles queued notifications in order.
func (m *Monitor) consume(w *fsnotify.Watcher, queue <-chan fsnotify.Event, stop <-chan struct{}) {
	defer m.wg.Done()

	ctx := context.Background()
	for {
		// Stop takes priority over whatever is still queued.
		select {
		case <-stop:
			return
		default:
		}

		select {
		case <-stop:
			return
		case ev := <-queue:
			m.handle(ctx, w, ev)
		}
	}
}

// handle filters, classifies and records one notification.
func (m *Monitor) handle(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	if m.selfOwned(path) {
		m.filtered.Add(1)
		return
	}

	// Scope may have changed since the watches were built.
	scope := m.state.Scope()
	if !scope.Allows(path) || scope.Ignored(path) {
		m.filtered.Add(1)
		return
	}

	md := m.res.Resolve(path, m.cfg.Clock.Now())
	isDir := md.IsDir
	if md.Exists {
		m.revive(path)
	} else {
		// Gone already: only the watch set remembers whether it was a directory.
		var dup bool
		isDir, dup = m.forget(path)
		if dup && (ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)) {
			// inotify reports a watched directory leaving twice, from the
			// parent's watch and from its own.
			m.filtered.Add(1)
			return
		}
	}

	// Whatever was created inside a new directory before its watches
	// existed produced no notification of its own.
	var found []entry
	if md.IsDir && ev.Has(fsnotify.Create) && w != nil {
		m.watchTree(w, scope, path, func(p string, dir bool) {
			found = append(found, entry{path: p, isDir: dir})
		})
	}

	kind := rw.Classify(flagsFor(ev.Op, isDir))
	m.rec.Record(ctx, []rw.FileEvent{rw.NewFileEvent(path, kind, md)})
	m.recorded.Add(1)

	for _, e := range found {
		m.recordCreated(ctx, scope, e.path, e.isDir)
	}
}

type entry struct {
	path  string
	isDir bool
}

// recordCreated records an entry found below a new directory as created.
func (m *Monitor) recordCreated(ctx context.Context, scope *rw.Scope, path string, isDir bool) {
	if m.selfOwned(path) || !scope.Allows(path) || scope.Ignored(path) {
		m.filtered.Add(1)
		return
	}
	md := m.res.Resolve(path, m.cfg.Clock.Now())
	kind := rw.Classify(flagsFor(fsnotify.Create, isDir))
	m.rec.Record(ctx, []rw.FileEvent{rw.NewFileEvent(path, kind, md)})
	m.recorded.Add(1)
}

// flagsFor translates an fsnotify operation into classifier flags.
// Write and Chmod both count as a change.
func flagsFor(op fsnotify.Op, isDir bool) rw.Flags {
	created := op.Has(fsnotify.Create)
	changed := op.Has(fsnotify.Write) || op.Has(fsnotify.Chmod)
	removed := op.Has(fsnotify.Remove)
	renamed := op.Has(fsnotify.Rename)

	if isDir {
		return rw.Flags{DirCreated: created, DirChanged: changed, DirRemoved: removed, DirRenamed: renamed}
	}
	return rw.Flags{FileCreated: created, FileChanged: changed, FileRemoved: removed, FileRenamed: renamed}
}

func (m *Monitor) remember(dir string) {
	m.dirsMu.Lock()
	defer m.dirsMu.Unlock()
	m.dirs[dir] = struct{}{}
}

func (m *Monitor) watched(dir string) bool {
	m.dirsMu.Lock()
	defer m.dirsMu.Unlock()
	_, ok := m.dirs[dir]
	return ok
}

// maxGone bounds the set of remembered vanished directories.
const maxGone = 1024

// forget drops dir and everything below it from the watch set. isDir reports
// whether dir was a watched directory; dup reports that it had already been
// forgotten by an earlier notification. The OS drops the watches on its own.
func (m *Monitor) forget(dir string) (isDir, dup bool) {
	m.dirsMu.Lock()
	defer m.dirsMu.Unlock()

	if _, ok := m.gone[dir]; ok {
		return true, true
	}
	_, was := m.dirs[dir]
	for d := range m.dirs {
		if rw.Contains(dir, d) {
			delete(m.dirs, d)
		}
	}
	if was {
		if len(m.gone) >= maxGone {
			clear(m.gone)
		}
		m.gone[dir] = struct{}{}
	}
	return was, false
}

// revive clears path from the vanished set once something exists there again.
func (m *Monitor) revive(path string) {
	m.dirsMu.Lock()
	defer m.dirsMu.Unlock()
	delete(m.gone, path)
}
