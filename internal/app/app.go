package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"rw-go/internal/config"
	"rw-go/internal/database"
	"rw-go/internal/database/migrations"
	"rw-go/internal/fs"
	"rw-go/internal/monitor"
	"rw-go/internal/rw"
)

// Options tunes NewRWApp.
type Options struct {
	// Command names the CLI command being run, for the log.
	Command string

	// Echo receives a copy of the log when non-nil.
	Echo io.Writer

	// Clock defaults to the wall clock.
	Clock rw.Clock
}

// RWApp is the application layer between the CLI and the rw packages.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and writes settings changes back to the config file.
// The caller must call Close when done.
type RWApp struct {
	cfg        *config.Config
	configPath string
	clock      rw.Clock
	session    *Session
	logger     rw.Logger
	logFile    io.Closer

	store    *database.SQLiteStore // nil when storage is unavailable
	journal  *rw.Journal
	state    *rw.RunState
	resolver rw.MetadataResolver
}

// NewRWApp creates a fully wired RWApp from cfg. configPath is where settings
// changes are persisted.
//
// Storage that cannot be opened is not fatal: the failure is logged once and
// the app runs with recording and queries disabled.
func NewRWApp(cfg *config.Config, configPath string, opts Options) (*RWApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = rw.RealClock{}
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	session := NewSession(opts.Command, clock.Now())
	sl, logFile, err := newLogger(cfg.LogDir, session.ID, LogOptions{
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Echo:       opts.Echo,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	var store rw.Store
	sqlStore, err := database.NewStoreFromConfig(cfg.Database, clock)
	switch {
	case errors.Is(err, rw.ErrStorageUnavailable):
		logger.Error("storage unavailable, events will not be recorded", "data_dir", cfg.Database.DataDir, "error", err)
		sqlStore = nil
	case err != nil:
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	default:
		store = sqlStore
	}

	state := rw.NewRunState(cfg.Includes, cfg.Excludes)
	state.SetScope(cfg.Includes, cfg.Excludes, cfg.Ignore)

	logger.Debug("session started", "command", session.Command)

	return &RWApp{
		cfg:        cfg,
		configPath: configPath,
		clock:      clock,
		session:    session,
		logger:     logger,
		logFile:    logFile,
		store:      sqlStore,
		journal:    rw.NewJournal(store, logger),
		state:      state,
		resolver:   fs.NewOSMetadataResolver(logger),
	}, nil
}

func (a *RWApp) Config() *config.Config { return a.cfg }
func (a *RWApp) State() *rw.RunState    { return a.state }
func (a *RWApp) Journal() *rw.Journal   { return a.journal }
func (a *RWApp) Logger() rw.Logger      { return a.logger }
func (a *RWApp) Session() *Session      { return a.session }

// NewMonitor builds a monitor over the configured root that records into the journal.
func (a *RWApp) NewMonitor() (*monitor.Monitor, error) {
	storageDir := a.journal.Dir()
	if storageDir == "" && a.cfg.Database.Type == "sqlite" {
		storageDir = a.cfg.Database.DataDir
	}
	return monitor.New(monitor.Config{
		Root:       a.cfg.Root,
		StorageDir: storageDir,
		LogDir:     a.cfg.LogDir,
		QueueSize:  a.cfg.Monitor.QueueSize,
		Clock:      a.clock,
	}, a.state, a.journal, a.resolver, a.logger)
}

// Watch records filesystem events until ctx is done.
func (a *RWApp) Watch(ctx context.Context) error {
	m, err := a.NewMonitor()
	if err != nil {
		return err
	}
	a.logger.Info("watching", "root", a.cfg.Root, "includes", len(a.cfg.Includes), "excludes", len(a.cfg.Excludes), "storage", a.journal.Available())
	err = m.Run(ctx)
	s := m.Stats()
	a.logger.Info("watch finished", "observed", s.Observed, "recorded", s.Recorded, "filtered", s.Filtered, "elapsed", a.session.Elapsed(a.clock.Now()))
	return err
}

// Reload re-reads the settings from the config file into the run state.
// Only the persisted settings are applied; root, storage and log changes
// need a restart.
func (a *RWApp) Reload() error {
	cfg, err := config.ReadFromFile(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg.Includes = cfg.Includes
	a.cfg.Excludes = cfg.Excludes
	a.cfg.Ignore = cfg.Ignore
	a.cfg.LaunchAtLogin = cfg.LaunchAtLogin
	a.state.SetScope(cfg.Includes, cfg.Excludes, cfg.Ignore)
	a.logger.Info("settings reloaded", "includes", len(cfg.Includes), "excludes", len(cfg.Excludes), "ignore", len(cfg.Ignore))
	return nil
}

// Toggle flips between running and paused and returns the new state.
func (a *RWApp) Toggle() bool {
	running := a.state.Toggle()
	a.logger.Info("watching toggled", "running", running)
	return running
}

// AddInclude adds a directory to the include list.
func (a *RWApp) AddInclude(rawPath string) (string, error) {
	return a.addDir(&a.cfg.Includes, "include", rawPath)
}

// RemoveInclude removes a directory from the include list.
func (a *RWApp) RemoveInclude(rawPath string) (string, error) {
	return a.removeDir(&a.cfg.Includes, "include", rawPath)
}

// AddExclude adds a directory to the exclude list.
func (a *RWApp) AddExclude(rawPath string) (string, error) {
	return a.addDir(&a.cfg.Excludes, "exclude", rawPath)
}

// RemoveExclude removes a directory from the exclude list.
func (a *RWApp) RemoveExclude(rawPath string) (string, error) {
	return a.removeDir(&a.cfg.Excludes, "exclude", rawPath)
}

// AddIgnore adds a gitignore-style pattern.
func (a *RWApp) AddIgnore(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("empty ignore pattern")
	}
	if slices.Contains(a.cfg.Ignore, pattern) {
		return fmt.Errorf("ignore pattern already present: %s", pattern)
	}
	a.cfg.Ignore = append(a.cfg.Ignore, pattern)
	return a.commit("ignore added", "pattern", pattern)
}

// RemoveIgnore removes a pattern added with AddIgnore.
func (a *RWApp) RemoveIgnore(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	i := slices.Index(a.cfg.Ignore, pattern)
	if i < 0 {
		return fmt.Errorf("ignore pattern not present: %s", pattern)
	}
	a.cfg.Ignore = slices.Delete(a.cfg.Ignore, i, i+1)
	return a.commit("ignore removed", "pattern", pattern)
}

// SetLaunchAtLogin stores the launch-at-login preference.
func (a *RWApp) SetLaunchAtLogin(on bool) error {
	a.cfg.LaunchAtLogin = on
	return a.commit("launch at login set", "enabled", on)
}

func (a *RWApp) addDir(list *[]string, kind, rawPath string) (string, error) {
	p, err := resolveDir(rawPath)
	if err != nil {
		return "", err
	}
	if slices.Contains(*list, p) {
		return p, fmt.Errorf("%s already present: %s", kind, p)
	}
	if kind == "include" && !rw.Contains(a.cfg.Root, p) {
		a.logger.Warn("include outside root will not be watched", "include", p, "root", a.cfg.Root)
	}
	*list = append(*list, p)
	return p, a.commit(kind+" added", "path", p)
}

func (a *RWApp) removeDir(list *[]string, kind, rawPath string) (string, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	i := slices.Index(*list, p)
	if i < 0 {
		return p, fmt.Errorf("%s not present: %s", kind, p)
	}
	*list = slices.Delete(*list, i, i+1)
	return p, a.commit(kind+" removed", "path", p)
}

// commit pushes the settings into the run state and persists them.
func (a *RWApp) commit(msg string, args ...any) error {
	a.state.SetScope(a.cfg.Includes, a.cfg.Excludes, a.cfg.Ignore)
	if err := config.Save(a.configPath, a.cfg); err != nil {
		a.logger.Error("persisting settings failed", "error", err)
		return err
	}
	a.logger.Info(msg, args...)
	return nil
}

// resolveDir returns the absolute, cleaned form of rawPath, which must be an
// existing directory.
func resolveDir(rawPath string) (string, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", p)
	}
	return p, nil
}

// Query returns the total number of events matching keyword and one page of them.
func (a *RWApp) Query(ctx context.Context, keyword string, page, size int) (int, []rw.FileEvent) {
	return a.journal.Query(ctx, keyword, page, size)
}

// NewPager returns a pager over the event log.
func (a *RWApp) NewPager(size int) *rw.Pager {
	return rw.NewPager(a.journal, size)
}

// Status summarises configuration and storage health.
type Status struct {
	ConfigPath    string
	Root          string
	Includes      []string
	Excludes      []string
	Ignore        []string
	LaunchAtLogin bool
	LogDir        string

	StorageAvailable bool
	DatabasePath     string
	SchemaVersion    uint
	Events           int
}

// Status reports the current configuration and, when storage is available,
// the database location, schema version and event count.
func (a *RWApp) Status(ctx context.Context) (*Status, error) {
	s := &Status{
		ConfigPath:    a.configPath,
		Root:          a.cfg.Root,
		Includes:      slices.Clone(a.cfg.Includes),
		Excludes:      slices.Clone(a.cfg.Excludes),
		Ignore:        slices.Clone(a.cfg.Ignore),
		LaunchAtLogin: a.cfg.LaunchAtLogin,
		LogDir:        a.cfg.LogDir,
	}
	if a.store == nil {
		return s, nil
	}

	s.StorageAvailable = true
	s.DatabasePath = a.store.Path()

	version, _, _, err := migrations.Version(a.store.DB())
	if err != nil {
		return s, fmt.Errorf("reading schema version: %w", err)
	}
	s.SchemaVersion = version

	n, err := a.store.Count(ctx, "")
	if err != nil {
		return s, fmt.Errorf("counting events: %w", err)
	}
	s.Events = n
	return s, nil
}

// Backup writes a consistent copy of the event database to dest.
func (a *RWApp) Backup(ctx context.Context, dest string) error {
	if a.store == nil {
		return rw.ErrStorageUnavailable
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := a.store.BackupTo(ctx, abs); err != nil {
		return err
	}
	a.logger.Info("database backed up", "dest", abs)
	return nil
}

// Schema returns the CREATE statements of the event database.
func (a *RWApp) Schema(ctx context.Context) (string, error) {
	if a.store == nil {
		return "", rw.ErrStorageUnavailable
	}
	return a.store.Schema(ctx)
}

// Close closes the database and the log file.
func (a *RWApp) Close() error {
	var firstErr error
	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log: %w", err)
		}
	}
	return firstErr
}
