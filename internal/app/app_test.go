package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"rw-go/internal/config"
	"rw-go/internal/rw"
	"rw-go/internal/testutil"
)

type appFixture struct {
	app        *RWApp
	cfg        *config.Config
	configPath string
	root       string
}

// newTestApp creates an app over a temporary root with an in-memory database
// unless dbType says otherwise.
func newTestApp(t *testing.T, dbType string) *appFixture {
	t.Helper()

	base := t.TempDir()
	root := t.TempDir()
	cfg := config.NewConfig(base)
	cfg.Root = root
	cfg.Database.Type = dbType

	configPath := filepath.Join(base, "rw.toml")
	if err := config.Init(configPath, cfg); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}

	a, err := NewRWApp(cfg, configPath, Options{Command: "test", Clock: testutil.FixedClock()})
	if err != nil {
		t.Fatalf("NewRWApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return &appFixture{app: a, cfg: cfg, configPath: configPath, root: root}
}

func (f *appFixture) mkdir(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(f.root, name)
	if err := os.MkdirAll(p, 0755); err != nil {
		t.Fatal(err)
	}
	return p
}

// saved reads the config file back from disk.
func (f *appFixture) saved(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.ReadFromFile(f.configPath)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	return cfg
}

func TestNewRWApp_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig(t.TempDir())
	cfg.Root = "relative/root"

	_, err := NewRWApp(cfg, "", Options{})
	if err == nil {
		t.Fatal("NewRWApp() expected error for relative root")
	}
}

func TestNewRWApp_StorageUnavailable(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig(base)
	cfg.Root = t.TempDir()
	cfg.Database.DataDir = filepath.Join(blocker, "data")

	a, err := NewRWApp(cfg, filepath.Join(base, "rw.toml"), Options{Command: "test"})
	if err != nil {
		t.Fatalf("NewRWApp() error = %v, want degraded app", err)
	}
	defer a.Close()

	if a.Journal().Available() {
		t.Error("Journal().Available() = true with unusable data dir")
	}

	ctx := context.Background()
	a.Journal().Record(ctx, []rw.FileEvent{rw.NewFileEvent("/x", rw.KindFileCreated, rw.MissingMetadata(time.Now()))})
	if total, rows := a.Query(ctx, "", 1, 10); total != 0 || rows != nil {
		t.Errorf("Query() = %d, %v, want 0, nil", total, rows)
	}

	if _, err := a.Schema(ctx); !errors.Is(err, rw.ErrStorageUnavailable) {
		t.Errorf("Schema() error = %v, want ErrStorageUnavailable", err)
	}
	if err := a.Backup(ctx, filepath.Join(base, "backup.sqlite3")); !errors.Is(err, rw.ErrStorageUnavailable) {
		t.Errorf("Backup() error = %v, want ErrStorageUnavailable", err)
	}

	s, err := a.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if s.StorageAvailable {
		t.Error("Status().StorageAvailable = true")
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if got := string(data); !strings.Contains(got, "ERROR") || !strings.Contains(got, "storage unavailable") {
		t.Errorf("log = %q, want storage unavailable error", got)
	}
}

func TestRWApp_DirectoryLists(t *testing.T) {
	tests := []struct {
		name   string
		add    func(*RWApp, string) (string, error)
		remove func(*RWApp, string) (string, error)
		list   func(*config.Config) []string
		scope  func(*rw.Scope) []string
	}{
		{
			name:   "includes",
			add:    (*RWApp).AddInclude,
			remove: (*RWApp).RemoveInclude,
			list:   func(c *config.Config) []string { return c.Includes },
			scope:  func(s *rw.Scope) []string { return s.Includes },
		},
		{
			name:   "excludes",
			add:    (*RWApp).AddExclude,
			remove: (*RWApp).RemoveExclude,
			list:   func(c *config.Config) []string { return c.Excludes },
			scope:  func(s *rw.Scope) []string { return s.Excludes },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestApp(t, "memory")
			dir := f.mkdir(t, "projects")

			got, err := tt.add(f.app, dir)
			if err != nil {
				t.Fatalf("add error = %v", err)
			}
			if got != dir {
				t.Errorf("add returned %q, want %q", got, dir)
			}
			if l := tt.list(f.saved(t)); !slices.Equal(l, []string{dir}) {
				t.Errorf("persisted list = %v, want [%s]", l, dir)
			}
			if l := tt.scope(f.app.State().Scope()); !slices.Equal(l, []string{dir}) {
				t.Errorf("scope list = %v, want [%s]", l, dir)
			}

			if _, err := tt.add(f.app, dir+string(filepath.Separator)); err == nil {
				t.Error("adding a duplicate should fail")
			}
			if _, err := tt.add(f.app, filepath.Join(f.root, "missing")); err == nil {
				t.Error("adding a missing directory should fail")
			}
			file := filepath.Join(f.root, "file.txt")
			if err := os.WriteFile(file, nil, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := tt.add(f.app, file); err == nil {
				t.Error("adding a regular file should fail")
			}

			if _, err := tt.remove(f.app, dir); err != nil {
				t.Fatalf("remove error = %v", err)
			}
			if l := tt.list(f.saved(t)); len(l) != 0 {
				t.Errorf("persisted list after remove = %v, want empty", l)
			}
			if l := tt.scope(f.app.State().Scope()); len(l) != 0 {
				t.Errorf("scope list after remove = %v, want empty", l)
			}
			if _, err := tt.remove(f.app, dir); err == nil {
				t.Error("removing an absent entry should fail")
			}
		})
	}
}

func TestRWApp_AddInclude_RelativePath(t *testing.T) {
	f := newTestApp(t, "memory")
	dir := f.mkdir(t, "docs")
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(f.root); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	got, err := f.app.AddInclude("docs")
	if err != nil {
		t.Fatalf("AddInclude() error = %v", err)
	}
	if got != dir {
		t.Errorf("AddInclude() = %q, want absolute %q", got, dir)
	}
}

func TestRWApp_Ignore(t *testing.T) {
	f := newTestApp(t, "memory")

	if err := f.app.AddIgnore("  *.tmp "); err != nil {
		t.Fatalf("AddIgnore() error = %v", err)
	}
	if err := f.app.AddIgnore("*.tmp"); err == nil {
		t.Error("AddIgnore() duplicate should fail")
	}
	if err := f.app.AddIgnore(""); err == nil {
		t.Error("AddIgnore() empty pattern should fail")
	}

	if got := f.saved(t).Ignore; !slices.Equal(got, []string{"*.tmp"}) {
		t.Errorf("persisted ignore = %v, want [*.tmp]", got)
	}
	if !f.app.State().Scope().Ignored(filepath.Join(f.root, "a.tmp")) {
		t.Error("scope does not ignore a.tmp after AddIgnore")
	}

	if err := f.app.RemoveIgnore("*.tmp"); err != nil {
		t.Fatalf("RemoveIgnore() error = %v", err)
	}
	if err := f.app.RemoveIgnore("*.tmp"); err == nil {
		t.Error("RemoveIgnore() of absent pattern should fail")
	}
	if f.app.State().Scope().Ignored(filepath.Join(f.root, "a.tmp")) {
		t.Error("scope still ignores a.tmp after RemoveIgnore")
	}
}

func TestRWApp_SetLaunchAtLogin(t *testing.T) {
	f := newTestApp(t, "memory")

	for _, on := range []bool{true, false, true} {
		if err := f.app.SetLaunchAtLogin(on); err != nil {
			t.Fatalf("SetLaunchAtLogin(%v) error = %v", on, err)
		}
		if got := f.saved(t).LaunchAtLogin; got != on {
			t.Errorf("persisted launch_at_login = %v, want %v", got, on)
		}
	}
}

func TestRWApp_Reload(t *testing.T) {
	f := newTestApp(t, "memory")
	dir := f.mkdir(t, "music")

	edited := f.saved(t)
	edited.Includes = []string{dir}
	edited.Ignore = []string{"*.log"}
	if err := config.Save(f.configPath, edited); err != nil {
		t.Fatal(err)
	}

	before := f.app.State().Scope()
	if err := f.app.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	scope := f.app.State().Scope()
	if scope == before {
		t.Error("Reload() did not replace the scope")
	}
	if !slices.Equal(scope.Includes, []string{dir}) {
		t.Errorf("Includes = %v, want [%s]", scope.Includes, dir)
	}
	if !scope.Ignored(filepath.Join(dir, "x.log")) {
		t.Error("reloaded ignore pattern not applied")
	}
}

func TestRWApp_Reload_InvalidFile(t *testing.T) {
	f := newTestApp(t, "memory")
	if err := os.WriteFile(f.configPath, []byte("includes = ["), 0644); err != nil {
		t.Fatal(err)
	}
	before := f.app.State().Scope()

	if err := f.app.Reload(); err == nil {
		t.Fatal("Reload() expected error for malformed config")
	}
	if f.app.State().Scope() != before {
		t.Error("failed Reload() changed the scope")
	}
}

func TestRWApp_Toggle(t *testing.T) {
	f := newTestApp(t, "memory")

	if !f.app.State().Running() {
		t.Fatal("new app is not running")
	}
	if f.app.Toggle() {
		t.Error("first Toggle() = true, want paused")
	}
	if !f.app.Toggle() {
		t.Error("second Toggle() = false, want running")
	}
}

func TestRWApp_StatusAndBackup(t *testing.T) {
	f := newTestApp(t, "sqlite")
	ctx := context.Background()

	s, err := f.app.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !s.StorageAvailable || s.Events != 0 || s.SchemaVersion != 2 {
		t.Errorf("Status() = %+v, want available, 0 events, version 2", s)
	}
	if s.DatabasePath != filepath.Join(f.cfg.BaseDir, "rw.sqlite3") {
		t.Errorf("DatabasePath = %q", s.DatabasePath)
	}

	md := rw.Metadata{ContentType: "text/plain", Size: 4096, CreatedAt: -1, ModifiedAt: 1700000000, Exists: true}
	f.app.Journal().Record(ctx, []rw.FileEvent{
		rw.NewFileEvent(filepath.Join(f.root, "a.txt"), rw.KindFileCreated, md),
		rw.NewFileEvent(filepath.Join(f.root, "b.txt"), rw.KindFileChanged, md),
	})

	s, err = f.app.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if s.Events != 2 {
		t.Errorf("Status().Events = %d, want 2", s.Events)
	}

	schema, err := f.app.Schema(ctx)
	if err != nil || !strings.Contains(schema, "event_type") {
		t.Errorf("Schema() = %q, %v, want the rw_file schema", schema, err)
	}

	dest := filepath.Join(t.TempDir(), "copies", "rw-backup.sqlite3")
	if err := f.app.Backup(ctx, dest); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		t.Fatalf("backup file missing or empty: %v", err)
	}
	if err := f.app.Backup(ctx, dest); err == nil {
		t.Error("Backup() over an existing file should fail")
	}
}

func TestRWApp_QueryAndPager(t *testing.T) {
	f := newTestApp(t, "memory")
	ctx := context.Background()

	var events []rw.FileEvent
	for i := 0; i < 5; i++ {
		events = append(events, rw.NewFileEvent(fmt.Sprintf("/data/report-%d.csv", i), rw.KindFileCreated, rw.MissingMetadata(time.Now())))
	}
	events = append(events, rw.NewFileEvent("/data/other.txt", rw.KindFileCreated, rw.MissingMetadata(time.Now())))
	f.app.Journal().Record(ctx, events)

	total, rows := f.app.Query(ctx, "report", 1, 2)
	if total != 5 || len(rows) != 2 {
		t.Errorf("Query() = %d/%d rows, want 5/2", total, len(rows))
	}

	p := f.app.NewPager(4)
	page := p.Refresh(ctx)
	if page.Total != 6 || len(page.Rows) != 4 || page.PageCount() != 2 {
		t.Errorf("first page = total %d rows %d pages %d, want 6/4/2", page.Total, len(page.Rows), page.PageCount())
	}
	page = p.Next(ctx)
	if page.Number != 2 || len(page.Rows) != 2 {
		t.Errorf("second page = number %d rows %d, want 2/2", page.Number, len(page.Rows))
	}
}

func TestRWApp_Watch(t *testing.T) {
	f := newTestApp(t, "memory")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.app.Watch(ctx) }()

	// Keep creating files until one shows up; the watches may not be in
	// place for the first few.
	deadline := time.Now().Add(5 * time.Second)
	recorded := false
	for i := 0; time.Now().Before(deadline); i++ {
		p := filepath.Join(f.root, fmt.Sprintf("watched-%d.txt", i))
		if err := os.WriteFile(p, []byte("hello"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
		if total, _ := f.app.Query(ctx, "watched-", 1, 10); total > 0 {
			recorded = true
			break
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
	if !recorded {
		t.Fatal("no event recorded for files created under the root")
	}
}

func TestRWApp_Watch_MissingRoot(t *testing.T) {
	f := newTestApp(t, "memory")
	f.app.Config().Root = filepath.Join(f.root, "gone")

	if err := f.app.Watch(context.Background()); !errors.Is(err, rw.ErrRootMissing) {
		t.Errorf("Watch() error = %v, want ErrRootMissing", err)
	}
}
