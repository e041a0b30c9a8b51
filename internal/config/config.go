package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRoot          = "/"
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultQueueSize     = 1024
)

// Config represents the main configuration for rw.
// The launch_at_login, includes and excludes keys are the persisted user
// settings; the rest configures the process.
type Config struct {
	Root          string         `toml:"root"`
	BaseDir       string         `toml:"base_dir"`
	LaunchAtLogin bool           `toml:"launch_at_login"`
	Includes      []string       `toml:"includes"`
	Excludes      []string       `toml:"excludes"`
	Ignore        []string       `toml:"ignore"`
	LogDir        string         `toml:"log_dir"`
	Log           LogConfig      `toml:"log"`
	Database      DatabaseConfig `toml:"database"`
	Monitor       MonitorConfig  `toml:"monitor"`
}

// LogConfig controls the log file and verbosity.
type LogConfig struct {
	Level      string `toml:"level"`       // debug, info, warn or error
	MaxSizeMB  int    `toml:"max_size_mb"` // rotate rw.log after this many megabytes
	MaxBackups int    `toml:"max_backups"` // rotated files to keep
}

// DatabaseConfig represents configuration for the event database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// MonitorConfig tunes the filesystem monitor.
type MonitorConfig struct {
	QueueSize int `toml:"queue_size"` // pending notifications buffered between watcher and recorder
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		Root:    DefaultRoot,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: baseDir,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills fields left empty by an older or hand-written file.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.DataDir == "" && c.BaseDir != "" {
		c.Database.DataDir = c.BaseDir
	}
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.Monitor.QueueSize == 0 {
		c.Monitor.QueueSize = DefaultQueueSize
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.Root) {
		return fmt.Errorf("root must be an absolute path: %q", c.Root)
	}
	for _, p := range c.Includes {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("include must be an absolute path: %q", p)
		}
	}
	for _, p := range c.Excludes {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("exclude must be an absolute path: %q", p)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log max_size_mb and max_backups must not be negative")
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("data_dir required for sqlite database")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type: %s", c.Database.Type)
	}
	if c.Monitor.QueueSize < 1 {
		return fmt.Errorf("monitor queue_size must be positive, got %d", c.Monitor.QueueSize)
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Missing fields get defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to path through a temporary file in the same
// directory, so readers never see a partially written config.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".rw-config-*")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing config at %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Save writes cfg to path, replacing any existing file.
// Settings changes are persisted through it.
func Save(path string, cfg *Config) error {
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
