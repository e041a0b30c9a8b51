package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rw-go/internal/config"
)

// PIDFileName marks a running watch process inside the base directory.
const PIDFileName = "rw.pid"

// ErrNotWatching means no watch process has registered a pid file.
var ErrNotWatching = errors.New("no watch process running")

// PIDPath returns where the watch process records its pid.
func PIDPath(cfg *config.Config) string {
	dir := cfg.BaseDir
	if dir == "" {
		dir = cfg.LogDir
	}
	return filepath.Join(dir, PIDFileName)
}

// WritePID records the current process as the watcher. It fails if another
// live process already holds the file.
func WritePID(path string) error {
	if pid, err := ReadPID(path); err == nil && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("watch already running with pid %d", pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	return nil
}

// ReadPID returns the pid stored at path, or ErrNotWatching when there is none.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNotWatching
	}
	if err != nil {
		return 0, fmt.Errorf("reading pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid file %s", path)
	}
	return pid, nil
}

// RemovePID deletes the pid file if it still names the current process.
func RemovePID(path string) error {
	pid, err := ReadPID(path)
	if err != nil || pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing pid file: %w", err)
	}
	return nil
}

// WatcherPID returns the pid of a live watch process.
func WatcherPID(path string) (int, error) {
	pid, err := ReadPID(path)
	if err != nil {
		return 0, err
	}
	if !processAlive(pid) {
		return 0, ErrNotWatching
	}
	return pid, nil
}
