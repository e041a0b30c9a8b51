package app

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"rw-go/internal/config"
)

func TestPIDPath(t *testing.T) {
	cfg := config.NewConfig("/var/rw")
	if got, want := PIDPath(cfg), filepath.Join("/var/rw", PIDFileName); got != want {
		t.Errorf("PIDPath() = %q, want %q", got, want)
	}

	cfg.BaseDir = ""
	cfg.LogDir = "/tmp/rwlog"
	if got, want := PIDPath(cfg), filepath.Join("/tmp/rwlog", PIDFileName); got != want {
		t.Errorf("PIDPath() without base dir = %q, want %q", got, want)
	}
}

func TestPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", PIDFileName)

	if _, err := ReadPID(path); !errors.Is(err, ErrNotWatching) {
		t.Fatalf("ReadPID() before write error = %v, want ErrNotWatching", err)
	}

	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID() error = %v", err)
	}
	pid, err := WatcherPID(path)
	if err != nil {
		t.Fatalf("WatcherPID() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("WatcherPID() = %d, want %d", pid, os.Getpid())
	}

	// Rewriting our own pid is allowed.
	if err := WritePID(path); err != nil {
		t.Errorf("WritePID() again error = %v", err)
	}

	if err := RemovePID(path); err != nil {
		t.Fatalf("RemovePID() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after RemovePID: %v", err)
	}
}

func TestRemovePID_OtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)
	other := os.Getpid() + 1
	if err := os.WriteFile(path, []byte(strconv.Itoa(other)), 0644); err != nil {
		t.Fatal(err)
	}

	if err := RemovePID(path); err != nil {
		t.Fatalf("RemovePID() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("RemovePID() deleted a pid file owned by another process")
	}
}

func TestReadPID_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"negative", "-5"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), PIDFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadPID(path); err == nil || errors.Is(err, ErrNotWatching) {
				t.Errorf("ReadPID(%q) error = %v, want malformed error", tt.content, err)
			}
		})
	}
}
