package app

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("RW_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("RW_HOME", "/custom/rw")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/rw" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/rw")
		}
		if defaults["log_dir"] != "/custom/rw/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/rw/log")
		}
	})

	t.Run("uses XDG_DATA_HOME", func(t *testing.T) {
		if runtime.GOOS == "darwin" {
			t.Skip("macOS keeps data in Application Support")
		}
		t.Setenv("RW_HOME", "")
		t.Setenv("XDG_DATA_HOME", "/xdg/data")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["base_dir"] != "/xdg/data/rw" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/xdg/data/rw")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		if runtime.GOOS == "darwin" {
			t.Skip("macOS keeps data in Application Support")
		}
		t.Setenv("RW_CONFIG_PATH", "")
		t.Setenv("RW_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "rw.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "rw")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}
