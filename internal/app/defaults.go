package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - RW_CONFIG_PATH: config file location (default: ~/.config/rw.toml)
//   - RW_HOME: base directory for rw data (default: ~/Library/Application Support/rw
//     on macOS, $XDG_DATA_HOME/rw or ~/.local/share/rw elsewhere)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking RW_CONFIG_PATH env var first,
// then falling back to the default ~/.config/rw.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("RW_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "rw.toml"), nil
}

// getBaseDir returns the base directory for rw data, checking RW_HOME env var first.
func getBaseDir() (string, error) {
	if path := os.Getenv("RW_HOME"); path != "" {
		return path, nil
	}

	if runtime.GOOS == "darwin" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine application support directory: %w", err)
		}
		return filepath.Join(dir, "rw"), nil
	}

	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "rw"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "rw"), nil
}
