package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rw-go/internal/app"
	"rw-go/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an RWApp. The caller must defer app.Close().
// command identifies the CLI command being run; echo, when set, mirrors the log.
func newApp(command string, echo io.Writer) (*app.RWApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'rw config init' first?): %w", err)
	}

	a, err := app.NewRWApp(cfg, defaults["config_path"], app.Options{Command: command, Echo: echo})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "rw",
	Short:        "Record filesystem changes",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.LogDir = defaults["log_dir"]

		// Initialize config file
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Root:     %s\n", cfg.Root)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Read config
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		// Display config
		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Root:            %s\n", cfg.Root)
		fmt.Printf("Base Dir:        %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Log Level:       %s\n", cfg.Log.Level)
		fmt.Printf("Database:        %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Queue Size:      %d\n", cfg.Monitor.QueueSize)
		fmt.Printf("Launch at Login: %s\n", onOff(cfg.LaunchAtLogin))
		fmt.Printf("Includes:        %s\n", listOrNone(cfg.Includes))
		fmt.Printf("Excludes:        %s\n", listOrNone(cfg.Excludes))
		fmt.Printf("Ignore:          %s\n", listOrNone(cfg.Ignore))
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record filesystem events until interrupted",
	Long: `Watch the configured root and record every change in the event log.

While running, SIGHUP reloads the settings from the config file and SIGUSR1
pauses or resumes recording ('rw toggle' sends it). SIGINT or SIGTERM stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		var echo io.Writer = os.Stderr
		if quiet {
			echo = nil
		}
		a, err := newApp("watch", echo)
		if err != nil {
			return err
		}
		defer a.Close()

		pidPath := app.PIDPath(a.Config())
		if err := app.WritePID(pidPath); err != nil {
			return err
		}
		defer app.RemovePID(pidPath)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stopControl := handleControlSignals(ctx, a)
		defer stopControl()

		return a.Watch(ctx)
	},
}

// toggle command
var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Pause or resume a running watch",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := watcherPID()
		if err != nil {
			return err
		}
		if err := signalToggle(pid); err != nil {
			return err
		}
		fmt.Printf("Toggled watch process %d\n", pid)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watch and storage status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("status", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		watching := "not running"
		if pid, err := app.WatcherPID(app.PIDPath(a.Config())); err == nil {
			watching = fmt.Sprintf("running (pid %d)", pid)
		}

		fmt.Printf("Watch:    %s\n", watching)
		fmt.Printf("Root:     %s\n", s.Root)
		fmt.Printf("Includes: %s\n", listOrNone(s.Includes))
		fmt.Printf("Excludes: %s\n", listOrNone(s.Excludes))
		fmt.Printf("Ignore:   %s\n", listOrNone(s.Ignore))
		if !s.StorageAvailable {
			fmt.Println("Storage:  unavailable (see log)")
			return nil
		}
		fmt.Printf("Database: %s (schema v%d)\n", s.DatabasePath, s.SchemaVersion)
		fmt.Printf("Events:   %d\n", s.Events)
		fmt.Printf("Log Dir:  %s\n", s.LogDir)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Maintain the event database",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the event database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db backup", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Backup(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Database copied to %s\n", args[0])
		return nil
	},
}

var dbSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the event database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db schema", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		schema, err := a.Schema(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(schema)
		return nil
	},
}

// watcherPID finds the running watch process from the configured pid file.
func watcherPID() (int, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return 0, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return 0, fmt.Errorf("reading config: %w", err)
	}
	return app.WatcherPID(app.PIDPath(cfg))
}

// notifyWatcher asks a running watch process to reload its settings.
// Having no watcher is fine: the next watch reads the saved file.
func notifyWatcher(a *app.RWApp) {
	pid, err := app.WatcherPID(app.PIDPath(a.Config()))
	if errors.Is(err, app.ErrNotWatching) {
		return
	}
	if err != nil {
		a.Logger().Warn("finding watch process", "error", err)
		return
	}
	if err := signalReload(pid); err != nil {
		a.Logger().Warn("notifying watch process", "pid", pid, "error", err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func listOrNone(l []string) string {
	if len(l) == 0 {
		return "(none)"
	}
	return strings.Join(l, ", ")
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbSchemaCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolP("quiet", "q", false, "Only write the log file, not stderr")
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("page", "p", 1, "Page number")
	eventsCmd.Flags().IntP("size", "n", defaultPageSize, "Events per page")
	rootCmd.AddCommand(settingsCmd)
}
