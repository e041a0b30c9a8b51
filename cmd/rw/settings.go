package main

import (
	"fmt"
	"strings"

	"rw-go/internal/app"

	"github.com/spf13/cobra"
)

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Change what is watched",
	Long: `Change what is watched. Changes are saved to the config file and a
running watch process picks them up immediately.`,
}

// dirListCmd builds the add/remove/list commands for a directory list.
func dirListCmd(name, short string, add, remove func(*app.RWApp, string) (string, error), list func(*app.RWApp) []string) *cobra.Command {
	parent := &cobra.Command{
		Use:   name,
		Short: short,
	}

	parent.AddCommand(&cobra.Command{
		Use:   "add DIR",
		Short: "Add a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("settings "+name+" add", nil)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := add(a, args[0])
			if err != nil {
				return err
			}
			notifyWatcher(a)
			fmt.Printf("Added %s: %s\n", name, p)
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "remove DIR",
		Short: "Remove a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("settings "+name+" remove", nil)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := remove(a, args[0])
			if err != nil {
				return err
			}
			notifyWatcher(a)
			fmt.Printf("Removed %s: %s\n", name, p)
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("settings "+name+" list", nil)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, p := range list(a) {
				fmt.Println(p)
			}
			return nil
		},
	})

	return parent
}

var settingsIgnoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Manage ignore patterns (gitignore syntax)",
}

var settingsIgnoreAddCmd = &cobra.Command{
	Use:   "add PATTERN",
	Short: "Add an ignore pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("settings ignore add", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddIgnore(args[0]); err != nil {
			return err
		}
		notifyWatcher(a)
		fmt.Printf("Ignoring %s\n", strings.TrimSpace(args[0]))
		return nil
	},
}

var settingsIgnoreRemoveCmd = &cobra.Command{
	Use:   "remove PATTERN",
	Short: "Remove an ignore pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("settings ignore remove", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveIgnore(args[0]); err != nil {
			return err
		}
		notifyWatcher(a)
		fmt.Printf("No longer ignoring %s\n", strings.TrimSpace(args[0]))
		return nil
	},
}

var settingsIgnoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignore patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("settings ignore list", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, p := range a.Config().Ignore {
			fmt.Println(p)
		}
		return nil
	},
}

var settingsLaunchCmd = &cobra.Command{
	Use:       "launch-at-login [on|off]",
	Short:     "Show or set the launch-at-login preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("settings launch-at-login", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			fmt.Printf("Launch at login: %s\n", onOff(a.Config().LaunchAtLogin))
			return nil
		}

		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if err := a.SetLaunchAtLogin(on); err != nil {
			return err
		}
		fmt.Printf("Launch at login: %s\n", onOff(on))
		return nil
	},
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func init() {
	settingsCmd.AddCommand(dirListCmd("include", "Limit watching to these directories",
		(*app.RWApp).AddInclude, (*app.RWApp).RemoveInclude,
		func(a *app.RWApp) []string { return a.Config().Includes }))
	settingsCmd.AddCommand(dirListCmd("exclude", "Never record events under these directories",
		(*app.RWApp).AddExclude, (*app.RWApp).RemoveExclude,
		func(a *app.RWApp) []string { return a.Config().Excludes }))

	settingsIgnoreCmd.AddCommand(settingsIgnoreAddCmd)
	settingsIgnoreCmd.AddCommand(settingsIgnoreRemoveCmd)
	settingsIgnoreCmd.AddCommand(settingsIgnoreListCmd)
	settingsCmd.AddCommand(settingsIgnoreCmd)
	settingsCmd.AddCommand(settingsLaunchCmd)
}
