//go:build unix

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rw-go/internal/app"
)

// handleControlSignals reloads settings on SIGHUP and toggles watching on
// SIGUSR1 until ctx is done. The returned func stops handling.
func handleControlSignals(ctx context.Context, a *app.RWApp) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGUSR1)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGHUP:
					if err := a.Reload(); err != nil {
						a.Logger().Error("reload failed", "error", err)
					}
				case syscall.SIGUSR1:
					a.Toggle()
				}
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func signalReload(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	return nil
}

func signalToggle(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGUSR1); err != nil {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	return nil
}
