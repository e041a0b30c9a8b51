//go:build !unix

package main

import (
	"context"
	"errors"

	"rw-go/internal/app"
)

var errNoControlSignals = errors.New("controlling a running watch is not supported on this platform")

func handleControlSignals(context.Context, *app.RWApp) func() { return func() {} }

func signalReload(int) error { return errNoControlSignals }

func signalToggle(int) error { return errNoControlSignals }
