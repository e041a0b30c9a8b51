package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"rw-go/internal/rw"
)

// LogFileName is the active log file inside the log directory.
const LogFileName = "rw.log"

// rwHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<session>\t<message>\t<key=value ...>
//
// Each record is written with a single Write so lines from concurrent
// goroutines never interleave.
type rwHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	level   slog.Leveler
	session string
	attrs   []slog.Attr
}

func newRWHandler(w io.Writer, level slog.Leveler, session string) *rwHandler {
	return &rwHandler{mu: &sync.Mutex{}, w: w, level: level, session: session}
}

func (h *rwHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *rwHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.session, r.Message)

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *rwHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &rwHandler{
		mu:      h.mu,
		w:       h.w,
		level:   h.level,
		session: h.session,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *rwHandler) WithGroup(string) slog.Handler { return h }

// LogOptions configures newLogger.
type LogOptions struct {
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int

	// Echo receives a copy of every line when non-nil, e.g. stderr for a
	// foreground watch.
	Echo io.Writer
}

// newLogger creates a structured logger that writes to a rotating logDir/rw.log,
// and to opts.Echo when set. It returns the slog.Logger and the log file (for cleanup).
func newLogger(logDir, session string, opts LogOptions) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	var w io.Writer = f
	if opts.Echo != nil {
		w = io.MultiWriter(f, opts.Echo)
	}
	handler := newRWHandler(w, opts.Level, session)
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the rw.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

func (a *slogAdapter) With(args ...any) rw.Logger {
	return &slogAdapter{l: a.l.With(args...)}
}

var _ rw.Logger = (*slogAdapter)(nil)
