// Package logging builds the run logger: every record at or above the chosen
// level goes to the run log file; warnings and errors are echoed to stderr
// unless quiet.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const timeFormat = "2006-01-02 15:04:05"

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (want debug|info|warn|error)", s)
	}
	return l, nil
}

// New returns a logger writing to file at level and, unless quiet, to stderr
// at warn level. Either writer may be nil.
func New(file io.Writer, level slog.Level, stderr io.Writer, quiet bool) *slog.Logger {
	var hs []slog.Handler
	if file != nil {
		hs = append(hs, slog.NewTextHandler(file, &slog.HandlerOptions{Level: level, ReplaceAttr: formatTime}))
	}
	if stderr != nil && !quiet {
		hs = append(hs, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: dropTime}))
	}
	if len(hs) == 0 {
		return slog.New(slog.DiscardHandler)
	}
	if len(hs) == 1 {
		return slog.New(hs[0])
	}
	return slog.New(tee(hs))
}

func formatTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, a.Value.Time().Format(timeFormat))
	}
	return a
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// tee fans a record out to every handler enabled for its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
