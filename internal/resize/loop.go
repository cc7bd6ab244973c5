// Package resize implements the ResizeLoop of spec.md §4.5: watch the
// controlling terminal for size changes and broadcast a Resize message
// when they occur.
package resize

import (
	"context"
	"log/slog"

	"boxmux/internal/bus"
)

// SizeReader returns the current terminal size in columns and rows.
// Implemented per-platform (term.GetSize on unix/windows via
// golang.org/x/term).
type SizeReader func() (cols, rows int, err error)

// Loop is the ResizeLoop. On unix it waits on SIGWINCH (notify_unix.go);
// on Windows, which has no such signal, it polls on a timer instead
// (notify_windows.go).
type Loop struct {
	bus.Base

	log  *slog.Logger
	read SizeReader

	cols, rows int
}

// NewLoop constructs a ResizeLoop using read to sample the terminal size.
func NewLoop(log *slog.Logger, read SizeReader) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{Base: bus.NewBase(8), log: log, read: read}
}

// Run samples the terminal size on start and then each time notify fires
// (signal-driven on unix, timer-driven as the portable fallback),
// broadcasting Resize only when the size actually changed.
func (l *Loop) Run(ctx context.Context) error {
	l.sample()

	notify, stop := newNotifier()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-l.MessageIn():
			if _, ok := env.Message.(bus.Terminate); ok {
				return nil
			}
		case <-notify:
			l.sample()
		}
	}
}

func (l *Loop) sample() {
	cols, rows, err := l.read()
	if err != nil {
		l.log.Debug("resize: size read failed", "error", err)
		return
	}
	if cols == l.cols && rows == l.rows {
		return
	}
	l.cols, l.rows = cols, rows
	l.SendMessage(bus.Resize{Cols: cols, Rows: rows})
}
