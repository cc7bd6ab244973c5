// Package execstream implements the StreamingExecutor of spec.md §4.4:
// spawn a muxbox's script under one of three execution modes and deliver
// its output as a sequence of line events.
package execstream

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"boxmux/internal/boxstate"
	"boxmux/internal/panestate"
	"boxmux/internal/terminal"
)

// paneRefreshInterval bounds how often a Pty-mode muxbox's rendered screen
// is re-emitted while output keeps arriving, so a busy curses program
// (top, htop) doesn't flood the bus with one OutputLine per byte chunk.
const paneRefreshInterval = 50 * time.Millisecond

// OutputLine is one line of output from a running script, tagged with a
// monotonic sequence number shared across stdout and stderr so a consumer
// can reconstruct interleaving order (spec.md §4.4 "sequenced output
// lines").
type OutputLine struct {
	MuxBoxID string
	Sequence uint64
	Content  string
	IsStderr bool
}

// Completion reports a script's terminal outcome.
type Completion struct {
	MuxBoxID string
	Success  bool
	Err      error
}

// Executor runs scripts and publishes OutputLine/Completion events on its
// output channels. Run executes a script synchronously on the caller's
// goroutine whatever its mode; Start runs it on a new goroutine.
type Executor struct {
	lines chan OutputLine
	done  chan Completion
	seq   atomic.Uint64
	panes *panestate.Manager
}

// New constructs an Executor with the given output buffer sizes.
func New(bufSize int) *Executor {
	return &Executor{
		lines: make(chan OutputLine, bufSize),
		done:  make(chan Completion, bufSize),
		panes: panestate.NewManager(512 * 1024),
	}
}

// Lines receives output as it is produced, across every script this
// Executor has run.
func (e *Executor) Lines() <-chan OutputLine { return e.lines }

// Done receives one Completion per finished script.
func (e *Executor) Done() <-chan Completion { return e.done }

// Run executes a joined shell command for muxboxID under mode, blocking
// until it completes, whatever the mode. The task pool calls it from its
// own worker goroutines.
func (e *Executor) Run(ctx context.Context, muxboxID string, script []string, mode boxstate.ExecutionMode) {
	command := boxstate.JoinScript(script)
	if command == "" {
		e.done <- Completion{MuxBoxID: muxboxID, Success: true}
		return
	}

	var err error
	switch mode {
	case boxstate.ModePty:
		err = e.runPty(ctx, muxboxID, command)
	default:
		err = e.runPipes(ctx, muxboxID, command)
	}
	e.done <- Completion{MuxBoxID: muxboxID, Success: err == nil, Err: err}
}

// Start launches Run on a new goroutine so the caller does not wait for
// completion.
func (e *Executor) Start(ctx context.Context, muxboxID string, script []string, mode boxstate.ExecutionMode) {
	go e.Run(ctx, muxboxID, script, mode)
}

// runPipes spawns the command with separate stdout/stderr pipes (used for
// Immediate and Thread modes, neither of which needs a pseudo-terminal).
func (e *Executor) runPipes(ctx context.Context, muxboxID, command string) error {
	cmd := exec.CommandContext(ctx, shellPath(), "-c", command)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); e.pump(muxboxID, stdout, false) }()
	go func() { defer wg.Done(); e.pump(muxboxID, stderr, true) }()
	wg.Wait()

	return cmd.Wait()
}

// runPty spawns the command attached to a pseudo-terminal via
// internal/terminal, so curses/readline-driven scripts render correctly
// (spec.md §4.4 Pty mode). Raw bytes are fed into a per-muxbox
// internal/panestate screen emulator rather than split on newlines, so
// cursor movement and redraws (top, htop, readline editing) resolve into
// the screen's current text instead of raw escape sequences; the
// resolved screen is re-emitted as a single OutputLine whenever it
// changes, throttled to paneRefreshInterval.
func (e *Executor) runPty(ctx context.Context, muxboxID, command string) error {
	term, err := terminal.Start(terminal.Config{Shell: shellPath(), Args: []string{"-c", command}})
	if err != nil {
		return err
	}
	defer term.Close()
	panes := panestate.NewManager(512 * 1024)
	defer panes.RemovePane(muxboxID)

	panes.EnsurePane(muxboxID, 120, 40)
	panes.SetActivePanes(map[string]struct{}{muxboxID: {}})

	go func() {
		<-ctx.Done()
		term.Close()
	}()

	var last string
	var lastEmit time.Time
	emit := func(force bool) {
		now := time.Now()
		if !force && now.Sub(lastEmit) < paneRefreshInterval {
			return
		}
		snap := panes.Snapshot(muxboxID)
		if snap == last {
			return
		}
		last, lastEmit = snap, now
		e.lines <- OutputLine{MuxBoxID: muxboxID, Sequence: e.seq.Add(1), Content: snap}
	}

	term.ReadLoop(func(b []byte) {
		panes.Feed(muxboxID, b)
		emit(false)
	})
	emit(true)

	return term.Wait()
}

func (e *Executor) pump(muxboxID string, r io.Reader, isStderr bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		e.lines <- OutputLine{
			MuxBoxID: muxboxID,
			Sequence: e.seq.Add(1),
			Content:  scanner.Text(),
			IsStderr: isStderr,
		}
	}
}

func shellPath() string {
	return "/bin/sh"
}
