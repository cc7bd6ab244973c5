// Command boxmux is the BoxMux terminal multiplexer entry point: a
// single binary invoked with a path to the configuration file, per
// spec.md §6's CLI surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/term"

	"boxmux/internal/boxconfig"
	"boxmux/internal/bus"
	"boxmux/internal/input"
	"boxmux/internal/render"
	"boxmux/internal/resize"
	"boxmux/internal/rtupdate"
	"boxmux/internal/sessionlog"
	"boxmux/internal/singleinstance"
	"boxmux/internal/socket"
	"boxmux/internal/taskpool"
	"boxmux/internal/userutil"
	"boxmux/internal/workerutil"
	"boxmux/internal/yamlsync"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("boxmux", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	frameDelay := fs.Duration("frame-delay", 33*time.Millisecond, "bus idle poll interval")
	syncEnabled := fs.Bool("live-sync", true, "write muxbox mutations back to the configuration file")
	socketPath := fs.String("socket", "", "control socket path (default: per-user default)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: boxmux <config.yaml>")
		return 2
	}
	configPath := fs.Arg(0)

	log, level := newLogger(*logLevel)
	level.Set(parseLevel(*logLevel))

	doc, err := boxconfig.Load(configPath)
	if err != nil {
		log.Error("startup: load configuration", "error", err)
		return 1
	}
	app, err := doc.ToAppState()
	if err != nil {
		log.Error("startup: validate configuration", "error", err)
		return 1
	}

	lockName := singleinstance.DefaultMutexName()
	appLock, err := singleinstance.TryLock(lockName)
	if err != nil {
		log.Error("startup: another instance holds the lock", "error", err)
		return 1
	}
	defer appLock.Release()

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if oldState, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, oldState)
		}
	}

	cols, rows := 80, 24
	if w, h, ok := terminalSizeOverride(); ok {
		cols, rows = w, h
	} else if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		cols, rows = w, h
	}

	tm := bus.New(log, *frameDelay, app)

	renderLoop := render.NewLoop(log, os.Stdout, cols, rows, app)
	inputLoop := input.NewLoop(log, os.Stdin, app)
	resizeLoop := resize.NewLoop(log, func() (int, int, error) {
		if w, h, ok := terminalSizeOverride(); ok {
			return w, h, nil
		}
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		return w, h, err
	})
	pool := taskpool.New(log, app.Config.TaskWorkerCount, app.Config.MaxConcurrentTasks,
		app.Config.MaxLinesPerSecond, app.Config.MaxQueueSize)
	rt := rtupdate.NewWorker(app.Config.RenderDebounce)

	path := *socketPath
	if path == "" {
		path = defaultSocketPath()
	}
	socketWorker := socket.NewWorker(log, path, 64)

	syncSink, err := yamlsync.New(log, configPath, *syncEnabled)
	if err != nil {
		log.Error("startup: start configuration sync", "error", err)
		return 1
	}
	syncWorker := yamlsync.NewWorker(syncSink, 64)

	tm.Register(renderLoop)
	tm.Register(inputLoop)
	tm.Register(resizeLoop)
	tm.Register(pool)
	tm.Register(rt)
	tm.Register(socketWorker)
	tm.Register(syncWorker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var shutdownErr error
	recordErr := func(name string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}

	runWorker := func(name string, fn func(context.Context) error) {
		workerutil.RunWithPanicRecovery(ctx, name, &wg, func(ctx context.Context) {
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				recordErr(name, err)
			}
		}, workerutil.RecoveryOptions{
			IsShutdown: func() bool { return ctx.Err() != nil },
			OnFatal: func(worker string, maxRetries int) {
				recordErr(worker, fmt.Errorf("exceeded %d panic-recovery retries", maxRetries))
			},
		})
	}

	runWorker("render", renderLoop.Run)
	runWorker("input", inputLoop.Run)
	runWorker("resize", resizeLoop.Run)
	runWorker("taskpool", pool.Run)
	runWorker("rtupdate", rt.Run)
	runWorker("socket", socketWorker.Run)
	runWorker("yamlsync", syncWorker.Run)

	tm.Run(ctx)
	wg.Wait()

	if shutdownErr != nil {
		log.Error("shutdown completed with errors", "error", shutdownErr)
		return 1
	}
	return 0
}

// newLogger opens the log destination named by BOXMUX_LOG_FILE, falling
// back to stderr if it is unset or cannot be opened (spec.md §6's
// "log destination path" environment variable).
func newLogger(levelName string) (*slog.Logger, *slog.LevelVar) {
	var level slog.LevelVar
	level.Set(parseLevel(levelName))

	dest := io.Writer(os.Stderr)
	if path := strings.TrimSpace(os.Getenv("BOXMUX_LOG_FILE")); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			dest = f
		} else {
			fmt.Fprintf(os.Stderr, "boxmux: BOXMUX_LOG_FILE %s: %v, logging to stderr\n", path, err)
		}
	}

	handler := sessionlog.NewTeeHandler(
		slog.NewTextHandler(dest, &slog.HandlerOptions{Level: &level}),
		slog.LevelWarn,
		nil,
	)
	return slog.New(handler), &level
}

// terminalSizeOverride reads BOXMUX_COLS/BOXMUX_ROWS, letting tests pin a
// terminal size instead of depending on a real controlling terminal
// (spec.md §6's "terminal-dimensions overrides for testing"). Both must be
// set to positive integers for the override to take effect.
func terminalSizeOverride() (cols, rows int, ok bool) {
	colsStr := strings.TrimSpace(os.Getenv("BOXMUX_COLS"))
	rowsStr := strings.TrimSpace(os.Getenv("BOXMUX_ROWS"))
	if colsStr == "" || rowsStr == "" {
		return 0, 0, false
	}
	c, err := strconv.Atoi(colsStr)
	if err != nil || c <= 0 {
		return 0, 0, false
	}
	r, err := strconv.Atoi(rowsStr)
	if err != nil || r <= 0 {
		return 0, 0, false
	}
	return c, r, true
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSocketPath() string {
	user := userutil.SanitizeUsername(os.Getenv("USER"))
	if user == "" {
		user = "default"
	}
	if runtime.GOOS == "windows" {
		return `\\.\pipe\boxmux-` + user
	}
	return fmt.Sprintf("/tmp/boxmux-%s.sock", user)
}
