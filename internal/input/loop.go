package input

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"time"

	"boxmux/internal/boxstate"
	"boxmux/internal/bus"
)

// defaultScrollAmount is how far a single arrow-key scroll moves a
// focused muxbox's content, in percentage points (spec.md §4.3).
const defaultScrollAmount = 5.0

// Loop is the InputLoop of spec.md §4.3. It owns a reader over the
// terminal's input stream and polls it every 10ms, translating each read
// into a canonical key string and dispatching against the current
// AppState snapshot forwarded by the bus.
type Loop struct {
	bus.Base

	log    *slog.Logger
	reader *bufio.Reader

	app *boxstate.AppState
}

// NewLoop constructs an InputLoop reading from in (typically the
// terminal's raw-mode stdin; putting the terminal into raw mode is the
// caller's responsibility via golang.org/x/term, since that is a
// process-wide concern shared with ResizeLoop and RenderLoop).
func NewLoop(log *slog.Logger, in io.Reader, initial *boxstate.AppState) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		Base:   bus.NewBase(32),
		log:    log,
		reader: bufio.NewReader(in),
		app:    initial,
	}
}

// Run polls for input every 10ms until ctx is cancelled or Terminate
// arrives.
func (l *Loop) Run(ctx context.Context) error {
	reads := make(chan []byte, 8)
	go l.readLoop(ctx, reads)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-l.StateIn():
			l.app = env.State
		case env := <-l.MessageIn():
			if _, ok := env.Message.(bus.Terminate); ok {
				return nil
			}
		case b := <-reads:
			l.handleBytes(b)
		case <-ticker.C:
		}
	}
}

// readLoop blocks on the underlying reader (terminal reads are
// inherently blocking) and forwards each chunk over reads; it exits when
// ctx is cancelled or the reader returns an error (e.g. stdin closed).
func (l *Loop) readLoop(ctx context.Context, reads chan<- []byte) {
	buf := make([]byte, 32)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := l.reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case reads <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (l *Loop) handleBytes(b []byte) {
	key, ok := Canonical(b)
	if !ok {
		return
	}
	l.SendMessage(bus.KeyPress{Key: key})

	layout := l.activeLayout()
	if layout == nil {
		return
	}

	if choiceID, ok := l.app.HotKeys[key]; ok {
		l.SendMessage(bus.ExecuteHotKeyChoice{ChoiceID: choiceID})
		return
	}
	if choiceID, ok := layout.HotKeys[key]; ok {
		l.SendMessage(bus.ExecuteHotKeyChoice{ChoiceID: choiceID})
		return
	}

	if cmds, ok := layout.KeyBindings[key]; ok {
		l.dispatchScript(boxstate.BuildKeyBindingScript(l.app.Libs, cmds))
		return
	}
	if cmds, ok := l.app.KeyBindings[key]; ok {
		l.dispatchScript(boxstate.BuildKeyBindingScript(l.app.Libs, cmds))
		return
	}

	if focused := l.focusedMuxBox(layout); focused != nil {
		if cmds, ok := focused.OnKeypress[key]; ok {
			l.dispatchScript(boxstate.BuildKeyBindingScript(l.app.Libs, cmds))
			return
		}
	}

	l.dispatchNavigation(key)
}

func (l *Loop) dispatchScript(script []string) {
	focused := l.focusedMuxBox(l.activeLayout())
	muxboxID := ""
	mode := boxstate.ModeThread
	if focused != nil {
		muxboxID = focused.ID
		mode = focused.ExecutionMode
	}
	l.SendMessage(bus.ExecuteScript{MuxBoxID: muxboxID, Script: script, ExecutionMode: mode})
}

func (l *Loop) dispatchNavigation(key string) {
	switch key {
	case "tab":
		l.SendMessage(bus.NextMuxBox{})
	case "ctrl-p":
		l.SendMessage(bus.PreviousMuxBox{})
	case "up":
		l.SendMessage(bus.ScrollMuxBoxUp{Amount: defaultScrollAmount})
	case "down":
		l.SendMessage(bus.ScrollMuxBoxDown{Amount: defaultScrollAmount})
	case "left":
		l.SendMessage(bus.ScrollMuxBoxLeft{Amount: defaultScrollAmount})
	case "right":
		l.SendMessage(bus.ScrollMuxBoxRight{Amount: defaultScrollAmount})
	case "page_up":
		l.SendMessage(bus.ScrollMuxBoxPageUp{})
	case "page_down":
		l.SendMessage(bus.ScrollMuxBoxPageDown{})
	case "home":
		l.SendMessage(bus.ScrollMuxBoxToBeginning{})
	case "end":
		l.SendMessage(bus.ScrollMuxBoxToEnd{})
	}
}

func (l *Loop) activeLayout() *boxstate.Layout {
	if l.app == nil {
		return nil
	}
	return l.app.ActiveLayout()
}

func (l *Loop) focusedMuxBox(layout *boxstate.Layout) *boxstate.MuxBox {
	if layout == nil {
		return nil
	}
	var found *boxstate.MuxBox
	var walk func(boxes []*boxstate.MuxBox)
	walk = func(boxes []*boxstate.MuxBox) {
		for _, box := range boxes {
			if box.Selected {
				found = box
				return
			}
			walk(box.Children)
			if found != nil {
				return
			}
		}
	}
	walk(layout.Children)
	return found
}
