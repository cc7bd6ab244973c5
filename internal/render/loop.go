package render

import (
	"context"
	"io"
	"log/slog"
	"time"

	"boxmux/internal/boxstate"
	"boxmux/internal/bus"
)

// Loop is the RenderLoop of spec.md §4.2. It holds the committed
// double-buffer, paints one frame per relevant message, and diffs against
// the previously emitted frame before writing to out.
type Loop struct {
	bus.Base

	log *slog.Logger
	out io.Writer

	cols, rows int
	committed  *Buffer
	cache      boundsCache

	app *boxstate.AppState
}

// NewLoop constructs a RenderLoop writing to out, sized cols x rows.
func NewLoop(log *slog.Logger, out io.Writer, cols, rows int, initial *boxstate.AppState) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		Base:      bus.NewBase(32),
		log:       log,
		out:       out,
		cols:      cols,
		rows:      rows,
		committed: NewBuffer(cols, rows),
		app:       initial,
	}
}

// Run drives the loop until ctx is cancelled or a Terminate message
// arrives. It does a full repaint on start, then reacts to state and
// message traffic forwarded by the bus.
func (l *Loop) Run(ctx context.Context) error {
	l.fullRepaint()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-l.StateIn():
			l.app = env.State
			l.fullRepaint()
		case env := <-l.MessageIn():
			if l.handle(env.Message) {
				return nil
			}
		case <-ticker.C:
		}
	}
}

// handle applies one message to the render state; returns true if the
// loop should stop (Terminate observed).
func (l *Loop) handle(msg bus.Message) bool {
	switch m := msg.(type) {
	case bus.Terminate:
		return true
	case bus.Resize:
		l.cols, l.rows = m.Cols, m.Rows
		l.committed = NewBuffer(l.cols, l.rows)
		l.cache.invalidate()
		l.fullRepaint()
	case bus.RedrawApp:
		l.fullRepaint()
	case bus.RedrawMuxBox:
		l.redrawOne(m.ID)
	case bus.MuxBoxOutputUpdate:
		l.redrawOne(m.ID)
	case bus.NextMuxBox, bus.PreviousMuxBox,
		bus.ScrollMuxBoxUp, bus.ScrollMuxBoxDown, bus.ScrollMuxBoxLeft, bus.ScrollMuxBoxRight,
		bus.ScrollMuxBoxPageUp, bus.ScrollMuxBoxPageDown, bus.ScrollMuxBoxPageLeft, bus.ScrollMuxBoxPageRight,
		bus.ScrollMuxBoxToBeginning, bus.ScrollMuxBoxToEnd, bus.ScrollMuxBoxToTop, bus.ScrollMuxBoxToBottom:
		// These mutate AppState elsewhere (boxstate owns selection/scroll
		// state); the render loop just waits for the resulting StateIn to
		// repaint, so no action here beyond letting the switch fall through.
	}
	return false
}

func (l *Loop) fullRepaint() {
	if l.app == nil {
		return
	}
	layout := l.app.ActiveLayout()
	if layout == nil {
		return
	}
	next := NewBuffer(l.cols, l.rows)
	l.paintLayout(next, layout)
	if err := Diff(l.out, l.committed, next); err != nil {
		l.log.Warn("render: diff emit failed", "error", err)
		return
	}
	l.committed = next
}

func (l *Loop) redrawOne(muxboxID string) {
	if l.app == nil {
		return
	}
	layout := l.app.ActiveLayout()
	if layout == nil {
		return
	}
	box := findMuxBox(layout.Children, muxboxID)
	if box == nil {
		return
	}
	table, err := l.cache.get(layout, l.cols, l.rows)
	if err != nil {
		l.log.Warn("render: bounds resolution failed", "error", err)
		return
	}
	rect, ok := table[muxboxID]
	if !ok {
		return
	}
	scratch := l.committed.Clone()
	g := boxstate.Build(l.app)
	paintMuxBox(scratch, box, rect, boxstate.VisualChain(g, l.app, muxboxID))
	if err := Diff(l.out, l.committed, scratch); err != nil {
		l.log.Warn("render: diff emit failed", "error", err)
		return
	}
	l.committed = scratch
}

func (l *Loop) paintLayout(buf *Buffer, layout *boxstate.Layout) {
	table, err := l.cache.get(layout, l.cols, l.rows)
	if err != nil {
		l.log.Warn("render: bounds resolution failed", "error", err)
		return
	}
	g := boxstate.Build(l.app)
	var walk func(boxes []*boxstate.MuxBox)
	walk = func(boxes []*boxstate.MuxBox) {
		for _, box := range boxes {
			rect, ok := table[box.ID]
			if ok {
				paintMuxBox(buf, box, rect, boxstate.VisualChain(g, l.app, box.ID))
			}
			walk(box.Children)
		}
	}
	walk(layout.Children)
}

func findMuxBox(boxes []*boxstate.MuxBox, id string) *boxstate.MuxBox {
	for _, box := range boxes {
		if box.ID == id {
			return box
		}
		if found := findMuxBox(box.Children, id); found != nil {
			return found
		}
	}
	return nil
}
