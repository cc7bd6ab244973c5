package rtupdate

import (
	"context"
	"time"

	"boxmux/internal/bus"
)

// Worker wires a Manager into the bus: every StreamUpdate line is
// appended to its muxbox's buffer, and the Manager's coalesced flushes
// are published as MuxBoxOutputUpdate followed by RedrawMuxBox.
type Worker struct {
	bus.Base
	mgr *Manager
}

// NewWorker builds a bus-connected Worker with the given debounce
// interval (spec.md §4.7; zero uses the Manager's 16ms default).
func NewWorker(debounce time.Duration) *Worker {
	w := &Worker{Base: bus.NewBase(64)}
	w.mgr = New(debounce, 8*1024, w.onFlush)
	return w
}

func (w *Worker) onFlush(muxboxID, content string) {
	w.SendMessage(bus.MuxBoxOutputUpdate{ID: muxboxID, Success: true, Content: content})
	w.SendMessage(bus.RedrawMuxBox{ID: muxboxID})
}

// Run starts the Manager and drains incoming bus messages until
// Terminate or ctx cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.mgr.Start()
	defer w.mgr.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-w.MessageIn():
			switch m := env.Message.(type) {
			case bus.Terminate:
				return nil
			case bus.StreamUpdate:
				w.mgr.Write(m.MuxBoxID, m.Line+"\n")
			case bus.StreamingComplete:
				// Force a final flush of whatever is buffered so the last
				// partial line isn't left waiting out the debounce window.
				w.mgr.RemoveMuxBox(m.MuxBoxID)
			case bus.RemoveMuxBox:
				w.mgr.RemoveMuxBox(m.ID)
			}
		}
	}
}
