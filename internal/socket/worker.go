package socket

import (
	"context"
	"log/slog"

	"boxmux/internal/bus"
)

// Worker registers the SocketLoop with the ThreadManager: it embeds
// bus.Base so the Dispatcher it builds can publish straight onto the
// bus, and runs Loop as its Run body.
type Worker struct {
	bus.Base
	loop *Loop
}

// NewWorker builds a socket Worker bound to path, with bufSize applied to
// its bus.Base channels.
func NewWorker(log *slog.Logger, path string, bufSize int) *Worker {
	w := &Worker{Base: bus.NewBase(bufSize)}
	dispatcher := NewDispatcher(func(msg bus.Message) { w.SendMessage(msg) })
	w.loop = NewLoop(log, path, dispatcher)
	return w
}

// Run serves the socket until ctx is cancelled, draining Terminate off
// MessageIn so shutdown doesn't wait on the next accepted connection.
func (w *Worker) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-w.MessageIn():
				if !ok {
					return
				}
				if _, ok := msg.Message.(bus.Terminate); ok {
					cancel()
					return
				}
			}
		}
	}()

	return w.loop.Run(runCtx)
}
