// Package yamlsync implements LiveYamlSync (spec.md §4.9): a single
// background writer that batches AppState mutation notifications,
// batched on a count-or-time schedule, and atomically rewrites the
// source configuration file through the full parsed
// boxconfig.Document tree.
package yamlsync

import (
	"context"
	"log/slog"
	"time"

	"boxmux/internal/boxconfig"
	"boxmux/internal/bus"
)

const (
	batchSize     = 10
	batchInterval = 500 * time.Millisecond
)

// Kind tags one mutation notification.
type Kind int

const (
	// KindReplaceState marks a "complete-state replace". applyMutation
	// applies nothing for it and pending mutations are not discarded;
	// every flush reloads the file from disk in any case.
	KindReplaceState Kind = iota
	KindMuxBoxBounds
	KindMuxBoxContent
	KindScrollPosition
	KindActiveLayout
)

// Mutation is one pending change to apply to the parsed document before
// the next flush.
type Mutation struct {
	Kind     Kind
	MuxBoxID string
	LayoutID string

	Position *boxconfig.Position
	Content  string
	HScroll  float64
	VScroll  float64
}

// Sink accepts mutation notifications. NoopSink (returned when sync is
// disabled) silently discards them.
type Sink interface {
	Notify(m Mutation)
	Close() error
}

type noopSink struct{}

func (noopSink) Notify(Mutation)  {}
func (noopSink) Close() error    { return nil }

// Writer is the background writer thread: it owns the configuration
// file for the process lifetime. The companion single-instance lock
// (spec.md §4.9 "Lock-file acquisition happens at construction") is
// acquired once by cmd/boxmux at process startup rather than re-acquired
// here, since the underlying named-mutex/lockfile primitive in
// internal/singleinstance guards one process against another, not one
// subsystem against a sibling in the same process; a second in-process
// TryLock under the same name would self-conflict.
type Writer struct {
	log     *slog.Logger
	path    string
	pending chan Mutation
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New constructs a Writer that owns path. If enabled is false, it
// returns a no-op Sink that discards every mutation, per spec.md §4.9's
// disabled-sync clause.
func New(log *slog.Logger, path string, enabled bool) (Sink, error) {
	if !enabled {
		return noopSink{}, nil
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Writer{
		log:     log,
		path:    path,
		pending: make(chan Mutation, 64),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Notify enqueues a mutation notification; non-blocking, dropping (with
// a log warning) if the pending channel is saturated.
func (w *Writer) Notify(m Mutation) {
	select {
	case w.pending <- m:
	default:
		w.log.Warn("yamlsync: pending mutation queue full, dropping", "kind", m.Kind, "muxbox_id", m.MuxBoxID)
	}
}

// Close flushes any pending mutations (spec.md §4.9 "the lock is
// released on drop, together with a final flush" — the lock release
// itself happens when cmd/boxmux releases the process-wide lock it
// acquired at startup).
func (w *Writer) Close() error {
	close(w.stopCh)
	<-w.doneCh
	return nil
}

func (w *Writer) run() {
	defer close(w.doneCh)
	batch := make([]Mutation, 0, batchSize)
	timer := time.NewTimer(batchInterval)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.applyAndWrite(batch); err != nil {
			w.log.Error("yamlsync: flush failed", "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case m := <-w.pending:
			batch = append(batch, m)
			if len(batch) >= batchSize {
				flush()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(batchInterval)
			}
		case <-timer.C:
			flush()
			timer.Reset(batchInterval)
		case <-w.stopCh:
			for {
				select {
				case m := <-w.pending:
					batch = append(batch, m)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) applyAndWrite(batch []Mutation) error {
	doc, err := boxconfig.Load(w.path)
	if err != nil {
		return err
	}
	for _, m := range batch {
		applyMutation(doc, m)
	}
	return boxconfig.Save(w.path, doc)
}

func applyMutation(doc *boxconfig.Document, m Mutation) {
	switch m.Kind {
	case KindReplaceState:
		// Handled by the caller reloading and re-notifying; nothing to
		// apply against a stale in-memory copy.
	case KindMuxBoxBounds:
		box, err := boxconfig.FindMuxBox(doc, m.MuxBoxID)
		if err != nil || m.Position == nil {
			return
		}
		box.Position = *m.Position
	case KindMuxBoxContent:
		box, err := boxconfig.FindMuxBox(doc, m.MuxBoxID)
		if err != nil {
			return
		}
		box.Content = m.Content
	case KindScrollPosition:
		box, err := boxconfig.FindMuxBox(doc, m.MuxBoxID)
		if err != nil {
			return
		}
		box.HorizontalScroll = m.HScroll
		box.VerticalScroll = m.VScroll
	case KindActiveLayout:
		for i := range doc.App.Layouts {
			doc.App.Layouts[i].Active = doc.App.Layouts[i].ID == m.LayoutID
		}
	}
}

// Worker bridges the bus to a Sink: it translates the bus messages that
// mutate persisted state into Mutation notifications.
type Worker struct {
	bus.Base
	sink Sink
}

// NewWorker builds a bus-connected Worker wrapping sink.
func NewWorker(sink Sink, bufSize int) *Worker {
	return &Worker{Base: bus.NewBase(bufSize), sink: sink}
}

// Run drains MessageIn until Terminate, translating relevant messages
// into Mutation notifications, then closes the sink.
func (w *Worker) Run(ctx context.Context) error {
	defer w.sink.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-w.MessageIn():
			if !ok {
				return nil
			}
			switch m := env.Message.(type) {
			case bus.Terminate:
				return nil
			case bus.MuxBoxOutputUpdate:
				w.sink.Notify(Mutation{Kind: KindMuxBoxContent, MuxBoxID: m.ID, Content: m.Content})
			case bus.SwitchActiveLayout:
				w.sink.Notify(Mutation{Kind: KindActiveLayout, LayoutID: m.ID})
			}
		}
	}
}
