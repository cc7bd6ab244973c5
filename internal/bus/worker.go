package bus

import (
	"github.com/google/uuid"

	"boxmux/internal/boxstate"
)

// StateEnvelope carries a sender id alongside a full AppState snapshot.
type StateEnvelope struct {
	Sender uuid.UUID
	State  *boxstate.AppState
}

// MessageEnvelope carries a sender id alongside one Message.
type MessageEnvelope struct {
	Sender  uuid.UUID
	Message Message
}

// Worker is implemented by every long-lived activity the bus drives
// (RenderLoop, InputLoop, ResizeLoop, SocketLoop, TaskPool's feeder,
// LiveYamlSync). The bus holds the complementary end of each channel pair
// (spec.md §4.1).
type Worker interface {
	ID() uuid.UUID

	// StateOut/MessageOut are read by the bus; the worker writes to them.
	StateOut() <-chan StateEnvelope
	MessageOut() <-chan MessageEnvelope

	// StateIn/MessageIn are written by the bus; the worker reads from
	// them.
	StateIn() chan<- StateEnvelope
	MessageIn() chan<- MessageEnvelope
}

// Base is embedded by concrete workers to get the channel plumbing and a
// generated id for free, a small-mixin style rather than a parallel
// inheritance hierarchy.
type Base struct {
	id uuid.UUID

	stateOut   chan StateEnvelope
	messageOut chan MessageEnvelope
	stateIn    chan StateEnvelope
	messageIn  chan MessageEnvelope
}

// NewBase constructs a Base with the given channel buffer size.
func NewBase(bufSize int) Base {
	return Base{
		id:         uuid.New(),
		stateOut:   make(chan StateEnvelope, bufSize),
		messageOut: make(chan MessageEnvelope, bufSize),
		stateIn:    make(chan StateEnvelope, bufSize),
		messageIn:  make(chan MessageEnvelope, bufSize),
	}
}

func (b *Base) ID() uuid.UUID                          { return b.id }
func (b *Base) StateOut() <-chan StateEnvelope          { return b.stateOut }
func (b *Base) MessageOut() <-chan MessageEnvelope      { return b.messageOut }
func (b *Base) StateIn() chan<- StateEnvelope           { return b.stateIn }
func (b *Base) MessageIn() chan<- MessageEnvelope       { return b.messageIn }

// SendState publishes a new AppState snapshot to the bus. Send errors
// (receiver dropped / channel closed) are impossible on a buffered
// channel we own until Close, so this never blocks past the buffer; a
// full buffer means the bus is behind and the call blocks, matching the
// at-most-frame-delay cadence of the dispatch loop.
func (b *Base) SendState(state *boxstate.AppState) {
	b.stateOut <- StateEnvelope{Sender: b.id, State: state}
}

// SendMessage publishes one message to the bus for fan-out to every
// other worker.
func (b *Base) SendMessage(msg Message) {
	b.messageOut <- MessageEnvelope{Sender: b.id, Message: msg}
}

// Incoming receives one message addressed to this worker by the bus
// (i.e. broadcast from some other worker), non-blocking.
func (b *Base) Incoming() (MessageEnvelope, bool) {
	select {
	case m := <-b.messageIn:
		return m, true
	default:
		return MessageEnvelope{}, false
	}
}

// IncomingState receives one state update forwarded by the bus,
// non-blocking.
func (b *Base) IncomingState() (StateEnvelope, bool) {
	select {
	case s := <-b.stateIn:
		return s, true
	default:
		return StateEnvelope{}, false
	}
}

// busEndpoints is the bus-side complement of a worker's four channels: the
// bus reads StateOut/MessageOut and writes StateIn/MessageIn.
type busEndpoints struct {
	id         uuid.UUID
	stateOut   <-chan StateEnvelope
	messageOut <-chan MessageEnvelope
	stateIn    chan<- StateEnvelope
	messageIn  chan<- MessageEnvelope
}

func endpointsOf(w Worker) busEndpoints {
	return busEndpoints{
		id:         w.ID(),
		stateOut:   w.StateOut(),
		messageOut: w.MessageOut(),
		stateIn:    w.StateIn(),
		messageIn:  w.MessageIn(),
	}
}
