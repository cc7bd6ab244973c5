package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"boxmux/internal/boxstate"
	"boxmux/internal/workerutil"
)

// ThreadManager is the bus of spec.md §4.1: it owns the bus-side endpoint
// of every registered Worker, holds the single authoritative AppState, and
// on each pass drains every worker's outbound channels, sleeping FrameDelay
// only when a pass found nothing to drain. A snapshot is adopted and re-broadcast only when its content
// hash differs from the bus's current one (boxstate.ContentHash); messages
// are always forwarded to every worker except their sender.
type ThreadManager struct {
	log        *slog.Logger
	frameDelay time.Duration

	state     *boxstate.AppState
	stateHash uint64

	workers map[uuid.UUID]busEndpoints
	order   []uuid.UUID // registration order, for deterministic fan-out

	exitRequested bool
}

// New builds a ThreadManager seeded with the initial AppState.
func New(log *slog.Logger, frameDelay time.Duration, initial *boxstate.AppState) *ThreadManager {
	if log == nil {
		log = slog.Default()
	}
	return &ThreadManager{
		log:        log,
		frameDelay: frameDelay,
		state:      initial,
		stateHash:  boxstate.ContentHash(initial),
		workers:    make(map[uuid.UUID]busEndpoints),
	}
}

// Register attaches a Worker to the bus. Must be called before Run.
func (tm *ThreadManager) Register(w Worker) {
	ep := endpointsOf(w)
	tm.workers[ep.id] = ep
	tm.order = append(tm.order, ep.id)
}

// State returns the bus's current authoritative snapshot.
func (tm *ThreadManager) State() *boxstate.AppState { return tm.state }

// Run drives the dispatch loop until ctx is cancelled or an Exit message is
// observed, in which case Terminate is broadcast to every worker before the
// loop returns. It blocks until the loop stops. A panic inside one pass
// (e.g. a worker's channel misuse surfacing here) is recovered and the loop
// restarted with backoff via workerutil, rather than taking the whole bus
// down.
func (tm *ThreadManager) Run(ctx context.Context) {
	var wg sync.WaitGroup
	workerutil.RunWithPanicRecovery(ctx, "bus", &wg, tm.runLoop, workerutil.RecoveryOptions{
		IsShutdown: func() bool { return ctx.Err() != nil },
	})
	wg.Wait()
}

func (tm *ThreadManager) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		active := tm.drainStates()
		active = tm.drainMessages() || active

		if tm.exitRequested {
			tm.broadcastTerminate()
			return
		}

		if !active {
			select {
			case <-ctx.Done():
				return
			case <-time.After(tm.frameDelay):
			}
		}
	}
}

// drainStates pulls at most one pending snapshot per worker per pass and
// adopts+broadcasts it if its content hash changed. Returns whether any
// snapshot was processed.
func (tm *ThreadManager) drainStates() bool {
	did := false
	for _, id := range tm.order {
		ep := tm.workers[id]
		select {
		case env := <-ep.stateOut:
			did = true
			h := boxstate.ContentHash(env.State)
			if h == tm.stateHash {
				continue
			}
			tm.state = env.State
			tm.stateHash = h
			tm.broadcastState(env)
		default:
		}
	}
	return did
}

// drainMessages pulls at most one pending message per worker per pass and
// forwards it to every other registered worker. Observing Exit sets
// tm.exitRequested so Run broadcasts Terminate and stops.
func (tm *ThreadManager) drainMessages() bool {
	did := false
	for _, id := range tm.order {
		ep := tm.workers[id]
		select {
		case env := <-ep.messageOut:
			did = true
			if _, ok := env.Message.(Exit); ok {
				tm.exitRequested = true
				continue
			}
			tm.broadcastMessageExcept(env)
		default:
		}
	}
	return did
}

func (tm *ThreadManager) broadcastState(from StateEnvelope) {
	for _, id := range tm.order {
		if id == from.Sender {
			continue
		}
		ep := tm.workers[id]
		select {
		case ep.stateIn <- from:
		default:
			tm.log.Warn("bus: state channel full, dropping", "worker", id)
		}
	}
}

func (tm *ThreadManager) broadcastMessageExcept(from MessageEnvelope) {
	for _, id := range tm.order {
		if id == from.Sender {
			continue
		}
		ep := tm.workers[id]
		select {
		case ep.messageIn <- from:
		default:
			tm.log.Warn("bus: message channel full, dropping", "worker", id)
		}
	}
}

func (tm *ThreadManager) broadcastTerminate() {
	term := MessageEnvelope{Message: Terminate{}}
	for _, id := range tm.order {
		ep := tm.workers[id]
		select {
		case ep.messageIn <- term:
		default:
		}
	}
}
