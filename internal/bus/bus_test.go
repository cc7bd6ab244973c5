package bus

import (
	"context"
	"testing"
	"time"

	"boxmux/internal/boxstate"
)

type testWorker struct {
	Base
}

func newTestWorker() *testWorker {
	return &testWorker{Base: NewBase(4)}
}

func appWithLiveOutput(content string) *boxstate.AppState {
	return &boxstate.AppState{
		Layouts: []*boxstate.Layout{
			{
				ID:   "main",
				Root: true,
				Children: []*boxstate.MuxBox{
					{ID: "box1", LiveOutput: content},
				},
			},
		},
	}
}

func TestDrainStatesSuppressesUnchangedHash(t *testing.T) {
	initial := appWithLiveOutput("hello")
	tm := New(nil, time.Millisecond, initial)

	w1 := newTestWorker()
	w2 := newTestWorker()
	tm.Register(w1)
	tm.Register(w2)

	// Same content, different pointer: hash matches, must not be adopted.
	w1.stateOut <- StateEnvelope{Sender: w1.ID(), State: appWithLiveOutput("hello")}
	if did := tm.drainStates(); !did {
		t.Fatal("expected drainStates to process the pending snapshot")
	}
	if tm.State() != initial {
		t.Error("unchanged-hash snapshot should not have been adopted")
	}

	select {
	case <-w2.stateIn:
		t.Error("unchanged-hash snapshot should not have been broadcast")
	default:
	}

	// Different content: hash differs, must be adopted and broadcast.
	changed := appWithLiveOutput("world")
	w1.stateOut <- StateEnvelope{Sender: w1.ID(), State: changed}
	tm.drainStates()
	if tm.State() != changed {
		t.Error("changed-hash snapshot should have been adopted")
	}
	select {
	case env := <-w2.stateIn:
		if env.State != changed {
			t.Error("broadcast snapshot does not match adopted state")
		}
	default:
		t.Error("expected changed-hash snapshot to be broadcast to the other worker")
	}

	// Sender must not receive its own broadcast back.
	select {
	case <-w1.stateIn:
		t.Error("sender should not receive its own state broadcast")
	default:
	}
}

func TestDrainMessagesForwardsExceptSender(t *testing.T) {
	tm := New(nil, time.Millisecond, appWithLiveOutput(""))
	w1 := newTestWorker()
	w2 := newTestWorker()
	w3 := newTestWorker()
	tm.Register(w1)
	tm.Register(w2)
	tm.Register(w3)

	w1.messageOut <- MessageEnvelope{Sender: w1.ID(), Message: KeyPress{Key: "j"}}
	tm.drainMessages()

	for _, w := range []*testWorker{w2, w3} {
		select {
		case env := <-w.messageIn:
			if _, ok := env.Message.(KeyPress); !ok {
				t.Errorf("expected KeyPress forwarded, got %T", env.Message)
			}
		default:
			t.Error("expected message forwarded to non-sender worker")
		}
	}
	select {
	case <-w1.messageIn:
		t.Error("sender should not receive its own message back")
	default:
	}
}

func TestExitTriggersTerminateBroadcastAndStop(t *testing.T) {
	tm := New(nil, time.Millisecond, appWithLiveOutput(""))
	w1 := newTestWorker()
	w2 := newTestWorker()
	tm.Register(w1)
	tm.Register(w2)

	w1.messageOut <- MessageEnvelope{Sender: w1.ID(), Message: Exit{}}
	tm.drainMessages()
	if !tm.exitRequested {
		t.Fatal("expected Exit to set exitRequested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		tm.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Run did not return after Exit was observed")
	}

	for _, w := range []*testWorker{w1, w2} {
		select {
		case env := <-w.messageIn:
			if _, ok := env.Message.(Terminate); !ok {
				t.Errorf("expected Terminate broadcast, got %T", env.Message)
			}
		default:
			t.Error("expected Terminate broadcast to every worker")
		}
	}
}
