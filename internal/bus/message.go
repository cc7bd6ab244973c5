// Package bus implements the ThreadManager of spec.md §4.1: a broadcast
// medium connecting a fixed set of worker activities, each holding a pair
// of channels carrying (sender-id, AppState) and (sender-id, Message) in
// both directions.
package bus

import (
	"github.com/google/uuid"

	"boxmux/internal/boxstate"
)

// Message is the exhaustive taxonomy of spec.md §4.1. It is a sealed
// interface: sealed() is unexported so only this package can add variants,
// giving callers a closed set to switch over.
type Message interface {
	sealed()
}

type baseMessage struct{}

func (baseMessage) sealed() {}

type (
	Exit struct{ baseMessage }
	Terminate struct{ baseMessage }
	Pause struct{ baseMessage }
	Continue struct{ baseMessage }

	NextMuxBox     struct{ baseMessage }
	PreviousMuxBox struct{ baseMessage }

	ScrollMuxBoxDown      struct{ baseMessage; Amount float64 }
	ScrollMuxBoxUp        struct{ baseMessage; Amount float64 }
	ScrollMuxBoxLeft      struct{ baseMessage; Amount float64 }
	ScrollMuxBoxRight     struct{ baseMessage; Amount float64 }
	ScrollMuxBoxPageUp    struct{ baseMessage }
	ScrollMuxBoxPageDown  struct{ baseMessage }
	ScrollMuxBoxPageLeft  struct{ baseMessage }
	ScrollMuxBoxPageRight struct{ baseMessage }
	ScrollMuxBoxToBeginning struct{ baseMessage }
	ScrollMuxBoxToEnd       struct{ baseMessage }
	ScrollMuxBoxToTop       struct{ baseMessage }
	ScrollMuxBoxToBottom    struct{ baseMessage }

	Resize struct{ baseMessage; Cols, Rows int }

	RedrawMuxBox struct{ baseMessage; ID string }
	RedrawApp    struct{ baseMessage }

	MuxBoxOutputUpdate struct {
		baseMessage
		ID      string
		Success bool
		Content string
	}
	MuxBoxScriptUpdate struct {
		baseMessage
		ID     string
		Script []string
	}
	StopMuxBoxRefresh  struct{ baseMessage; ID string }
	StartMuxBoxRefresh struct{ baseMessage; ID string }

	ReplaceMuxBox struct {
		baseMessage
		ID  string
		New *boxstate.MuxBox
	}
	AddMuxBox struct {
		baseMessage
		LayoutID string
		Box      *boxstate.MuxBox
	}
	RemoveMuxBox struct{ baseMessage; ID string }

	SwitchActiveLayout struct{ baseMessage; ID string }

	MouseClick struct{ baseMessage; Col, Row int }

	CopyFocusedMuxBoxContent struct{ baseMessage }

	KeyPress struct{ baseMessage; Key string }

	ExecuteHotKeyChoice struct{ baseMessage; ChoiceID string }

	ExecuteScript struct {
		baseMessage
		MuxBoxID      string
		Script        []string
		ExecutionMode boxstate.ExecutionMode
		RedirectTo    string
		AppendOutput  bool
	}

	StreamUpdate struct {
		baseMessage
		MuxBoxID string
		Line     string
		IsStderr bool
		Sequence uint64
	}
	StreamingComplete struct {
		baseMessage
		MuxBoxID string
		Success  bool
	}
	StreamingStatusUpdate struct {
		baseMessage
		MuxBoxID string
		Status   string
	}

	ExternalMessage struct{ baseMessage; Raw []byte }

	// PauseWorker/ResumeWorker are addressed to a single worker, unlike the
	// broadcast Pause/Continue. Supplemented from original_source, which
	// the distilled spec.md folded into the broadcast-only pair. No
	// component in this tree sends or handles them.
	PauseWorker  struct{ baseMessage; WorkerID uuid.UUID }
	ResumeWorker struct{ baseMessage; WorkerID uuid.UUID }
)
