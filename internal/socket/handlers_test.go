package socket

import (
	"testing"

	"boxmux/internal/bus"
)

func TestReplaceMuxboxContentPublishesUpdateAndClearsError(t *testing.T) {
	var got []bus.Message
	d := NewDispatcher(func(m bus.Message) { got = append(got, m) })

	resp := d.Handle(Request{
		Command: "replace-muxbox-content",
		Args: map[string]any{
			"muxbox_id": "panel1",
			"success":   true,
			"content":   "hello",
		},
	})
	if !resp.OK {
		t.Fatalf("Handle() = %+v, want OK", resp)
	}
	if len(got) != 1 {
		t.Fatalf("published %d messages, want 1", len(got))
	}
	update, ok := got[0].(bus.MuxBoxOutputUpdate)
	if !ok {
		t.Fatalf("published %T, want bus.MuxBoxOutputUpdate", got[0])
	}
	want := bus.MuxBoxOutputUpdate{ID: "panel1", Success: true, Content: "hello"}
	if update != want {
		t.Fatalf("published %+v, want %+v", update, want)
	}
}

func TestMissingRequiredArgumentIsValidationError(t *testing.T) {
	var called bool
	d := NewDispatcher(func(bus.Message) { called = true })

	resp := d.Handle(Request{Command: "stop-muxbox-refresh", Args: map[string]any{}})
	if resp.OK {
		t.Fatalf("Handle() with missing muxbox_id = OK, want validation error")
	}
	if resp.Error == "" {
		t.Fatalf("Handle() validation error message is empty")
	}
	if called {
		t.Fatalf("publish was called despite validation failure")
	}
}

func TestUnknownCommandIsRejected(t *testing.T) {
	d := NewDispatcher(func(bus.Message) {})
	resp := d.Handle(Request{Command: "not-a-real-command"})
	if resp.OK {
		t.Fatalf("Handle(unknown command) = OK, want error")
	}
}

func TestAddMuxboxRequiresLayoutAndMuxbox(t *testing.T) {
	var got bus.Message
	d := NewDispatcher(func(m bus.Message) { got = m })

	resp := d.Handle(Request{
		Command: "add-muxbox",
		Args: map[string]any{
			"layout_id": "main",
			"muxbox": map[string]any{
				"id":    "panel2",
				"title": "Logs",
			},
		},
	})
	if !resp.OK {
		t.Fatalf("Handle() = %+v, want OK", resp)
	}
	add, ok := got.(bus.AddMuxBox)
	if !ok {
		t.Fatalf("published %T, want bus.AddMuxBox", got)
	}
	if add.LayoutID != "main" || add.Box == nil || add.Box.ID != "panel2" {
		t.Fatalf("AddMuxBox = %+v, want layout main / box id panel2", add)
	}
}

func TestAddMuxboxRejectsMalformedDefinition(t *testing.T) {
	d := NewDispatcher(func(bus.Message) {})
	resp := d.Handle(Request{
		Command: "add-muxbox",
		Args: map[string]any{
			"layout_id": "main",
			"muxbox":    map[string]any{"title": "missing id"},
		},
	})
	if resp.OK {
		t.Fatalf("Handle() with missing muxbox.id = OK, want validation error")
	}
}
