package execstream

import (
	"context"
	"testing"
	"time"

	"boxmux/internal/boxstate"
)

func TestRunPipesCollectsLinesAndCompletion(t *testing.T) {
	e := New(16)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go e.Run(ctx, "box1", []string{"echo one", "echo two"}, boxstate.ModeThread)

	var got []string
	for len(got) < 2 {
		select {
		case line := <-e.Lines():
			got = append(got, line.Content)
		case <-ctx.Done():
			t.Fatal("timed out waiting for output lines")
		}
	}
	if got[0] != "one" || got[1] != "two" {
		t.Errorf("got lines %v, want [one two]", got)
	}

	select {
	case c := <-e.Done():
		if !c.Success || c.MuxBoxID != "box1" {
			t.Errorf("unexpected completion: %+v", c)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for completion")
	}
}

func TestRunEmptyScriptCompletesImmediately(t *testing.T) {
	e := New(4)
	ctx := context.Background()
	e.Run(ctx, "box2", nil, boxstate.ModeImmediate)

	select {
	case c := <-e.Done():
		if !c.Success {
			t.Errorf("expected empty script to succeed, got %+v", c)
		}
	default:
		t.Fatal("expected immediate completion for empty script")
	}
}
